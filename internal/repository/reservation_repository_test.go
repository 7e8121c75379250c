package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/lodge-operations/internal/model"
)

var reservationRowCols = []string{
	"id", "external_number", "guest_name", "phone", "check_in", "check_out",
	"product", "amount", "assigned_room", "status", "guest_token",
	"checkout_checklist", "created_at", "updated_at",
}

// Every reservation in a multi-row listing must come back with its own
// add-on options, including the rows scanned before the result slice
// last grew.
func TestReservationListKeepsOptionsOnEveryRow(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewReservationRepo(db)
	now := time.Now()
	in := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	out := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE 1=1 ORDER BY check_in DESC, id DESC LIMIT \? OFFSET \?`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(reservationRowCols).
			AddRow(2, "R-200", "Kim", "010-2", in, out, "Deluxe", 180000, nil, model.ReservationPending, nil, nil, now, now).
			AddRow(1, "R-100", "Lee", "010-1", in, out, "Standard", 120000, "A-1", model.ReservationAssigned, "tok", nil, now, now))
	mock.ExpectQuery(`SELECT reservation_id, name, price FROM reservation_options`).
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "name", "price"}).
			AddRow(1, "Late checkout", 20000).
			AddRow(2, "Extra bedding", 10000))

	got, total, err := repo.List(context.Background(), ReservationFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total = %d len = %d, want 2 and 2", total, len(got))
	}
	for _, res := range got {
		if len(res.Options) != 1 {
			t.Fatalf("reservation %d has %d options, want 1", res.ID, len(res.Options))
		}
	}
	if got[0].Options[0].Name != "Extra bedding" || got[1].Options[0].Name != "Late checkout" {
		t.Fatalf("options attached to the wrong reservations: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
