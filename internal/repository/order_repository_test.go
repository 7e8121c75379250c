package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/lodge-operations/internal/model"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var orderRowCols = []string{
	"id", "reservation_id", "order_type", "total_amount", "status",
	"delivery_time", "note", "created_at", "updated_at",
}

var orderItemCols = []string{"order_id", "item_id", "name", "quantity", "unit_price"}

// Every order in a multi-row listing must come back with its own line
// items, including the rows scanned before the result slice last grew.
func TestListByReservationKeepsItemsOnEveryRow(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewOrderRepo(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE reservation_id = \? ORDER BY id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(orderRowCols).
			AddRow(2, 7, model.OrderTypeFire, 9000, model.OrderPending, nil, nil, now, now).
			AddRow(1, 7, model.OrderTypeBBQ, 30000, model.OrderCompleted, nil, nil, now, now))
	mock.ExpectQuery(`SELECT order_id, item_id, name, quantity, unit_price FROM order_items`).
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows(orderItemCols).
			AddRow(1, "bbq-set-1", "Pork belly set", 2, 15000).
			AddRow(2, "firewood", "Firewood bundle", 1, 9000))

	got, err := repo.ListByReservation(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListByReservation: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, o := range got {
		if len(o.Items) != 1 {
			t.Fatalf("order %d has %d items, want 1", o.ID, len(o.Items))
		}
	}
	if got[0].Items[0].ItemID != "firewood" || got[1].Items[0].ItemID != "bbq-set-1" {
		t.Fatalf("items attached to the wrong orders: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestOrderListKeepsItemsOnEveryRow(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewOrderRepo(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE 1=1 ORDER BY id DESC LIMIT \? OFFSET \?`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(orderRowCols).
			AddRow(3, 9, model.OrderTypeKiosk, 4000, model.OrderPending, nil, nil, now, now).
			AddRow(2, 8, model.OrderTypeFire, 9000, model.OrderDelivering, nil, nil, now, now).
			AddRow(1, 7, model.OrderTypeBBQ, 30000, model.OrderCompleted, nil, nil, now, now))
	mock.ExpectQuery(`SELECT order_id, item_id, name, quantity, unit_price FROM order_items`).
		WithArgs(int64(3), int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows(orderItemCols).
			AddRow(1, "bbq-set-1", "Pork belly set", 2, 15000).
			AddRow(2, "firewood", "Firewood bundle", 1, 9000).
			AddRow(3, "cup-noodle", "Cup noodle", 4, 1000))

	got, total, err := repo.List(context.Background(), OrderFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(got) != 3 {
		t.Fatalf("total = %d len = %d, want 3 and 3", total, len(got))
	}
	for _, o := range got {
		if len(o.Items) != 1 {
			t.Fatalf("order %d has %d items, want 1", o.ID, len(o.Items))
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// The conditional update reports the status the row held under lock,
// which is what status-change events carry as old_status.
func TestOrderUpdateStatusIfReturnsLockedStatus(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.OrderPreparing))
	mock.ExpectExec(`UPDATE orders SET status = \? WHERE id = \?`).
		WithArgs(model.OrderDelivering, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	old, ok, err := repo.UpdateStatusIf(context.Background(), 5, model.OrderDelivering,
		[]string{model.OrderPending, model.OrderPreparing})
	if err != nil {
		t.Fatalf("UpdateStatusIf: %v", err)
	}
	if !ok || old != model.OrderPreparing {
		t.Fatalf("ok = %v old = %q, want true and %q", ok, old, model.OrderPreparing)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestOrderUpdateStatusIfRollsBackOnMismatch(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM orders WHERE id = \? FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.OrderCompleted))
	mock.ExpectRollback()

	old, ok, err := repo.UpdateStatusIf(context.Background(), 5, model.OrderDelivering,
		[]string{model.OrderPending, model.OrderPreparing})
	if err != nil {
		t.Fatalf("UpdateStatusIf: %v", err)
	}
	if ok || old != "" {
		t.Fatalf("ok = %v old = %q, want false and empty", ok, old)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
