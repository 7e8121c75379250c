package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
)

// ReservationStore is the persistence contract the reservation engine
// and the guest resolver run against.  Lookups return
// repository.ErrNotFound when no row matches.  The conditional update
// methods perform the status check and the write in one atomic
// statement and report false when zero rows matched, which the engine
// surfaces as ErrInvalidTransition (or ErrNotFound when the row is
// gone).  This is what keeps two concurrent transitions from both
// succeeding off a stale status.
type ReservationStore interface {
	ByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ByExternalNumber(ctx context.Context, number string) (*model.Reservation, error)
	ByGuestToken(ctx context.Context, token string) (*model.Reservation, error)

	Create(ctx context.Context, r *model.Reservation) error

	// UpdateBookingFields overwrites the guest/product/amount fields
	// on repeated imports of the same booking, leaving status, room
	// and token untouched.
	UpdateBookingFields(ctx context.Context, id uint64, guestName, phone string,
		checkIn, checkOut time.Time, product string, amount int64, options []model.StayOption) error

	// Assign sets the room, contact phone and ASSIGNED status, and
	// installs the guest token only when none is present yet, iff the
	// current status is in from.
	Assign(ctx context.Context, id uint64, room, phone, token string, from []string) (bool, error)

	// UpdateStatusIf moves the reservation to target iff the current
	// status is in from.
	UpdateStatusIf(ctx context.Context, id uint64, target string, from []string) (bool, error)

	// CompleteCheckOut moves to CHECKED_OUT and stores the opaque
	// checklist payload in the same statement.
	CompleteCheckOut(ctx context.Context, id uint64, checklist json.RawMessage, from []string) (bool, error)

	// CountOverlapping counts non-cancelled reservations other than
	// excludeID assigned to room whose stay overlaps [checkIn,
	// checkOut) under the half-open interval test.
	CountOverlapping(ctx context.Context, room string, checkIn, checkOut time.Time, excludeID uint64) (int, error)
}

// OrderStore is the persistence contract for the order engine.  Same
// conventions as ReservationStore, except that UpdateStatusIf also
// returns the status the order held at the moment of the write so the
// published (old, new) pair is exact even when a concurrent writer
// moved the order between the engine's read and the update.
type OrderStore interface {
	ByID(ctx context.Context, id uint64) (*model.Order, error)
	Create(ctx context.Context, o *model.Order) error
	UpdateStatusIf(ctx context.Context, id uint64, target string, from []string) (string, bool, error)
}

// EventPublisher is the hub seam.  Engines publish after a successful
// commit; the call never blocks and never fails.  *hub.Hub satisfies
// this; tests substitute a recorder.
type EventPublisher interface {
	Publish(audience string, event hub.Event)
}
