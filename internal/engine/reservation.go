package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
	"github.com/iliyamo/lodge-operations/internal/utils"
)

// phonePattern accepts Korean mobile/landline style numbers such as
// 010-1111-2222 or 02-123-4567.
var phonePattern = regexp.MustCompile(`^0\d{1,2}-\d{3,4}-\d{4}$`)

// Event types emitted by the reservation engine.
const (
	EventReservationAssigned  = "reservation_assigned"
	EventReservationCancelled = "reservation_cancelled"
	EventGuestCheckedIn       = "guest_checked_in"
	EventGuestCheckedOut      = "guest_checked_out"
)

// ReservationEvent is the payload published for reservation lifecycle
// events.
type ReservationEvent struct {
	ReservationID  uint64  `json:"reservation_id"`
	ExternalNumber string  `json:"external_number"`
	GuestName      string  `json:"guest_name"`
	Status         string  `json:"status"`
	AssignedRoom   *string `json:"assigned_room,omitempty"`
}

// BookingInput carries the fields accepted from an external booking
// import or a manual creation.
type BookingInput struct {
	ExternalNumber string
	GuestName      string
	Phone          string
	CheckIn        time.Time
	CheckOut       time.Time
	Product        string
	Amount         int64
	Options        []model.StayOption
}

// ReservationEngine enforces the reservation state machine and the
// room-assignment invariants.  Every mutation is a single conditional
// store update followed by a best-effort hub publish.
type ReservationEngine struct {
	store ReservationStore
	hub   EventPublisher
}

// NewReservationEngine returns an engine over the given store and
// publisher.  Both must be non-nil.
func NewReservationEngine(store ReservationStore, pub EventPublisher) *ReservationEngine {
	if store == nil || pub == nil {
		panic("nil dependency passed to NewReservationEngine")
	}
	return &ReservationEngine{store: store, hub: pub}
}

// CreateOrUpsert creates a reservation with status PENDING, or, when a
// reservation with the same external number already exists, overwrites
// its guest/product/amount fields and leaves status and assignment
// untouched.  Repeated imports of the same booking therefore converge
// on a single row that keeps its id and lifecycle position.
func (e *ReservationEngine) CreateOrUpsert(ctx context.Context, in BookingInput) (*model.Reservation, error) {
	in.ExternalNumber = strings.TrimSpace(in.ExternalNumber)
	in.GuestName = strings.TrimSpace(in.GuestName)
	if in.ExternalNumber == "" {
		return nil, fmt.Errorf("%w: external number is required", ErrValidation)
	}
	if in.GuestName == "" {
		return nil, fmt.Errorf("%w: guest name is required", ErrValidation)
	}
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() || !in.CheckOut.After(in.CheckIn) {
		return nil, fmt.Errorf("%w: checkout must be after checkin", ErrValidation)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	for _, opt := range in.Options {
		if strings.TrimSpace(opt.Name) == "" || opt.Price < 0 {
			return nil, fmt.Errorf("%w: invalid add-on option", ErrValidation)
		}
	}

	existing, err := e.store.ByExternalNumber(ctx, in.ExternalNumber)
	switch {
	case err == nil:
		if err := e.store.UpdateBookingFields(ctx, existing.ID, in.GuestName, in.Phone,
			in.CheckIn, in.CheckOut, in.Product, in.Amount, in.Options); err != nil {
			return nil, err
		}
		return e.store.ByID(ctx, existing.ID)
	case errors.Is(err, repository.ErrNotFound):
		r := &model.Reservation{
			ExternalNumber: in.ExternalNumber,
			GuestName:      in.GuestName,
			Phone:          in.Phone,
			CheckIn:        in.CheckIn,
			CheckOut:       in.CheckOut,
			Product:        in.Product,
			Amount:         in.Amount,
			Status:         model.ReservationPending,
			Options:        in.Options,
		}
		if err := e.store.Create(ctx, r); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, fmt.Errorf("%w: external number %s", ErrConflict, in.ExternalNumber)
			}
			return nil, err
		}
		return r, nil
	default:
		return nil, err
	}
}

// AssignRoom assigns (or re-assigns) a room to a reservation and moves
// it to ASSIGNED.  The first assignment generates the guest token; the
// token is never regenerated afterwards, so a re-assignment keeps the
// guest's portal link valid.  Double-booking the room for overlapping
// dates is not rejected here; callers are expected to consult
// IsRoomFreeForStay first and conflicts remain advisory.
func (e *ReservationEngine) AssignRoom(ctx context.Context, id uint64, roomName, phone string) (*model.Reservation, error) {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}
	if !phonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: phone must look like 010-1234-5678", ErrValidation)
	}

	current, err := e.store.ByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	token := ""
	if current.GuestToken == nil {
		token, err = utils.NewGuestToken()
		if err != nil {
			return nil, err
		}
	}

	from := []string{model.ReservationPending, model.ReservationAssigned}
	ok, err := e.store.Assign(ctx, id, roomName, phone, token, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.transitionFailure(ctx, id, model.ReservationAssigned)
	}

	updated, err := e.store.ByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	e.hub.Publish(hub.AdminBroadcast, hub.Event{Type: EventReservationAssigned, Data: eventFor(updated)})
	return updated, nil
}

// CheckIn moves an ASSIGNED reservation to CHECKED_IN.  An unassigned
// reservation cannot check in.
func (e *ReservationEngine) CheckIn(ctx context.Context, id uint64) (*model.Reservation, error) {
	return e.transition(ctx, id, model.ReservationCheckedIn,
		[]string{model.ReservationAssigned}, EventGuestCheckedIn)
}

// CheckOut moves a CHECKED_IN reservation to CHECKED_OUT and stores
// the checkout checklist payload verbatim.  The payload is opaque to
// the engine.
func (e *ReservationEngine) CheckOut(ctx context.Context, id uint64, checklist json.RawMessage) (*model.Reservation, error) {
	ok, err := e.store.CompleteCheckOut(ctx, id, checklist, []string{model.ReservationCheckedIn})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.transitionFailure(ctx, id, model.ReservationCheckedOut)
	}
	updated, err := e.store.ByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	e.hub.Publish(hub.AdminBroadcast, hub.Event{Type: EventGuestCheckedOut, Data: eventFor(updated)})
	return updated, nil
}

// Cancel moves a reservation to CANCELLED from any state except
// CHECKED_OUT.  The assigned room field is kept as a historical
// record; the derived-occupancy queries ignore cancelled reservations.
func (e *ReservationEngine) Cancel(ctx context.Context, id uint64) (*model.Reservation, error) {
	from := []string{model.ReservationPending, model.ReservationAssigned, model.ReservationCheckedIn}
	return e.transition(ctx, id, model.ReservationCancelled, from, EventReservationCancelled)
}

// TransitionStatus dispatches a named target status onto the specific
// operations.  ASSIGNED is only reachable through AssignRoom because
// it needs a room; requesting it here is a validation error, as is any
// unknown status.
func (e *ReservationEngine) TransitionStatus(ctx context.Context, id uint64, target string) (*model.Reservation, error) {
	switch target {
	case model.ReservationCheckedIn:
		return e.CheckIn(ctx, id)
	case model.ReservationCheckedOut:
		return e.CheckOut(ctx, id, nil)
	case model.ReservationCancelled:
		return e.Cancel(ctx, id)
	case model.ReservationAssigned:
		return nil, fmt.Errorf("%w: use room assignment to reach ASSIGNED", ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}
}

// IsRoomFreeForStay reports whether the room has no other
// non-cancelled reservation overlapping [checkIn, checkOut), excluding
// excludeID.  Overlap uses the standard half-open test
// start1 < end2 && start2 < end1.
func (e *ReservationEngine) IsRoomFreeForStay(ctx context.Context, roomName string, checkIn, checkOut time.Time, excludeID uint64) (bool, error) {
	if strings.TrimSpace(roomName) == "" {
		return false, fmt.Errorf("%w: room name is required", ErrValidation)
	}
	if !checkOut.After(checkIn) {
		return false, fmt.Errorf("%w: checkout must be after checkin", ErrValidation)
	}
	n, err := e.store.CountOverlapping(ctx, roomName, checkIn, checkOut, excludeID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// transition performs a conditional status update and publishes the
// given event type on success.
func (e *ReservationEngine) transition(ctx context.Context, id uint64, target string, from []string, eventType string) (*model.Reservation, error) {
	ok, err := e.store.UpdateStatusIf(ctx, id, target, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.transitionFailure(ctx, id, target)
	}
	updated, err := e.store.ByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	e.hub.Publish(hub.AdminBroadcast, hub.Event{Type: eventType, Data: eventFor(updated)})
	return updated, nil
}

// transitionFailure distinguishes a missing row from a state-machine
// rejection after a conditional update matched zero rows.
func (e *ReservationEngine) transitionFailure(ctx context.Context, id uint64, target string) error {
	current, err := e.store.ByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: reservation %d", ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
}

func mapLookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: reservation", ErrNotFound)
	}
	return err
}

func eventFor(r *model.Reservation) ReservationEvent {
	return ReservationEvent{
		ReservationID:  r.ID,
		ExternalNumber: r.ExternalNumber,
		GuestName:      r.GuestName,
		Status:         r.Status,
		AssignedRoom:   r.AssignedRoom,
	}
}
