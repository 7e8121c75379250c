package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// Event types emitted by the order engine.
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderCancelled     = "order_cancelled"
)

// OrderEvent is the payload published for order lifecycle events.  Old
// is empty for order_created.
type OrderEvent struct {
	OrderID       uint64 `json:"order_id"`
	ReservationID uint64 `json:"reservation_id"`
	Type          string `json:"order_type"`
	OldStatus     string `json:"old_status,omitempty"`
	NewStatus     string `json:"new_status"`
	TotalAmount   int64  `json:"total_amount"`
}

// orderRank orders the progress states.  A transition between line
// states is legal iff it moves strictly forward; skipping ahead (for
// example PENDING straight to COMPLETED) is allowed, moving backward
// is not.  CANCELLED sits outside the line and is reachable from any
// non-terminal state.
var orderRank = map[string]int{
	model.OrderPending:    0,
	model.OrderPreparing:  1,
	model.OrderDelivering: 2,
	model.OrderCompleted:  3,
}

// OrderInput carries the fields accepted from a guest placing an
// order.
type OrderInput struct {
	ReservationID uint64
	Type          string
	Items         []model.OrderItem
	TotalAmount   int64
	DeliveryTime  *string
	Note          *string
}

// OrderEngine enforces the order state machine scoped to a
// reservation.
type OrderEngine struct {
	orders       OrderStore
	reservations ReservationStore
	hub          EventPublisher
}

// NewOrderEngine returns an engine over the given stores and
// publisher.  All dependencies must be non-nil.
func NewOrderEngine(orders OrderStore, reservations ReservationStore, pub EventPublisher) *OrderEngine {
	if orders == nil || reservations == nil || pub == nil {
		panic("nil dependency passed to NewOrderEngine")
	}
	return &OrderEngine{orders: orders, reservations: reservations, hub: pub}
}

// Create places a new order with status PENDING on behalf of a guest.
// The owning reservation must exist and not be cancelled.  TotalAmount
// is trusted from the caller; only non-negativity is validated.
func (e *OrderEngine) Create(ctx context.Context, in OrderInput) (*model.Order, error) {
	switch in.Type {
	case model.OrderTypeBBQ, model.OrderTypeFire, model.OrderTypeKiosk:
	default:
		return nil, fmt.Errorf("%w: unknown order type %q", ErrValidation, in.Type)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: item name is required", ErrValidation)
		}
		if item.Quantity == 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item price must not be negative", ErrValidation)
		}
	}
	if in.TotalAmount < 0 {
		return nil, fmt.Errorf("%w: total amount must not be negative", ErrValidation)
	}

	res, err := e.reservations.ByID(ctx, in.ReservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: reservation %d", ErrNotFound, in.ReservationID)
		}
		return nil, err
	}
	if res.Status == model.ReservationCancelled {
		return nil, fmt.Errorf("%w: reservation is cancelled", ErrValidation)
	}

	o := &model.Order{
		ReservationID: in.ReservationID,
		Type:          in.Type,
		Items:         in.Items,
		TotalAmount:   in.TotalAmount,
		Status:        model.OrderPending,
		DeliveryTime:  in.DeliveryTime,
		Note:          in.Note,
	}
	if err := e.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	payload := orderEventFor(o, "")
	ev := hub.Event{Type: EventOrderCreated, Data: payload}
	e.hub.Publish(hub.ReservationAudience(o.ReservationID), ev)
	e.hub.Publish(hub.AdminBroadcast, ev)
	return o, nil
}

// TransitionStatus moves an order to target under the forward-only
// rule.  An illegal move mutates nothing and publishes nothing.  On
// success it publishes order_status_changed, or order_cancelled when
// the target is CANCELLED, to the owning reservation's audience and
// the admin broadcast.
func (e *OrderEngine) TransitionStatus(ctx context.Context, id uint64, target string) (*model.Order, error) {
	if target != model.OrderCancelled {
		if _, ok := orderRank[target]; !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
		}
	}

	current, err := e.orders.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}

	from := orderPredecessors(target)
	if len(from) == 0 {
		// Nothing may move back to PENDING.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}

	// The store reports the status the order held when the write
	// landed; the read above is only for existence and error text.
	oldStatus, ok, err := e.orders.UpdateStatusIf(ctx, id, target, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Either a concurrent writer moved the order first or the
		// request was illegal to begin with; both read the same way.
		latest, err := e.orders.ByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, latest.Status, target)
	}

	updated, err := e.orders.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eventType := EventOrderStatusChanged
	if target == model.OrderCancelled {
		eventType = EventOrderCancelled
	}
	ev := hub.Event{Type: eventType, Data: orderEventFor(updated, oldStatus)}
	e.hub.Publish(hub.ReservationAudience(updated.ReservationID), ev)
	e.hub.Publish(hub.AdminBroadcast, ev)
	return updated, nil
}

// orderPredecessors returns the set of statuses from which target is
// legally reachable.  The target is assumed valid; PENDING yields an
// empty set because nothing may move back to it.
func orderPredecessors(target string) []string {
	if target == model.OrderCancelled {
		return []string{model.OrderPending, model.OrderPreparing, model.OrderDelivering}
	}
	rank := orderRank[target]
	var from []string
	for status, r := range orderRank {
		if r < rank {
			from = append(from, status)
		}
	}
	return from
}

func orderEventFor(o *model.Order, oldStatus string) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		ReservationID: o.ReservationID,
		Type:          o.Type,
		OldStatus:     oldStatus,
		NewStatus:     o.Status,
		TotalAmount:   o.TotalAmount,
	}
}
