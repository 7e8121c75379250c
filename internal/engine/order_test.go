package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
)

func newOrderFixture(t *testing.T) (*OrderEngine, *fakeOrderStore, *fakeReservationStore, *publishRecorder) {
	t.Helper()
	orders := newFakeOrderStore()
	reservations := newFakeReservationStore()
	rec := &publishRecorder{}
	return NewOrderEngine(orders, reservations, rec), orders, reservations, rec
}

func validOrder(reservationID uint64) OrderInput {
	return OrderInput{
		ReservationID: reservationID,
		Type:          model.OrderTypeBBQ,
		Items:         []model.OrderItem{{ItemID: "bbq-set-1", Name: "Pork belly set", Quantity: 2, UnitPrice: 15000}},
		TotalAmount:   30000,
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()
	eng, _, reservations, _ := newOrderFixture(t)
	res := reservations.seed(model.Reservation{ExternalNumber: "R-1", GuestName: "g", Status: model.ReservationCheckedIn})

	tests := []struct {
		name   string
		mutate func(*OrderInput)
		want   error
	}{
		{"unknown type", func(in *OrderInput) { in.Type = "SPA" }, ErrValidation},
		{"no items", func(in *OrderInput) { in.Items = nil }, ErrValidation},
		{"blank item name", func(in *OrderInput) { in.Items[0].Name = " " }, ErrValidation},
		{"zero quantity", func(in *OrderInput) { in.Items[0].Quantity = 0 }, ErrValidation},
		{"negative price", func(in *OrderInput) { in.Items[0].UnitPrice = -1 }, ErrValidation},
		{"negative total", func(in *OrderInput) { in.TotalAmount = -1 }, ErrValidation},
		{"missing reservation", func(in *OrderInput) { in.ReservationID = 999 }, ErrNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validOrder(res.ID)
			tt.mutate(&in)
			_, err := eng.Create(context.Background(), in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateOrderOnCancelledReservation(t *testing.T) {
	t.Parallel()
	eng, _, reservations, _ := newOrderFixture(t)
	res := reservations.seed(model.Reservation{ExternalNumber: "R-2", GuestName: "g", Status: model.ReservationCancelled})

	_, err := eng.Create(context.Background(), validOrder(res.ID))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateOrderPublishesToBothAudiences(t *testing.T) {
	t.Parallel()
	eng, _, reservations, rec := newOrderFixture(t)
	res := reservations.seed(model.Reservation{ExternalNumber: "R-3", GuestName: "g", Status: model.ReservationCheckedIn})

	o, err := eng.Create(context.Background(), validOrder(res.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != model.OrderPending {
		t.Fatalf("status = %q, want %q", o.Status, model.OrderPending)
	}

	for _, audience := range []string{hub.ReservationAudience(res.ID), hub.AdminBroadcast} {
		events := rec.on(audience)
		if len(events) != 1 || events[0].Type != EventOrderCreated {
			t.Fatalf("audience %s: events = %+v, want one %s", audience, events, EventOrderCreated)
		}
	}
}

func TestOrderTransitionsForward(t *testing.T) {
	t.Parallel()
	eng, orders, _, _ := newOrderFixture(t)
	ctx := context.Background()
	o := orders.seed(model.Order{ReservationID: 1, Type: model.OrderTypeBBQ, Status: model.OrderPending})

	for _, target := range []string{model.OrderPreparing, model.OrderDelivering, model.OrderCompleted} {
		got, err := eng.TransitionStatus(ctx, o.ID, target)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if got.Status != target {
			t.Fatalf("status = %q, want %q", got.Status, target)
		}
	}
}

// Skipping ahead on the line is legal: a kiosk order can go straight
// from pending to completed.
func TestOrderSkipAheadAccepted(t *testing.T) {
	t.Parallel()
	eng, orders, _, _ := newOrderFixture(t)
	o := orders.seed(model.Order{ReservationID: 1, Type: model.OrderTypeKiosk, Status: model.OrderPending})

	got, err := eng.TransitionStatus(context.Background(), o.ID, model.OrderCompleted)
	if err != nil {
		t.Fatalf("pending -> completed: %v", err)
	}
	if got.Status != model.OrderCompleted {
		t.Fatalf("status = %q, want %q", got.Status, model.OrderCompleted)
	}
}

func TestOrderIllegalTransitions(t *testing.T) {
	t.Parallel()
	eng, orders, _, rec := newOrderFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		from   string
		target string
	}{
		{"backward to preparing", model.OrderDelivering, model.OrderPreparing},
		{"backward to pending", model.OrderPreparing, model.OrderPending},
		{"self transition", model.OrderPreparing, model.OrderPreparing},
		{"out of completed", model.OrderCompleted, model.OrderDelivering},
		{"cancel completed", model.OrderCompleted, model.OrderCancelled},
		{"out of cancelled", model.OrderCancelled, model.OrderPreparing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := orders.seed(model.Order{ReservationID: 1, Type: model.OrderTypeFire, Status: tt.from})
			_, err := eng.TransitionStatus(ctx, o.ID, tt.target)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}
			after, err := orders.ByID(ctx, o.ID)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if after.Status != tt.from {
				t.Fatalf("illegal move mutated status to %q", after.Status)
			}
		})
	}
	if len(rec.all()) != 0 {
		t.Fatal("illegal moves must not publish")
	}
}

func TestOrderTransitionErrorPrecedence(t *testing.T) {
	t.Parallel()
	eng, orders, _, _ := newOrderFixture(t)
	ctx := context.Background()

	// Unknown target is a validation error even for a missing order.
	if _, err := eng.TransitionStatus(ctx, 999, "SHIPPED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown target: err = %v, want ErrValidation", err)
	}
	// A known target on a missing order is not found, even when the
	// target has no legal predecessors.
	if _, err := eng.TransitionStatus(ctx, 999, model.OrderPending); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing order: err = %v, want ErrNotFound", err)
	}

	o := orders.seed(model.Order{ReservationID: 1, Type: model.OrderTypeBBQ, Status: model.OrderPreparing})
	if _, err := eng.TransitionStatus(ctx, o.ID, model.OrderPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("move to pending: err = %v, want ErrInvalidTransition", err)
	}
}

func TestOrderCancelPublishesOrderCancelled(t *testing.T) {
	t.Parallel()
	eng, orders, _, rec := newOrderFixture(t)
	o := orders.seed(model.Order{ReservationID: 5, Type: model.OrderTypeBBQ, Status: model.OrderDelivering})

	got, err := eng.TransitionStatus(context.Background(), o.ID, model.OrderCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != model.OrderCancelled {
		t.Fatalf("status = %q, want cancelled", got.Status)
	}

	events := rec.on(hub.ReservationAudience(5))
	if len(events) != 1 || events[0].Type != EventOrderCancelled {
		t.Fatalf("guest events = %+v, want one %s", events, EventOrderCancelled)
	}
	payload, ok := events[0].Data.(OrderEvent)
	if !ok {
		t.Fatalf("payload type %T, want OrderEvent", events[0].Data)
	}
	if payload.OldStatus != model.OrderDelivering || payload.NewStatus != model.OrderCancelled {
		t.Fatalf("payload = %+v, want delivering -> cancelled", payload)
	}
}

func TestOrderStatusChangeCarriesOldAndNew(t *testing.T) {
	t.Parallel()
	eng, orders, _, rec := newOrderFixture(t)
	o := orders.seed(model.Order{ReservationID: 9, Type: model.OrderTypeFire, Status: model.OrderPending})

	if _, err := eng.TransitionStatus(context.Background(), o.ID, model.OrderDelivering); err != nil {
		t.Fatalf("transition: %v", err)
	}
	events := rec.on(hub.AdminBroadcast)
	if len(events) != 1 || events[0].Type != EventOrderStatusChanged {
		t.Fatalf("events = %+v, want one %s", events, EventOrderStatusChanged)
	}
	payload := events[0].Data.(OrderEvent)
	if payload.OldStatus != model.OrderPending || payload.NewStatus != model.OrderDelivering {
		t.Fatalf("payload = %+v, want pending -> delivering", payload)
	}
}

// interleavingOrderStore runs a hook once, just before the first
// conditional update, to model a writer that sneaks in between the
// engine's read and its own write.
type interleavingOrderStore struct {
	*fakeOrderStore
	once   sync.Once
	before func()
}

func (s *interleavingOrderStore) UpdateStatusIf(ctx context.Context, id uint64, target string, from []string) (string, bool, error) {
	s.once.Do(s.before)
	return s.fakeOrderStore.UpdateStatusIf(ctx, id, target, from)
}

// The (old, new) pair on a status event must reflect the status the
// order actually held when the write landed, not whatever the engine
// read beforehand.
func TestOrderEventOldStatusSurvivesInterleavedWriter(t *testing.T) {
	t.Parallel()
	orders := newFakeOrderStore()
	o := orders.seed(model.Order{ReservationID: 3, Type: model.OrderTypeBBQ, Status: model.OrderPending})

	store := &interleavingOrderStore{fakeOrderStore: orders}
	store.before = func() {
		// A kitchen screen moves the order to PREPARING after the
		// engine has already read PENDING.
		_, ok, err := orders.UpdateStatusIf(context.Background(), o.ID, model.OrderPreparing, []string{model.OrderPending})
		if err != nil || !ok {
			t.Errorf("interleaved move: ok=%v err=%v", ok, err)
		}
	}
	rec := &publishRecorder{}
	eng := NewOrderEngine(store, newFakeReservationStore(), rec)

	got, err := eng.TransitionStatus(context.Background(), o.ID, model.OrderDelivering)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != model.OrderDelivering {
		t.Fatalf("status = %q, want %q", got.Status, model.OrderDelivering)
	}

	events := rec.on(hub.AdminBroadcast)
	if len(events) != 1 || events[0].Type != EventOrderStatusChanged {
		t.Fatalf("events = %+v, want one %s", events, EventOrderStatusChanged)
	}
	payload := events[0].Data.(OrderEvent)
	if payload.OldStatus != model.OrderPreparing || payload.NewStatus != model.OrderDelivering {
		t.Fatalf("payload = %+v, want preparing -> delivering", payload)
	}
}

// Two racing transitions to the same target: the conditional update
// lets exactly one through.
func TestConcurrentOrderTransitionExactlyOneWins(t *testing.T) {
	t.Parallel()
	eng, orders, _, _ := newOrderFixture(t)
	o := orders.seed(model.Order{ReservationID: 1, Type: model.OrderTypeBBQ, Status: model.OrderPending})

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.TransitionStatus(context.Background(), o.ID, model.OrderPreparing)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d transitions succeeded, want exactly 1", wins)
	}
}
