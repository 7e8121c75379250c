package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// fakeReservationStore is an in-memory ReservationStore with the same
// conditional-update semantics as the MySQL repository: the status
// check and the write happen under one lock, so concurrent transition
// tests exercise the same exactly-one-wins behavior.
type fakeReservationStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Reservation
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{rows: make(map[uint64]*model.Reservation)}
}

// seed inserts a reservation directly, bypassing validation.
func (f *fakeReservationStore) seed(r model.Reservation) *model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		f.nextID++
		r.ID = f.nextID
	} else if r.ID > f.nextID {
		f.nextID = r.ID
	}
	cp := r
	f.rows[cp.ID] = &cp
	return &cp
}

func cloneReservation(r *model.Reservation) *model.Reservation {
	cp := *r
	if r.AssignedRoom != nil {
		v := *r.AssignedRoom
		cp.AssignedRoom = &v
	}
	if r.GuestToken != nil {
		v := *r.GuestToken
		cp.GuestToken = &v
	}
	cp.Options = append([]model.StayOption(nil), r.Options...)
	return &cp
}

func statusIn(status string, from []string) bool {
	for _, s := range from {
		if s == status {
			return true
		}
	}
	return false
}

func (f *fakeReservationStore) ByID(_ context.Context, id uint64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneReservation(r), nil
}

func (f *fakeReservationStore) ByExternalNumber(_ context.Context, number string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ExternalNumber == number {
			return cloneReservation(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReservationStore) ByGuestToken(_ context.Context, token string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.GuestToken != nil && *r.GuestToken == token {
			return cloneReservation(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReservationStore) Create(_ context.Context, r *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.ExternalNumber == r.ExternalNumber {
			return repository.ErrConflict
		}
	}
	f.nextID++
	r.ID = f.nextID
	f.rows[r.ID] = cloneReservation(r)
	return nil
}

func (f *fakeReservationStore) UpdateBookingFields(_ context.Context, id uint64, guestName, phone string, checkIn, checkOut time.Time, product string, amount int64, options []model.StayOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.GuestName = guestName
	r.Phone = phone
	r.CheckIn = checkIn
	r.CheckOut = checkOut
	r.Product = product
	r.Amount = amount
	r.Options = append([]model.StayOption(nil), options...)
	return nil
}

func (f *fakeReservationStore) Assign(_ context.Context, id uint64, room, phone, token string, from []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || !statusIn(r.Status, from) {
		return false, nil
	}
	r.AssignedRoom = &room
	r.Phone = phone
	if r.GuestToken == nil && token != "" {
		r.GuestToken = &token
	}
	r.Status = model.ReservationAssigned
	return true, nil
}

func (f *fakeReservationStore) UpdateStatusIf(_ context.Context, id uint64, target string, from []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || !statusIn(r.Status, from) {
		return false, nil
	}
	r.Status = target
	return true, nil
}

func (f *fakeReservationStore) CompleteCheckOut(_ context.Context, id uint64, checklist json.RawMessage, from []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || !statusIn(r.Status, from) {
		return false, nil
	}
	r.Status = model.ReservationCheckedOut
	r.Checklist = append(json.RawMessage(nil), checklist...)
	return true, nil
}

func (f *fakeReservationStore) CountOverlapping(_ context.Context, room string, checkIn, checkOut time.Time, excludeID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.ID == excludeID || r.Status == model.ReservationCancelled {
			continue
		}
		if r.AssignedRoom == nil || *r.AssignedRoom != room {
			continue
		}
		if r.CheckIn.Before(checkOut) && checkIn.Before(r.CheckOut) {
			n++
		}
	}
	return n, nil
}

// fakeOrderStore is the in-memory OrderStore counterpart.
type fakeOrderStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{rows: make(map[uint64]*model.Order)}
}

func (f *fakeOrderStore) seed(o model.Order) *model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == 0 {
		f.nextID++
		o.ID = f.nextID
	}
	cp := o
	f.rows[cp.ID] = &cp
	return &cp
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return &cp
}

func (f *fakeOrderStore) ByID(_ context.Context, id uint64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	f.rows[o.ID] = cloneOrder(o)
	return nil
}

func (f *fakeOrderStore) UpdateStatusIf(_ context.Context, id uint64, target string, from []string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[id]
	if !ok || !statusIn(o.Status, from) {
		return "", false, nil
	}
	old := o.Status
	o.Status = target
	return old, true, nil
}

// publishRecorder captures hub publishes for assertions.
type publishRecorder struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	audience string
	event    hub.Event
}

func (p *publishRecorder) Publish(audience string, event hub.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{audience: audience, event: event})
}

// all returns a copy of everything published so far.
func (p *publishRecorder) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.published...)
}

// on returns the events published to one audience.
func (p *publishRecorder) on(audience string) []hub.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []hub.Event
	for _, pe := range p.published {
		if pe.audience == audience {
			out = append(out, pe.event)
		}
	}
	return out
}
