package hub

import (
	"log"
	"sync"
)

// subscriberBuffer is the per-connection event buffer.  A subscriber
// whose buffer is full when an event arrives is considered dead and is
// dropped, so publishers never block on a stalled connection.
const subscriberBuffer = 32

// Subscriber is one live connection's registration.  Events are
// consumed from Events(); the channel is closed when the subscriber is
// unsubscribed, which happens on explicit disconnect, on a failed
// write, or when the subscriber stops draining its buffer.
type Subscriber struct {
	events    chan Event
	audiences []string
	closeOnce sync.Once
}

// Events returns the channel the connection writer drains.  The
// channel is closed exactly once on unsubscribe.
func (s *Subscriber) Events() <-chan Event { return s.events }

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.events) })
}

// Hub maps audience keys to sets of live subscribers.  All methods are
// safe for concurrent use; the registry is the only shared mutable
// state in the process.
type Hub struct {
	mu        sync.Mutex
	audiences map[string]map[*Subscriber]struct{}
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{audiences: make(map[string]map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber under one or more audience
// keys.  A "connected" acknowledgement and, when snapshot is non-nil,
// a "snapshot" event carrying the current state are queued before the
// subscriber becomes visible to Publish.  That ordering closes the gap
// between connecting and the first live event: the subscriber never
// sees an event published before Subscribe returned, and every event
// published after is delivered behind the snapshot.
func (h *Hub) Subscribe(snapshot interface{}, audiences ...string) *Subscriber {
	sub := &Subscriber{
		events:    make(chan Event, subscriberBuffer),
		audiences: audiences,
	}
	// The subscriber is not registered yet, so these sends cannot race
	// with Publish and cannot fill the buffer.
	sub.events <- Event{Type: EventConnected}
	if snapshot != nil {
		sub.events <- Event{Type: EventSnapshot, Data: snapshot}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range audiences {
		set, ok := h.audiences[key]
		if !ok {
			set = make(map[*Subscriber]struct{})
			h.audiences[key] = set
		}
		set[sub] = struct{}{}
	}
	return sub
}

// Unsubscribe removes the subscriber from every audience it was
// registered under and closes its event channel.  It is idempotent and
// is called both on clean disconnect and from the failure paths.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscriber) {
	for _, key := range sub.audiences {
		if set, ok := h.audiences[key]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.audiences, key)
			}
		}
	}
	sub.close()
}

// Publish delivers the event to every subscriber currently registered
// under the audience key.  Delivery is best-effort: a subscriber whose
// buffer is full is dropped and the rest still receive the event.
// Publishing to an audience with no subscribers is a no-op.  Publish
// never blocks and never reports failure to the caller; a state
// transition must not fail because a dashboard went away.
func (h *Hub) Publish(audience string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.audiences[audience]
	if !ok {
		return
	}
	var dead []*Subscriber
	for sub := range set {
		select {
		case sub.events <- event:
		default:
			dead = append(dead, sub)
		}
	}
	for _, sub := range dead {
		log.Printf("hub: dropping stalled subscriber on %s", audience)
		h.removeLocked(sub)
	}
}

// SubscriberCount reports how many subscribers are registered under
// the audience key.
func (h *Hub) SubscriberCount(audience string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.audiences[audience])
}
