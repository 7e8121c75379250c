// Package hub implements the in-process event fan-out used to push
// state changes to connected dashboards and guest devices.  It is a
// pure pub/sub registry: nothing is queued, retried or persisted, and
// nothing survives a process restart.  A subscriber connected when an
// event is published receives it; anyone connecting later relies on
// the snapshot sent at subscribe time instead.
package hub

import "strconv"

// Event is the unit pushed to subscribers.  Type names the event kind
// (order_created, reservation_assigned, ...) and Data carries the
// JSON-serializable payload.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Event types emitted by the hub itself on subscribe.
const (
	EventConnected = "connected"
	EventSnapshot  = "snapshot"
)

// Audience keys.  An audience names the set of live connections that
// should receive a published event.
const (
	// AdminBroadcast reaches every connected staff dashboard.
	AdminBroadcast = "broadcast:admin"
	// AnnouncementBroadcast reaches every connection watching the
	// announcement feed, guests included.
	AnnouncementBroadcast = "broadcast:announcements"
)

// AdminAudience returns the audience key for one admin's dashboard
// connections.  An admin with several open tabs has several
// subscribers under the same key; all of them receive each event.
func AdminAudience(adminID uint64) string {
	return "admin:" + strconv.FormatUint(adminID, 10)
}

// ReservationAudience returns the audience key for a single guest's
// live connections for one reservation.
func ReservationAudience(reservationID uint64) string {
	return "reservation:" + strconv.FormatUint(reservationID, 10)
}
