// Package queue defines message payloads exchanged over the message broker.
package queue

// GuestMessageEvent is published when the system wants an out-of-band
// message sent to a guest, typically the portal link after a room is
// assigned.  Delivery is handled by an external messenger worker; the
// core treats the publish as fire-and-forget and its failure never
// fails the triggering operation.
type GuestMessageEvent struct {
	ReservationID  uint64 `json:"reservation_id"`
	ExternalNumber string `json:"external_number"`
	GuestName      string `json:"guest_name"`
	Phone          string `json:"phone"`
	Room           string `json:"room"`
	PortalURL      string `json:"portal_url"`
	Kind           string `json:"kind"` // e.g. "room_assigned"
	QueuedAt       string `json:"queued_at"`
}
