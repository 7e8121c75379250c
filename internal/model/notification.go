package model

import "time"

// Notification types staff can toggle per admin account.
const (
	NotifyReservationAssigned = "RESERVATION_ASSIGNED"
	NotifyOrderCreated        = "ORDER_CREATED"
	NotifyOrderStatusChanged  = "ORDER_STATUS_CHANGED"
	NotifyGuestCheckedIn      = "GUEST_CHECKED_IN"
	NotifyGuestCheckedOut     = "GUEST_CHECKED_OUT"
)

// Notification is a persisted per-admin dashboard notification.  Rows
// are written fire-and-forget after a successful state transition; the
// live copy reaches connected dashboards through the event hub.
type Notification struct {
	ID        uint64    `json:"id"`
	AdminID   uint64    `json:"admin_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationSetting is a per-admin, per-type enable toggle.  A type
// with no row is treated as enabled.
type NotificationSetting struct {
	AdminID uint64 `json:"admin_id"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}
