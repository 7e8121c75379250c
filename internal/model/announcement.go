package model

import "time"

// Announcement severity levels.
const (
	AnnouncementInfo     = "INFO"
	AnnouncementWarning  = "WARNING"
	AnnouncementCritical = "CRITICAL"
)

// Announcement is a staff-authored notice shown to guests.  An
// announcement is visible while Active is true and the current time
// falls inside [StartsAt, EndsAt); a nil EndsAt means no end.
type Announcement struct {
	ID        uint64     `json:"id"`
	Content   string     `json:"content"`
	Level     string     `json:"level"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ReadReceipt records that a guest's reservation has seen an
// announcement.  Receipts are append-only and idempotent on the
// (reservation, announcement) pair.
type ReadReceipt struct {
	ReservationID  uint64    `json:"reservation_id"`
	AnnouncementID uint64    `json:"announcement_id"`
	ReadAt         time.Time `json:"read_at"`
}
