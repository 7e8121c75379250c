package model

import "time"

// Room statuses.  These are a manual override set by staff (for
// example a room pulled for maintenance) and are distinct from the
// occupancy derived from reservations for a given date.
const (
	RoomAvailable   = "AVAILABLE"
	RoomOccupied    = "OCCUPIED"
	RoomMaintenance = "MAINTENANCE"
)

// Room is a physical unit that can be assigned to at most one
// overlapping reservation at a time.  Whether a room is occupied on a
// date is never stored; it is derived from non-cancelled reservations
// whose stay interval covers the date.
type Room struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Capacity  uint32    `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
