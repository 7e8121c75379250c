package model

import (
	"encoding/json"
	"time"
)

// Reservation statuses.  A reservation starts as PENDING when imported
// or booked and walks the lifecycle below.  CHECKED_OUT and CANCELLED
// are terminal.
const (
	ReservationPending    = "PENDING"
	ReservationAssigned   = "ASSIGNED"
	ReservationCheckedIn  = "CHECKED_IN"
	ReservationCheckedOut = "CHECKED_OUT"
	ReservationCancelled  = "CANCELLED"
)

// Reservation records a guest's booked stay over a date interval,
// optionally assigned to a room.  The stay interval is half-open:
// the guest occupies the room on CheckIn and leaves before CheckOut.
//
// Fields:
//  ID             – primary key identifier.
//  ExternalNumber – booking number from the external channel; unique,
//                   used as the upsert key for repeated imports.
//  GuestName      – display name of the guest.
//  Phone          – contact phone number.
//  CheckIn        – first night of the stay (date only, UTC midnight).
//  CheckOut       – morning of departure (date only, UTC midnight).
//  Product        – requested product description (room type, package).
//  Amount         – booked amount in whole currency units.
//  AssignedRoom   – room name once assigned; nil while PENDING.
//  Status         – lifecycle state (see constants above).
//  GuestToken     – opaque token granting the guest portal access;
//                   generated on first assignment, never reused.
//  Options        – ordered add-on options booked with the stay.
//  Checklist      – opaque checkout checklist payload, stored verbatim.
type Reservation struct {
	ID             uint64          `json:"id"`
	ExternalNumber string          `json:"external_number"`
	GuestName      string          `json:"guest_name"`
	Phone          string          `json:"phone"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	Product        string          `json:"product"`
	Amount         int64           `json:"amount"`
	AssignedRoom   *string         `json:"assigned_room,omitempty"`
	Status         string          `json:"status"`
	GuestToken     *string         `json:"-"`
	Options        []StayOption    `json:"options"`
	Checklist      json.RawMessage `json:"checkout_checklist,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StayOption is an add-on booked with a reservation (extra bedding,
// late checkout and the like).  Options are kept in booking order.
type StayOption struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// ReservationTerminal reports whether a status permits no further
// lifecycle transitions.
func ReservationTerminal(status string) bool {
	return status == ReservationCheckedOut || status == ReservationCancelled
}
