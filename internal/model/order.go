package model

import "time"

// Order statuses.  Progress states form a line; CANCELLED is reachable
// from any non-terminal state.  COMPLETED and CANCELLED are terminal.
const (
	OrderPending    = "PENDING"
	OrderPreparing  = "PREPARING"
	OrderDelivering = "DELIVERING"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"
)

// Order types supported by the on-site ordering surface.
const (
	OrderTypeBBQ   = "BBQ"
	OrderTypeFire  = "FIRE"
	OrderTypeKiosk = "KIOSK"
)

// Order is a guest-placed request for on-site goods or services tied
// to exactly one reservation.  Orders are created by a guest action and
// mutated only by staff status transitions; they are never deleted.
//
// TotalAmount is trusted from the caller at creation time and is not
// recomputed from line items; the engine validates non-negativity only.
type Order struct {
	ID            uint64      `json:"id"`
	ReservationID uint64      `json:"reservation_id"`
	Type          string      `json:"type"`
	Items         []OrderItem `json:"items"`
	TotalAmount   int64       `json:"total_amount"`
	Status        string      `json:"status"`
	DeliveryTime  *string     `json:"delivery_time,omitempty"`
	Note          *string     `json:"note,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order.  Quantity must be positive and
// UnitPrice non-negative; both are validated at creation.
type OrderItem struct {
	ItemID    string `json:"id"`
	Name      string `json:"name"`
	Quantity  uint32 `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderTerminal reports whether a status permits no further
// transitions.
func OrderTerminal(status string) bool {
	return status == OrderCompleted || status == OrderCancelled
}
