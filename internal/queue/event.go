// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Each event type has its own durable queue.
const (
	BookingConfirmedQueue = "booking.confirmed"
	VendorStatusQueue     = "vendor.status"
)

// BookingConfirmedEvent is published when a booking's payment is
// verified and the booking transitions to CONFIRMED.  It contains
// enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64 `json:"booking_id"`
	CustomerID       uint64 `json:"customer_id"`
	SalonID          uint64 `json:"salon_id"`
	StaffID          uint64 `json:"staff_id"`
	ServiceID        uint64 `json:"service_id"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	ConfirmedAt      string `json:"confirmed_at"`
}

// VendorStatusEvent is published when a vendor request takes a
// state-machine transition that downstream systems care about
// (approval, rejection, activation).
type VendorStatusEvent struct {
	RequestID  uint64  `json:"request_id"`
	AgentID    uint64  `json:"agent_id"`
	FromStatus string  `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	SalonID    *uint64 `json:"salon_id,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}
