package model

import "time"

// Booking status values.  PENDING_PAYMENT reserves the slot until the
// hold expires or payment is verified; CONFIRMED blocks the slot until
// the appointment completes or is cancelled; COMPLETED bookings are
// immutable.
const (
    BookingPendingPayment = "PENDING_PAYMENT"
    BookingConfirmed      = "CONFIRMED"
    BookingCancelled      = "CANCELLED"
    BookingCompleted      = "COMPLETED"
)

// Booking records a customer's appointment with a staff member for a
// specific service.  For a given staff member no two bookings in
// PENDING_PAYMENT or CONFIRMED may overlap; the repository enforces
// this under a staff row lock.  The fee breakdown is computed from
// the settings snapshot at reservation time and never recomputed.
//
// Fields:
//  ID                  – primary key identifier.
//  SalonID             – salon the appointment is at.
//  StaffID             – staff member performing the service.
//  ServiceID           – service being booked.
//  CustomerID          – user who booked.
//  StartsAt / EndsAt   – scheduled [start, end) in UTC.
//  Status              – one of the Booking* constants.
//  ServiceAmountCents  – service price frozen at booking time.
//  ConvenienceFeeCents – platform fee frozen at booking time.
//  TotalAmountCents    – service amount plus convenience fee.
//  PaymentOrderRef     – reference of the payment order, if requested.
//  HoldExpiresAt       – when a PENDING_PAYMENT hold lapses.
//  RefundDue           – set when a paid booking is cancelled.
//  CancelledBy         – user who cancelled, if cancelled.
type Booking struct {
    ID                  uint64     // bookings.id
    SalonID             uint64     // bookings.salon_id
    StaffID             uint64     // bookings.staff_id
    ServiceID           uint64     // bookings.service_id
    CustomerID          uint64     // bookings.customer_id
    StartsAt            time.Time  // bookings.starts_at
    EndsAt              time.Time  // bookings.ends_at
    Status              string     // bookings.status
    ServiceAmountCents  int64      // bookings.service_amount_cents
    ConvenienceFeeCents int64      // bookings.convenience_fee_cents
    TotalAmountCents    int64      // bookings.total_amount_cents
    PaymentOrderRef     *string    // bookings.payment_order_ref (nullable)
    HoldExpiresAt       *time.Time // bookings.hold_expires_at (nullable)
    RefundDue           bool       // bookings.refund_due
    CancelledBy         *uint64    // bookings.cancelled_by (nullable)
    CreatedAt           time.Time  // bookings.created_at
    UpdatedAt           time.Time  // bookings.updated_at
}
