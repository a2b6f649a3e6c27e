package model

import "time"

// Payment purposes.  A record is owned either by a booking or by a
// vendor request (the registration fee gating activation).
const (
    PurposeBooking            = "BOOKING"
    PurposeVendorRegistration = "VENDOR_REGISTRATION"
)

// Payment statuses.  A record moves from CREATED to exactly one of
// VERIFIED or FAILED; the transition is a conditional update so two
// concurrent writers cannot both take it.
const (
    PaymentCreated  = "CREATED"
    PaymentVerified = "VERIFIED"
    PaymentFailed   = "FAILED"
)

// PaymentRecord tracks one order placed with the external payment
// processor.  OrderRef is our own reference (unique, sent to the
// processor as the receipt); ExternalOrderID and ExternalPaymentID
// are the processor's identifiers.  At most one VERIFIED record may
// exist per (purpose, entity).
//
// Fields:
//  ID                – primary key identifier.
//  Purpose           – BOOKING or VENDOR_REGISTRATION.
//  EntityID          – owning booking or vendor request id.
//  OrderRef          – our unique order reference.
//  ExternalOrderID   – processor-side order id, once created.
//  ExternalPaymentID – processor-side payment id, once verified.
//  AmountCents       – amount in cents, frozen at order creation.
//  Status            – one of the Payment* constants.
//  Signature         – checksum that verified the payment, for audit.
//  VerifiedAt        – when the record reached VERIFIED.
type PaymentRecord struct {
    ID                uint64     // payment_records.id
    Purpose           string     // payment_records.purpose
    EntityID          uint64     // payment_records.entity_id
    OrderRef          string     // payment_records.order_ref
    ExternalOrderID   *string    // payment_records.external_order_id (nullable)
    ExternalPaymentID *string    // payment_records.external_payment_id (nullable)
    AmountCents       int64      // payment_records.amount_cents
    Status            string     // payment_records.status
    Signature         *string    // payment_records.signature (nullable)
    VerifiedAt        *time.Time // payment_records.verified_at (nullable)
    CreatedAt         time.Time  // payment_records.created_at
    UpdatedAt         time.Time  // payment_records.updated_at
}
