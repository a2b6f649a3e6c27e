package model

import "time"

// Vendor request statuses.  The request advances strictly along
// DRAFT → PENDING → APPROVED → PAYMENT_PENDING → ACTIVE, with
// REJECTED as the only other terminal state.  ACTIVE never regresses.
const (
    VendorDraft          = "DRAFT"
    VendorPending        = "PENDING"
    VendorApproved       = "APPROVED"
    VendorRejected       = "REJECTED"
    VendorPaymentPending = "PAYMENT_PENDING"
    VendorActive         = "ACTIVE"
)

// VendorRequest is a field agent's submission to onboard a new salon.
// Approval creates the salon record and credits the agent in the same
// transaction; activation additionally requires a verified
// registration payment and an unconsumed activation token.
//
// Fields:
//  ID                   – primary key identifier.
//  AgentID              – submitting field agent.
//  OwnerEmail           – email of the prospective salon owner.
//  BusinessName         – name of the business being onboarded.
//  BusinessAddress      – optional address.
//  BusinessPhone        – optional phone.
//  Status               – one of the Vendor* constants.
//  RejectionReason      – required when status is REJECTED.
//  SalonID              – salon created on approval, once set.
//  ActivationConsumedAt – when the activation token was used.
type VendorRequest struct {
    ID                   uint64     // vendor_requests.id
    AgentID              uint64     // vendor_requests.agent_id
    OwnerEmail           string     // vendor_requests.owner_email
    BusinessName         string     // vendor_requests.business_name
    BusinessAddress      *string    // vendor_requests.business_address (nullable)
    BusinessPhone        *string    // vendor_requests.business_phone (nullable)
    Status               string     // vendor_requests.status
    RejectionReason      *string    // vendor_requests.rejection_reason (nullable)
    SalonID              *uint64    // vendor_requests.salon_id (nullable)
    ActivationConsumedAt *time.Time // vendor_requests.activation_consumed_at (nullable)
    CreatedAt            time.Time  // vendor_requests.created_at
    UpdatedAt            time.Time  // vendor_requests.updated_at
}

// VendorTransition is one audited state-machine step: who moved the
// request, from where to where, and why.  Rows are append-only.
type VendorTransition struct {
    ID         uint64    // vendor_request_transitions.id
    RequestID  uint64    // vendor_request_transitions.request_id
    FromStatus string    // vendor_request_transitions.from_status
    ToStatus   string    // vendor_request_transitions.to_status
    ActorID    uint64    // vendor_request_transitions.actor_id
    Reason     *string   // vendor_request_transitions.reason (nullable)
    CreatedAt  time.Time // vendor_request_transitions.created_at
}
