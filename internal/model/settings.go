package model

// Settings is a snapshot of the tunable system_config values, fetched
// once per operation and frozen for its duration.  Values derived
// from a snapshot (fee breakdowns, score deltas) are written into the
// resulting records and never re-read mid-transaction, so in-flight
// work cannot observe a config change.
type Settings struct {
    ConvenienceFeePercent      int64 // percentage added on top of the service price
    RMScorePerApproval         int64 // score credited to the agent per approval
    BookingHoldMinutes         int   // how long a PENDING_PAYMENT hold blocks the slot
    SlotGranularityMinutes     int   // spacing between candidate start times
    BookingLookaheadDays       int   // how far ahead slots may be requested
    CancellationCutoffHours    int   // confirmed bookings cannot be cancelled closer than this
    ActivationTokenTTLDays     int   // validity of the vendor activation token
    VendorRegistrationFeeCents int64 // registration fee gating activation
}
