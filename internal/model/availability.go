package model

import "time"

// AvailabilityWindow is one block of weekly working hours for a staff
// member.  Start and end are minutes from midnight UTC; start must be
// strictly less than end and windows for the same staff and weekday
// never overlap (enforced on write).  The booking path only ever
// reads these rows.
//
// Fields:
//  ID          – primary key identifier.
//  StaffID     – staff member the window belongs to.
//  Weekday     – day of week, 0 = Sunday through 6 = Saturday.
//  StartMinute – window start as minutes from midnight.
//  EndMinute   – window end as minutes from midnight (exclusive).
type AvailabilityWindow struct {
    ID          uint64       // staff_availability_windows.id
    StaffID     uint64       // staff_availability_windows.staff_id
    Weekday     time.Weekday // staff_availability_windows.weekday
    StartMinute uint16       // staff_availability_windows.start_minute
    EndMinute   uint16       // staff_availability_windows.end_minute
    CreatedAt   time.Time    // staff_availability_windows.created_at
    UpdatedAt   time.Time    // staff_availability_windows.updated_at
}

// BusyInterval is an occupied [Start, End) stretch of a staff member's
// day, derived from bookings that still block the slot (CONFIRMED, or
// PENDING_PAYMENT with an unexpired hold).
type BusyInterval struct {
    Start time.Time
    End   time.Time
}
