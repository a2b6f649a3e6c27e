package model

import "time"

// Salon represents an onboarded business at which customers book
// appointments.  Salons are created by the approval flow when a
// vendor request is approved, never directly.  This struct
// corresponds to a row in the `salons` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the salon owner.
//  Name      – unique name of the salon per owner.
//  Address   – optional street address.
//  Phone     – optional contact number.
//  IsActive  – whether the salon accepts bookings.
//  CreatedAt – timestamp when the salon was created.
//  UpdatedAt – timestamp of last update.
type Salon struct {
    ID        uint64    // salons.id
    OwnerID   uint64    // salons.owner_id
    Name      string    // salons.name
    Address   *string   // salons.address (nullable)
    Phone     *string   // salons.phone (nullable)
    IsActive  bool      // salons.is_active
    CreatedAt time.Time // salons.created_at
    UpdatedAt time.Time // salons.updated_at
}

// Service describes a bookable treatment offered by a salon.  The
// duration determines how much of a staff member's day a booking
// occupies and the price feeds the fee breakdown frozen onto each
// booking.
//
// Fields:
//  ID              – primary key identifier.
//  SalonID         – salon offering the service.
//  Name            – display name of the service.
//  DurationMinutes – how long one appointment takes.
//  PriceCents      – base price in cents.
//  IsActive        – whether the service can be booked.
type Service struct {
    ID              uint64    // salon_services.id
    SalonID         uint64    // salon_services.salon_id
    Name            string    // salon_services.name
    DurationMinutes uint32    // salon_services.duration_minutes
    PriceCents      int64     // salon_services.price_cents
    IsActive        bool      // salon_services.is_active
    CreatedAt       time.Time // salon_services.created_at
    UpdatedAt       time.Time // salon_services.updated_at
}

// Staff is a person who performs services at a salon.  Bookings and
// availability windows both hang off the staff member.
type Staff struct {
    ID        uint64    // staff.id
    SalonID   uint64    // staff.salon_id
    FullName  string    // staff.full_name
    IsActive  bool      // staff.is_active
    CreatedAt time.Time // staff.created_at
    UpdatedAt time.Time // staff.updated_at
}
