package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/queue"
)

// Store interfaces mirror the subset of repository methods each
// service calls, so tests can substitute lightweight fakes.  The
// concrete repositories in internal/repository satisfy them.

// SettingsStore yields the tunable configuration snapshot.
type SettingsStore interface {
	Snapshot(ctx context.Context) (model.Settings, error)
}

// SalonStore covers salon, service and staff lookups plus the writes
// the approval flow needs.
type SalonStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, s *model.Salon) error
	ActivateTx(ctx context.Context, tx *sql.Tx, salonID uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Salon, error)
	ServiceByID(ctx context.Context, id uint64) (*model.Service, error)
	StaffByID(ctx context.Context, id uint64) (*model.Staff, error)
}

// ScheduleStore reads staff working-hours windows.
type ScheduleStore interface {
	ListByStaffDay(ctx context.Context, staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error)
	ListByStaffDayTx(ctx context.Context, tx *sql.Tx, staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error)
}

// BookingStore covers the booking lifecycle.
type BookingStore interface {
	LockStaffTx(ctx context.Context, tx *sql.Tx, staffID uint64) error
	ReleaseExpiredHoldsTx(ctx context.Context, tx *sql.Tx, staffID uint64, now time.Time) (int64, error)
	CountOverlappingTx(ctx context.Context, tx *sql.Tx, staffID uint64, start, end time.Time) (int, error)
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	SetOrderRefTx(ctx context.Context, tx *sql.Tx, bookingID uint64, orderRef string) error
	ConfirmIfPending(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error)
	CancelIfPendingTx(ctx context.Context, tx *sql.Tx, bookingID uint64, actorID uint64) (bool, error)
	CancelConfirmedTx(ctx context.Context, tx *sql.Tx, bookingID uint64, actorID uint64, refundDue bool) (bool, error)
	MarkRefundDueTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error
	CompleteIfConfirmed(ctx context.Context, bookingID uint64, now time.Time) (bool, error)
	BusyIntervals(ctx context.Context, staffID uint64, dayStart, dayEnd, now time.Time) ([]model.BusyInterval, error)
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error)
}

// PaymentStore covers payment record state.
type PaymentStore interface {
	ActiveByEntityTx(ctx context.Context, tx *sql.Tx, purpose string, entityID uint64) (*model.PaymentRecord, error)
	CreateTx(ctx context.Context, tx *sql.Tx, rec *model.PaymentRecord) error
	SetExternalOrderID(ctx context.Context, orderRef, externalOrderID string) error
	GetByOrderRef(ctx context.Context, orderRef string) (*model.PaymentRecord, error)
	MarkVerifiedTx(ctx context.Context, tx *sql.Tx, orderRef, externalPaymentID, signature string) (bool, error)
	MarkFailedTx(ctx context.Context, tx *sql.Tx, orderRef string) (bool, error)
	CountVerifiedByEntity(ctx context.Context, purpose string, entityID uint64) (int, error)
}

// VendorStore covers the vendor request state machine.
type VendorStore interface {
	Create(ctx context.Context, req *model.VendorRequest) error
	TransitionTx(ctx context.Context, tx *sql.Tx, requestID uint64, from, to string, actorID uint64, reason *string) (bool, error)
	SetSalonTx(ctx context.Context, tx *sql.Tx, requestID, salonID uint64) error
	ConsumeActivationTx(ctx context.Context, tx *sql.Tx, requestID uint64) (bool, error)
	GetByID(ctx context.Context, id uint64) (*model.VendorRequest, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.VendorRequest, error)
	ListByAgent(ctx context.Context, agentID uint64) ([]model.VendorRequest, error)
	ListByStatus(ctx context.Context, status string) ([]model.VendorRequest, error)
	Transitions(ctx context.Context, requestID uint64) ([]model.VendorTransition, error)
}

// LedgerStore covers agent score accounting.
type LedgerStore interface {
	CreditTx(ctx context.Context, tx *sql.Tx, agentID uint64, delta int64, reason string) error
	BumpCounterTx(ctx context.Context, tx *sql.Tx, agentID uint64, counter string) error
	Profile(ctx context.Context, agentID uint64) (*model.AgentProfile, error)
	SumHistory(ctx context.Context, agentID uint64) (int64, error)
	History(ctx context.Context, agentID uint64) ([]model.ScoreEntry, error)
	Leaderboard(ctx context.Context, limit int) ([]model.AgentProfile, error)
}

// UserStore resolves users; the approval flow links salon owners by
// email.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// EventPublisher delivers domain events to the broker.  Publishing is
// best-effort: implementations log failures and never return them.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent)
	VendorStatus(ctx context.Context, ev queue.VendorStatusEvent)
}
