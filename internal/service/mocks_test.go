package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/queue"
)

// stubTx runs the transactional closure with a nil *sql.Tx.  The
// mocked stores never dereference it, so services can be exercised
// without a database.
type stubTx struct {
	calls int
}

func (s *stubTx) InTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	s.calls++
	return fn(nil)
}

type mockBookings struct {
	BookingStore
	lockStaff       func(staffID uint64) error
	releaseExpired  func(staffID uint64) (int64, error)
	countOverlap    func(staffID uint64, start, end time.Time) (int, error)
	create          func(b *model.Booking) error
	setOrderRef     func(bookingID uint64, orderRef string) error
	confirm         func(bookingID uint64) (bool, error)
	cancelPending   func(bookingID, actorID uint64) (bool, error)
	cancelConfirmed func(bookingID, actorID uint64, refundDue bool) (bool, error)
	markRefundDue   func(bookingID uint64) error
	complete        func(bookingID uint64) (bool, error)
	busy            func(staffID uint64) ([]model.BusyInterval, error)
	getByID         func(id uint64) (*model.Booking, error)
	listByCustomer  func(customerID uint64) ([]model.Booking, error)
}

func (m *mockBookings) LockStaffTx(_ context.Context, _ *sql.Tx, staffID uint64) error {
	return m.lockStaff(staffID)
}
func (m *mockBookings) ReleaseExpiredHoldsTx(_ context.Context, _ *sql.Tx, staffID uint64, _ time.Time) (int64, error) {
	if m.releaseExpired == nil {
		return 0, nil
	}
	return m.releaseExpired(staffID)
}
func (m *mockBookings) CountOverlappingTx(_ context.Context, _ *sql.Tx, staffID uint64, start, end time.Time) (int, error) {
	return m.countOverlap(staffID, start, end)
}
func (m *mockBookings) CreateTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	return m.create(b)
}
func (m *mockBookings) SetOrderRefTx(_ context.Context, _ *sql.Tx, bookingID uint64, orderRef string) error {
	if m.setOrderRef == nil {
		return nil
	}
	return m.setOrderRef(bookingID, orderRef)
}
func (m *mockBookings) ConfirmIfPending(_ context.Context, _ *sql.Tx, bookingID uint64) (bool, error) {
	return m.confirm(bookingID)
}
func (m *mockBookings) CancelIfPendingTx(_ context.Context, _ *sql.Tx, bookingID, actorID uint64) (bool, error) {
	return m.cancelPending(bookingID, actorID)
}
func (m *mockBookings) CancelConfirmedTx(_ context.Context, _ *sql.Tx, bookingID, actorID uint64, refundDue bool) (bool, error) {
	return m.cancelConfirmed(bookingID, actorID, refundDue)
}
func (m *mockBookings) CompleteIfConfirmed(_ context.Context, bookingID uint64, _ time.Time) (bool, error) {
	if m.complete == nil {
		return true, nil
	}
	return m.complete(bookingID)
}
func (m *mockBookings) MarkRefundDueTx(_ context.Context, _ *sql.Tx, bookingID uint64) error {
	return m.markRefundDue(bookingID)
}
func (m *mockBookings) BusyIntervals(_ context.Context, staffID uint64, _, _, _ time.Time) ([]model.BusyInterval, error) {
	return m.busy(staffID)
}
func (m *mockBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	return m.getByID(id)
}
func (m *mockBookings) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
	return m.getByID(id)
}
func (m *mockBookings) ListByCustomer(_ context.Context, customerID uint64) ([]model.Booking, error) {
	return m.listByCustomer(customerID)
}

type mockPayments struct {
	PaymentStore
	activeByEntity func(purpose string, entityID uint64) (*model.PaymentRecord, error)
	create         func(rec *model.PaymentRecord) error
	setExternal    func(orderRef, externalOrderID string) error
	getByOrderRef  func(orderRef string) (*model.PaymentRecord, error)
	markVerified   func(orderRef, externalPaymentID, signature string) (bool, error)
	markFailed     func(orderRef string) (bool, error)
	countVerified  func(purpose string, entityID uint64) (int, error)
}

func (m *mockPayments) ActiveByEntityTx(_ context.Context, _ *sql.Tx, purpose string, entityID uint64) (*model.PaymentRecord, error) {
	return m.activeByEntity(purpose, entityID)
}
func (m *mockPayments) CreateTx(_ context.Context, _ *sql.Tx, rec *model.PaymentRecord) error {
	return m.create(rec)
}
func (m *mockPayments) SetExternalOrderID(_ context.Context, orderRef, externalOrderID string) error {
	if m.setExternal == nil {
		return nil
	}
	return m.setExternal(orderRef, externalOrderID)
}
func (m *mockPayments) GetByOrderRef(_ context.Context, orderRef string) (*model.PaymentRecord, error) {
	return m.getByOrderRef(orderRef)
}
func (m *mockPayments) MarkVerifiedTx(_ context.Context, _ *sql.Tx, orderRef, externalPaymentID, signature string) (bool, error) {
	return m.markVerified(orderRef, externalPaymentID, signature)
}
func (m *mockPayments) MarkFailedTx(_ context.Context, _ *sql.Tx, orderRef string) (bool, error) {
	return m.markFailed(orderRef)
}
func (m *mockPayments) CountVerifiedByEntity(_ context.Context, purpose string, entityID uint64) (int, error) {
	return m.countVerified(purpose, entityID)
}

type mockSalons struct {
	SalonStore
	create      func(s *model.Salon) error
	activate    func(salonID uint64) error
	getByID     func(id uint64) (*model.Salon, error)
	serviceByID func(id uint64) (*model.Service, error)
	staffByID   func(id uint64) (*model.Staff, error)
}

func (m *mockSalons) CreateTx(_ context.Context, _ *sql.Tx, s *model.Salon) error { return m.create(s) }
func (m *mockSalons) ActivateTx(_ context.Context, _ *sql.Tx, salonID uint64) error {
	return m.activate(salonID)
}
func (m *mockSalons) GetByID(_ context.Context, id uint64) (*model.Salon, error) {
	return m.getByID(id)
}
func (m *mockSalons) ServiceByID(_ context.Context, id uint64) (*model.Service, error) {
	return m.serviceByID(id)
}
func (m *mockSalons) StaffByID(_ context.Context, id uint64) (*model.Staff, error) {
	return m.staffByID(id)
}

type mockSchedule struct {
	ScheduleStore
	listByDay func(staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error)
}

func (m *mockSchedule) ListByStaffDay(_ context.Context, staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error) {
	return m.listByDay(staffID, weekday)
}
func (m *mockSchedule) ListByStaffDayTx(_ context.Context, _ *sql.Tx, staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error) {
	return m.listByDay(staffID, weekday)
}

type mockVendors struct {
	VendorStore
	create       func(req *model.VendorRequest) error
	transition   func(requestID uint64, from, to string, actorID uint64, reason *string) (bool, error)
	setSalon     func(requestID, salonID uint64) error
	consume      func(requestID uint64) (bool, error)
	getByID      func(id uint64) (*model.VendorRequest, error)
	listByAgent  func(agentID uint64) ([]model.VendorRequest, error)
	listByStatus func(status string) ([]model.VendorRequest, error)
	transitions  func(requestID uint64) ([]model.VendorTransition, error)
}

func (m *mockVendors) Create(_ context.Context, req *model.VendorRequest) error {
	return m.create(req)
}
func (m *mockVendors) TransitionTx(_ context.Context, _ *sql.Tx, requestID uint64, from, to string, actorID uint64, reason *string) (bool, error) {
	return m.transition(requestID, from, to, actorID, reason)
}
func (m *mockVendors) SetSalonTx(_ context.Context, _ *sql.Tx, requestID, salonID uint64) error {
	return m.setSalon(requestID, salonID)
}
func (m *mockVendors) ConsumeActivationTx(_ context.Context, _ *sql.Tx, requestID uint64) (bool, error) {
	return m.consume(requestID)
}
func (m *mockVendors) GetByID(_ context.Context, id uint64) (*model.VendorRequest, error) {
	return m.getByID(id)
}
func (m *mockVendors) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.VendorRequest, error) {
	return m.getByID(id)
}
func (m *mockVendors) ListByAgent(_ context.Context, agentID uint64) ([]model.VendorRequest, error) {
	return m.listByAgent(agentID)
}
func (m *mockVendors) ListByStatus(_ context.Context, status string) ([]model.VendorRequest, error) {
	return m.listByStatus(status)
}
func (m *mockVendors) Transitions(_ context.Context, requestID uint64) ([]model.VendorTransition, error) {
	return m.transitions(requestID)
}

type mockLedger struct {
	LedgerStore
	credit      func(agentID uint64, delta int64, reason string) error
	bumpCounter func(agentID uint64, counter string) error
	profile     func(agentID uint64) (*model.AgentProfile, error)
	sumHistory  func(agentID uint64) (int64, error)
	history     func(agentID uint64) ([]model.ScoreEntry, error)
	leaderboard func(limit int) ([]model.AgentProfile, error)
}

func (m *mockLedger) CreditTx(_ context.Context, _ *sql.Tx, agentID uint64, delta int64, reason string) error {
	return m.credit(agentID, delta, reason)
}
func (m *mockLedger) BumpCounterTx(_ context.Context, _ *sql.Tx, agentID uint64, counter string) error {
	return m.bumpCounter(agentID, counter)
}
func (m *mockLedger) Profile(_ context.Context, agentID uint64) (*model.AgentProfile, error) {
	return m.profile(agentID)
}
func (m *mockLedger) SumHistory(_ context.Context, agentID uint64) (int64, error) {
	return m.sumHistory(agentID)
}
func (m *mockLedger) History(_ context.Context, agentID uint64) ([]model.ScoreEntry, error) {
	return m.history(agentID)
}
func (m *mockLedger) Leaderboard(_ context.Context, limit int) ([]model.AgentProfile, error) {
	return m.leaderboard(limit)
}

type mockUsers struct {
	getByEmail func(email string) (model.User, error)
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	return m.getByEmail(email)
}

type mockSettings struct {
	cfg model.Settings
}

func (m *mockSettings) Snapshot(_ context.Context) (model.Settings, error) { return m.cfg, nil }

func defaultSettings() model.Settings {
	return model.Settings{
		ConvenienceFeePercent:      5,
		RMScorePerApproval:         10,
		BookingHoldMinutes:         15,
		SlotGranularityMinutes:     15,
		BookingLookaheadDays:       30,
		CancellationCutoffHours:    24,
		ActivationTokenTTLDays:     7,
		VendorRegistrationFeeCents: 500000,
	}
}

type mockProcessor struct {
	createOrder func(orderRef string, amountCents int64) (string, error)
}

func (m *mockProcessor) CreateOrder(_ context.Context, orderRef string, amountCents int64) (string, error) {
	return m.createOrder(orderRef, amountCents)
}

type recordedEvents struct {
	bookings []queue.BookingConfirmedEvent
	vendors  []queue.VendorStatusEvent
}

func (r *recordedEvents) BookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) {
	r.bookings = append(r.bookings, ev)
}
func (r *recordedEvents) VendorStatus(_ context.Context, ev queue.VendorStatusEvent) {
	r.vendors = append(r.vendors, ev)
}
