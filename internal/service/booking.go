package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/salonhub/salon-booking-platform/internal/availability"
	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/payment"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

// BookingService implements slot discovery, reservation and
// cancellation.  Reservation is the contended path: the whole
// check-and-insert runs in one transaction under the staff row lock,
// so two customers racing for the same slot serialize on the database
// and exactly one of them wins.
type BookingService struct {
	tx        repository.TxRunner
	bookings  BookingStore
	payments  PaymentStore
	salons    SalonStore
	schedule  ScheduleStore
	settings  SettingsStore
	processor payment.ProcessorClient
	now       func() time.Time
}

// NewBookingService wires a BookingService.
func NewBookingService(tx repository.TxRunner, bookings BookingStore, payments PaymentStore,
	salons SalonStore, schedule ScheduleStore, settings SettingsStore,
	processor payment.ProcessorClient) *BookingService {
	return &BookingService{
		tx:        tx,
		bookings:  bookings,
		payments:  payments,
		salons:    salons,
		schedule:  schedule,
		settings:  settings,
		processor: processor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Slots returns the bookable start times for the staff member and
// service on the given calendar day.  The result is advisory: the
// reservation path re-validates under lock, so a stale slot list can
// only produce a conflict, never a double booking.
func (s *BookingService) Slots(ctx context.Context, staffID, serviceID uint64, date time.Time) ([]time.Time, error) {
	cfg, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	svc, staff, err := s.resolvePair(ctx, staffID, serviceID)
	if err != nil {
		return nil, err
	}
	day := date.UTC().Truncate(24 * time.Hour)
	windows, err := s.schedule.ListByStaffDay(ctx, staff.ID, day.Weekday())
	if err != nil {
		return nil, err
	}
	now := s.now()
	busy, err := s.bookings.BusyIntervals(ctx, staff.ID, day, day.AddDate(0, 0, 1), now)
	if err != nil {
		return nil, err
	}
	slots, err := availability.Slots(now, cfg.BookingLookaheadDays, availability.Request{
		Date:        day,
		Duration:    time.Duration(svc.DurationMinutes) * time.Minute,
		Granularity: time.Duration(cfg.SlotGranularityMinutes) * time.Minute,
		Windows:     windows,
		Busy:        busy,
	})
	if errors.Is(err, availability.ErrOutsideLookahead) {
		return nil, Validationf("date must be within the next %d days", cfg.BookingLookaheadDays)
	}
	return slots, err
}

// ReserveInput carries the parameters of one reservation attempt.
type ReserveInput struct {
	StaffID   uint64
	ServiceID uint64
	StartsAt  time.Time
}

// Reserve places a PENDING_PAYMENT hold on the slot and opens a
// payment order for the total amount.  The hold and the payment
// record are created atomically; the external create-order call runs
// after commit so a processor outage can never wedge the transaction.
// A definite processor failure releases the hold; an ambiguous one
// (timeout) keeps it, returns the booking alongside an ExternalError
// with Ambiguous set, and leaves resolution to the hold expiry sweep
// or a later verification.
func (s *BookingService) Reserve(ctx context.Context, customerID uint64, in ReserveInput) (*model.Booking, *model.PaymentRecord, error) {
	cfg, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc, staff, err := s.resolvePair(ctx, in.StaffID, in.ServiceID)
	if err != nil {
		return nil, nil, err
	}

	start := in.StartsAt.UTC()
	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)
	now := s.now()

	fee := svc.PriceCents * cfg.ConvenienceFeePercent / 100
	holdExp := now.Add(time.Duration(cfg.BookingHoldMinutes) * time.Minute)
	booking := &model.Booking{
		SalonID:             svc.SalonID,
		StaffID:             staff.ID,
		ServiceID:           svc.ID,
		CustomerID:          customerID,
		StartsAt:            start,
		EndsAt:              end,
		Status:              model.BookingPendingPayment,
		ServiceAmountCents:  svc.PriceCents,
		ConvenienceFeeCents: fee,
		TotalAmountCents:    svc.PriceCents + fee,
		HoldExpiresAt:       &holdExp,
	}

	orderRef, err := repository.NewOrderRef()
	if err != nil {
		return nil, nil, err
	}
	record := &model.PaymentRecord{
		Purpose:     model.PurposeBooking,
		OrderRef:    orderRef,
		AmountCents: booking.TotalAmountCents,
	}

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		if err := s.bookings.LockStaffTx(ctx, tx, staff.ID); err != nil {
			return err
		}
		if _, err := s.bookings.ReleaseExpiredHoldsTx(ctx, tx, staff.ID, now); err != nil {
			return err
		}
		// Re-validate the requested start against current working hours
		// under the lock; the advisory slot list may be stale.
		windows, err := s.schedule.ListByStaffDayTx(ctx, tx, staff.ID, start.Truncate(24*time.Hour).Weekday())
		if err != nil {
			return err
		}
		valid, err := availability.Slots(now, cfg.BookingLookaheadDays, availability.Request{
			Date:        start,
			Duration:    time.Duration(svc.DurationMinutes) * time.Minute,
			Granularity: time.Duration(cfg.SlotGranularityMinutes) * time.Minute,
			Windows:     windows,
		})
		if errors.Is(err, availability.ErrOutsideLookahead) {
			return Validationf("start time must be within the next %d days", cfg.BookingLookaheadDays)
		}
		if err != nil {
			return err
		}
		if !containsTime(valid, start) {
			return Validationf("start time is not a bookable slot")
		}
		n, err := s.bookings.CountOverlappingTx(ctx, tx, staff.ID, start, end)
		if err != nil {
			return err
		}
		if n > 0 {
			return Conflictf("slot already taken")
		}
		if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
			return err
		}
		record.EntityID = booking.ID
		if err := s.payments.CreateTx(ctx, tx, record); err != nil {
			return err
		}
		return s.bookings.SetOrderRefTx(ctx, tx, booking.ID, orderRef)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, Validationf("staff member not found")
	}
	if err != nil {
		return nil, nil, err
	}
	booking.PaymentOrderRef = &orderRef

	externalOrderID, err := s.processor.CreateOrder(ctx, orderRef, record.AmountCents)
	if errors.Is(err, payment.ErrAmbiguous) {
		return booking, record, &ExternalError{Msg: "payment order outcome unknown", Ambiguous: true, Err: err}
	}
	if err != nil {
		s.releaseFailedOrder(ctx, booking.ID, customerID, orderRef)
		return nil, nil, &ExternalError{Msg: "payment order creation failed", Err: err}
	}
	record.ExternalOrderID = &externalOrderID
	if err := s.payments.SetExternalOrderID(ctx, orderRef, externalOrderID); err != nil {
		return nil, nil, err
	}
	return booking, record, nil
}

// releaseFailedOrder compensates a reservation whose order creation
// definitively failed: the payment record is marked FAILED and the
// hold released so the slot frees immediately instead of waiting for
// the sweep.
func (s *BookingService) releaseFailedOrder(ctx context.Context, bookingID, customerID uint64, orderRef string) {
	_ = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.payments.MarkFailedTx(ctx, tx, orderRef); err != nil {
			return err
		}
		_, err := s.bookings.CancelIfPendingTx(ctx, tx, bookingID, customerID)
		return err
	})
}

// Cancel cancels the caller's booking.  PENDING_PAYMENT bookings
// cancel unconditionally and fail their open payment order; CONFIRMED
// bookings cancel with a refund only outside the cancellation cutoff.
func (s *BookingService) Cancel(ctx context.Context, customerID, bookingID uint64) (*model.Booking, error) {
	cfg, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out *model.Booking
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		b, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.CustomerID != customerID {
			return Policyf("booking belongs to another customer")
		}
		switch b.Status {
		case model.BookingPendingPayment:
			took, err := s.bookings.CancelIfPendingTx(ctx, tx, b.ID, customerID)
			if err != nil {
				return err
			}
			if !took {
				return Conflictf("booking is no longer pending")
			}
			if b.PaymentOrderRef != nil {
				if _, err := s.payments.MarkFailedTx(ctx, tx, *b.PaymentOrderRef); err != nil {
					return err
				}
			}
			b.Status = model.BookingCancelled
		case model.BookingConfirmed:
			cutoff := time.Duration(cfg.CancellationCutoffHours) * time.Hour
			if s.now().Add(cutoff).After(b.StartsAt) {
				return Policyf("confirmed bookings cannot be cancelled within %d hours of the appointment", cfg.CancellationCutoffHours)
			}
			took, err := s.bookings.CancelConfirmedTx(ctx, tx, b.ID, customerID, true)
			if err != nil {
				return err
			}
			if !took {
				return Conflictf("booking is no longer confirmed")
			}
			b.Status = model.BookingCancelled
			b.RefundDue = true
		default:
			return Conflictf("booking is %s and cannot be cancelled", b.Status)
		}
		out = b
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("booking not found")
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete marks a finished appointment COMPLETED.  Only the owner of
// the salon may complete it, and only after the end time has passed.
// Completed bookings are immutable, so a replay simply returns the
// booking again.
func (s *BookingService) Complete(ctx context.Context, ownerID, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("booking not found")
	}
	if err != nil {
		return nil, err
	}
	salon, err := s.salons.GetByID(ctx, b.SalonID)
	if err != nil {
		return nil, err
	}
	if salon.OwnerID != ownerID {
		return nil, repository.ErrForbidden
	}
	if b.Status == model.BookingCompleted {
		return b, nil
	}
	if b.Status != model.BookingConfirmed {
		return nil, Conflictf("booking is %s and cannot be completed", b.Status)
	}
	if s.now().Before(b.EndsAt) {
		return nil, Policyf("appointment has not finished yet")
	}
	took, err := s.bookings.CompleteIfConfirmed(ctx, b.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !took {
		return nil, Conflictf("booking is no longer confirmed")
	}
	b.Status = model.BookingCompleted
	return b, nil
}

// Get returns one of the caller's bookings.
func (s *BookingService) Get(ctx context.Context, customerID, bookingID uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("booking not found")
	}
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, Policyf("booking belongs to another customer")
	}
	return b, nil
}

// List returns the caller's bookings, newest first.
func (s *BookingService) List(ctx context.Context, customerID uint64) ([]model.Booking, error) {
	return s.bookings.ListByCustomer(ctx, customerID)
}

// resolvePair loads the service and the staff member and checks they
// belong to the same active salon.
func (s *BookingService) resolvePair(ctx context.Context, staffID, serviceID uint64) (*model.Service, *model.Staff, error) {
	svc, err := s.salons.ServiceByID(ctx, serviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, Validationf("service not found")
	}
	if err != nil {
		return nil, nil, err
	}
	staff, err := s.salons.StaffByID(ctx, staffID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, Validationf("staff member not found")
	}
	if err != nil {
		return nil, nil, err
	}
	if staff.SalonID != svc.SalonID {
		return nil, nil, Validationf("staff member does not offer this service")
	}
	salon, err := s.salons.GetByID(ctx, svc.SalonID)
	if err != nil {
		return nil, nil, err
	}
	if !salon.IsActive {
		return nil, nil, Validationf("salon is not active")
	}
	return svc, staff, nil
}

func containsTime(ts []time.Time, t time.Time) bool {
	for _, v := range ts {
		if v.Equal(t) {
			return true
		}
	}
	return false
}
