package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/payment"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

const paySecret = "verify-secret"

type paymentFixture struct {
	svc      *PaymentService
	payments *mockPayments
	bookings *mockBookings
	events   *recordedEvents

	record  *model.PaymentRecord
	booking *model.Booking

	refundFlagged []uint64
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{events: &recordedEvents{}}
	f.record = &model.PaymentRecord{
		ID:          1,
		Purpose:     model.PurposeBooking,
		EntityID:    9,
		OrderRef:    "ord_test",
		AmountCents: 10500,
		Status:      model.PaymentCreated,
	}
	f.booking = &model.Booking{
		ID:         9,
		CustomerID: 42,
		SalonID:    3,
		StaffID:    7,
		ServiceID:  5,
		StartsAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		Status:     model.BookingPendingPayment,
	}
	f.payments = &mockPayments{
		getByOrderRef: func(orderRef string) (*model.PaymentRecord, error) {
			cp := *f.record
			return &cp, nil
		},
		markVerified: func(orderRef, externalPaymentID, signature string) (bool, error) {
			if f.record.Status != model.PaymentCreated {
				return false, nil
			}
			f.record.Status = model.PaymentVerified
			return true, nil
		},
	}
	f.bookings = &mockBookings{
		confirm: func(bookingID uint64) (bool, error) {
			if f.booking.Status != model.BookingPendingPayment {
				return false, nil
			}
			f.booking.Status = model.BookingConfirmed
			return true, nil
		},
		getByID: func(id uint64) (*model.Booking, error) {
			cp := *f.booking
			return &cp, nil
		},
		markRefundDue: func(bookingID uint64) error {
			f.refundFlagged = append(f.refundFlagged, bookingID)
			return nil
		},
	}
	f.svc = NewPaymentService(&stubTx{}, f.payments, f.bookings, paySecret, f.events)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC) }
	return f
}

func signFor(orderRef, paymentID string) string {
	return payment.Signature(paySecret, orderRef, paymentID)
}

func TestVerifyConfirmsBookingAndPublishes(t *testing.T) {
	f := newPaymentFixture(t)

	rec, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, model.PaymentVerified, rec.Status)
	assert.Equal(t, model.BookingConfirmed, f.booking.Status)
	require.Len(t, f.events.bookings, 1)
	assert.Equal(t, uint64(9), f.events.bookings[0].BookingID)
	assert.Equal(t, uint64(42), f.events.bookings[0].CustomerID)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", "deadbeef")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, model.PaymentCreated, f.record.Status)
	assert.Equal(t, model.BookingPendingPayment, f.booking.Status)
}

func TestVerifyReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))
	require.NoError(t, err)
	rec, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, model.PaymentVerified, rec.Status)
	assert.Equal(t, model.BookingConfirmed, f.booking.Status)
	// The confirmation event fires once, on the verification that
	// actually took the transition.
	assert.Len(t, f.events.bookings, 1)
}

func TestVerifyHealsCrashBetweenVerifyAndConfirm(t *testing.T) {
	f := newPaymentFixture(t)
	// Simulate a crash after the record verified but before the
	// booking confirmed: the record is VERIFIED, the booking still
	// PENDING_PAYMENT.
	f.record.Status = model.PaymentVerified

	rec, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, model.PaymentVerified, rec.Status)
	assert.Equal(t, model.BookingConfirmed, f.booking.Status)
}

func TestVerifyAfterHoldExpiredFlagsRefund(t *testing.T) {
	f := newPaymentFixture(t)
	f.booking.Status = model.BookingCancelled

	_, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{9}, f.refundFlagged)
	assert.Empty(t, f.events.bookings)
}

func TestVerifyFailedOrder(t *testing.T) {
	f := newPaymentFixture(t)
	f.record.Status = model.PaymentFailed

	_, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestVerifyUnknownOrder(t *testing.T) {
	f := newPaymentFixture(t)
	f.payments.getByOrderRef = func(string) (*model.PaymentRecord, error) {
		return nil, repository.ErrNotFound
	}

	_, err := f.svc.Verify(context.Background(), "ord_missing", "pay_1", signFor("ord_missing", "pay_1"))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestVerifyVendorRegistrationSkipsBooking(t *testing.T) {
	f := newPaymentFixture(t)
	f.record.Purpose = model.PurposeVendorRegistration

	rec, err := f.svc.Verify(context.Background(), "ord_test", "pay_1", signFor("ord_test", "pay_1"))
	require.NoError(t, err)

	assert.Equal(t, model.PaymentVerified, rec.Status)
	assert.Equal(t, model.BookingPendingPayment, f.booking.Status)
	assert.Empty(t, f.events.bookings)
}

func TestCheckEntityFlagsDuplicateVerified(t *testing.T) {
	f := newPaymentFixture(t)
	f.payments.countVerified = func(string, uint64) (int, error) { return 2, nil }

	err := f.svc.CheckEntity(context.Background(), model.PurposeBooking, 9)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
}
