package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/payment"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

var (
	bookNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)  // Sunday
	bookStart = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)  // Monday 10:00
)

func mondayWindow() []model.AvailabilityWindow {
	return []model.AvailabilityWindow{
		{ID: 1, StaffID: 7, Weekday: time.Monday, StartMinute: 540, EndMinute: 1020},
	}
}

type bookingFixture struct {
	svc       *BookingService
	tx        *stubTx
	bookings  *mockBookings
	payments  *mockPayments
	processor *mockProcessor

	created      []*model.Booking
	records      []*model.PaymentRecord
	failedOrders []string
	cancelled    []uint64
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{tx: &stubTx{}}
	f.bookings = &mockBookings{
		lockStaff: func(staffID uint64) error { return nil },
		countOverlap: func(staffID uint64, start, end time.Time) (int, error) {
			return 0, nil
		},
		create: func(b *model.Booking) error {
			b.ID = uint64(len(f.created) + 1)
			f.created = append(f.created, b)
			return nil
		},
		cancelPending: func(bookingID, actorID uint64) (bool, error) {
			f.cancelled = append(f.cancelled, bookingID)
			return true, nil
		},
		busy: func(staffID uint64) ([]model.BusyInterval, error) { return nil, nil },
	}
	f.payments = &mockPayments{
		create: func(rec *model.PaymentRecord) error {
			rec.ID = uint64(len(f.records) + 1)
			f.records = append(f.records, rec)
			return nil
		},
		markFailed: func(orderRef string) (bool, error) {
			f.failedOrders = append(f.failedOrders, orderRef)
			return true, nil
		},
	}
	salons := &mockSalons{
		serviceByID: func(id uint64) (*model.Service, error) {
			return &model.Service{ID: id, SalonID: 3, Name: "Haircut", DurationMinutes: 30, PriceCents: 10000, IsActive: true}, nil
		},
		staffByID: func(id uint64) (*model.Staff, error) {
			return &model.Staff{ID: id, SalonID: 3, FullName: "Dana", IsActive: true}, nil
		},
		getByID: func(id uint64) (*model.Salon, error) {
			return &model.Salon{ID: id, OwnerID: 2, Name: "Shear Genius", IsActive: true}, nil
		},
	}
	schedule := &mockSchedule{
		listByDay: func(staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error) {
			return mondayWindow(), nil
		},
	}
	f.processor = &mockProcessor{
		createOrder: func(orderRef string, amountCents int64) (string, error) {
			return "ext_" + orderRef, nil
		},
	}
	f.svc = NewBookingService(f.tx, f.bookings, f.payments, salons, schedule,
		&mockSettings{cfg: defaultSettings()}, f.processor)
	f.svc.now = func() time.Time { return bookNow }
	return f
}

func TestReserveCreatesHoldAndOrder(t *testing.T) {
	f := newBookingFixture(t)

	b, rec, err := f.svc.Reserve(context.Background(), 42, ReserveInput{StaffID: 7, ServiceID: 5, StartsAt: bookStart})
	require.NoError(t, err)

	assert.Equal(t, model.BookingPendingPayment, b.Status)
	assert.Equal(t, int64(10000), b.ServiceAmountCents)
	assert.Equal(t, int64(500), b.ConvenienceFeeCents)
	assert.Equal(t, int64(10500), b.TotalAmountCents)
	require.NotNil(t, b.HoldExpiresAt)
	assert.Equal(t, bookNow.Add(15*time.Minute), *b.HoldExpiresAt)
	assert.Equal(t, bookStart.Add(30*time.Minute), b.EndsAt)

	require.NotNil(t, rec)
	assert.Equal(t, model.PurposeBooking, rec.Purpose)
	assert.Equal(t, b.ID, rec.EntityID)
	assert.Equal(t, int64(10500), rec.AmountCents)
	require.NotNil(t, rec.ExternalOrderID)
	assert.Equal(t, "ext_"+rec.OrderRef, *rec.ExternalOrderID)
}

func TestReserveSlotTaken(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.countOverlap = func(uint64, time.Time, time.Time) (int, error) { return 1, nil }
	processorCalled := false
	f.processor.createOrder = func(string, int64) (string, error) {
		processorCalled = true
		return "", nil
	}

	_, _, err := f.svc.Reserve(context.Background(), 42, ReserveInput{StaffID: 7, ServiceID: 5, StartsAt: bookStart})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.False(t, processorCalled)
	assert.Empty(t, f.created)
}

func TestReserveStartOutsideWorkingHours(t *testing.T) {
	f := newBookingFixture(t)

	evening := time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)
	_, _, err := f.svc.Reserve(context.Background(), 42, ReserveInput{StaffID: 7, ServiceID: 5, StartsAt: evening})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestReserveMisalignedStart(t *testing.T) {
	f := newBookingFixture(t)

	off := time.Date(2026, 3, 2, 10, 7, 0, 0, time.UTC)
	_, _, err := f.svc.Reserve(context.Background(), 42, ReserveInput{StaffID: 7, ServiceID: 5, StartsAt: off})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestReserveProcessorFailureReleasesHold(t *testing.T) {
	f := newBookingFixture(t)
	f.processor.createOrder = func(string, int64) (string, error) {
		return "", errors.New("processor rejected the order")
	}

	_, _, err := f.svc.Reserve(context.Background(), 42, ReserveInput{StaffID: 7, ServiceID: 5, StartsAt: bookStart})

	var external *ExternalError
	require.ErrorAs(t, err, &external)
	assert.False(t, external.Ambiguous)
	require.Len(t, f.created, 1)
	assert.Equal(t, []uint64{f.created[0].ID}, f.cancelled)
	assert.Len(t, f.failedOrders, 1)
}

func TestReserveProcessorTimeoutKeepsHold(t *testing.T) {
	f := newBookingFixture(t)
	f.processor.createOrder = func(string, int64) (string, error) {
		return "", payment.ErrAmbiguous
	}

	b, rec, err := f.svc.Reserve(context.Background(), 42, ReserveInput{StaffID: 7, ServiceID: 5, StartsAt: bookStart})

	var external *ExternalError
	require.ErrorAs(t, err, &external)
	assert.True(t, external.Ambiguous)
	// The hold survives an ambiguous outcome: the booking is handed
	// back so the client can poll the order status.
	require.NotNil(t, b)
	require.NotNil(t, rec)
	assert.Empty(t, f.cancelled)
	assert.Empty(t, f.failedOrders)
}

func TestCancelPendingFailsOpenOrder(t *testing.T) {
	f := newBookingFixture(t)
	ref := "ord_abc"
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, CustomerID: 42, Status: model.BookingPendingPayment, PaymentOrderRef: &ref}, nil
	}

	b, err := f.svc.Cancel(context.Background(), 42, 9)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.Equal(t, []uint64{9}, f.cancelled)
	assert.Equal(t, []string{ref}, f.failedOrders)
}

func TestCancelConfirmedOutsideCutoff(t *testing.T) {
	f := newBookingFixture(t)
	starts := bookNow.Add(48 * time.Hour)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, CustomerID: 42, Status: model.BookingConfirmed, StartsAt: starts}, nil
	}
	var gotRefund bool
	f.bookings.cancelConfirmed = func(bookingID, actorID uint64, refundDue bool) (bool, error) {
		gotRefund = refundDue
		return true, nil
	}

	b, err := f.svc.Cancel(context.Background(), 42, 9)
	require.NoError(t, err)
	assert.True(t, b.RefundDue)
	assert.True(t, gotRefund)
}

func TestCancelConfirmedInsideCutoff(t *testing.T) {
	f := newBookingFixture(t)
	starts := bookNow.Add(2 * time.Hour)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, CustomerID: 42, Status: model.BookingConfirmed, StartsAt: starts}, nil
	}

	_, err := f.svc.Cancel(context.Background(), 42, 9)

	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
}

func TestCancelSomeoneElsesBooking(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, CustomerID: 1, Status: model.BookingPendingPayment}, nil
	}

	_, err := f.svc.Cancel(context.Background(), 42, 9)

	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
}

func TestCancelCompletedBooking(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, CustomerID: 42, Status: model.BookingCompleted}, nil
	}

	_, err := f.svc.Cancel(context.Background(), 42, 9)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCompleteFinishedBooking(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, SalonID: 3, CustomerID: 42,
			Status: model.BookingConfirmed, EndsAt: bookNow.Add(-time.Hour)}, nil
	}
	var completed []uint64
	f.bookings.complete = func(bookingID uint64) (bool, error) {
		completed = append(completed, bookingID)
		return true, nil
	}

	b, err := f.svc.Complete(context.Background(), 2, 9)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, b.Status)
	assert.Equal(t, []uint64{9}, completed)
}

func TestCompleteBeforeEndTime(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, SalonID: 3, CustomerID: 42,
			Status: model.BookingConfirmed, EndsAt: bookNow.Add(time.Hour)}, nil
	}

	_, err := f.svc.Complete(context.Background(), 2, 9)

	var policy *PolicyError
	require.ErrorAs(t, err, &policy)
}

func TestCompleteWrongOwner(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, SalonID: 3, CustomerID: 42,
			Status: model.BookingConfirmed, EndsAt: bookNow.Add(-time.Hour)}, nil
	}

	_, err := f.svc.Complete(context.Background(), 5, 9)

	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestCompleteReplayIsIdempotent(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.getByID = func(id uint64) (*model.Booking, error) {
		return &model.Booking{ID: id, SalonID: 3, CustomerID: 42,
			Status: model.BookingCompleted, EndsAt: bookNow.Add(-time.Hour)}, nil
	}
	f.bookings.complete = func(bookingID uint64) (bool, error) {
		t.Fatal("completed booking must not be updated again")
		return false, nil
	}

	b, err := f.svc.Complete(context.Background(), 2, 9)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, b.Status)
}

func TestSlotsExcludesBusyIntervals(t *testing.T) {
	f := newBookingFixture(t)
	f.bookings.busy = func(uint64) ([]model.BusyInterval, error) {
		return []model.BusyInterval{{
			Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC),
		}}, nil
	}

	slots, err := f.svc.Slots(context.Background(), 7, 5, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Window runs to 17:00 and the service takes 30 minutes, so only
	// 16:30 remains once the rest of the day is busy.
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC), slots[0])
}

func TestSlotsRejectsDateBeyondLookahead(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Slots(context.Background(), 7, 5, bookNow.AddDate(0, 0, 45))

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}
