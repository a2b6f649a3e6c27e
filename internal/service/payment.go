package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/payment"
	"github.com/salonhub/salon-booking-platform/internal/queue"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

// PaymentService verifies payment callbacks and webhooks and settles
// the records they belong to.  Verification is idempotent: the
// CREATED → VERIFIED transition is conditional, exactly one caller
// wins it, and replays of an already-verified order re-run only the
// idempotent finalization, so a crash between verify and finalize
// heals on the next delivery.
type PaymentService struct {
	tx       repository.TxRunner
	payments PaymentStore
	bookings BookingStore
	secret   string
	events   EventPublisher
	now      func() time.Time
}

// NewPaymentService wires a PaymentService.  secret is the processor
// key used to check callback signatures.
func NewPaymentService(tx repository.TxRunner, payments PaymentStore, bookings BookingStore,
	secret string, events EventPublisher) *PaymentService {
	return &PaymentService{
		tx:       tx,
		payments: payments,
		bookings: bookings,
		secret:   secret,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Verify checks the processor signature for the order and settles the
// payment record.  Both the synchronous client callback and the
// asynchronous webhook funnel into this method; whichever arrives
// second observes a no-op.
func (s *PaymentService) Verify(ctx context.Context, orderRef, externalPaymentID, signature string) (*model.PaymentRecord, error) {
	if orderRef == "" || externalPaymentID == "" || signature == "" {
		return nil, Validationf("order_ref, payment_id and signature are required")
	}
	rec, err := s.payments.GetByOrderRef(ctx, orderRef)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("unknown order reference")
	}
	if err != nil {
		return nil, err
	}
	if !payment.VerifySignature(s.secret, orderRef, externalPaymentID, signature) {
		return nil, Validationf("signature mismatch")
	}
	if rec.Status == model.PaymentFailed {
		return nil, Conflictf("payment order already failed")
	}

	// settleErr carries the hold-expired outcome out of the closure
	// without rolling back: the verified mark and the refund flag must
	// commit even when the slot is already gone.
	var (
		confirmed *model.Booking
		settleErr error
	)
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		took, err := s.payments.MarkVerifiedTx(ctx, tx, orderRef, externalPaymentID, signature)
		if err != nil {
			return err
		}
		if !took && rec.Status == model.PaymentCreated {
			// Lost the transition to a concurrent caller or to a late
			// failure; re-read below decides which.
			return nil
		}
		if rec.Purpose != model.PurposeBooking {
			// Vendor registration fees need no further settlement here;
			// activation checks for the VERIFIED record separately.
			return nil
		}
		b, err := s.finalizeBookingTx(ctx, tx, rec.EntityID)
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			settleErr = err
			return nil
		}
		if err != nil {
			return err
		}
		confirmed = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settleErr != nil {
		return nil, settleErr
	}

	rec, err = s.payments.GetByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if rec.Status != model.PaymentVerified {
		return nil, Conflictf("payment order is %s", rec.Status)
	}
	if confirmed != nil {
		s.events.BookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingID:        confirmed.ID,
			CustomerID:       confirmed.CustomerID,
			SalonID:          confirmed.SalonID,
			StaffID:          confirmed.StaffID,
			ServiceID:        confirmed.ServiceID,
			StartsAt:         confirmed.StartsAt.Format(time.RFC3339),
			EndsAt:           confirmed.EndsAt.Format(time.RFC3339),
			TotalAmountCents: confirmed.TotalAmountCents,
			ConfirmedAt:      s.now().Format(time.RFC3339),
		})
	}
	return rec, nil
}

// finalizeBookingTx confirms the booking behind a verified payment.
// If the hold already lapsed and the sweep cancelled the booking, the
// money landed for a slot that is gone: the booking is flagged for
// refund instead.
func (s *PaymentService) finalizeBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (*model.Booking, error) {
	took, err := s.bookings.ConfirmIfPending(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if took {
		return b, nil
	}
	switch b.Status {
	case model.BookingConfirmed:
		// Replay of an already-finalized verification.
		return nil, nil
	case model.BookingCancelled:
		if err := s.bookings.MarkRefundDueTx(ctx, tx, b.ID); err != nil {
			return nil, err
		}
		return nil, Conflictf("hold expired before payment verified; refund due")
	default:
		return nil, Integrityf("booking %d in unexpected status %s after verified payment", b.ID, b.Status)
	}
}

// Status returns the payment record for an order reference.  Clients
// poll this after an ambiguous order creation.
func (s *PaymentService) Status(ctx context.Context, orderRef string) (*model.PaymentRecord, error) {
	rec, err := s.payments.GetByOrderRef(ctx, orderRef)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("unknown order reference")
	}
	return rec, err
}

// CheckEntity verifies the at-most-one-verified-payment invariant for
// one (purpose, entity) pair.
func (s *PaymentService) CheckEntity(ctx context.Context, purpose string, entityID uint64) error {
	n, err := s.payments.CountVerifiedByEntity(ctx, purpose, entityID)
	if err != nil {
		return err
	}
	if n > 1 {
		return Integrityf("%d verified payments for %s %d", n, purpose, entityID)
	}
	return nil
}
