package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// BookingRepo provides data access to the bookings table.  The write
// paths that decide slot ownership are all *Tx methods so the caller
// can scope them under the staff row lock taken by LockStaffTx; two
// concurrent reservations for the same staff member therefore
// serialize on the database, not in the application.  All timestamps
// are stored and compared in UTC (the connection uses loc=UTC and
// parseTime=true).
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// LockStaffTx takes a row lock on the staff member for the duration
// of the transaction.  Every writer that decides slot ownership for a
// staff member must call this first so overlap checks and inserts
// cannot interleave.  Returns ErrNotFound when the staff member does
// not exist or is inactive.
func (r *BookingRepo) LockStaffTx(ctx context.Context, tx *sql.Tx, staffID uint64) error {
    var id uint64
    err := tx.QueryRowContext(ctx,
        `SELECT id FROM staff WHERE id = ? AND is_active = 1 FOR UPDATE`, staffID).Scan(&id)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    return err
}

// ReleaseExpiredHoldsTx cancels this staff member's PENDING_PAYMENT
// bookings whose hold deadline has passed, so stale holds never block
// an overlap check.  Must run under the staff lock.  Returns the
// number of bookings released.
func (r *BookingRepo) ReleaseExpiredHoldsTx(ctx context.Context, tx *sql.Tx, staffID uint64, now time.Time) (int64, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, hold_expires_at = NULL
         WHERE staff_id = ? AND status = ? AND hold_expires_at <= ?`,
        model.BookingCancelled, staffID, model.BookingPendingPayment, now.UTC())
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// SweepExpiredHolds is the background variant of
// ReleaseExpiredHoldsTx: a single conditional UPDATE across all staff
// for bookings past their hold deadline.  Cancelling an already
// cancelled booking matches zero rows, so the sweep is idempotent and
// safe to run from several instances at once.
func (r *BookingRepo) SweepExpiredHolds(ctx context.Context, now time.Time, limit int) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, hold_expires_at = NULL
         WHERE status = ? AND hold_expires_at <= ?
         LIMIT ?`,
        model.BookingCancelled, model.BookingPendingPayment, now.UTC(), limit)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// CountOverlappingTx counts bookings that still block [start, end)
// for the staff member.  PENDING_PAYMENT rows count as blocking; the
// caller is expected to have released expired holds first.  Must run
// under the staff lock.
func (r *BookingRepo) CountOverlappingTx(ctx context.Context, tx *sql.Tx, staffID uint64, start, end time.Time) (int, error) {
    var n int
    err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM bookings
         WHERE staff_id = ? AND status IN (?, ?)
           AND starts_at < ? AND ends_at > ?`,
        staffID, model.BookingPendingPayment, model.BookingConfirmed,
        end.UTC(), start.UTC()).Scan(&n)
    return n, err
}

// CreateTx inserts a new booking and populates the generated ID.
// Must run under the staff lock, after the overlap check.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    var holdExp interface{}
    if b.HoldExpiresAt != nil {
        holdExp = b.HoldExpiresAt.UTC()
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings
           (salon_id, staff_id, service_id, customer_id, starts_at, ends_at, status,
            service_amount_cents, convenience_fee_cents, total_amount_cents, hold_expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        b.SalonID, b.StaffID, b.ServiceID, b.CustomerID,
        b.StartsAt.UTC(), b.EndsAt.UTC(), b.Status,
        b.ServiceAmountCents, b.ConvenienceFeeCents, b.TotalAmountCents, holdExp)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// SetOrderRefTx records the payment order reference on the booking.
func (r *BookingRepo) SetOrderRefTx(ctx context.Context, tx *sql.Tx, bookingID uint64, orderRef string) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE bookings SET payment_order_ref = ? WHERE id = ?`, orderRef, bookingID)
    return err
}

// ConfirmIfPending moves the booking to CONFIRMED only if it is still
// PENDING_PAYMENT.  The conditional update makes the transition
// idempotent: a replayed verification or a race with the expiry sweep
// matches zero rows and reports took=false.
func (r *BookingRepo) ConfirmIfPending(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, hold_expires_at = NULL
         WHERE id = ? AND status = ?`,
        model.BookingConfirmed, bookingID, model.BookingPendingPayment)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// CancelIfPendingTx cancels a booking still awaiting payment.
func (r *BookingRepo) CancelIfPendingTx(ctx context.Context, tx *sql.Tx, bookingID uint64, actorID uint64) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, hold_expires_at = NULL, cancelled_by = ?
         WHERE id = ? AND status = ?`,
        model.BookingCancelled, actorID, bookingID, model.BookingPendingPayment)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// CancelConfirmedTx cancels a CONFIRMED booking and records whether a
// refund is owed.  The cutoff policy is the service's concern; this
// method only guarantees the conditional transition.
func (r *BookingRepo) CancelConfirmedTx(ctx context.Context, tx *sql.Tx, bookingID uint64, actorID uint64, refundDue bool) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, refund_due = ?, cancelled_by = ?
         WHERE id = ? AND status = ?`,
        model.BookingCancelled, refundDue, actorID, bookingID, model.BookingConfirmed)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// MarkRefundDueTx flags a cancelled booking for refund.  Used when a
// payment verifies after the hold already lapsed: the money landed but
// the slot is gone.
func (r *BookingRepo) MarkRefundDueTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET refund_due = 1 WHERE id = ? AND status = ?`,
		bookingID, model.BookingCancelled)
	return err
}

// CompleteIfConfirmed marks a finished CONFIRMED booking COMPLETED.
// Completed rows are terminal; nothing updates them afterwards.
func (r *BookingRepo) CompleteIfConfirmed(ctx context.Context, bookingID uint64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?
		 WHERE id = ? AND status = ? AND ends_at <= ?`,
		model.BookingCompleted, bookingID, model.BookingConfirmed, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// BusyIntervals returns the intervals that still block slots for the
// staff member within [dayStart, dayEnd): CONFIRMED bookings plus
// PENDING_PAYMENT bookings whose hold has not yet expired at `now`.
func (r *BookingRepo) BusyIntervals(ctx context.Context, staffID uint64, dayStart, dayEnd, now time.Time) ([]model.BusyInterval, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT starts_at, ends_at FROM bookings
         WHERE staff_id = ?
           AND starts_at < ? AND ends_at > ?
           AND (status = ? OR (status = ? AND hold_expires_at > ?))
         ORDER BY starts_at`,
        staffID, dayEnd.UTC(), dayStart.UTC(),
        model.BookingConfirmed, model.BookingPendingPayment, now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.BusyInterval
    for rows.Next() {
        var b model.BusyInterval
        if err := rows.Scan(&b.Start, &b.End); err != nil {
            return nil, err
        }
        b.Start = b.Start.UTC()
        b.End = b.End.UTC()
        out = append(out, b)
    }
    return out, rows.Err()
}

// GetByID fetches a single booking.  Returns ErrNotFound when no row
// matches.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+` WHERE id = ?`, id))
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return b, err
}

// GetByIDTx is GetByID within a transaction, locking the row so a
// finalize and a cancel cannot interleave their read-then-write.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    b, err := scanBooking(tx.QueryRowContext(ctx, bookingSelect+` WHERE id = ? FOR UPDATE`, id))
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return b, err
}

// ListByCustomer returns the customer's bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx,
        bookingSelect+` WHERE customer_id = ? ORDER BY created_at DESC`, customerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

const bookingSelect = `SELECT id, salon_id, staff_id, service_id, customer_id,
    starts_at, ends_at, status, service_amount_cents, convenience_fee_cents,
    total_amount_cents, payment_order_ref, hold_expires_at, refund_due,
    cancelled_by, created_at, updated_at
    FROM bookings`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanBooking(s rowScanner) (*model.Booking, error) {
    var (
        b           model.Booking
        orderRef    sql.NullString
        holdExp     sql.NullTime
        cancelledBy sql.NullInt64
    )
    err := s.Scan(&b.ID, &b.SalonID, &b.StaffID, &b.ServiceID, &b.CustomerID,
        &b.StartsAt, &b.EndsAt, &b.Status, &b.ServiceAmountCents, &b.ConvenienceFeeCents,
        &b.TotalAmountCents, &orderRef, &holdExp, &b.RefundDue,
        &cancelledBy, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, err
    }
    b.StartsAt = b.StartsAt.UTC()
    b.EndsAt = b.EndsAt.UTC()
    if orderRef.Valid {
        ref := orderRef.String
        b.PaymentOrderRef = &ref
    }
    if holdExp.Valid {
        u := holdExp.Time.UTC()
        b.HoldExpiresAt = &u
    }
    if cancelledBy.Valid {
        c := uint64(cancelledBy.Int64)
        b.CancelledBy = &c
    }
    return &b, nil
}
