package repository

import (
    "context"
    "crypto/rand"
    "database/sql"
    "encoding/hex"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// PaymentRepo provides data access to payment_records.  The
// CREATED → VERIFIED and CREATED → FAILED transitions are conditional
// updates so that a synchronous verify call and an asynchronous
// webhook racing for the same record cannot both take the transition;
// the loser matches zero rows and observes a no-op.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// NewOrderRef generates a random order reference of the form
// "ord_<hex>".  The column's unique key guards against the
// vanishingly unlikely collision.
func NewOrderRef() (string, error) {
    b := make([]byte, 16)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return "ord_" + hex.EncodeToString(b), nil
}

// ActiveByEntityTx returns the CREATED or VERIFIED record for the
// (purpose, entity) pair, if one exists.  Order creation consults
// this under the owning transaction so duplicate orders cannot be
// opened for the same entity.
func (r *PaymentRepo) ActiveByEntityTx(ctx context.Context, tx *sql.Tx, purpose string, entityID uint64) (*model.PaymentRecord, error) {
    rec, err := scanPayment(tx.QueryRowContext(ctx,
        paymentSelect+` WHERE purpose = ? AND entity_id = ? AND status IN (?, ?) LIMIT 1 FOR UPDATE`,
        purpose, entityID, model.PaymentCreated, model.PaymentVerified))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return rec, err
}

// CreateTx inserts a CREATED record and populates its ID.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.PaymentRecord) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO payment_records (purpose, entity_id, order_ref, amount_cents, status)
         VALUES (?, ?, ?, ?, ?)`,
        rec.Purpose, rec.EntityID, rec.OrderRef, rec.AmountCents, model.PaymentCreated)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    rec.Status = model.PaymentCreated
    return nil
}

// SetExternalOrderID records the processor-side order id once the
// outbound create-order call has succeeded.
func (r *PaymentRepo) SetExternalOrderID(ctx context.Context, orderRef, externalOrderID string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE payment_records SET external_order_id = ? WHERE order_ref = ?`,
        externalOrderID, orderRef)
    return err
}

// GetByOrderRef fetches a record by our order reference.  Returns
// ErrNotFound when no row matches.
func (r *PaymentRepo) GetByOrderRef(ctx context.Context, orderRef string) (*model.PaymentRecord, error) {
    rec, err := scanPayment(r.db.QueryRowContext(ctx,
        paymentSelect+` WHERE order_ref = ?`, orderRef))
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return rec, err
}

// MarkVerifiedTx transitions the record to VERIFIED only if it is
// currently CREATED.  Returns took=true for the single caller that
// wins the transition; replays and losers get took=false and must
// inspect the current status.
func (r *PaymentRepo) MarkVerifiedTx(ctx context.Context, tx *sql.Tx, orderRef, externalPaymentID, signature string) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE payment_records
         SET status = ?, external_payment_id = ?, signature = ?, verified_at = UTC_TIMESTAMP()
         WHERE order_ref = ? AND status = ?`,
        model.PaymentVerified, externalPaymentID, signature, orderRef, model.PaymentCreated)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// MarkFailedTx transitions the record to FAILED only if it is
// currently CREATED, mirroring MarkVerifiedTx.
func (r *PaymentRepo) MarkFailedTx(ctx context.Context, tx *sql.Tx, orderRef string) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE payment_records SET status = ? WHERE order_ref = ? AND status = ?`,
        model.PaymentFailed, orderRef, model.PaymentCreated)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// CountVerifiedByEntity reports how many VERIFIED records exist for
// the (purpose, entity) pair.  The ledger-style invariant is at most
// one; the integrity check uses this to detect violations.
func (r *PaymentRepo) CountVerifiedByEntity(ctx context.Context, purpose string, entityID uint64) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM payment_records WHERE purpose = ? AND entity_id = ? AND status = ?`,
        purpose, entityID, model.PaymentVerified).Scan(&n)
    return n, err
}

const paymentSelect = `SELECT id, purpose, entity_id, order_ref, external_order_id,
    external_payment_id, amount_cents, status, signature, verified_at, created_at, updated_at
    FROM payment_records`

func scanPayment(s rowScanner) (*model.PaymentRecord, error) {
    var (
        rec        model.PaymentRecord
        extOrder   sql.NullString
        extPayment sql.NullString
        signature  sql.NullString
        verifiedAt sql.NullTime
    )
    err := s.Scan(&rec.ID, &rec.Purpose, &rec.EntityID, &rec.OrderRef, &extOrder,
        &extPayment, &rec.AmountCents, &rec.Status, &signature, &verifiedAt,
        &rec.CreatedAt, &rec.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if extOrder.Valid {
        v := extOrder.String
        rec.ExternalOrderID = &v
    }
    if extPayment.Valid {
        v := extPayment.String
        rec.ExternalPaymentID = &v
    }
    if signature.Valid {
        v := signature.String
        rec.Signature = &v
    }
    if verifiedAt.Valid {
        t := verifiedAt.Time.UTC()
        rec.VerifiedAt = &t
    }
    return &rec, nil
}
