package repository

import (
    "context"
    "database/sql"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// VendorRepo provides data access to vendor_requests and their audit
// trail.  Every state change goes through TransitionTx, which couples
// a conditional status update with an audit row in the same
// transaction, so a transition can neither be taken twice nor taken
// without being recorded.
type VendorRepo struct {
    db *sql.DB
}

// NewVendorRepo returns a new VendorRepo bound to the given database.
func NewVendorRepo(db *sql.DB) *VendorRepo { return &VendorRepo{db: db} }

// Create inserts a new request in DRAFT status and populates its ID.
func (r *VendorRepo) Create(ctx context.Context, req *model.VendorRequest) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO vendor_requests
           (agent_id, owner_email, business_name, business_address, business_phone, status)
         VALUES (?, ?, ?, ?, ?, ?)`,
        req.AgentID, req.OwnerEmail, req.BusinessName, req.BusinessAddress, req.BusinessPhone,
        model.VendorDraft)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    req.ID = uint64(id)
    req.Status = model.VendorDraft
    return nil
}

// TransitionTx atomically moves the request from one status to
// another and appends the audit row.  The conditional update makes
// out-of-order and duplicate transitions no-ops: took=false means the
// request was not in the expected source state.
func (r *VendorRepo) TransitionTx(ctx context.Context, tx *sql.Tx, requestID uint64, from, to string, actorID uint64, reason *string) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE vendor_requests SET status = ?, rejection_reason = COALESCE(?, rejection_reason)
         WHERE id = ? AND status = ?`,
        to, reasonForStatus(to, reason), requestID, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n != 1 {
        return false, nil
    }
    _, err = tx.ExecContext(ctx,
        `INSERT INTO vendor_request_transitions (request_id, from_status, to_status, actor_id, reason)
         VALUES (?, ?, ?, ?, ?)`,
        requestID, from, to, actorID, reason)
    return err == nil, err
}

// reasonForStatus only persists the reason onto the request row for
// rejections; other transitions keep it in the audit trail alone.
func reasonForStatus(to string, reason *string) *string {
    if to == model.VendorRejected {
        return reason
    }
    return nil
}

// SetSalonTx links the salon created on approval to the request.
func (r *VendorRepo) SetSalonTx(ctx context.Context, tx *sql.Tx, requestID, salonID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE vendor_requests SET salon_id = ? WHERE id = ?`, salonID, requestID)
    return err
}

// ConsumeActivationTx marks the activation token used.  The
// conditional update enforces single use: a second activation attempt
// matches zero rows.
func (r *VendorRepo) ConsumeActivationTx(ctx context.Context, tx *sql.Tx, requestID uint64) (bool, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE vendor_requests SET activation_consumed_at = UTC_TIMESTAMP()
         WHERE id = ? AND activation_consumed_at IS NULL`,
        requestID)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n == 1, err
}

// GetByID fetches a request.  Returns ErrNotFound when no row matches.
func (r *VendorRepo) GetByID(ctx context.Context, id uint64) (*model.VendorRequest, error) {
    req, err := scanVendor(r.db.QueryRowContext(ctx, vendorSelect+` WHERE id = ?`, id))
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return req, err
}

// GetByIDTx fetches and locks a request inside a transaction.
func (r *VendorRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.VendorRequest, error) {
    req, err := scanVendor(tx.QueryRowContext(ctx, vendorSelect+` WHERE id = ? FOR UPDATE`, id))
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return req, err
}

// ListByAgent returns the agent's requests, newest first.
func (r *VendorRepo) ListByAgent(ctx context.Context, agentID uint64) ([]model.VendorRequest, error) {
    return r.list(ctx, vendorSelect+` WHERE agent_id = ? ORDER BY created_at DESC`, agentID)
}

// ListByStatus returns requests in the given status, oldest first, so
// admins work the queue in submission order.
func (r *VendorRepo) ListByStatus(ctx context.Context, status string) ([]model.VendorRequest, error) {
    return r.list(ctx, vendorSelect+` WHERE status = ? ORDER BY created_at ASC`, status)
}

// Transitions returns the audit trail for one request in order.
func (r *VendorRepo) Transitions(ctx context.Context, requestID uint64) ([]model.VendorTransition, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, request_id, from_status, to_status, actor_id, reason, created_at
         FROM vendor_request_transitions WHERE request_id = ? ORDER BY id`, requestID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.VendorTransition, 0)
    for rows.Next() {
        var (
            t      model.VendorTransition
            reason sql.NullString
        )
        if err := rows.Scan(&t.ID, &t.RequestID, &t.FromStatus, &t.ToStatus, &t.ActorID, &reason, &t.CreatedAt); err != nil {
            return nil, err
        }
        if reason.Valid {
            v := reason.String
            t.Reason = &v
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

func (r *VendorRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.VendorRequest, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.VendorRequest, 0)
    for rows.Next() {
        req, err := scanVendor(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *req)
    }
    return out, rows.Err()
}

const vendorSelect = `SELECT id, agent_id, owner_email, business_name, business_address,
    business_phone, status, rejection_reason, salon_id, activation_consumed_at,
    created_at, updated_at
    FROM vendor_requests`

func scanVendor(s rowScanner) (*model.VendorRequest, error) {
    var (
        req      model.VendorRequest
        addr     sql.NullString
        phone    sql.NullString
        reason   sql.NullString
        salonID  sql.NullInt64
        consumed sql.NullTime
    )
    err := s.Scan(&req.ID, &req.AgentID, &req.OwnerEmail, &req.BusinessName, &addr,
        &phone, &req.Status, &reason, &salonID, &consumed, &req.CreatedAt, &req.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if addr.Valid {
        v := addr.String
        req.BusinessAddress = &v
    }
    if phone.Valid {
        v := phone.String
        req.BusinessPhone = &v
    }
    if reason.Valid {
        v := reason.String
        req.RejectionReason = &v
    }
    if salonID.Valid {
        v := uint64(salonID.Int64)
        req.SalonID = &v
    }
    if consumed.Valid {
        t := consumed.Time.UTC()
        req.ActivationConsumedAt = &t
    }
    return &req, nil
}
