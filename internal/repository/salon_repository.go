package repository

import (
    "context"
    "database/sql"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// SalonRepo provides data access to salons, their services and their
// staff.  Salons are only ever created by the approval flow
// (CreateTx); the rest is read traffic for the booking path plus
// owner-side catalog management.
type SalonRepo struct {
    db *sql.DB
}

// NewSalonRepo returns a new SalonRepo bound to the given database.
func NewSalonRepo(db *sql.DB) *SalonRepo { return &SalonRepo{db: db} }

// CreateTx inserts a salon within the approval transaction and
// populates its ID.
func (r *SalonRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Salon) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO salons (owner_id, name, address, phone, is_active)
         VALUES (?, ?, ?, ?, ?)`,
        s.OwnerID, s.Name, s.Address, s.Phone, s.IsActive)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// ActivateTx flips the salon to active; called when the vendor
// request reaches ACTIVE.
func (r *SalonRepo) ActivateTx(ctx context.Context, tx *sql.Tx, salonID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE salons SET is_active = 1 WHERE id = ?`, salonID)
    return err
}

// GetByID fetches a salon.  Returns ErrNotFound when no row matches.
func (r *SalonRepo) GetByID(ctx context.Context, id uint64) (*model.Salon, error) {
    var (
        s       model.Salon
        address sql.NullString
        phone   sql.NullString
    )
    err := r.db.QueryRowContext(ctx,
        `SELECT id, owner_id, name, address, phone, is_active, created_at, updated_at
         FROM salons WHERE id = ?`, id).
        Scan(&s.ID, &s.OwnerID, &s.Name, &address, &phone, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if address.Valid {
        v := address.String
        s.Address = &v
    }
    if phone.Valid {
        v := phone.String
        s.Phone = &v
    }
    return &s, nil
}

// ServiceByID fetches an active service.  Returns ErrNotFound when
// the service does not exist or is inactive.
func (r *SalonRepo) ServiceByID(ctx context.Context, id uint64) (*model.Service, error) {
    var s model.Service
    err := r.db.QueryRowContext(ctx,
        `SELECT id, salon_id, name, duration_minutes, price_cents, is_active, created_at, updated_at
         FROM salon_services WHERE id = ? AND is_active = 1`, id).
        Scan(&s.ID, &s.SalonID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.IsActive,
            &s.CreatedAt, &s.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// StaffByID fetches an active staff member.  Returns ErrNotFound when
// the staff member does not exist or is inactive.
func (r *SalonRepo) StaffByID(ctx context.Context, id uint64) (*model.Staff, error) {
    var st model.Staff
    err := r.db.QueryRowContext(ctx,
        `SELECT id, salon_id, full_name, is_active, created_at, updated_at
         FROM staff WHERE id = ? AND is_active = 1`, id).
        Scan(&st.ID, &st.SalonID, &st.FullName, &st.IsActive, &st.CreatedAt, &st.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &st, nil
}

// CreateService adds a service to a salon owned by ownerID.
func (r *SalonRepo) CreateService(ctx context.Context, ownerID uint64, s *model.Service) error {
    if err := r.requireOwner(ctx, ownerID, s.SalonID); err != nil {
        return err
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO salon_services (salon_id, name, duration_minutes, price_cents, is_active)
         VALUES (?, ?, ?, ?, 1)`,
        s.SalonID, s.Name, s.DurationMinutes, s.PriceCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// CreateStaff adds a staff member to a salon owned by ownerID.
func (r *SalonRepo) CreateStaff(ctx context.Context, ownerID uint64, st *model.Staff) error {
    if err := r.requireOwner(ctx, ownerID, st.SalonID); err != nil {
        return err
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO staff (salon_id, full_name, is_active) VALUES (?, ?, 1)`,
        st.SalonID, st.FullName)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    st.ID = uint64(id)
    return nil
}

// ListServices returns a salon's active services.
func (r *SalonRepo) ListServices(ctx context.Context, salonID uint64) ([]model.Service, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, salon_id, name, duration_minutes, price_cents, is_active, created_at, updated_at
         FROM salon_services WHERE salon_id = ? AND is_active = 1 ORDER BY name`, salonID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Service, 0)
    for rows.Next() {
        var s model.Service
        if err := rows.Scan(&s.ID, &s.SalonID, &s.Name, &s.DurationMinutes, &s.PriceCents,
            &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// ListStaff returns a salon's active staff members.
func (r *SalonRepo) ListStaff(ctx context.Context, salonID uint64) ([]model.Staff, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, salon_id, full_name, is_active, created_at, updated_at
         FROM staff WHERE salon_id = ? AND is_active = 1 ORDER BY full_name`, salonID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Staff, 0)
    for rows.Next() {
        var st model.Staff
        if err := rows.Scan(&st.ID, &st.SalonID, &st.FullName, &st.IsActive,
            &st.CreatedAt, &st.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, st)
    }
    return out, rows.Err()
}

func (r *SalonRepo) requireOwner(ctx context.Context, ownerID, salonID uint64) error {
    var actualOwner uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT owner_id FROM salons WHERE id = ?`, salonID).Scan(&actualOwner)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if actualOwner != ownerID {
        return ErrForbidden
    }
    return nil
}
