package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// ScheduleRepo provides data access to staff_availability_windows.
// Writes validate the no-overlap invariant for a staff member's day
// under the staff row lock; the booking path only reads.
type ScheduleRepo struct {
    db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// Create inserts a window after verifying ownership and the
// no-overlap invariant.  The whole check-and-insert runs in one
// transaction with the staff row locked, so two concurrent edits
// cannot both pass the overlap check.  Returns ErrForbidden when the
// staff member does not belong to a salon owned by ownerID, and
// ErrConflict when the window overlaps an existing one.
func (r *ScheduleRepo) Create(ctx context.Context, ownerID uint64, w *model.AvailabilityWindow) error {
    if w.StartMinute >= w.EndMinute {
        return ErrConflict
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := r.lockOwnedStaffTx(ctx, tx, ownerID, w.StaffID); err != nil {
        return err
    }
    var overlapping int
    err = tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM staff_availability_windows
         WHERE staff_id = ? AND weekday = ? AND start_minute < ? AND end_minute > ?`,
        w.StaffID, int(w.Weekday), w.EndMinute, w.StartMinute).Scan(&overlapping)
    if err != nil {
        return err
    }
    if overlapping > 0 {
        return ErrConflict
    }
    res, err := tx.ExecContext(ctx,
        `INSERT INTO staff_availability_windows (staff_id, weekday, start_minute, end_minute)
         VALUES (?, ?, ?, ?)`,
        w.StaffID, int(w.Weekday), w.StartMinute, w.EndMinute)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    w.ID = uint64(id)
    return nil
}

// Delete removes a window after verifying that the caller owns the
// salon the staff member works at.
func (r *ScheduleRepo) Delete(ctx context.Context, ownerID, windowID uint64) error {
    var staffID uint64
    err := r.db.QueryRowContext(ctx,
        `SELECT staff_id FROM staff_availability_windows WHERE id = ?`, windowID).Scan(&staffID)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    var actualOwner uint64
    err = r.db.QueryRowContext(ctx,
        `SELECT s.owner_id FROM staff st JOIN salons s ON s.id = st.salon_id WHERE st.id = ?`,
        staffID).Scan(&actualOwner)
    if err != nil {
        return err
    }
    if actualOwner != ownerID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx,
        `DELETE FROM staff_availability_windows WHERE id = ?`, windowID)
    return err
}

// ListByStaff returns all windows for the staff member ordered by
// weekday and start.
func (r *ScheduleRepo) ListByStaff(ctx context.Context, staffID uint64) ([]model.AvailabilityWindow, error) {
    return r.list(ctx,
        `SELECT id, staff_id, weekday, start_minute, end_minute, created_at, updated_at
         FROM staff_availability_windows WHERE staff_id = ?
         ORDER BY weekday, start_minute`, staffID)
}

// ListByStaffDay returns the windows for one weekday, which is all
// the slot calculator needs for a single date.
func (r *ScheduleRepo) ListByStaffDay(ctx context.Context, staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error) {
    return r.list(ctx,
        `SELECT id, staff_id, weekday, start_minute, end_minute, created_at, updated_at
         FROM staff_availability_windows WHERE staff_id = ? AND weekday = ?
         ORDER BY start_minute`, staffID, int(weekday))
}

// ListByStaffDayTx is ListByStaffDay inside a transaction, used by
// the reservation path to re-validate the slot against current data
// under the staff lock.
func (r *ScheduleRepo) ListByStaffDayTx(ctx context.Context, tx *sql.Tx, staffID uint64, weekday time.Weekday) ([]model.AvailabilityWindow, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT id, staff_id, weekday, start_minute, end_minute, created_at, updated_at
         FROM staff_availability_windows WHERE staff_id = ? AND weekday = ?
         ORDER BY start_minute`, staffID, int(weekday))
    if err != nil {
        return nil, err
    }
    return scanWindows(rows)
}

func (r *ScheduleRepo) lockOwnedStaffTx(ctx context.Context, tx *sql.Tx, ownerID, staffID uint64) error {
    var actualOwner uint64
    err := tx.QueryRowContext(ctx,
        `SELECT s.owner_id FROM staff st JOIN salons s ON s.id = st.salon_id
         WHERE st.id = ? FOR UPDATE`, staffID).Scan(&actualOwner)
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

func (r *ScheduleRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.AvailabilityWindow, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    return scanWindows(rows)
}

func scanWindows(rows *sql.Rows) ([]model.AvailabilityWindow, error) {
    defer rows.Close()
    out := make([]model.AvailabilityWindow, 0)
    for rows.Next() {
        var (
            w       model.AvailabilityWindow
            weekday int
        )
        if err := rows.Scan(&w.ID, &w.StaffID, &weekday, &w.StartMinute, &w.EndMinute,
            &w.CreatedAt, &w.UpdatedAt); err != nil {
            return nil, err
        }
        w.Weekday = time.Weekday(weekday)
        out = append(out, w)
    }
    return out, rows.Err()
}
