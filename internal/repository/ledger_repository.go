package repository

import (
    "context"
    "database/sql"

    "github.com/salonhub/salon-booking-platform/internal/model"
)

// LedgerRepo maintains agent performance scores and their append-only
// history.  CreditTx couples the history insert with a
// single-statement increment of the running score, so the total and
// the audit trail can never diverge, even under concurrent credits
// for the same agent.
type LedgerRepo struct {
    db *sql.DB
}

// NewLedgerRepo returns a new LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// EnsureProfileTx creates the agent's profile row if it does not
// exist yet.  The no-op update keeps the statement idempotent.
func (r *LedgerRepo) EnsureProfileTx(ctx context.Context, tx *sql.Tx, agentID uint64) error {
    _, err := tx.ExecContext(ctx,
        `INSERT INTO agent_profiles (agent_id) VALUES (?)
         ON DUPLICATE KEY UPDATE agent_id = agent_id`, agentID)
    return err
}

// CreditTx appends a score history entry and applies the delta to the
// running score in the same transaction.  The increment is a single
// statement (score = score + ?), never read-then-write, so concurrent
// credits against one agent serialize on the row without losing
// updates.
func (r *LedgerRepo) CreditTx(ctx context.Context, tx *sql.Tx, agentID uint64, delta int64, reason string) error {
    if err := r.EnsureProfileTx(ctx, tx, agentID); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO score_history (agent_id, delta, reason) VALUES (?, ?, ?)`,
        agentID, delta, reason); err != nil {
        return err
    }
    _, err := tx.ExecContext(ctx,
        `UPDATE agent_profiles SET score = score + ? WHERE agent_id = ?`, delta, agentID)
    return err
}

// Counter names accepted by BumpCounterTx.  Kept as an allow-list so
// column names are never built from caller input.
const (
    CounterSubmitted = "submitted_count"
    CounterApproved  = "approved_count"
    CounterRejected  = "rejected_count"
)

// BumpCounterTx increments one of the profile counters.
func (r *LedgerRepo) BumpCounterTx(ctx context.Context, tx *sql.Tx, agentID uint64, counter string) error {
    var q string
    switch counter {
    case CounterSubmitted:
        q = `UPDATE agent_profiles SET submitted_count = submitted_count + 1 WHERE agent_id = ?`
    case CounterApproved:
        q = `UPDATE agent_profiles SET approved_count = approved_count + 1 WHERE agent_id = ?`
    case CounterRejected:
        q = `UPDATE agent_profiles SET rejected_count = rejected_count + 1 WHERE agent_id = ?`
    default:
        return ErrNotFound
    }
    if err := r.EnsureProfileTx(ctx, tx, agentID); err != nil {
        return err
    }
    _, err := tx.ExecContext(ctx, q, agentID)
    return err
}

// Profile returns the agent's profile.  Returns ErrNotFound when the
// agent has no profile yet.
func (r *LedgerRepo) Profile(ctx context.Context, agentID uint64) (*model.AgentProfile, error) {
    var p model.AgentProfile
    err := r.db.QueryRowContext(ctx,
        `SELECT agent_id, score, submitted_count, approved_count, rejected_count, created_at, updated_at
         FROM agent_profiles WHERE agent_id = ?`, agentID).
        Scan(&p.AgentID, &p.Score, &p.SubmittedCount, &p.ApprovedCount, &p.RejectedCount,
            &p.CreatedAt, &p.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// SumHistory recomputes the agent's score from the history table.
// The verification routine compares this against the running score
// and flags divergence; it never writes.
func (r *LedgerRepo) SumHistory(ctx context.Context, agentID uint64) (int64, error) {
    var sum int64
    err := r.db.QueryRowContext(ctx,
        `SELECT COALESCE(SUM(delta), 0) FROM score_history WHERE agent_id = ?`, agentID).Scan(&sum)
    return sum, err
}

// History returns the agent's score entries, newest first.
func (r *LedgerRepo) History(ctx context.Context, agentID uint64) ([]model.ScoreEntry, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, agent_id, delta, reason, created_at
         FROM score_history WHERE agent_id = ? ORDER BY id DESC`, agentID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ScoreEntry, 0)
    for rows.Next() {
        var e model.ScoreEntry
        if err := rows.Scan(&e.ID, &e.AgentID, &e.Delta, &e.Reason, &e.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

// Leaderboard returns the top agents by running score.  The running
// score is the authoritative fast-read value; this never touches the
// history table.
func (r *LedgerRepo) Leaderboard(ctx context.Context, limit int) ([]model.AgentProfile, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT agent_id, score, submitted_count, approved_count, rejected_count, created_at, updated_at
         FROM agent_profiles ORDER BY score DESC, agent_id ASC LIMIT ?`, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.AgentProfile, 0)
    for rows.Next() {
        var p model.AgentProfile
        if err := rows.Scan(&p.AgentID, &p.Score, &p.SubmittedCount, &p.ApprovedCount,
            &p.RejectedCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}
