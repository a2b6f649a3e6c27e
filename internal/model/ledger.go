package model

import "time"

// AgentProfile holds a field agent's running performance score and
// counters.  The score is the authoritative fast-read value; it must
// equal the sum of the agent's ScoreEntry deltas at every quiescent
// point.  It is only ever mutated through the ledger's credit
// operation, which updates score and history in one transaction.
type AgentProfile struct {
    AgentID        uint64    // agent_profiles.agent_id
    Score          int64     // agent_profiles.score
    SubmittedCount uint32    // agent_profiles.submitted_count
    ApprovedCount  uint32    // agent_profiles.approved_count
    RejectedCount  uint32    // agent_profiles.rejected_count
    CreatedAt      time.Time // agent_profiles.created_at
    UpdatedAt      time.Time // agent_profiles.updated_at
}

// ScoreEntry is one append-only delta in an agent's score history.
// Entries are never updated or deleted; the history exists for audit
// and recomputation of the running score.
type ScoreEntry struct {
    ID        uint64    // score_history.id
    AgentID   uint64    // score_history.agent_id
    Delta     int64     // score_history.delta
    Reason    string    // score_history.reason
    CreatedAt time.Time // score_history.created_at
}
