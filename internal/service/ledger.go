package service

import (
	"context"
	"errors"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

// LedgerService exposes agent performance scores.  All writes happen
// inside the approval flow; this service only reads, plus the
// verification that recomputes a score from its history.
type LedgerService struct {
	ledger LedgerStore
}

// NewLedgerService wires a LedgerService.
func NewLedgerService(ledger LedgerStore) *LedgerService {
	return &LedgerService{ledger: ledger}
}

// Profile returns the agent's profile.
func (s *LedgerService) Profile(ctx context.Context, agentID uint64) (*model.AgentProfile, error) {
	p, err := s.ledger.Profile(ctx, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("agent has no profile")
	}
	return p, err
}

// History returns the agent's score entries, newest first.
func (s *LedgerService) History(ctx context.Context, agentID uint64) ([]model.ScoreEntry, error) {
	return s.ledger.History(ctx, agentID)
}

// Leaderboard returns the top agents by running score.
func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]model.AgentProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ledger.Leaderboard(ctx, limit)
}

// VerificationReport compares an agent's running score against the
// sum of their history entries.
type VerificationReport struct {
	AgentID      uint64 `json:"agent_id"`
	RunningScore int64  `json:"running_score"`
	HistorySum   int64  `json:"history_sum"`
	Consistent   bool   `json:"consistent"`
}

// Verify recomputes the agent's score from the append-only history
// and compares it with the stored running score.  Divergence is an
// IntegrityError: the report is still returned so the caller can see
// both numbers.
func (s *LedgerService) Verify(ctx context.Context, agentID uint64) (*VerificationReport, error) {
	p, err := s.ledger.Profile(ctx, agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validationf("agent has no profile")
	}
	if err != nil {
		return nil, err
	}
	sum, err := s.ledger.SumHistory(ctx, agentID)
	if err != nil {
		return nil, err
	}
	report := &VerificationReport{
		AgentID:      agentID,
		RunningScore: p.Score,
		HistorySum:   sum,
		Consistent:   p.Score == sum,
	}
	if !report.Consistent {
		return report, Integrityf("agent %d running score %d diverges from history sum %d", agentID, p.Score, sum)
	}
	return report, nil
}
