package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonhub/salon-booking-platform/internal/model"
	"github.com/salonhub/salon-booking-platform/internal/repository"
)

func TestVerifyConsistentLedger(t *testing.T) {
	svc := NewLedgerService(&mockLedger{
		profile: func(agentID uint64) (*model.AgentProfile, error) {
			return &model.AgentProfile{AgentID: agentID, Score: 30}, nil
		},
		sumHistory: func(uint64) (int64, error) { return 30, nil },
	})

	report, err := svc.Verify(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(30), report.RunningScore)
	assert.Equal(t, int64(30), report.HistorySum)
}

func TestVerifyDivergentLedger(t *testing.T) {
	svc := NewLedgerService(&mockLedger{
		profile: func(agentID uint64) (*model.AgentProfile, error) {
			return &model.AgentProfile{AgentID: agentID, Score: 40}, nil
		},
		sumHistory: func(uint64) (int64, error) { return 30, nil },
	})

	report, err := svc.Verify(context.Background(), 5)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	// The report still comes back so the caller can see both numbers.
	require.NotNil(t, report)
	assert.False(t, report.Consistent)
}

func TestVerifyUnknownAgent(t *testing.T) {
	svc := NewLedgerService(&mockLedger{
		profile: func(uint64) (*model.AgentProfile, error) { return nil, repository.ErrNotFound },
	})

	_, err := svc.Verify(context.Background(), 5)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestLeaderboardClampsLimit(t *testing.T) {
	var gotLimit int
	svc := NewLedgerService(&mockLedger{
		leaderboard: func(limit int) ([]model.AgentProfile, error) {
			gotLimit = limit
			return nil, nil
		},
	})

	_, err := svc.Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)

	_, err = svc.Leaderboard(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)
}
