package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	batches []int64
	calls   int
	limits  []int
	err     error
}

func (s *stubStore) SweepExpiredHolds(_ context.Context, _ time.Time, limit int) (int64, error) {
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return 0, s.err
	}
	if s.calls >= len(s.batches) {
		return 0, nil
	}
	n := s.batches[s.calls]
	s.calls++
	return n, nil
}

func TestSweepOnceDrainsFullBatches(t *testing.T) {
	store := &stubStore{batches: []int64{100, 100, 40}}
	s := New(store, time.Minute, 100)

	s.sweepOnce(context.Background())

	// Two full batches force a third pass; the short batch stops it.
	require.Len(t, store.limits, 3)
	assert.Equal(t, []int{100, 100, 100}, store.limits)
}

func TestSweepOnceStopsOnError(t *testing.T) {
	store := &stubStore{err: errors.New("db gone")}
	s := New(store, time.Minute, 100)

	s.sweepOnce(context.Background())

	assert.Len(t, store.limits, 1)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &stubStore{}
	s := New(store, time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
