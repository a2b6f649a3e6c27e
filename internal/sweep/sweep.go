package sweep // background release of expired booking holds

import (
	"context"
	"log"
	"time"
)

// HoldStore releases expired payment holds in batches.  It returns the
// number of holds released.
type HoldStore interface {
	SweepExpiredHolds(ctx context.Context, now time.Time, limit int) (int64, error)
}

// Sweeper periodically cancels PENDING_PAYMENT bookings whose hold has
// expired, freeing their slots.  The sweep is a safety net: the
// reservation path also releases expired holds inline before checking
// availability, so the sweeper only has to keep the backlog small.
type Sweeper struct {
	store    HoldStore
	interval time.Duration
	batch    int
	now      func() time.Time
}

// New returns a Sweeper.  interval and batch come from configuration.
func New(store HoldStore, interval time.Duration, batch int) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		batch:    batch,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks, sweeping once per interval until ctx is cancelled.  It is
// meant to be launched in its own goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce drains expired holds in batches until a pass releases
// fewer than the batch size.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	for {
		n, err := s.store.SweepExpiredHolds(ctx, s.now(), s.batch)
		if err != nil {
			log.Printf("[sweep] release failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[sweep] released %d expired holds", n)
		}
		if n < int64(s.batch) {
			return
		}
	}
}
