package worker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/session"
)

// PruneRecorder counts removed tokens.
type PruneRecorder interface {
	RecordSessionsPruned(n int)
}

// SessionSweeper periodically drops expired tokens from the allow-list.
// Expired tokens are already rejected by verification; sweeping only keeps
// the store from growing.
type SessionSweeper struct {
	store    session.Store
	interval time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger
	metrics  PruneRecorder
}

// NewSessionSweeper builds a sweeper. clock may be nil.
func NewSessionSweeper(store session.Store, interval time.Duration, clock clockwork.Clock, logger *zap.Logger, metrics PruneRecorder) *SessionSweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionSweeper{store: store, interval: interval, clock: clock, logger: logger, metrics: metrics}
}

// SweepOnce prunes every principal's expired tokens.
func (s *SessionSweeper) SweepOnce(ctx context.Context) (int, error) {
	n, err := s.store.PruneExpired(ctx, s.clock.Now())
	if n > 0 && s.metrics != nil {
		s.metrics.RecordSessionsPruned(n)
	}
	return n, err
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweeper.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expired sessions pruned", zap.Int("count", n))
			}
		}
	}
}
