package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/sessions"
)

// SessionSweeper periodically purges expired sessions. Expired sessions
// never authorize anyway; this only keeps the store small.
type SessionSweeper struct {
	repo     sessions.Repository
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewSessionSweeper(repo sessions.Repository, interval time.Duration, logger logging.Logger) *SessionSweeper {
	return &SessionSweeper{
		repo:     repo,
		interval: interval,
		logger:   logger.With("module", "sweeper"),
		now:      time.Now,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the sweeper and Run returns at once.
func (s *SessionSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single purge.
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error(ctx, "sweep expired sessions", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions purged", "count", n)
	}
	return n
}
