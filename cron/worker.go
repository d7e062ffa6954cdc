package cron

import (
	"context"
	"time"

	tokenRepo "bunie/database/repository/token"

	"go.uber.org/zap"
)

// TokenSweeper periodically deactivates token records that have not been
// refreshed within the staleness window. FCM drops tokens the client has
// not confirmed for a couple of months; sweeping keeps the store from
// accumulating registrations that can no longer be messaged.
type TokenSweeper struct {
	repo     tokenRepo.Repository
	logger   *zap.Logger
	interval time.Duration
	maxAge   time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewTokenSweeper creates a sweeper that runs every interval and
// deactivates active records older than maxAge.
func NewTokenSweeper(logger *zap.Logger, repo tokenRepo.Repository, interval, maxAge time.Duration) *TokenSweeper {
	return &TokenSweeper{
		repo:     repo,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in the background. The first sweep runs
// after one full interval, not at startup, so a fleet restart does not
// stampede the store.
func (s *TokenSweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
	s.logger.Info("Token sweeper started",
		zap.Duration("interval", s.interval), zap.Duration("maxAge", s.maxAge))
}

// Stop terminates the loop and waits for an in-flight sweep to finish.
func (s *TokenSweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *TokenSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.maxAge)
	count, err := s.repo.DeactivateStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("Token sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("Deactivated stale token records", zap.Int64("count", count))
	}
}
