package notification

import (
	"context"
	"errors"
	"time"

	"bunie/utils"

	"go.uber.org/zap"
)

// WaitForReady polls the provider's readiness check up to maxAttempts
// times, sleeping delay between attempts. It returns true as soon as an
// initialized app instance is observed and false once attempts are
// exhausted. Exhaustion is not fatal: callers proceed in degraded mode.
// No error from the check is ever surfaced; unexpected ones are logged as
// warnings and polling continues.
func (s *DefaultNotificationService) WaitForReady(ctx context.Context, maxAttempts int, delay time.Duration) bool {
	attempt := 0
	err := utils.Retry(ctx, maxAttempts, delay, func(ctx context.Context) error {
		attempt++
		ready, err := s.Provider.Ready(ctx)
		if ready {
			return nil
		}
		if err == nil {
			err = ErrNotInitialized
		}
		if !errors.Is(err, ErrNotInitialized) {
			s.logger.Warn("Push backend readiness check error",
				zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		s.logger.Error("Push backend failed to initialize",
			zap.Duration("waited", time.Duration(maxAttempts)*delay))
		return false
	}
	s.logger.Info("Push backend is ready")
	return true
}
