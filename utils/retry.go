// File: utils/retry.go
package utils

import (
	"context"
	"time"
)

// Retry runs op up to maxAttempts times, sleeping backoff between attempts.
// It returns nil as soon as op succeeds, the last error once attempts are
// exhausted, or the context error if ctx is done while waiting. Every retry
// loop in this codebase is bounded; there is no unbounded variant.
func Retry(ctx context.Context, maxAttempts int, backoff time.Duration, op func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt < maxAttempts {
			if err := Sleep(ctx, backoff); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
