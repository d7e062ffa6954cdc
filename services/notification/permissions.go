package notification

import (
	"context"
	"errors"

	"bunie/models"
	"bunie/utils"

	"go.uber.org/zap"
)

// requestPermission runs the platform-specific permission flow.
// Android prompts through the OS permission port; iOS asks the provider
// and accepts AUTHORIZED or PROVISIONAL, retrying exactly once after a
// fixed delay when the backend is still initializing. Failures are logged
// and reported as false, never raised.
func (s *DefaultNotificationService) requestPermission(ctx context.Context) bool {
	if s.Platform == models.PlatformAndroid {
		granted, err := s.Permissions.RequestPostNotifications(ctx)
		if err != nil {
			s.logger.Warn("Permission request error", zap.Error(err))
			return false
		}
		return granted
	}

	status, err := s.Provider.RequestPermission(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotInitialized) {
			s.logger.Error("Error requesting permission", zap.Error(err))
			return false
		}
		s.logger.Info("Push backend not ready for permission request, waiting and retrying")
		if utils.Sleep(ctx, s.RetryDelay) != nil {
			return false
		}
		status, err = s.Provider.RequestPermission(ctx)
		if err != nil {
			s.logger.Error("Error requesting permission after retry", zap.Error(err))
			return false
		}
	}
	return status == PermissionAuthorized || status == PermissionProvisional
}

// registerDeviceIfNeeded registers for remote messages where the platform
// requires it (iOS). "Already registered" counts as success; any other
// failure is a logged, non-fatal false.
func (s *DefaultNotificationService) registerDeviceIfNeeded(ctx context.Context) bool {
	if s.Platform != models.PlatformIOS {
		return true
	}
	err := s.Provider.RegisterDevice(ctx)
	if err == nil || errors.Is(err, ErrAlreadyRegistered) {
		return true
	}
	s.logger.Warn("Device registration warning", zap.Error(err))
	return false
}
