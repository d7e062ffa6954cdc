package notification

import (
	"context"

	tokenRepo "bunie/database/repository/token"
	"bunie/models"

	"go.uber.org/zap"
)

// tokenPersistence writes token records through to the document store.
// It never caches and never fails its caller visibly: every operation
// returns a boolean and logs its own errors. All three operations are
// idempotent — repeating a call with the same inputs converges to the same
// stored state.
type tokenPersistence struct {
	repo   tokenRepo.Repository
	logger *zap.Logger
}

// SaveToken upserts the full record with merge semantics, keyed by the
// record's device id.
func (p *tokenPersistence) SaveToken(ctx context.Context, rec *models.DeviceTokenRecord) bool {
	if err := p.repo.Upsert(ctx, rec); err != nil {
		p.logger.Error("Error saving FCM token record",
			zap.String("deviceId", rec.DeviceID), zap.Error(err))
		return false
	}
	p.logger.Info("FCM token saved", zap.String("deviceId", rec.DeviceID))
	return true
}

// UpdateUserInfo merges the identity fields into an existing record,
// leaving fcmToken and isActive untouched. updatedAt is refreshed by the
// store.
func (p *tokenPersistence) UpdateUserInfo(ctx context.Context, deviceID string, userInfo models.UserInfo) bool {
	// An identity with no fields set would turn into an empty partial
	// update, which not every backend accepts. Nothing to write either way.
	if userInfo.IsZero() {
		p.logger.Debug("No user info fields to update", zap.String("deviceId", deviceID))
		return true
	}

	fields := map[string]interface{}{}
	if userInfo.UserID != "" {
		fields["userId"] = userInfo.UserID
	}
	if userInfo.Email != "" {
		fields["email"] = userInfo.Email
	}
	if userInfo.UserName != "" {
		fields["userName"] = userInfo.UserName
	}

	if err := p.repo.UpdateFields(ctx, deviceID, fields); err != nil {
		p.logger.Error("Error updating user info",
			zap.String("deviceId", deviceID), zap.Error(err))
		return false
	}
	p.logger.Info("User info updated", zap.String("deviceId", deviceID))
	return true
}

// Deactivate flips isActive to false. The record stays in the store for
// audit history; it is never deleted.
func (p *tokenPersistence) Deactivate(ctx context.Context, deviceID string) bool {
	if err := p.repo.UpdateFields(ctx, deviceID, map[string]interface{}{"isActive": false}); err != nil {
		p.logger.Error("Error deactivating FCM token record",
			zap.String("deviceId", deviceID), zap.Error(err))
		return false
	}
	p.logger.Info("FCM token deactivated", zap.String("deviceId", deviceID))
	return true
}
