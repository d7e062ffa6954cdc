package notification

import (
	"context"

	"go.uber.org/zap"
)

// SubscribeToTopic subscribes the current token to an FCM topic.
// Requires a cached token.
func (s *DefaultNotificationService) SubscribeToTopic(ctx context.Context, topic string) bool {
	token := s.CachedToken()
	if token == "" {
		s.logger.Warn("Cannot subscribe to topic without a token", zap.String("topic", topic))
		return false
	}
	if err := s.Provider.SubscribeToTopic(ctx, token, topic); err != nil {
		s.logger.Error("Error subscribing to topic", zap.String("topic", topic), zap.Error(err))
		return false
	}
	s.logger.Info("Subscribed to topic", zap.String("topic", topic))
	return true
}

// UnsubscribeFromTopic removes the current token from an FCM topic.
func (s *DefaultNotificationService) UnsubscribeFromTopic(ctx context.Context, topic string) bool {
	token := s.CachedToken()
	if token == "" {
		s.logger.Warn("Cannot unsubscribe from topic without a token", zap.String("topic", topic))
		return false
	}
	if err := s.Provider.UnsubscribeFromTopic(ctx, token, topic); err != nil {
		s.logger.Error("Error unsubscribing from topic", zap.String("topic", topic), zap.Error(err))
		return false
	}
	s.logger.Info("Unsubscribed from topic", zap.String("topic", topic))
	return true
}
