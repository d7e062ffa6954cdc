// File: services/push/fcm.go
package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// FCMClient wraps the Firebase admin Messaging client for the operations
// the core performs server-side: topic management and readiness checks.
type FCMClient struct {
	client *messaging.Client
}

// NewFCMClient wraps an initialized Messaging client. A nil client yields
// a degraded wrapper whose operations fail cleanly.
func NewFCMClient(client *messaging.Client) *FCMClient {
	return &FCMClient{client: client}
}

// Ready reports whether an initialized Messaging client is available.
func (c *FCMClient) Ready() bool {
	return c != nil && c.client != nil
}

// SubscribeToTopic subscribes a device token to a topic.
func (c *FCMClient) SubscribeToTopic(ctx context.Context, token, topic string) error {
	if !c.Ready() {
		return fmt.Errorf("fcm: messaging client not initialized")
	}
	resp, err := c.client.SubscribeToTopic(ctx, []string{token}, topic)
	if err != nil {
		return fmt.Errorf("fcm: failed to subscribe to topic %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		return fmt.Errorf("fcm: topic %s subscription rejected for %d token(s)", topic, resp.FailureCount)
	}
	return nil
}

// UnsubscribeFromTopic removes a device token from a topic.
func (c *FCMClient) UnsubscribeFromTopic(ctx context.Context, token, topic string) error {
	if !c.Ready() {
		return fmt.Errorf("fcm: messaging client not initialized")
	}
	resp, err := c.client.UnsubscribeFromTopic(ctx, []string{token}, topic)
	if err != nil {
		return fmt.Errorf("fcm: failed to unsubscribe from topic %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		return fmt.Errorf("fcm: topic %s unsubscription rejected for %d token(s)", topic, resp.FailureCount)
	}
	return nil
}
