package notification

import (
	"context"
	"errors"

	"bunie/models"
)

// Sentinel errors the provider adapters translate their failures into.
// The lifecycle manager keys its retry decisions off these instead of
// matching error message text.
var (
	// ErrNotInitialized means the push backend has not finished native
	// initialization yet. Always transient; retried with a fixed bound.
	ErrNotInitialized = errors.New("push backend not initialized")
	// ErrNotRegistered means token retrieval was attempted before device
	// registration completed.
	ErrNotRegistered = errors.New("device not registered for remote messages")
	// ErrAlreadyRegistered is a benign registration outcome.
	ErrAlreadyRegistered = errors.New("device already registered for remote messages")
)

// PermissionStatus mirrors the provider's authorization states.
type PermissionStatus int

const (
	PermissionDenied PermissionStatus = iota
	PermissionAuthorized
	PermissionProvisional
)

// PushProvider is the push-messaging collaborator. Token acquisition,
// permission prompts and message delivery happen in the native layer; this
// port is how they reach the core.
type PushProvider interface {
	// Ready reports whether at least one initialized app instance exists.
	// A false with ErrNotInitialized is the expected "keep polling" case.
	Ready(ctx context.Context) (bool, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	RegisterDevice(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	DeleteToken(ctx context.Context) error
	OnTokenRefresh(fn func(token string)) (unsubscribe func())
	OnMessage(fn func(msg models.NotificationPayload)) (unsubscribe func())
	// InitialNotification returns the message that opened the app from a
	// terminated state, or nil if there was none. Consumed at most once.
	InitialNotification(ctx context.Context) (*models.NotificationPayload, error)
	OnNotificationOpened(fn func(msg models.NotificationPayload)) (unsubscribe func())
	SubscribeToTopic(ctx context.Context, token, topic string) error
	UnsubscribeFromTopic(ctx context.Context, token, topic string) error
}

// OSPermissions is the android notification-permission prompt.
type OSPermissions interface {
	RequestPostNotifications(ctx context.Context) (bool, error)
}

// DeviceIdentity produces a best-effort unique device identifier.
type DeviceIdentity interface {
	UniqueID(ctx context.Context) (string, error)
}

// ForegroundPrompt surfaces a user-visible confirmation for messages
// delivered while the app is in the foreground. onConfirm runs only on
// explicit acknowledgement; dismissal drops the message data.
type ForegroundPrompt interface {
	Show(title, body string, onConfirm func())
}

// Service is the notification core's surface to the UI layer.
type Service interface {
	Initialize(ctx context.Context, userInfo models.UserInfo) bool
	GetToken(ctx context.Context) string
	CachedToken() string
	DeleteToken(ctx context.Context)
	UpdateUserInfo(ctx context.Context, userInfo models.UserInfo) bool
	SetNavigationCallback(fn func(screen string, data map[string]string))
	ClearNavigationCallback()
	SetURLOpenCallback(fn func(url string, data map[string]string))
	ClearURLOpenCallback()
	AddTokenRefreshCallback(fn func(token string)) (unsubscribe func())
	SubscribeToTopic(ctx context.Context, topic string) bool
	UnsubscribeFromTopic(ctx context.Context, topic string) bool
	HandleForegroundMessage(msg models.NotificationPayload)
	HandleNotificationOpened(msg models.NotificationPayload)
	Cleanup()
}
