// File: services/push/host.go
package push

import (
	"context"
	"fmt"
	"sync"

	"bunie/models"
	"bunie/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HostGateway is the native shell's side of the provider contract. The
// shell reports tokens, permission status, device identity and delivered
// messages through the host API; the notification core consumes them via
// the notification.PushProvider, OSPermissions, DeviceIdentity and
// ForegroundPrompt ports, all of which this type implements. Topic calls
// are delegated to the FCM admin client when one is configured.
type HostGateway struct {
	logger *zap.Logger
	fcm    *FCMClient

	mu            sync.Mutex
	firebaseReady bool
	permission    *notification.PermissionStatus
	registered    bool
	deviceID      string
	token         string
	initial       *models.NotificationPayload

	refreshSubs []gatewaySub[string]
	messageSubs []gatewaySub[models.NotificationPayload]
	openedSubs  []gatewaySub[models.NotificationPayload]

	prompts map[string]*pendingPrompt
}

type gatewaySub[T any] struct {
	id string
	fn func(T)
}

type pendingPrompt struct {
	title   string
	body    string
	confirm func()
}

// PromptView is what the host sees of a pending foreground prompt.
type PromptView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewHostGateway creates a gateway. fcm may be a degraded (nil-client)
// wrapper when Firebase initialization failed.
func NewHostGateway(logger *zap.Logger, fcm *FCMClient) *HostGateway {
	return &HostGateway{
		logger:  logger,
		fcm:     fcm,
		prompts: make(map[string]*pendingPrompt),
	}
}

// --- host-facing reporting surface ---

// ReportReady records that the native push backend finished initializing.
func (g *HostGateway) ReportReady() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.firebaseReady = true
}

// ReportPermission records the permission outcome of the native prompt.
func (g *HostGateway) ReportPermission(status notification.PermissionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.permission = &status
}

// ReportDevice records the device identifier reported by the shell.
func (g *HostGateway) ReportDevice(deviceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deviceID = deviceID
}

// ReportToken stores the current device token. A non-empty token replacing
// a different one counts as a refresh and fans out to refresh subscribers.
func (g *HostGateway) ReportToken(token string) {
	g.mu.Lock()
	previous := g.token
	g.token = token
	subs := append([]gatewaySub[string](nil), g.refreshSubs...)
	g.mu.Unlock()

	if token == "" || previous == "" || previous == token {
		return
	}
	for _, sub := range subs {
		sub.fn(token)
	}
}

// DeliverMessage routes a push message reported by the shell according to
// the app state it was delivered in. Terminated-state messages are parked
// until the core resolves them through InitialNotification.
func (g *HostGateway) DeliverMessage(state models.AppState, msg models.NotificationPayload) {
	switch state {
	case models.AppStateForeground:
		g.mu.Lock()
		subs := append([]gatewaySub[models.NotificationPayload](nil), g.messageSubs...)
		g.mu.Unlock()
		for _, sub := range subs {
			sub.fn(msg)
		}

	case models.AppStateBackground:
		g.mu.Lock()
		subs := append([]gatewaySub[models.NotificationPayload](nil), g.openedSubs...)
		g.mu.Unlock()
		for _, sub := range subs {
			sub.fn(msg)
		}

	case models.AppStateTerminated:
		g.mu.Lock()
		g.initial = &msg
		g.mu.Unlock()

	default:
		g.logger.Warn("Unknown app state for delivered message", zap.String("state", string(state)))
	}
}

// PendingPrompts lists foreground prompts awaiting acknowledgement.
func (g *HostGateway) PendingPrompts() []PromptView {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PromptView, 0, len(g.prompts))
	for id, p := range g.prompts {
		out = append(out, PromptView{ID: id, Title: p.title, Body: p.body})
	}
	return out
}

// Acknowledge confirms a prompt, releasing its data-driven dispatch.
func (g *HostGateway) Acknowledge(id string) bool {
	g.mu.Lock()
	p, ok := g.prompts[id]
	delete(g.prompts, id)
	g.mu.Unlock()
	if !ok {
		return false
	}
	p.confirm()
	return true
}

// Dismiss drops a prompt without dispatching its data.
func (g *HostGateway) Dismiss(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.prompts[id]; !ok {
		return false
	}
	delete(g.prompts, id)
	return true
}

// --- notification.ForegroundPrompt ---

// Show parks a prompt for the host to render. onConfirm runs only when the
// host acknowledges it.
func (g *HostGateway) Show(title, body string, onConfirm func()) {
	id := uuid.NewString()
	g.mu.Lock()
	g.prompts[id] = &pendingPrompt{title: title, body: body, confirm: onConfirm}
	g.mu.Unlock()
	g.logger.Info("Foreground prompt pending", zap.String("id", id), zap.String("title", title))
}

// --- notification.OSPermissions ---

// RequestPostNotifications resolves the android permission prompt from the
// status the shell reported.
func (g *HostGateway) RequestPostNotifications(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.permission == nil {
		return false, fmt.Errorf("host has not reported a permission status")
	}
	return *g.permission == notification.PermissionAuthorized ||
		*g.permission == notification.PermissionProvisional, nil
}

// --- notification.DeviceIdentity ---

// UniqueID returns the device identifier reported by the shell.
func (g *HostGateway) UniqueID(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deviceID == "" {
		return "", fmt.Errorf("host has not reported a device id")
	}
	return g.deviceID, nil
}

// --- notification.PushProvider ---

// Ready reports whether an initialized push backend is observable, either
// via the admin client or because the shell said so.
func (g *HostGateway) Ready(ctx context.Context) (bool, error) {
	g.mu.Lock()
	reported := g.firebaseReady
	g.mu.Unlock()
	if reported || g.fcm.Ready() {
		return true, nil
	}
	return false, notification.ErrNotInitialized
}

// RequestPermission returns the provider permission status the shell
// reported, or ErrNotInitialized while none has arrived yet.
func (g *HostGateway) RequestPermission(ctx context.Context) (notification.PermissionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.permission == nil {
		return notification.PermissionDenied, notification.ErrNotInitialized
	}
	return *g.permission, nil
}

// RegisterDevice records remote-message registration. Repeat registration
// reports the benign ErrAlreadyRegistered.
func (g *HostGateway) RegisterDevice(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.registered {
		return notification.ErrAlreadyRegistered
	}
	g.registered = true
	return nil
}

// Token returns the token the shell reported. While none has arrived the
// backend is treated as still initializing.
func (g *HostGateway) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == "" {
		return "", notification.ErrNotInitialized
	}
	return g.token, nil
}

// DeleteToken invalidates the stored token.
func (g *HostGateway) DeleteToken(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	return nil
}

// OnTokenRefresh subscribes to token refreshes reported by the shell.
func (g *HostGateway) OnTokenRefresh(fn func(token string)) func() {
	id := uuid.NewString()
	g.mu.Lock()
	g.refreshSubs = append(g.refreshSubs, gatewaySub[string]{id: id, fn: fn})
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.refreshSubs = removeSub(g.refreshSubs, id)
	}
}

// OnMessage subscribes to foreground-delivered messages.
func (g *HostGateway) OnMessage(fn func(msg models.NotificationPayload)) func() {
	id := uuid.NewString()
	g.mu.Lock()
	g.messageSubs = append(g.messageSubs, gatewaySub[models.NotificationPayload]{id: id, fn: fn})
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.messageSubs = removeSub(g.messageSubs, id)
	}
}

// InitialNotification returns the message that opened the app from a
// terminated state, consuming it.
func (g *HostGateway) InitialNotification(ctx context.Context) (*models.NotificationPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msg := g.initial
	g.initial = nil
	return msg, nil
}

// OnNotificationOpened subscribes to messages opened from the background.
func (g *HostGateway) OnNotificationOpened(fn func(msg models.NotificationPayload)) func() {
	id := uuid.NewString()
	g.mu.Lock()
	g.openedSubs = append(g.openedSubs, gatewaySub[models.NotificationPayload]{id: id, fn: fn})
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.openedSubs = removeSub(g.openedSubs, id)
	}
}

// SubscribeToTopic delegates to the FCM admin client.
func (g *HostGateway) SubscribeToTopic(ctx context.Context, token, topic string) error {
	return g.fcm.SubscribeToTopic(ctx, token, topic)
}

// UnsubscribeFromTopic delegates to the FCM admin client.
func (g *HostGateway) UnsubscribeFromTopic(ctx context.Context, token, topic string) error {
	return g.fcm.UnsubscribeFromTopic(ctx, token, topic)
}

func removeSub[T any](subs []gatewaySub[T], id string) []gatewaySub[T] {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
