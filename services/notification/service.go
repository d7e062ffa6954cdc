package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	tokenRepo "bunie/database/repository/token"
	"bunie/models"
	"bunie/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for the timing knobs; overridden from config in main.
const (
	defaultReadinessMaxAttempts = 20
	defaultReadinessDelay       = 500 * time.Millisecond
	defaultInitTimeout          = 3 * time.Second
	defaultRetryDelay           = 2 * time.Second
)

// DefaultNotificationService is the production implementation of Service.
// It exclusively owns the cached token; the persistence adapter only writes
// through what it is handed.
type DefaultNotificationService struct {
	Provider    PushProvider
	Permissions OSPermissions
	Device      DeviceIdentity
	Prompt      ForegroundPrompt
	Platform    models.Platform
	AppVersion  string

	ReadinessMaxAttempts int
	ReadinessDelay       time.Duration
	InitTimeout          time.Duration
	RetryDelay           time.Duration

	persistence *tokenPersistence
	logger      *zap.Logger

	mu          sync.Mutex
	cachedToken string
	deviceID    string
	onNavigate  func(screen string, data map[string]string)
	onURLOpen   func(url string, data map[string]string)
	refreshSubs []refreshSub

	unsubRefresh func()
	unsubMessage func()
	unsubOpened  func()
}

type refreshSub struct {
	id string
	fn func(token string)
}

// NewDefaultNotificationService wires the notification core. All
// collaborators are injected; there is no package-level instance.
func NewDefaultNotificationService(
	logger *zap.Logger,
	provider PushProvider,
	repo tokenRepo.Repository,
	permissions OSPermissions,
	device DeviceIdentity,
	prompt ForegroundPrompt,
	platform models.Platform,
	appVersion string,
) *DefaultNotificationService {
	return &DefaultNotificationService{
		Provider:             provider,
		Permissions:          permissions,
		Device:               device,
		Prompt:               prompt,
		Platform:             platform,
		AppVersion:           appVersion,
		ReadinessMaxAttempts: defaultReadinessMaxAttempts,
		ReadinessDelay:       defaultReadinessDelay,
		InitTimeout:          defaultInitTimeout,
		RetryDelay:           defaultRetryDelay,
		persistence:          &tokenPersistence{repo: repo, logger: logger},
		logger:               logger,
	}
}

// Initialize runs the startup sequence: readiness wait (degraded-mode
// tolerant), device id acquisition, permission request, registration,
// token fetch + persistence, then the event subscriptions. Returns false
// when permission is denied or the token fetch fails; neither case raises.
func (s *DefaultNotificationService) Initialize(ctx context.Context, userInfo models.UserInfo) bool {
	// Race the readiness gate against a fixed ceiling. First settled wins;
	// the loser resolves later and is ignored.
	readyCh := make(chan bool, 1)
	go func() {
		readyCh <- s.WaitForReady(ctx, s.ReadinessMaxAttempts, s.ReadinessDelay)
	}()

	ready := false
	timer := time.NewTimer(s.InitTimeout)
	select {
	case ready = <-readyCh:
		timer.Stop()
	case <-timer.C:
	}
	if ready {
		s.logger.Info("Push backend is ready, initializing notifications")
	} else {
		s.logger.Warn("Push backend readiness check timed out, attempting to use it anyway")
	}

	s.initializeDeviceID(ctx)

	if !s.requestPermission(ctx) {
		s.logger.Warn("Notification permission not granted")
		return false
	}

	s.registerDeviceIfNeeded(ctx)

	token := s.GetToken(ctx)
	if token == "" {
		// GetToken has already logged the cause.
		return false
	}
	s.persistence.SaveToken(ctx, s.buildRecord(token, userInfo))

	unsubRefresh := s.Provider.OnTokenRefresh(s.onTokenRefreshed)
	unsubMessage := s.Provider.OnMessage(s.HandleForegroundMessage)

	s.mu.Lock()
	s.unsubRefresh = unsubRefresh
	s.unsubMessage = unsubMessage
	s.mu.Unlock()

	// Resolve the message that opened the app from a terminated state, if any.
	if msg, err := s.Provider.InitialNotification(ctx); err != nil {
		s.logger.Warn("Failed to read initial notification", zap.Error(err))
	} else if msg != nil {
		s.logger.Info("Notification opened app from terminated state")
		s.HandleNotificationOpened(*msg)
	}

	unsubOpened := s.Provider.OnNotificationOpened(s.HandleNotificationOpened)
	s.mu.Lock()
	s.unsubOpened = unsubOpened
	s.mu.Unlock()

	return true
}

// GetToken returns the cached token, fetching from the provider when the
// cache is empty. Transient failures get exactly one bounded retry; any
// other failure logs and yields "". Never raises to the caller.
func (s *DefaultNotificationService) GetToken(ctx context.Context) string {
	s.registerDeviceIfNeeded(ctx)

	s.mu.Lock()
	if s.cachedToken != "" {
		token := s.cachedToken
		s.mu.Unlock()
		return token
	}
	s.mu.Unlock()

	token, err := s.Provider.Token(ctx)
	switch {
	case err == nil:

	case errors.Is(err, ErrNotRegistered):
		if !s.registerDeviceIfNeeded(ctx) {
			return ""
		}
		token, err = s.Provider.Token(ctx)
		if err != nil {
			s.logger.Error("Error getting FCM token after registration", zap.Error(err))
			return ""
		}

	case errors.Is(err, ErrNotInitialized):
		s.logger.Info("Push backend not ready for token fetch, waiting and retrying")
		if utils.Sleep(ctx, s.RetryDelay) != nil {
			return ""
		}
		s.registerDeviceIfNeeded(ctx)
		token, err = s.Provider.Token(ctx)
		if err != nil {
			s.logger.Error("Error getting FCM token after retry", zap.Error(err))
			return ""
		}

	default:
		s.logger.Error("Error getting FCM token", zap.Error(err))
		return ""
	}

	s.mu.Lock()
	s.cachedToken = token
	s.mu.Unlock()
	return token
}

// CachedToken returns the in-memory token without touching the provider.
func (s *DefaultNotificationService) CachedToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedToken
}

// DeleteToken deactivates the persisted record first (best-effort), then
// deletes the provider-side token, then clears the cache. Partial
// completion is an accepted degraded state.
func (s *DefaultNotificationService) DeleteToken(ctx context.Context) {
	s.persistence.Deactivate(ctx, s.currentDeviceID())

	if err := s.Provider.DeleteToken(ctx); err != nil {
		s.logger.Error("Error deleting FCM token", zap.Error(err))
	}

	s.mu.Lock()
	s.cachedToken = ""
	s.mu.Unlock()
	s.logger.Info("FCM token deleted")
}

// UpdateUserInfo attaches user identity to the persisted record. Requires
// a cached token; returns false immediately when there is none.
func (s *DefaultNotificationService) UpdateUserInfo(ctx context.Context, userInfo models.UserInfo) bool {
	if s.CachedToken() == "" {
		s.logger.Warn("No FCM token available to update user info")
		return false
	}
	return s.persistence.UpdateUserInfo(ctx, s.currentDeviceID(), userInfo)
}

// AddTokenRefreshCallback registers a refresh subscriber. The returned
// function removes exactly this subscription; other subscribers keep their
// registration order.
func (s *DefaultNotificationService) AddTokenRefreshCallback(fn func(token string)) func() {
	id := uuid.NewString()
	s.mu.Lock()
	s.refreshSubs = append(s.refreshSubs, refreshSub{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.refreshSubs {
			if sub.id == id {
				s.refreshSubs = append(s.refreshSubs[:i], s.refreshSubs[i+1:]...)
				return
			}
		}
	}
}

// Cleanup unsubscribes the provider listeners. Idempotent.
func (s *DefaultNotificationService) Cleanup() {
	s.mu.Lock()
	unsubs := []func(){s.unsubRefresh, s.unsubMessage, s.unsubOpened}
	s.unsubRefresh, s.unsubMessage, s.unsubOpened = nil, nil, nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
}

// onTokenRefreshed replaces the cached token, persists the full record and
// then fans out to subscribers in registration order. Persistence happens
// strictly before fan-out so callbacks observe already-durable state.
func (s *DefaultNotificationService) onTokenRefreshed(newToken string) {
	s.logger.Info("FCM token refreshed")

	s.mu.Lock()
	s.cachedToken = newToken
	subs := make([]refreshSub, len(s.refreshSubs))
	copy(subs, s.refreshSubs)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.persistence.SaveToken(ctx, s.buildRecord(newToken, models.UserInfo{}))

	for _, sub := range subs {
		sub.fn(newToken)
	}
}

func (s *DefaultNotificationService) buildRecord(token string, userInfo models.UserInfo) *models.DeviceTokenRecord {
	return &models.DeviceTokenRecord{
		DeviceID:   s.currentDeviceID(),
		FCMToken:   token,
		Platform:   s.Platform,
		AppVersion: s.AppVersion,
		IsActive:   true,
		UserID:     userInfo.UserID,
		Email:      userInfo.Email,
		UserName:   userInfo.UserName,
	}
}

func (s *DefaultNotificationService) currentDeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deviceID == "" {
		// Degraded keying when identity acquisition never ran.
		return string(s.Platform)
	}
	return s.deviceID
}

// initializeDeviceID acquires the stable device identifier, falling back
// to platform + timestamp when the hardware identifier is unavailable.
func (s *DefaultNotificationService) initializeDeviceID(ctx context.Context) {
	id, err := s.Device.UniqueID(ctx)
	if err != nil || id == "" {
		id = models.FallbackDeviceID(s.Platform, time.Now())
		s.logger.Warn("Could not get device ID, using fallback", zap.String("deviceId", id))
	}
	s.mu.Lock()
	s.deviceID = id
	s.mu.Unlock()
}
