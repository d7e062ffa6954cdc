// File: services/bridge/channel.go
package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bunie/models"

	"go.uber.org/zap"
)

// Surface is the embedded content surface: it executes injected scripts in
// the content's context. Load and navigation events travel the other way,
// reported by the host through the Handle methods on ContentChannel.
type Surface interface {
	InjectScript(ctx context.Context, script string) error
}

// TokenSession is the slice of the notification core the channel drives.
type TokenSession interface {
	CachedToken() string
	UpdateUserInfo(ctx context.Context, userInfo models.UserInfo) bool
	DeleteToken(ctx context.Context)
}

type surfaceState int

const (
	stateLoading surfaceState = iota
	stateLoaded
	stateInjected
)

// ContentChannel owns the two-way messaging with the embedded storefront:
// token injection after each page load, and typed inbound messages driving
// login, logout and token-request flows. The surface cycles
// Loading -> Loaded -> Loaded+injected and re-enters Loading whenever the
// target URL changes.
type ContentChannel struct {
	surface Surface
	session TokenSession
	settle  time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	state       surfaceState
	currentURL  string
	settleTimer *time.Timer
}

// NewContentChannel wires a channel for one content surface, starting on
// startURL. settle is the pause between load-end and token injection.
func NewContentChannel(logger *zap.Logger, surface Surface, session TokenSession, startURL string, settle time.Duration) *ContentChannel {
	return &ContentChannel{
		surface:    surface,
		session:    session,
		settle:     settle,
		logger:     logger,
		state:      stateLoading,
		currentURL: startURL,
	}
}

// HandleLoadStart marks the surface as loading and cancels any pending
// injection from the previous page.
func (c *ContentChannel) HandleLoadStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = stateLoading
	c.stopSettleLocked()
}

// HandleLoadEnd schedules the token injection after the settle delay,
// provided a token is cached. Without a token the surface stays Loaded and
// uninjected until the next load.
func (c *ContentChannel) HandleLoadEnd() {
	c.mu.Lock()
	c.state = stateLoaded
	c.stopSettleLocked()
	if c.session.CachedToken() == "" {
		c.mu.Unlock()
		return
	}
	c.settleTimer = time.AfterFunc(c.settle, c.injectToken)
	c.mu.Unlock()
}

// HandleNavigationChange re-enters the loading state whenever the target
// URL actually changes, whether driven by in-app navigation, a push
// notification, or the content's own internal navigation.
func (c *ContentChannel) HandleNavigationChange(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if url == "" || url == c.currentURL {
		return
	}
	c.currentURL = url
	c.state = stateLoading
	c.stopSettleLocked()
}

// OpenURL is the URL-open callback target for push-driven navigation.
func (c *ContentChannel) OpenURL(url string, data map[string]string) {
	c.HandleNavigationChange(url)
}

// CurrentURL returns the URL the surface is on or navigating to.
func (c *ContentChannel) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentURL
}

// HandleMessage parses a JSON-stringified message posted by the storefront
// content and dispatches on its type discriminant. Malformed JSON is
// logged and swallowed; it never propagates to the host UI. Unknown types
// are ignored for forward compatibility.
func (c *ContentChannel) HandleMessage(ctx context.Context, raw string) {
	var msg models.BridgeMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		c.logger.Error("Error handling content message", zap.Error(err))
		return
	}

	switch msg.Type {
	case models.BridgeUserLoggedIn:
		c.session.UpdateUserInfo(ctx, models.UserInfo{
			UserID:   msg.UserID,
			Email:    msg.Email,
			UserName: msg.UserName,
		})

	case models.BridgeUserLoggedOut:
		c.session.DeleteToken(ctx)

	case models.BridgeRequestFCMToken:
		token := c.session.CachedToken()
		if token == "" {
			return
		}
		if err := c.surface.InjectScript(ctx, TokenResponseScript(token)); err != nil {
			c.logger.Warn("Failed to answer token request", zap.Error(err))
		}
	}
}

// Close cancels any pending injection timer.
func (c *ContentChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopSettleLocked()
}

func (c *ContentChannel) stopSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

func (c *ContentChannel) injectToken() {
	token := c.session.CachedToken()
	if token == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.surface.InjectScript(ctx, TokenInjectionScript(token)); err != nil {
		c.logger.Warn("Failed to inject token into content", zap.Error(err))
		return
	}
	c.mu.Lock()
	if c.state == stateLoaded {
		c.state = stateInjected
	}
	c.mu.Unlock()
}
