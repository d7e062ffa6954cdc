package notification

import (
	"bunie/models"
)

// Defaults shown when a foreground message carries no displayable content.
const (
	defaultPromptTitle = "Notification"
	defaultPromptBody  = "You have a new message"
)

// SetNavigationCallback fills the single navigation slot. The last
// registration wins; screens register on mount and clear on unmount.
func (s *DefaultNotificationService) SetNavigationCallback(fn func(screen string, data map[string]string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNavigate = fn
}

// ClearNavigationCallback empties the navigation slot.
func (s *DefaultNotificationService) ClearNavigationCallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNavigate = nil
}

// SetURLOpenCallback fills the single URL-open slot.
func (s *DefaultNotificationService) SetURLOpenCallback(fn func(url string, data map[string]string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onURLOpen = fn
}

// ClearURLOpenCallback empties the URL-open slot.
func (s *DefaultNotificationService) ClearURLOpenCallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onURLOpen = nil
}

// HandleForegroundMessage surfaces a confirmation prompt for a message
// delivered while the app is visible. Data-driven dispatch runs only on
// explicit acknowledgement.
func (s *DefaultNotificationService) HandleForegroundMessage(msg models.NotificationPayload) {
	if msg.Notification == nil {
		return
	}
	title := msg.Notification.Title
	if title == "" {
		title = defaultPromptTitle
	}
	body := msg.Notification.Body
	if body == "" {
		body = defaultPromptBody
	}

	if s.Prompt == nil {
		s.logger.Warn("No foreground prompt wired, dropping message data")
		return
	}
	data := msg.Data
	s.Prompt.Show(title, body, func() {
		if data != nil {
			s.dispatchData(data)
		}
	})
}

// HandleNotificationOpened dispatches immediately: the user already
// navigated into the app via the system tray, consent is implicit.
func (s *DefaultNotificationService) HandleNotificationOpened(msg models.NotificationPayload) {
	if msg.Data != nil {
		s.dispatchData(msg.Data)
	}
}

// dispatchData classifies a payload and routes it to the registered
// callback. Unknown data shapes are silently ignored. When no callback is
// registered the event is dropped — messages arriving before a content
// screen mounts are lost (see the router tests for the flagged gap).
func (s *DefaultNotificationService) dispatchData(data map[string]string) {
	s.mu.Lock()
	nav := s.onNavigate
	urlOpen := s.onURLOpen
	s.mu.Unlock()

	switch {
	case data[models.DataKeyType] == models.DataTypeNavigate:
		if nav == nil {
			s.logger.Debug("Dropping navigate dispatch, no callback registered")
			return
		}
		nav(data[models.DataKeyScreen], data)

	case data[models.DataKeyURL] != "":
		if urlOpen == nil {
			s.logger.Debug("Dropping URL dispatch, no callback registered")
			return
		}
		urlOpen(data[models.DataKeyURL], data)

	case data[models.DataKeyShopifyURL] != "":
		if urlOpen == nil {
			s.logger.Debug("Dropping URL dispatch, no callback registered")
			return
		}
		urlOpen(data[models.DataKeyShopifyURL], data)
	}
}
