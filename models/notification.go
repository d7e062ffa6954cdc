// File: bunie/models/notification.go
package models

// AppState describes where the app was when a push message arrived.
type AppState string

const (
	AppStateForeground AppState = "foreground"
	AppStateBackground AppState = "background"
	AppStateTerminated AppState = "terminated"
)

// NotificationContent is the user-visible part of a push message.
type NotificationContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NotificationPayload is a delivered push message. It is consumed
// synchronously by the router and never persisted.
type NotificationPayload struct {
	Notification *NotificationContent `json:"notification,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
}

// Data keys the router dispatches on.
const (
	DataKeyType       = "type"
	DataKeyScreen     = "screen"
	DataKeyURL        = "url"
	DataKeyShopifyURL = "shopifyUrl"

	DataTypeNavigate = "navigate"
)

// Bridge message types exchanged with the embedded storefront.
const (
	BridgeUserLoggedIn    = "userLoggedIn"
	BridgeUserLoggedOut   = "userLoggedOut"
	BridgeRequestFCMToken = "requestFCMToken"
	BridgeFCMToken        = "fcmToken"
)

// BridgeMessage is a structured payload posted by the embedded storefront
// content. Purely a dispatch key plus fields; never persisted.
type BridgeMessage struct {
	Type     string `json:"type"`
	UserID   string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
	Token    string `json:"token,omitempty"`
}
