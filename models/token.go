// File: bunie/models/token.go
package models

import (
	"fmt"
	"time"
)

// Platform identifies the mobile OS the shell is running on.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// DeviceTokenRecord is the persisted push-token document, one per physical
// device, keyed by DeviceID. Records are upserted with merge semantics and
// deactivated on logout; they are never physically deleted.
type DeviceTokenRecord struct {
	DeviceID   string    `bson:"deviceId" json:"deviceId" firestore:"deviceId"`
	FCMToken   string    `bson:"fcmToken" json:"fcmToken" firestore:"fcmToken"`
	Platform   Platform  `bson:"platform" json:"platform" firestore:"platform"`
	AppVersion string    `bson:"appVersion" json:"appVersion" firestore:"appVersion"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt" firestore:"updatedAt"`
	IsActive   bool      `bson:"isActive" json:"isActive" firestore:"isActive"`

	// Optional user identity, attached after login via partial update.
	UserID   string `bson:"userId,omitempty" json:"userId,omitempty" firestore:"userId,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty" firestore:"email,omitempty"`
	UserName string `bson:"userName,omitempty" json:"userName,omitempty" firestore:"userName,omitempty"`
}

// UserInfo carries the optional identity fields attached to a device token
// once the storefront reports a login.
type UserInfo struct {
	UserID   string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// IsZero reports whether no identity field is set.
func (u UserInfo) IsZero() bool {
	return u.UserID == "" && u.Email == "" && u.UserName == ""
}

// FallbackDeviceID builds the degraded device identifier used when the
// hardware identifier is unavailable.
func FallbackDeviceID(platform Platform, now time.Time) string {
	return fmt.Sprintf("%s_%d", platform, now.UnixMilli())
}
