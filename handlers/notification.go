package handlers

import (
	"net/http"

	"bunie/models"
	"bunie/services/notification"
	"bunie/services/push"

	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the notification core to the native shell.
type NotificationHandler struct {
	Service notification.Service
	Gateway *push.HostGateway
}

func NewNotificationHandler(service notification.Service, gateway *push.HostGateway) *NotificationHandler {
	return &NotificationHandler{Service: service, Gateway: gateway}
}

// InitializeHandler runs the startup sequence with optional user identity.
func (h *NotificationHandler) InitializeHandler(c *gin.Context) {
	var userInfo models.UserInfo
	if err := c.ShouldBindJSON(&userInfo); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user info payload"})
		return
	}

	ok := h.Service.Initialize(c.Request.Context(), userInfo)
	c.JSON(http.StatusOK, gin.H{"initialized": ok, "token": h.Service.CachedToken()})
}

// GetTokenHandler returns the current token, fetching it if necessary.
func (h *NotificationHandler) GetTokenHandler(c *gin.Context) {
	token := h.Service.GetToken(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// DeleteTokenHandler deactivates and deletes the current token.
func (h *NotificationHandler) DeleteTokenHandler(c *gin.Context) {
	h.Service.DeleteToken(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Token deleted"})
}

// UpdateUserInfoHandler attaches user identity to the token record.
func (h *NotificationHandler) UpdateUserInfoHandler(c *gin.Context) {
	var userInfo models.UserInfo
	if err := c.ShouldBindJSON(&userInfo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user info payload"})
		return
	}
	ok := h.Service.UpdateUserInfo(c.Request.Context(), userInfo)
	c.JSON(http.StatusOK, gin.H{"updated": ok})
}

// SubscribeTopicHandler subscribes the device token to a topic.
func (h *NotificationHandler) SubscribeTopicHandler(c *gin.Context) {
	topic := c.Param("topic")
	ok := h.Service.SubscribeToTopic(c.Request.Context(), topic)
	c.JSON(http.StatusOK, gin.H{"subscribed": ok, "topic": topic})
}

// UnsubscribeTopicHandler removes the device token from a topic.
func (h *NotificationHandler) UnsubscribeTopicHandler(c *gin.Context) {
	topic := c.Param("topic")
	ok := h.Service.UnsubscribeFromTopic(c.Request.Context(), topic)
	c.JSON(http.StatusOK, gin.H{"unsubscribed": ok, "topic": topic})
}

// PendingPromptsHandler lists foreground prompts awaiting acknowledgement.
func (h *NotificationHandler) PendingPromptsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prompts": h.Gateway.PendingPrompts()})
}

// AcknowledgePromptHandler confirms a foreground prompt, releasing its
// data-driven dispatch.
func (h *NotificationHandler) AcknowledgePromptHandler(c *gin.Context) {
	id := c.Param("id")
	if !h.Gateway.Acknowledge(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown prompt id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

// DismissPromptHandler drops a foreground prompt without dispatching.
func (h *NotificationHandler) DismissPromptHandler(c *gin.Context) {
	id := c.Param("id")
	if !h.Gateway.Dismiss(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown prompt id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}
