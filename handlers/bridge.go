package handlers

import (
	"net/http"

	"bunie/services/bridge"

	"github.com/gin-gonic/gin"
)

// BridgeHandler relays traffic between the embedded storefront surface and
// the content channel: load/navigation events and posted messages inbound,
// queued scripts outbound.
type BridgeHandler struct {
	Channel *bridge.ContentChannel
	Scripts *bridge.ScriptQueue
}

func NewBridgeHandler(channel *bridge.ContentChannel, scripts *bridge.ScriptQueue) *BridgeHandler {
	return &BridgeHandler{Channel: channel, Scripts: scripts}
}

// LoadStartHandler marks the surface as loading.
func (h *BridgeHandler) LoadStartHandler(c *gin.Context) {
	h.Channel.HandleLoadStart()
	c.JSON(http.StatusOK, gin.H{"message": "Load started"})
}

// LoadEndHandler marks the surface loaded and schedules token injection.
func (h *BridgeHandler) LoadEndHandler(c *gin.Context) {
	h.Channel.HandleLoadEnd()
	c.JSON(http.StatusOK, gin.H{"message": "Load finished"})
}

type navigationEvent struct {
	URL string `json:"url" binding:"required"`
}

// NavigationHandler reports a navigation state change from the surface.
func (h *BridgeHandler) NavigationHandler(c *gin.Context) {
	var req navigationEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid navigation payload"})
		return
	}
	h.Channel.HandleNavigationChange(req.URL)
	c.JSON(http.StatusOK, gin.H{"url": h.Channel.CurrentURL()})
}

type contentMessage struct {
	Payload string `json:"payload" binding:"required"`
}

// MessageHandler ingests a JSON-stringified message posted by the
// storefront content. Malformed payloads are swallowed by the channel and
// never fail this endpoint.
func (h *BridgeHandler) MessageHandler(c *gin.Context) {
	var req contentMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bridge payload"})
		return
	}
	h.Channel.HandleMessage(c.Request.Context(), req.Payload)
	c.JSON(http.StatusOK, gin.H{"message": "Handled"})
}

// StateHandler reports the surface URL plus any scripts the host should
// execute in the content context, draining the queue.
func (h *BridgeHandler) StateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"url":     h.Channel.CurrentURL(),
		"scripts": h.Scripts.Drain(),
	})
}

// RelayScriptHandler returns the script the host installs on every page
// load to forward storefront postMessage traffic.
func (h *BridgeHandler) RelayScriptHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"script": bridge.MessageRelayScript})
}
