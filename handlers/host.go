package handlers

import (
	"net/http"

	"bunie/models"
	"bunie/services/notification"
	"bunie/services/push"
	"bunie/utils"

	"github.com/gin-gonic/gin"
)

// HostHandler ingests events from the native layer: readiness, permission
// outcomes, device identity, tokens and delivered push messages. It must
// be registered before the rest of initialization so background-delivered
// messages have somewhere to land.
type HostHandler struct {
	Gateway *push.HostGateway
}

func NewHostHandler(gateway *push.HostGateway) *HostHandler {
	return &HostHandler{Gateway: gateway}
}

// ReadyHandler records that the native push backend finished initializing.
func (h *HostHandler) ReadyHandler(c *gin.Context) {
	h.Gateway.ReportReady()
	c.JSON(http.StatusOK, gin.H{"message": "Readiness recorded"})
}

type permissionReport struct {
	Status string `json:"status" binding:"required"`
}

// PermissionHandler records the native permission prompt outcome.
func (h *HostHandler) PermissionHandler(c *gin.Context) {
	var req permissionReport
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid permission payload", err.Error())
		return
	}

	var status notification.PermissionStatus
	switch req.Status {
	case "authorized", "granted":
		status = notification.PermissionAuthorized
	case "provisional":
		status = notification.PermissionProvisional
	case "denied":
		status = notification.PermissionDenied
	default:
		utils.JSONError(c, http.StatusBadRequest, "Unknown permission status", req.Status)
		return
	}

	h.Gateway.ReportPermission(status)
	c.JSON(http.StatusOK, gin.H{"message": "Permission recorded"})
}

type deviceReport struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// DeviceHandler records the device identifier reported by the shell.
func (h *HostHandler) DeviceHandler(c *gin.Context) {
	var req deviceReport
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid device payload", err.Error())
		return
	}
	h.Gateway.ReportDevice(req.DeviceID)
	c.JSON(http.StatusOK, gin.H{"message": "Device recorded"})
}

type tokenReport struct {
	Token string `json:"token" binding:"required"`
}

// TokenHandler records the current device token. Replacing an existing
// token fans out as a refresh.
func (h *HostHandler) TokenHandler(c *gin.Context) {
	var req tokenReport
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid token payload", err.Error())
		return
	}
	h.Gateway.ReportToken(req.Token)
	c.JSON(http.StatusOK, gin.H{"message": "Token recorded"})
}

type messageReport struct {
	State   string                     `json:"state" binding:"required"`
	Message models.NotificationPayload `json:"message"`
}

// MessageHandler ingests a delivered push message together with the app
// state it arrived in.
func (h *HostHandler) MessageHandler(c *gin.Context) {
	var req messageReport
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid message payload", err.Error())
		return
	}

	state := models.AppState(req.State)
	switch state {
	case models.AppStateForeground, models.AppStateBackground, models.AppStateTerminated:
	default:
		utils.JSONError(c, http.StatusBadRequest, "Unknown app state", req.State)
		return
	}

	h.Gateway.DeliverMessage(state, req.Message)
	c.JSON(http.StatusOK, gin.H{"message": "Delivered"})
}
