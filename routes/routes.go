package routes

import (
	"net/http"
	"time"

	"bunie/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute exposes the health monitor snapshot.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
}

// RegisterHostRoutes registers the native-layer event ingestion endpoints.
// These are wired before the notification core initializes so background
// deliveries have somewhere to land from the first moment.
func RegisterHostRoutes(r *gin.Engine, h *handlers.HostHandler) {
	api := r.Group("/api/host")
	{
		api.POST("/ready", h.ReadyHandler)
		api.POST("/permission", h.PermissionHandler)
		api.POST("/device", h.DeviceHandler)
		api.POST("/token", h.TokenHandler)
		api.POST("/message", h.MessageHandler)
	}
}

// RegisterNotificationRoutes registers the notification core's surface to
// the UI layer.
func RegisterNotificationRoutes(r *gin.Engine, h *handlers.NotificationHandler) {
	api := r.Group("/api/notifications")
	{
		api.POST("/initialize", h.InitializeHandler)
		api.GET("/token", h.GetTokenHandler)
		api.DELETE("/token", h.DeleteTokenHandler)
		api.PATCH("/user", h.UpdateUserInfoHandler)
		api.POST("/topics/:topic/subscribe", h.SubscribeTopicHandler)
		api.POST("/topics/:topic/unsubscribe", h.UnsubscribeTopicHandler)
		api.GET("/prompts", h.PendingPromptsHandler)
		api.POST("/prompts/:id/ack", h.AcknowledgePromptHandler)
		api.POST("/prompts/:id/dismiss", h.DismissPromptHandler)
	}
}

// RegisterBridgeRoutes registers the content-surface endpoints. CORS is
// restricted to the storefront origin because these are called from
// webview-origin JavaScript.
func RegisterBridgeRoutes(r *gin.Engine, h *handlers.BridgeHandler, storefrontOrigin string) {
	api := r.Group("/api/bridge")
	api.Use(cors.New(cors.Config{
		AllowOrigins: []string{storefrontOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	{
		api.POST("/load-start", h.LoadStartHandler)
		api.POST("/load-end", h.LoadEndHandler)
		api.POST("/navigation", h.NavigationHandler)
		api.POST("/message", h.MessageHandler)
		api.GET("/state", h.StateHandler)
		api.GET("/relay-script", h.RelayScriptHandler)
	}
}
