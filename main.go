// File: bunie/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bunie/config"
	"bunie/cron"
	"bunie/database"
	tokenRepo "bunie/database/repository/token"
	"bunie/handlers"
	"bunie/middleware"
	"bunie/models"
	"bunie/routes"
	"bunie/services/bridge"
	"bunie/services/notification"
	"bunie/services/push"
	"bunie/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Firebase failing to come up is degraded mode, not a startup failure:
	// the shell still serves the storefront without push.
	if err := utils.FirebaseInit(); err != nil {
		logger.Sugar().Warnf("main: firebase unavailable, continuing in degraded mode: %v", err)
	}

	// Token store selection. Anything unusable falls back to the
	// in-process store so the core never runs without persistence wiring.
	var repo tokenRepo.Repository
	switch config.AppConfig.StoreBackend {
	case "firestore":
		if utils.FirestoreClient != nil {
			repo = tokenRepo.NewFirestoreTokenRepo(utils.FirestoreClient, config.AppConfig.TokenCollection)
		} else {
			logger.Sugar().Warn("main: firestore unavailable, using in-memory token store")
			repo = tokenRepo.NewMemoryTokenRepo()
		}
	case "mongo":
		database.InitDB()
		repo = tokenRepo.NewMongoTokenRepo(config.AppConfig.TokenCollection)
	default:
		logger.Sugar().Warnf("main: unknown store backend %q, using in-memory token store", config.AppConfig.StoreBackend)
		repo = tokenRepo.NewMemoryTokenRepo()
	}

	// The gateway is the native shell's side of every provider-facing
	// port: push events, permissions, device identity, prompts.
	gateway := push.NewHostGateway(logger, push.NewFCMClient(utils.FCMClient))

	notificationService := notification.NewDefaultNotificationService(
		logger,
		gateway,
		repo,
		gateway,
		gateway,
		gateway,
		models.Platform(config.AppConfig.Platform),
		config.AppConfig.AppVersion,
	)
	notificationService.ReadinessMaxAttempts = config.AppConfig.ReadinessMaxAttempts
	notificationService.ReadinessDelay = config.ReadinessDelay()
	notificationService.InitTimeout = config.InitTimeout()
	notificationService.RetryDelay = config.RetryDelay()

	// Background hygiene: deactivate token records FCM would reject anyway.
	sweeper := cron.NewTokenSweeper(logger, repo, config.SweepInterval(), config.TokenStaleAge())
	sweeper.Start()

	utils.StartHealthMonitor(60 * time.Second)

	// Content surface wiring: scripts queue up for the host to execute,
	// push-driven URL opens land in the channel's URL slot.
	scripts := bridge.NewScriptQueue()
	channel := bridge.NewContentChannel(logger, scripts, notificationService, config.HomeURL(), config.InjectionSettle())
	notificationService.SetURLOpenCallback(channel.OpenURL)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Host event ingestion is registered before anything else so
	// background deliveries always have a landing spot.
	routes.RegisterHealthRoute(router)
	routes.RegisterHostRoutes(router, handlers.NewHostHandler(gateway))
	routes.RegisterNotificationRoutes(router, handlers.NewNotificationHandler(notificationService, gateway))
	routes.RegisterBridgeRoutes(router, handlers.NewBridgeHandler(channel, scripts), config.AppConfig.StorefrontBaseURL)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	notificationService.Cleanup()
	channel.Close()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
