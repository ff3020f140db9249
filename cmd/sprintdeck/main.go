package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/config"
	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/notifications"
	"github.com/sprintdeck/sprintdeck/internal/project/api"
	"github.com/sprintdeck/sprintdeck/internal/project/gateway"
	"github.com/sprintdeck/sprintdeck/internal/project/store"

	burndownstore "github.com/sprintdeck/sprintdeck/internal/burndown/store"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting Sprintdeck service...")

	// 3. Connect the event bus
	eventBus, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer busCleanup()

	// 4. Open the remote data gateway (retry-wrapped)
	gw, gwCleanup, err := gateway.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize data gateway", zap.Error(err))
	}
	defer gwCleanup()

	// 5. Open the burndown persistence
	series, seriesCleanup, err := burndownstore.Provide(cfg)
	if err != nil {
		log.Fatal("Failed to initialize burndown store", zap.Error(err))
	}
	defer seriesCleanup()

	// 6. Notification sink over the bus
	notifier := notifications.NewBusNotifier(eventBus, "sprintdeck", log)

	// 7. Session manager: one store per authenticated actor
	manager := store.NewManager(gw, series, notifier, eventBus, store.Options{
		MaxAge:          cfg.Cache.MaxAge(),
		FanoutGap:       cfg.Cache.FanoutGap(),
		PlaceholderDays: cfg.Burndown.PlaceholderDays,
	}, log)
	defer manager.CloseAll()

	// 8. Background refresh keeps open sessions from serving stale scopes
	var scheduler *cron.Cron
	if cfg.Cache.AutoRefresh != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Cache.AutoRefresh, func() {
			refreshSessions(manager, cfg.Cache.RefreshLimit, log)
		})
		if err != nil {
			log.Fatal("Invalid auto-refresh schedule",
				zap.String("schedule", cfg.Cache.AutoRefresh),
				zap.Error(err))
		}
		scheduler.Start()
		log.Info("Background refresh scheduled", zap.String("schedule", cfg.Cache.AutoRefresh))
	}

	// 9. Setup HTTP server with Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.Recovery(log))
	router.Use(api.RequestLogger(log))

	// 10. Register API routes
	v1 := router.Group("/api/v1")
	api.SetupRoutes(v1, manager, log)

	// Health check endpoint at root level
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"bus":       eventBus.IsConnected(),
			"sessions":  len(manager.Sessions()),
			"timestamp": time.Now().UTC(),
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// 11. Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 12. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Sprintdeck service...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Sprintdeck service stopped")
}

// refreshSessions re-runs the stale-scope fetches for open sessions, capped
// per tick so a large session count cannot flood the gateway.
func refreshSessions(manager *store.Manager, limit int, log *logger.Logger) {
	sessions := manager.Sessions()
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, session := range sessions {
		session.FetchProjects(ctx, false)
		session.FetchCollaborativeProjects(ctx, false)
	}
	if len(sessions) > 0 {
		log.Debug("background refresh tick", zap.Int("sessions", len(sessions)))
	}
}
