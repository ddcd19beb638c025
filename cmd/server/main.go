package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/casacolor/casacolor-backend-go/internal/adapters/homeassistant"
	"github.com/casacolor/casacolor-backend-go/internal/api"
	"github.com/casacolor/casacolor-backend-go/internal/circle"
	"github.com/casacolor/casacolor-backend-go/internal/config"
	"github.com/casacolor/casacolor-backend-go/internal/core/devices"
	"github.com/casacolor/casacolor-backend-go/internal/core/media"
	"github.com/casacolor/casacolor-backend-go/internal/database"
	"github.com/casacolor/casacolor-backend-go/internal/websocket"
	"github.com/casacolor/casacolor-backend-go/pkg/logger"
	"github.com/casacolor/casacolor-backend-go/pkg/metrics"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Create repositories
	repos := database.NewRepositories(db)

	// Metrics registry
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Create WebSocket hub
	wsHub := websocket.NewHub(log, collector)
	go wsHub.Run()

	// Resolve the building hub: configured URL first, mDNS discovery second.
	// Neither is required; without a hub, device control stays disabled.
	hubURL := cfg.HomeAssistant.URL
	if hubURL == "" && cfg.HomeAssistant.Discovery {
		discovered, err := homeassistant.Discover(context.Background(), 5*time.Second, log)
		if err != nil {
			log.WithError(err).Warn("Hub discovery failed, device control disabled")
		} else {
			hubURL = discovered
		}
	}

	var haClient homeassistant.Client
	if hubURL != "" {
		haClient = homeassistant.NewClient(hubURL, cfg.HomeAssistant.Token, log)
		log.WithField("url", hubURL).Info("Hub client initialized")
	} else {
		log.Info("No hub configured, device control disabled")
	}

	// Device controllers
	pollInterval, err := time.ParseDuration(cfg.Devices.PollInterval)
	if err != nil {
		pollInterval = 10 * time.Second
	}
	refreshThrottle, err := time.ParseDuration(cfg.Devices.RefreshThrottle)
	if err != nil {
		refreshThrottle = 300 * time.Millisecond
	}

	deviceManager := devices.NewManager(cfg.Devices.Entities, haClient, log, devices.Options{
		PollInterval:    pollInterval,
		RefreshThrottle: refreshThrottle,
		AutoRefresh:     cfg.Devices.AutoRefresh && haClient != nil,
		Metrics:         collector,
		OnChange: func(snap devices.Snapshot) {
			wsHub.BroadcastDeviceState(snap.EntityID, snap)
		},
	})

	// Payments credential proxy
	circleService := circle.NewService(cfg.Circle, log, collector)
	if circleService.Enabled() {
		log.Info("Payments proxy enabled")
	} else {
		log.Info("Payments proxy disabled, no API key configured")
	}

	// Post image storage
	images, err := media.NewImageStore(cfg.Storage, log)
	if err != nil {
		log.WithError(err).Warn("Image storage unavailable")
		images = nil
	}

	// Initialize router
	router := api.NewRouter(api.Deps{
		Config:        cfg,
		Repos:         repos,
		Logger:        log,
		WSHub:         wsHub,
		DeviceManager: deviceManager,
		Circle:        circleService,
		Images:        images,
		Metrics:       collector,
		Gatherer:      registry,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Infof("Starting Casa Color backend on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deviceManager.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Info("Server exited")
}
