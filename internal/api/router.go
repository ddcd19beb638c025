package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/internal/api/handlers"
	"github.com/casacolor/casacolor-backend-go/internal/api/middleware"
	"github.com/casacolor/casacolor-backend-go/internal/circle"
	"github.com/casacolor/casacolor-backend-go/internal/config"
	"github.com/casacolor/casacolor-backend-go/internal/core/devices"
	"github.com/casacolor/casacolor-backend-go/internal/core/media"
	"github.com/casacolor/casacolor-backend-go/internal/database"
	"github.com/casacolor/casacolor-backend-go/internal/websocket"
	"github.com/casacolor/casacolor-backend-go/pkg/metrics"
)

// Deps bundles everything the router wires into handlers
type Deps struct {
	Config        *config.Config
	Repos         *database.Repositories
	Logger        *logrus.Logger
	WSHub         *websocket.Hub
	DeviceManager *devices.Manager
	Circle        *circle.Service
	Images        *media.ImageStore
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer
}

// NewRouter creates and configures the main HTTP router
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorHandlingMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware(deps.Metrics))

	rateLimiter := middleware.NewRateLimiter(100, 200) // 100 requests/sec, burst 200
	router.Use(rateLimiter.RateLimitMiddleware())

	h := handlers.NewHandlers(cfg, deps.Repos, deps.Logger, deps.WSHub, deps.DeviceManager, deps.Circle, deps.Images)

	// Public routes
	router.GET("/health", h.Health)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// WebSocket endpoint (no auth required for connection)
	router.GET("/ws", h.WebSocketHandler(deps.WSHub))

	// Payments credential proxy. Mounted on its own prefix so the frontend
	// can call the provider's paths verbatim. Mounted even without an API key
	// so the handler can answer 401 instead of a bare 404.
	if deps.Circle != nil && deps.Circle.Prefix() != "" {
		router.Any(deps.Circle.Prefix()+"/*path", deps.Circle.ProxyHandler())
	}

	// Uploaded post images
	if deps.Images != nil {
		router.Static("/uploads", deps.Images.UploadsPath())
	}

	// API v1 routes
	api := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/validate", h.ValidateToken)
		}

		// Public API routes (no auth required)
		api.GET("/status", h.Health)

		// Protected API routes (auth required)
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		{
			profile := protected.Group("/profile")
			{
				profile.GET("/", h.GetProfile)
			}

			apartments := protected.Group("/apartments")
			{
				apartments.GET("/me", h.GetMyApartment)
				apartments.GET("/:id", h.GetApartment)
			}

			// Device control endpoints
			devicesGroup := protected.Group("/devices")
			{
				devicesGroup.GET("/", h.GetDevices)
				devicesGroup.GET("/:entity_id", h.GetDevice)
				devicesGroup.POST("/:entity_id/lock", h.LockDevice)
				devicesGroup.POST("/:entity_id/unlock", h.UnlockDevice)
				devicesGroup.POST("/:entity_id/toggle", h.ToggleDevice)
				devicesGroup.POST("/:entity_id/refresh", h.RefreshDevice)
			}

			// Community feed endpoints
			posts := protected.Group("/posts")
			{
				posts.GET("/", h.GetPosts)
				posts.GET("/:id", h.GetPost)
				posts.POST("/", h.CreatePost)
				posts.DELETE("/:id", h.DeletePost)
				posts.POST("/images", h.UploadPostImage)
			}

			// Wallet provisioning
			wallets := protected.Group("/wallets")
			{
				wallets.POST("/sets", h.CreateWalletSet)
			}

			// WebSocket management endpoints
			ws := protected.Group("/websocket")
			{
				ws.GET("/stats", h.GetWebSocketStats(deps.WSHub))
				ws.POST("/broadcast", h.BroadcastMessage(deps.WSHub))
			}
		}
	}

	return router
}
