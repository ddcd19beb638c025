package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/internal/circle"
	"github.com/casacolor/casacolor-backend-go/internal/config"
	"github.com/casacolor/casacolor-backend-go/internal/core/auth"
	"github.com/casacolor/casacolor-backend-go/internal/core/devices"
	"github.com/casacolor/casacolor-backend-go/internal/core/media"
	"github.com/casacolor/casacolor-backend-go/internal/database"
	"github.com/casacolor/casacolor-backend-go/internal/websocket"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	cfg         *config.Config
	repos       *database.Repositories
	log         *logrus.Logger
	wsHub       *websocket.Hub
	authService *auth.Service
	devices     *devices.Manager
	circle      *circle.Service
	images      *media.ImageStore
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	cfg *config.Config,
	repos *database.Repositories,
	logger *logrus.Logger,
	wsHub *websocket.Hub,
	deviceManager *devices.Manager,
	circleService *circle.Service,
	images *media.ImageStore,
) *Handlers {
	authService := auth.NewService(repos.Resident, cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, logger)

	return &Handlers{
		cfg:         cfg,
		repos:       repos,
		log:         logger,
		wsHub:       wsHub,
		authService: authService,
		devices:     deviceManager,
		circle:      circleService,
		images:      images,
	}
}
