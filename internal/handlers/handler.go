package handlers

import (
	"github.com/gridcast/gridcast/internal/logging"
	"github.com/gridcast/gridcast/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger          *logging.Logger
	forecastService *services.ForecastService
}

// New creates a new handler instance
func New(logger *logging.Logger, forecastService *services.ForecastService) *Handler {
	return &Handler{
		logger:          logger,
		forecastService: forecastService,
	}
}
