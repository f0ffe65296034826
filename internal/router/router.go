package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/handlers"
	"github.com/gridcast/gridcast/internal/logging"
	"github.com/gridcast/gridcast/internal/middleware"
	"github.com/gridcast/gridcast/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, forecastService *services.ForecastService, cfg *config.Config) *handlers.Handler {
	h := handlers.New(logger, forecastService)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(forecastService.Metrics().Handler()))

	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	// Forecast Routes
	v1.Post("/forecast/runs", h.RunForecast)
	v1.Get("/forecast/latest", h.LatestForecast)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, forecastService *services.ForecastService, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "gridcast",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, forecastService, cfg)

	return app
}
