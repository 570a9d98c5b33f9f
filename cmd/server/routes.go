package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	// Health check and version routes (no auth required)
	deps.HealthHandler.RegisterRoutes(app)

	// Prometheus metrics (no auth required, scrape target)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// PayHere webhook. The gateway posts here directly; the MD5 signature
	// on the notification is the authentication.
	deps.WebhookHandler.RegisterRoutes(app)

	// Tenant API routes (JWT auth)
	v1 := app.Group("/v1")
	v1.Use(deps.AuthMiddleware.RequireTenant())
	if deps.Config.RateLimit.Enabled {
		v1.Use(deps.RateLimitMiddleware.TenantRateLimit(deps.Config.RateLimit.RequestsPerMinute))
	}

	deps.ProjectsHandler.RegisterRoutes(v1)
	deps.ExecutionsHandler.RegisterRoutes(v1)
	deps.DeploymentsHandler.RegisterRoutes(v1)
	deps.SubscriptionsHandler.RegisterRoutes(v1)
	deps.EventsHandler.RegisterRoutes(v1)
}
