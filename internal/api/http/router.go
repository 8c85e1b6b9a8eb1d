package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wellbeing-survey-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Webhook   *handlers.WebhookHandler
	Analytics *handlers.AnalyticsHandler
	Admin     *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/webhook/sms", cfg.Webhook.ReceiveSMS)

	app.Get("/api/analytics/:userID/:campaignID", cfg.Analytics.GetInsights)

	adminGroup := app.Group("/admin")
	adminGroup.Post("/participants", cfg.Admin.CreateParticipant)
	adminGroup.Post("/campaigns", cfg.Admin.CreateCampaign)
	adminGroup.Post("/test-send", cfg.Admin.TestSend)
	adminGroup.Post("/run-cycle", cfg.Admin.RunCycle)
}
