package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/sla-guard/internal/api/http/handlers"
	"github.com/spec-kit/sla-guard/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Events         *handlers.EventsHandler
	Completions    *handlers.CompletionsHandler
	Queue          *handlers.QueueHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle)
	v1.Post("/events", cfg.AuthMiddleware.RequireScope(auth.ScopeIngest), cfg.Events.Ingest)
	v1.Post("/actions/completions", cfg.AuthMiddleware.RequireScope(auth.ScopeIngest), cfg.Completions.Complete)

	v1.Get("/queue", cfg.AuthMiddleware.RequireScope(auth.ScopeRead), cfg.Queue.List)
	v1.Get("/tickets/:id", cfg.AuthMiddleware.RequireScope(auth.ScopeRead), cfg.Tickets.Get)
	v1.Get("/tickets/:id/assessments", cfg.AuthMiddleware.RequireScope(auth.ScopeRead), cfg.Tickets.ListAssessments)
}
