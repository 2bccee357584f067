// Package api wires the sigild HTTP surface: router, middleware chain
// and server lifecycle.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/sigil/sigil/config"
	"github.com/sigil/sigil/pkg/api/handlers"
	"github.com/sigil/sigil/pkg/api/middleware"
	"github.com/sigil/sigil/pkg/logger"
)

// Handlers bundles the route handlers the router mounts.
type Handlers struct {
	Signals *handlers.SignalsHandler
	Links   *handlers.LinksHandler
	Health  *handlers.HealthHandler
	Watch   *handlers.WatchHandler

	// Metrics, when non-nil, records per-request HTTP metrics.
	Metrics middleware.MetricsRecorder

	// TracingEnabled mounts the tracing middleware.
	TracingEnabled bool
}

// NewRouter builds the sigild router with the standard middleware
// chain. Fire endpoints are rate limited when the config enables it.
func NewRouter(cfg *config.ServerConfig, log logger.Logger, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	if h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics))
	}
	if h.TracingEnabled {
		r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	}

	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	var fireLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
		fireLimit = middleware.RateLimit(limiter)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/signals", func(r chi.Router) {
			r.Get("/", h.Signals.List)
			r.Post("/", h.Signals.Create)
			r.Get("/{name}", h.Signals.Get)
			r.Delete("/{name}", h.Signals.Delete)
			r.Post("/{name}/enable", h.Signals.Enable)
			if fireLimit != nil {
				r.With(fireLimit).Post("/{name}/fire", h.Signals.Fire)
			} else {
				r.Post("/{name}/fire", h.Signals.Fire)
			}
		})

		r.Route("/links", func(r chi.Router) {
			r.Get("/", h.Links.List)
			r.Post("/", h.Links.Create)
			r.Post("/{name}/members", h.Links.AddMember)
			r.Post("/{name}/enable", h.Links.Enable)
			if fireLimit != nil {
				r.With(fireLimit).Post("/{name}/fire", h.Links.Fire)
			} else {
				r.Post("/{name}/fire", h.Links.Fire)
			}
		})

		r.Get("/watch", h.Watch.Watch)
	})

	return r
}
