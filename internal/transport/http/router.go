package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"confsite/internal/cms"
	"confsite/pkg/platform/middleware/metadata"
	request "confsite/pkg/platform/middleware/request"
	"confsite/pkg/platform/middleware/requesttime"
	"confsite/pkg/platform/validation"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// Routes lists the modules served by the site backend.
type Routes struct {
	// Pages serve HTML, redirects or proxied bytes and skip the JSON checks.
	Pages []Registrar
	// API endpoints accept JSON bodies only.
	API []Registrar
	// Webhooks authenticate before any body check, so they mount outside
	// the API group and apply their own JSON checks after the secret.
	Webhooks []Registrar
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Options tune the shared middleware stack.
type Options struct {
	TrustedProxies []netip.Prefix
	Latency        *request.Metrics
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(routes Routes, logger *slog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(opts.TrustedProxies).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(opts.Latency))
	r.Use(cms.WithRequestCache)

	if routes.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", routes.Metrics)
	}

	for _, m := range routes.Pages {
		m.Register(r)
	}
	for _, m := range routes.Webhooks {
		m.Register(r)
	}

	r.Group(func(api chi.Router) {
		api.Use(request.ContentTypeJSON)
		api.Use(request.BodyLimit(validation.MaxBodySize))
		for _, m := range routes.API {
			m.Register(api)
		}
	})

	return r
}
