// Package httptransport assembles the public HTTP surface: shared
// middleware, health and metrics endpoints, and the domain handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"accueil/pkg/platform/httputil"
	"accueil/pkg/platform/middleware/auth"
	"accueil/pkg/platform/middleware/metadata"
	"accueil/pkg/platform/middleware/request"
	"accueil/pkg/platform/middleware/requesttime"
)

// DefaultRequestTimeout bounds handler work for API routes.
const DefaultRequestTimeout = 60 * time.Second

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is ready to serve.
type HealthCheck func(ctx context.Context) error

// Deps carries what the router mounts. Nil handlers are skipped, and a nil
// Verifier leaves the API unauthenticated.
type Deps struct {
	Logger         *slog.Logger
	Observer       request.RequestObserver
	MetricsHandler http.Handler
	Verifier       *auth.Verifier
	RequestTimeout time.Duration
	Checks         map[string]HealthCheck
	Handlers       []Registrar
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recoverer(logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(logger, d.Observer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(d.Checks, logger))
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		if d.Verifier != nil {
			r.Use(auth.RequireBearer(d.Verifier, logger))
		}
		for _, h := range d.Handlers {
			if h != nil {
				h.Register(r)
			}
		}
	})
	return r
}

func readiness(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				body[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
