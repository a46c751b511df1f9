package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/api"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/config"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/http/ratelimit"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/identity"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/metrics"
	"github.com/SilasSpencer1/koda-social-calendar-sub001/internal/store"
)

// NewRouter wires the API routes and operational endpoints. Rate limiting
// and identity checks live here, in the outer shell; the core packages never
// see them.
func NewRouter(cfg *config.Config, store *store.Store) http.Handler {
	r := chi.NewRouter()

	// API endpoints: 20 requests per second, burst of 50
	apiRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(20), 50, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	apiHandler := api.NewHandler(store)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())
		r.Use(identity.Middleware)

		r.Post("/availability/search", apiHandler.SearchAvailability)
		r.Post("/availability/confirm", apiHandler.ConfirmSlot)

		r.Get("/users/{id}/events", apiHandler.ListUserEvents)
		r.Get("/events/{id}", apiHandler.GetEvent)
	})

	return r
}
