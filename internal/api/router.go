package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"formquery/internal/middleware"
)

// RouterConfig carries the HTTP-level settings the router needs.
type RouterConfig struct {
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// NewRouter mounts all endpoints with the shared middleware stack.
func NewRouter(h *APIHandler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}))

		r.Post("/query", h.ExecuteQuery)
		r.Get("/forms/{formID}/fields", h.ListFields)
		r.Get("/forms/{formID}/submissions", h.ListSubmissions)
		r.Get("/functions", h.ListFunctions)
		r.Delete("/functions/{name}", h.DropFunction)
		r.Get("/history", h.ListHistory)
	})

	return r
}
