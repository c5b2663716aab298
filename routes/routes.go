// Package routes assembles the HTTP router.
package routes

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aimux/aimux/handlers"
	"github.com/aimux/aimux/middleware"
)

// Options carries everything the router wires together.
type Options struct {
	LLM       *handlers.LLMHandler
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware

	// AllowedOrigins configures CORS; empty allows none.
	AllowedOrigins []string
}

// New builds the chi router with the middleware chain:
// recovery -> request id -> CORS -> auth -> rate limit -> handlers.
func New(opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-LLM-Provider"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handlers.Health)

	r.Route("/v1", func(v1 chi.Router) {
		if opts.Auth != nil {
			v1.Use(opts.Auth.Authenticate)
		}
		if opts.RateLimit != nil {
			v1.Use(opts.RateLimit.Limit)
		}

		v1.Post("/generate", opts.LLM.Generate)
		v1.Post("/chat", opts.LLM.Chat)
		v1.Post("/embeddings", opts.LLM.Embeddings)
		v1.Get("/providers", opts.LLM.Providers)
	})

	return r
}
