// Package router assembles the HTTP surface: middleware chain, CORS and
// the versioned API routes.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mstgnz/paybridge/handler"
	"github.com/mstgnz/paybridge/infra/middle"
	"github.com/mstgnz/paybridge/infra/response"
	v1 "github.com/mstgnz/paybridge/router/v1"
)

// Options configures the router
type Options struct {
	AllowedOrigins []string
	// Timeout bounds each request; zero leaves requests unbounded
	Timeout time.Duration
}

// New builds the root handler
func New(h v1.Handlers, opts Options) http.Handler {
	r := chi.NewRouter()
	Routes(r, h, opts)
	return r
}

// Routes installs the middleware chain and mounts /v1 on r
func Routes(r chi.Router, h v1.Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middle.RequestIDMiddleware())
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin", middle.RequestIDHeader, handler.IdempotencyKeyHeader},
		ExposedHeaders: []string{middle.RequestIDHeader},
		MaxAge:         300, // Preflight cache time (second)
	}))
	r.Use(middle.RequestValidationMiddleware())
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	})

	r.Route("/v1", func(r chi.Router) {
		v1.Routes(r, h)
	})
}
