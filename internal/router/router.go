// Package router sets up all HTTP routes and middleware chains for the
// candy counter. It organizes routes into page, mutation, and JSON API
// groups with appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"candycounter/internal/handlers"
	"candycounter/internal/middleware"
	"candycounter/web"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. limiter guards the mutation routes and may
// be nil to disable rate limiting (tests).
func New(candy *handlers.Candy, catalog *handlers.Catalog, api *handlers.API, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check.
	r.Get("/health", healthHandler)

	// Static assets.
	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Pages.
	r.Get("/", candy.Dashboard)
	r.Get("/catalog", catalog.Page)

	// Mutations, rate limited.
	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Post("/candy", candy.Add)
		r.Post("/candy/reset", candy.Reset)
		r.Post("/candy/{id}/increment", candy.Increment)
		r.Post("/candy/{id}/decrement", candy.Decrement)
		r.Post("/candy/{id}/delete", candy.Delete)

		r.Post("/catalog", catalog.Create)
		r.Put("/catalog/{id}", catalog.Update)
		r.Post("/catalog/{id}/deactivate", catalog.Deactivate)
		r.Post("/catalog/{id}/activate", catalog.Activate)
		r.Post("/catalog/merge", catalog.Merge)
	})

	// JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/candy", api.ListTallies)
		r.Get("/candy/compare", api.CompareYears)
		r.Get("/years", api.ListYears)
		r.Get("/catalog", api.ListCatalog)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}

			r.Post("/candy", api.AddTally)
			r.Post("/candy/reset", api.ResetTallies)
			r.Put("/candy/{id}", api.UpdateTally)
			r.Delete("/candy/{id}", api.DeleteTally)

			r.Post("/catalog", api.CreateCatalogItem)
			r.Put("/catalog/{id}", api.UpdateCatalogItem)
			r.Post("/catalog/{id}/deactivate", api.SetCatalogActive(false))
			r.Post("/catalog/{id}/activate", api.SetCatalogActive(true))
			r.Post("/catalog/merge", api.MergeCatalogItems)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
