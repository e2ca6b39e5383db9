// Package api assembles the HTTP surface: routing, middleware and
// handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/spendtext/spendtext/internal/api/handlers"
	"github.com/spendtext/spendtext/internal/api/middleware"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Parser       handlers.TransactionParser
	Store        handlers.TransactionStore
	Entitlements handlers.Entitlements
	JWTSecret    []byte
	RateLimiter  *middleware.RateLimiter
	Log          zerolog.Logger
}

// NewRouter builds the full HTTP handler stack.
func NewRouter(deps Deps) http.Handler {
	parseHandler := handlers.NewParseHandler(deps.Parser, deps.Log)
	transactionsHandler := handlers.NewTransactionsHandler(deps.Store, deps.Entitlements, deps.Log)
	categoriesHandler := &handlers.CategoriesHandler{}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logger(deps.Log))
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	r.Get("/health", handlers.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(deps.JWTSecret))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware)
		}

		r.Post("/parse", parseHandler.Parse)

		r.Get("/transactions", transactionsHandler.List)
		r.Post("/transactions", transactionsHandler.Create)
		r.Put("/transactions/{id}", func(w http.ResponseWriter, req *http.Request) {
			transactionsHandler.Update(w, req, chi.URLParam(req, "id"))
		})
		r.Delete("/transactions/{id}", func(w http.ResponseWriter, req *http.Request) {
			transactionsHandler.Delete(w, req, chi.URLParam(req, "id"))
		})

		r.Get("/categories", categoriesHandler.ListCategories)
	})

	return r
}
