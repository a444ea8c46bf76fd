/*
server.go - Router and middleware for the stand-in ledger server

PURPOSE:
  Configures the chi router, middleware stack, and route definitions wiring
  URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for local tooling
  5. Auth:       Bearer credential check on everything under /api

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/ledgerd: Server startup
*/
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router serving the ledger protocol. Every /api route
// requires the given bearer credential; an empty credential disables auth.
func NewRouter(h *Handler, credential string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(credential))

		r.Get("/sync/{syncID}", h.GetDataset)
		r.Get("/accounts", h.ListAccounts)
		r.Get("/categories", h.ListCategories)

		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/transactions", h.ListTransactions)
			r.Post("/transactions", h.AddTransactions)
			r.Get("/balance", h.GetBalance)
		})
	})

	return r
}

// bearerAuth rejects requests whose Authorization header does not carry the
// expected bearer credential.
func bearerAuth(credential string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if credential != "" {
				got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
				if got != credential {
					writeError(w, http.StatusUnauthorized, "invalid credential", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
