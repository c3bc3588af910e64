// Package catalog serves the read-only browsing API: capabilities, databases,
// schemas, tables, table structure and paged SELECTs.
package catalog

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the catalog routes. They expect a session in the request context.
func SetupRoutes(router chi.Router, logger *slog.Logger) error {
	handlers := NewHandlers(logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/capabilities", handlers.Capabilities)
		r.Get("/databases", handlers.Databases)
		r.Get("/schemas", handlers.Schemas)
		r.Get("/tables", handlers.Tables)
		r.Get("/tables/{table}", handlers.Describe)
		r.Get("/select/{table}", handlers.Select)
	})
	return nil
}
