// Package sqlcommand serves the mutating API: ad-hoc SQL and row editing.
package sqlcommand

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the SQL command routes behind the given middlewares.
func SetupRoutes(router chi.Router, logger *slog.Logger, middlewares ...func(http.Handler) http.Handler) error {
	handlers := NewHandlers(logger)

	router.Group(func(r chi.Router) {
		r.Use(middlewares...)
		r.Post("/api/sql", handlers.Execute)
		r.Post("/api/sql/script", handlers.ExecuteScript)
		r.Post("/api/tables/{table}/rows", handlers.Insert)
		r.Put("/api/tables/{table}/rows", handlers.Update)
	})
	return nil
}
