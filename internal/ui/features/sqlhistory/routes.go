// Package sqlhistory serves the statement history recorded by leapadmin.
package sqlhistory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapadmin/internal/history"
)

// SetupRoutes registers the history routes. store may be nil when history is disabled.
// Clearing passes through the given middlewares.
func SetupRoutes(router chi.Router, store *history.Store, logger *slog.Logger, middlewares ...func(http.Handler) http.Handler) error {
	handlers := NewHandlers(store, logger)
	router.Get("/api/history", handlers.List)
	router.With(middlewares...).Delete("/api/history", handlers.Clear)
	return nil
}
