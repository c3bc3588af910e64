// Package dump streams database exports over HTTP.
package dump

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the dump route.
func SetupRoutes(router chi.Router, logger *slog.Logger) error {
	handlers := NewHandlers(logger)
	router.Get("/dump", handlers.Dump)
	return nil
}
