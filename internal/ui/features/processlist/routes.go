// Package processlist serves the live session list of the database server and
// the kill form that terminates sessions.
package processlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers the process list routes. Kill requests pass through
// the given middlewares.
func SetupRoutes(router chi.Router, handlers *Handlers, middlewares ...func(http.Handler) http.Handler) error {
	router.Get("/processlist", handlers.List)
	router.Get("/processlist/updates", handlers.UpdatesSSE)
	router.With(middlewares...).Post("/processlist", handlers.Kill)
	return nil
}
