// Package router sets up HTTP routes for the leapadmin server.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapadmin/internal/history"
	catalogFeature "github.com/leapstack-labs/leapadmin/internal/ui/features/catalog"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	dumpFeature "github.com/leapstack-labs/leapadmin/internal/ui/features/dump"
	processlistFeature "github.com/leapstack-labs/leapadmin/internal/ui/features/processlist"
	sqlcommandFeature "github.com/leapstack-labs/leapadmin/internal/ui/features/sqlcommand"
	sqlhistoryFeature "github.com/leapstack-labs/leapadmin/internal/ui/features/sqlhistory"
	"github.com/leapstack-labs/leapadmin/internal/ui/notifier"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the shared services the routes are built on.
type Deps struct {
	Open         common.Opener
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	History      *history.Store // nil when history is disabled
	Registry     *prometheus.Registry
	Metrics      *common.Metrics
	Limiter      *common.RateLimiter
	Lang         string
	PollInterval time.Duration
	Logger       *slog.Logger
}

// SetupRoutes configures all routes for the server.
func SetupRoutes(router chi.Router, deps Deps) error {
	router.Get("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	router.Get("/api/drivers", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusOK, driver.List())
	})

	limit := deps.Limiter.Middleware

	if err := sqlhistoryFeature.SetupRoutes(router, deps.History, deps.Logger, limit); err != nil {
		return err
	}

	var err error
	router.Group(func(r chi.Router) {
		r.Use(common.WithSession(deps.Open, deps.Lang, deps.Logger))

		if err = catalogFeature.SetupRoutes(r, deps.Logger); err != nil {
			return
		}
		if err = sqlcommandFeature.SetupRoutes(r, deps.Logger, limit); err != nil {
			return
		}
		if err = dumpFeature.SetupRoutes(r, deps.Logger); err != nil {
			return
		}
		err = processlistFeature.SetupRoutes(r, processlistFeature.NewHandlers(processlistFeature.Config{
			SessionStore: deps.SessionStore,
			Notifier:     deps.Notifier,
			Metrics:      deps.Metrics,
			PollInterval: deps.PollInterval,
			Lang:         deps.Lang,
			Logger:       deps.Logger,
		}), limit)
	})
	return err
}
