// Package ui provides the leapadmin HTTP server.
package ui

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/config"
	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/internal/ui/notifier"
	"github.com/leapstack-labs/leapadmin/internal/ui/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Server serves the admin API for one configured connection.
type Server struct {
	cfg          atomic.Pointer[config.Config]
	history      *history.Store
	sessionStore *sessions.CookieStore
	randomKey    bool
	registry     *prometheus.Registry
	metrics      *common.Metrics
	limiter      *common.RateLimiter
	notifier     *notifier.Notifier
	watch        bool
	logger       *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Config  *config.Config
	History *history.Store // nil disables history
	// Watch reloads the connection settings when the config file changes.
	Watch  bool
	Logger *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	secret := []byte(cfg.Config.HTTP.SessionSecret)
	randomKey := len(secret) == 0
	if randomKey {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		history:      cfg.History,
		sessionStore: newCookieStore(secret),
		randomKey:    randomKey,
		registry:     reg,
		metrics:      common.NewMetrics(reg),
		limiter:      common.NewRateLimiter(cfg.Config.HTTP.RateLimit, cfg.Config.HTTP.RateBurst),
		notifier:     notifier.New(),
		watch:        cfg.Watch && cfg.Config.File != "",
		logger:       logger,
	}
	s.cfg.Store(cfg.Config)
	return s
}

func newCookieStore(key []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.MaxAge(3600)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// prepare checks the connection once before serving. Without http.session_secret
// the cookie key comes from the driver's permanent login key, and random bytes
// are kept only when the driver has none.
func (s *Server) prepare(ctx context.Context) {
	cfg := s.cfg.Load()
	sess, err := s.open(ctx, cfg.Lang)
	if err != nil {
		s.logger.Warn("database is not reachable yet", slog.Any("error", err))
	} else {
		server, _, _ := sess.Driver().Credentials()
		s.logger.Info("connected", slog.String("server", sess.Driver().ServerName(server)))
		if key := sess.Driver().PermanentLogin(); s.randomKey && len(key) > 0 {
			s.sessionStore = newCookieStore(key)
			s.randomKey = false
		}
		_ = sess.Close()
	}
	if s.randomKey {
		s.logger.Warn("no http.session_secret configured, flash messages will not survive a restart")
	}
}

// open connects with the current configuration. Every request gets its own session.
func (s *Server) open(ctx context.Context, lang string) (*admin.Session, error) {
	cfg := s.cfg.Load()
	var rec history.Recorder
	if s.history != nil {
		rec = s.history
	}
	return admin.Open(ctx, cfg.Connection(), admin.Options{
		HiddenDatabases:   cfg.HiddenDatabases,
		HiddenSchemas:     cfg.HiddenSchemas,
		DisabledOperators: cfg.DisabledOperators,
		Recorder:          s.metrics.Recorder(rec),
		Lang:              lang,
	}, s.logger)
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	cfg := s.cfg.Load()

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.metrics.Middleware,
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(w, http.StatusNotFound, common.ErrorResponse{Error: "not found"})
	})

	if err := router.SetupRoutes(r, router.Deps{
		Open:         s.open,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		History:      s.history,
		Registry:     s.registry,
		Metrics:      s.metrics,
		Limiter:      s.limiter,
		Lang:         cfg.Lang,
		PollInterval: cfg.HTTP.PollInterval,
		Logger:       s.logger,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.prepare(ctx)
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := s.cfg.Load().HTTP.Addr
	s.logger.Info("starting server", slog.String("addr", "http://"+addr), slog.String("driver", s.cfg.Load().Driver))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchConfig(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the notifier used by live process list streams.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchConfig reloads the config file after it changes. Editors often replace
// the file, so the directory is watched rather than the file itself.
func (s *Server) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	file := s.cfg.Load().File
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		s.logger.Error("failed to watch config file", slog.String("file", file), slog.Any("error", err))
		return nil
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(file) ||
				event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.reload(file)
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// reload swaps in the new connection settings. Listener and history settings
// need a restart.
func (s *Server) reload(file string) {
	next, err := config.Load(file, nil)
	if err != nil {
		s.logger.Error("config reload failed, keeping previous settings", slog.Any("error", err))
		return
	}
	prev := s.cfg.Load()
	next.HTTP = prev.HTTP
	next.History = prev.History
	s.cfg.Store(next)
	s.logger.Info("config reloaded", slog.String("file", file), slog.String("driver", next.Driver))
	s.notifier.Broadcast()
}
