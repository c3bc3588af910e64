package processlist

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/internal/ui/notifier"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/starfederation/datastar-go/datastar"
)

// Path is where the kill form redirects.
const Path = "/processlist"

// Config holds the dependencies of the process list handlers.
type Config struct {
	SessionStore sessions.Store
	Notifier     *notifier.Notifier
	Metrics      *common.Metrics // optional
	PollInterval time.Duration
	Lang         string
	Logger       *slog.Logger
}

// Handlers provides HTTP handlers for the process list feature.
type Handlers struct {
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	metrics      *common.Metrics
	poll         time.Duration
	lang         string
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Handlers{
		sessionStore: cfg.SessionStore,
		notifier:     cfg.Notifier,
		metrics:      cfg.Metrics,
		poll:         poll,
		lang:         cfg.Lang,
		logger:       logger,
	}
}

// ListResponse is the process list page: the sessions and pending flash messages.
type ListResponse struct {
	*admin.ProcessListing
	Messages []string `json:"messages,omitempty"`
}

// List returns the current sessions with any message left by a kill.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	listing, err := common.SessionFrom(r.Context()).ProcessList().List(r.Context())
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, ListResponse{
		ProcessListing: listing,
		Messages:       common.Flashes(h.sessionStore, w, r),
	})
}

// Kill terminates the sessions named by the repeated form field kill, then
// redirects back to the list with a count message.
func (h *Handlers) Kill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.WriteError(w, h.logger, core.Invalid("kill", "malformed form: "+err.Error()))
		return
	}

	s := common.SessionFrom(r.Context())
	result, err := s.ProcessList().Kill(r.Context(), r.PostForm["kill"])
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ProcessesKilled.WithLabelValues(s.Config().Driver).Add(float64(result.Killed))
	}
	lang := common.Lang(r, h.lang)
	msgs := []string{admin.KillMessage(lang, result.Killed)}
	for _, f := range result.Failed {
		msgs = append(msgs, f.ID+": "+f.Error)
	}
	if err := common.AddFlash(h.sessionStore, w, r, msgs...); err != nil {
		h.logger.Warn("failed to save flash", slog.String("error", err.Error()))
	}
	if result.Killed > 0 && h.notifier != nil {
		h.notifier.Broadcast()
	}

	http.Redirect(w, r, Path, http.StatusSeeOther)
}

// UpdatesSSE streams the process list as datastar signals, refreshed on every
// poll tick and after each kill.
func (h *Handlers) UpdatesSSE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pl := common.SessionFrom(ctx).ProcessList()

	// Capability problems are reported before the stream starts.
	listing, err := pl.List(ctx)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(map[string]any{"processlist": listing}); err != nil {
		return
	}

	var updates chan struct{}
	if h.notifier != nil {
		updates = h.notifier.Subscribe()
		defer h.notifier.Unsubscribe(updates)
	}
	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-updates:
		}

		listing, err := pl.List(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			_ = sse.ConsoleError(err)
			continue
		}
		if err := sse.MarshalAndPatchSignals(map[string]any{"processlist": listing}); err != nil {
			return
		}
	}
}
