package sqlhistory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// DefaultLimit is the number of entries listed when no limit is given.
const DefaultLimit = 100

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	store  *history.Store
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *history.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{store: store, logger: logger}
}

// List returns the most recent statements, newest first.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	limit := DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			common.WriteError(w, h.logger, core.Invalid("limit", "must be a non-negative number"))
			return
		}
		limit = n
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	common.WriteJSON(w, http.StatusOK, entries)
}

// Clear deletes every recorded statement.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	if err := h.store.Clear(r.Context()); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) enabled(w http.ResponseWriter) bool {
	if h.store == nil {
		common.WriteJSON(w, http.StatusNotFound, common.ErrorResponse{Error: "history is disabled"})
		return false
	}
	return true
}
