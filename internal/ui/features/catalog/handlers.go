package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// Handlers provides HTTP handlers for the catalog feature.
type Handlers struct {
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{logger: logger}
}

// CapabilitiesResponse lists what the connected engine supports.
type CapabilitiesResponse struct {
	Driver   string   `json:"driver"`
	Features []string `json:"features"`
}

// Capabilities reports the feature snapshot of the connection.
func (h *Handlers) Capabilities(w http.ResponseWriter, r *http.Request) {
	caps := common.SessionFrom(r.Context()).Capabilities()
	common.WriteJSON(w, http.StatusOK, CapabilitiesResponse{Driver: caps.Driver(), Features: caps.List()})
}

// Databases lists the visible databases.
func (h *Handlers) Databases(w http.ResponseWriter, r *http.Request) {
	names, err := common.SessionFrom(r.Context()).Databases(r.Context())
	h.respond(w, names, err)
}

// Schemas lists the visible schemas.
func (h *Handlers) Schemas(w http.ResponseWriter, r *http.Request) {
	s := common.SessionFrom(r.Context())
	if err := s.Capabilities().Require(string(core.FeatureScheme)); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	names, err := s.Schemas(r.Context())
	h.respond(w, names, err)
}

// Tables lists tables and views with their status.
func (h *Handlers) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := common.SessionFrom(r.Context()).Tables(r.Context())
	h.respond(w, tables, err)
}

// Describe returns fields, indexes and keys of one table.
func (h *Handlers) Describe(w http.ResponseWriter, r *http.Request) {
	ts, err := common.SessionFrom(r.Context()).Describe(r.Context(), chi.URLParam(r, "table"))
	h.respond(w, ts, err)
}

// SelectResponse is one page of table data, formatted for display.
type SelectResponse struct {
	SQL     string        `json:"sql"`
	Display string        `json:"display"`
	Columns []string      `json:"columns"`
	Rows    [][]core.Cell `json:"rows"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
}

// Select runs a SELECT described by query parameters in the select form encoding:
// columns[i][fun|col], where[i][col|op|val], fulltext[i], order[i], desc[i], limit, page, text_length.
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := common.SessionFrom(ctx)

	spec, err := admin.ParseSelectSpec(chi.URLParam(r, "table"), r.URL.Query())
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	result, err := s.Select(ctx, spec)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, SelectResponse{
		SQL:     result.Query.SQL,
		Display: result.Query.Display,
		Columns: admin.Headers(result, s.Driver()),
		Rows:    admin.RenderRows(result, s.Driver(), spec.TextLength),
		Page:    spec.Page,
		Limit:   spec.Limit,
	})
}

func (h *Handlers) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, v)
}
