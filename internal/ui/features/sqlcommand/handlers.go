package sqlcommand

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// ExecuteRequest carries one SQL command.
type ExecuteRequest struct {
	SQL string `json:"sql"`
}

// RowRequest carries the fields of a row to insert, or to update when Where
// identifies an existing row.
type RowRequest struct {
	Fields map[string]core.FieldInput `json:"fields"`
	Where  map[string]string          `json:"where,omitempty"`
}

// Handlers provides HTTP handlers for the SQL command feature.
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

// Execute runs the submitted statement.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	stmt := strings.TrimSpace(req.SQL)
	if stmt == "" {
		common.WriteError(w, h.logger, core.Invalid("sql", "statement is empty"))
		return
	}

	res, err := common.SessionFrom(r.Context()).Exec(r.Context(), stmt)
	h.respond(w, res, err)
}

// ScriptResponse lists the results of a script, one per statement.
type ScriptResponse struct {
	Results []*admin.ExecResult `json:"results"`
}

// ExecuteScript runs every statement of the submitted script.
// A failing statement ends the script; its error is the response.
func (h *Handlers) ExecuteScript(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	results, err := common.SessionFrom(r.Context()).ExecScript(r.Context(), req.SQL)
	if err != nil {
		h.logger.Debug("script stopped", slog.Int("completed", len(results)), slog.String("error", err.Error()))
		common.WriteError(w, h.logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, ScriptResponse{Results: results})
}

// Insert adds a row to the table in the path.
func (h *Handlers) Insert(w http.ResponseWriter, r *http.Request) {
	var req RowRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	res, err := common.SessionFrom(r.Context()).Insert(r.Context(), chi.URLParam(r, "table"), req.Fields)
	h.respond(w, res, err)
}

// Update changes the row identified by the request's where map.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	var req RowRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	res, err := common.SessionFrom(r.Context()).Update(r.Context(), chi.URLParam(r, "table"), req.Fields, req.Where)
	h.respond(w, res, err)
}

func (h *Handlers) respond(w http.ResponseWriter, res *admin.ExecResult, err error) {
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}
