package dump

import (
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/ui/features/common"
	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// Handlers provides HTTP handlers for the dump feature.
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

// RequestFromQuery reads a dump request from the query string. Output and
// format default to text and sql.
func RequestFromQuery(r *http.Request) admin.DumpRequest {
	q := r.URL.Query()
	req := admin.DumpRequest{
		Database:      q.Get("database"),
		Tables:        q["tables"],
		Output:        q.Get("output"),
		Format:        q.Get("format"),
		DatabaseStyle: q.Get("db_style"),
		TableStyle:    q.Get("table_style"),
		DataStyle:     q.Get("data_style"),
	}
	if req.Output == "" {
		req.Output = core.OutputText
	}
	if req.Format == "" {
		req.Format = core.FormatSQL
	}
	return req
}

// Dump streams the export. Headers are sent with the first byte, so failures
// before any output still produce a JSON error.
func (h *Handlers) Dump(w http.ResponseWriter, r *http.Request) {
	s := common.SessionFrom(r.Context())
	req := RequestFromQuery(r)

	hw := &headerWriter{w: w, headers: s.DumpHeaders(req)}
	if err := s.Dump(r.Context(), hw, req); err != nil {
		if !hw.started {
			common.WriteError(w, h.logger, err)
			return
		}
		h.logger.Error("dump aborted", slog.String("error", err.Error()))
		return
	}
	hw.start()
}

// headerWriter sets the dump headers right before the first write.
type headerWriter struct {
	w       http.ResponseWriter
	headers core.DumpHeaders
	started bool
}

func (hw *headerWriter) start() {
	if hw.started {
		return
	}
	hw.started = true
	hw.w.Header().Set("Content-Type", hw.headers.ContentType)
	if hw.headers.Disposition != "" {
		hw.w.Header().Set("Content-Disposition", hw.headers.Disposition)
	}
	hw.w.WriteHeader(http.StatusOK)
}

func (hw *headerWriter) Write(p []byte) (int, error) {
	hw.start()
	return hw.w.Write(p)
}
