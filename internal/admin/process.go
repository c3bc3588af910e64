package admin

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapadmin/internal/i18n"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

// Process is one listed session with the statement offered for cloning.
type Process struct {
	core.ProcessEntry
	Clone string `json:"clone,omitempty"`
}

// ProcessListing is the live session list of a server.
// Headers are the keys of the first row; engines report the same keys for every row.
type ProcessListing struct {
	Headers        []string  `json:"headers"`
	Processes      []Process `json:"processes"`
	MaxConnections int       `json:"max_connections,omitempty"`
}

// KillFailure records one session that could not be killed.
type KillFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
	err   error
}

// Err returns the underlying error.
func (f KillFailure) Err() error {
	return f.err
}

// KillResult summarizes a kill batch.
type KillResult struct {
	Killed int           `json:"killed"`
	Failed []KillFailure `json:"failed,omitempty"`
}

// ProcessList lists and kills server sessions.
type ProcessList struct {
	driver driver.ProcessHooks
	caps   *Capabilities
	logger *slog.Logger
}

// NewProcessList creates a manager for the sessions of d.
func NewProcessList(d driver.ProcessHooks, caps *Capabilities, logger *slog.Logger) *ProcessList {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProcessList{driver: d, caps: caps, logger: logger}
}

// List returns the current sessions in server order.
func (p *ProcessList) List(ctx context.Context) (*ProcessListing, error) {
	if err := p.caps.Require(string(core.FeatureProcessList)); err != nil {
		return nil, err
	}

	rows, err := p.driver.ProcessList(ctx)
	if err != nil {
		return nil, err
	}

	listing := &ProcessListing{Processes: make([]Process, 0, len(rows))}
	if len(rows) > 0 {
		listing.Headers = append([]string(nil), rows[0].Keys...)
	}
	for _, row := range rows {
		e := p.driver.ProcessEntry(row)
		listing.Processes = append(listing.Processes, Process{ProcessEntry: e, Clone: e.Query})
	}

	n, err := p.driver.MaxConnections(ctx)
	if err != nil {
		p.logger.Warn("max connections not available", slog.String("error", err.Error()))
	} else {
		listing.MaxConnections = n
	}
	return listing, nil
}

// Kill terminates the sessions in ids, in submission order and without duplicates.
// A failing id does not stop the batch; it is reported in KillResult.Failed.
func (p *ProcessList) Kill(ctx context.Context, ids []string) (*KillResult, error) {
	if err := p.caps.Require(string(core.FeatureKill)); err != nil {
		return nil, err
	}

	result := &KillResult{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := p.driver.KillProcess(ctx, id); err != nil {
			p.logger.Warn("failed to kill process", slog.String("id", id), slog.String("error", err.Error()))
			result.Failed = append(result.Failed, KillFailure{ID: id, Error: err.Error(), err: err})
			continue
		}
		result.Killed++
	}
	p.logger.Debug("kill batch finished", slog.Int("killed", result.Killed), slog.Int("failed", len(result.Failed)))
	return result, nil
}

// KillMessage returns the localized confirmation for n killed sessions.
func KillMessage(lang string, n int) string {
	return i18n.ProcessesKilled(lang, n)
}
