package sqlite

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

// Params holds SQLite-specific configuration.
type Params struct {
	// ReadOnly opens the file with mode=ro.
	ReadOnly bool `mapstructure:"read_only"`

	// BusyTimeout waits for locks held by other writers.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// ForeignKeys enforces FOREIGN KEY constraints; on unless disabled.
	ForeignKeys *bool `mapstructure:"foreign_keys"`
}

// buildURI turns the configured path into a file: URI with connection pragmas.
// The server field holds the path; the database field is accepted as a fallback.
func buildURI(cfg core.ConnectionConfig) (string, error) {
	p := &Params{}
	if err := driver.DecodeParams(cfg.Params, p); err != nil {
		return "", err
	}

	path := cfg.Server
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return "", core.Invalid("server", "path of the SQLite database file is required")
	}

	q := url.Values{}
	if p.ReadOnly {
		q.Set("mode", "ro")
	}
	fk := p.ForeignKeys == nil || *p.ForeignKeys
	q.Add("_pragma", fmt.Sprintf("foreign_keys(%d)", boolInt(fk)))
	if p.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", p.BusyTimeout.Milliseconds()))
	}
	return "file:" + strings.ReplaceAll(path, "?", "%3f") + "?" + q.Encode(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
