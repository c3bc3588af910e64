package oracle

import (
	"strconv"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

const defaultPort = 1521

// Params holds Oracle-specific configuration.
type Params struct {
	// SID connects by instance SID instead of the service name in Database.
	SID string `mapstructure:"sid"`

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// Role logs in as SYSDBA, SYSOPER and similar.
	Role string `mapstructure:"role"`
}

// buildURL constructs an oracle:// URL with go-ora's own builder.
// Database holds the service name.
func buildURL(cfg core.ConnectionConfig) (string, error) {
	p := &Params{}
	if err := driver.DecodeParams(cfg.Params, p); err != nil {
		return "", err
	}
	if cfg.Database == "" && p.SID == "" {
		return "", core.Invalid("database", "service name or params.sid is required")
	}

	host, port := cfg.HostPort(defaultPort)
	opts := map[string]string{}
	if p.SID != "" {
		opts["SID"] = p.SID
	}
	if p.ConnectTimeout > 0 {
		opts["CONNECTION TIMEOUT"] = strconv.Itoa(int(p.ConnectTimeout.Seconds()))
	}
	if p.Role != "" {
		opts["DBA PRIVILEGE"] = p.Role
	}
	if cfg.SSL.Enabled() {
		opts["SSL"] = "enable"
		opts["SSL VERIFY"] = strconv.FormatBool(cfg.SSL.Verify)
		if cfg.SSL.CA != "" {
			opts["WALLET"] = cfg.SSL.CA
		}
	}
	if len(opts) == 0 {
		opts = nil
	}
	return go_ora.BuildUrl(host, port, cfg.Database, cfg.Username, cfg.Password, opts), nil
}
