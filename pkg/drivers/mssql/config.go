package mssql

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

const defaultPort = 1433

// Params holds SQL Server-specific configuration.
type Params struct {
	// Instance names a SQL Server instance; resolved through the browser service.
	Instance string `mapstructure:"instance"`

	// AppName shows up as program_name in sys.dm_exec_sessions.
	AppName string `mapstructure:"app_name"`

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// buildURL constructs a sqlserver:// connection URL.
// TLS maps to encrypt: disabled unless SSL is enabled, strict certificate checks with Verify.
func buildURL(cfg core.ConnectionConfig) (string, error) {
	p := &Params{}
	if err := driver.DecodeParams(cfg.Params, p); err != nil {
		return "", err
	}

	host, port := cfg.HostPort(defaultPort)
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	if p.Instance != "" {
		u.Host = host
		u.Path = "/" + p.Instance
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	switch {
	case !cfg.SSL.Enabled():
		q.Set("encrypt", "disable")
	default:
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", strconv.FormatBool(!cfg.SSL.Verify))
		if cfg.SSL.CA != "" {
			q.Set("certificate", cfg.SSL.CA)
		}
	}
	if p.AppName != "" {
		q.Set("app name", p.AppName)
	}
	if p.ConnectTimeout > 0 {
		q.Set("connection timeout", strconv.Itoa(int(p.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
