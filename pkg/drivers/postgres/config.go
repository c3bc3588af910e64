package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

const defaultPort = 5432

// Params holds PostgreSQL-specific configuration.
// Parsed from core.ConnectionConfig.Params using mapstructure.
type Params struct {
	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string `mapstructure:"application_name"`

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// dsnValue quotes a key=value DSN value when it is empty or contains spaces, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.ConnectionConfig) (string, error) {
	params := &Params{}
	if err := driver.DecodeParams(cfg.Params, params); err != nil {
		return "", err
	}

	host, port := cfg.HostPort(defaultPort)
	database := cfg.Database
	if database == "" {
		database = "postgres"
	}

	sslmode := "disable"
	if cfg.SSL.Enabled() {
		sslmode = cfg.SSL.Mode
	}

	// Build key=value format: host=localhost port=5432 user=postgres ...
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		dsnValue(host), port, dsnValue(database), sslmode)

	if cfg.Username != "" {
		dsn += " user=" + dsnValue(cfg.Username)
	}
	if cfg.Password != "" {
		dsn += " password=" + dsnValue(cfg.Password)
	}
	if cfg.SSL.Enabled() {
		if cfg.SSL.CA != "" {
			dsn += " sslrootcert=" + dsnValue(cfg.SSL.CA)
		}
		if cfg.SSL.Cert != "" {
			dsn += " sslcert=" + dsnValue(cfg.SSL.Cert)
		}
		if cfg.SSL.Key != "" {
			dsn += " sslkey=" + dsnValue(cfg.SSL.Key)
		}
	}
	if cfg.Schema != "" {
		dsn += " search_path=" + dsnValue(cfg.Schema)
	}
	if params.ApplicationName != "" {
		dsn += " application_name=" + dsnValue(params.ApplicationName)
	}
	if params.ConnectTimeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", int(params.ConnectTimeout.Seconds()))
	}
	if cfg.QueryTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", cfg.QueryTimeout.Milliseconds())
	}
	return dsn, nil
}
