// Package config loads leapadmin configuration from defaults, a YAML or TOML
// file, LEAPADMIN_ environment variables and command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/core"
)

// Config holds every setting of leapadmin.
type Config struct {
	Driver       string            `koanf:"driver" validate:"required"`
	Server       string            `koanf:"server"`
	Username     string            `koanf:"username"`
	Password     string            `koanf:"password"`
	Database     string            `koanf:"database"`
	Schema       string            `koanf:"schema"`
	SSL          SSLConfig         `koanf:"ssl"`
	QueryTimeout time.Duration     `koanf:"query_timeout" validate:"gte=0"`
	Options      map[string]string `koanf:"options"`
	Params       map[string]any    `koanf:"params"`

	HiddenDatabases []string `koanf:"hidden_databases"`
	HiddenSchemas   []string `koanf:"hidden_schemas"`
	// DisabledOperators are search operators withheld from the select form.
	DisabledOperators []string `koanf:"disabled_operators"`

	Lang    string        `koanf:"lang" validate:"omitempty,bcp47_language_tag"`
	Output  string        `koanf:"output" validate:"oneof=auto table json csv markdown"`
	Verbose bool          `koanf:"verbose"`
	History HistoryConfig `koanf:"history"`
	HTTP    HTTPConfig    `koanf:"http"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-"`
}

// SSLConfig mirrors core.SSLConfig with config keys.
type SSLConfig struct {
	Mode   string `koanf:"mode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
	Key    string `koanf:"key"`
	Cert   string `koanf:"cert"`
	CA     string `koanf:"ca"`
	Verify bool   `koanf:"verify"`
}

// HistoryConfig controls the local statement history.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
}

// HTTPConfig holds settings of the web server.
type HTTPConfig struct {
	Addr          string        `koanf:"addr" validate:"required,hostname_port"`
	SessionSecret string        `koanf:"session_secret" validate:"omitempty,min=32"`
	RateLimit     float64       `koanf:"rate_limit" validate:"gte=0"`
	RateBurst     int           `koanf:"rate_burst" validate:"gte=1"`
	PollInterval  time.Duration `koanf:"poll_interval" validate:"gt=0"`
}

// Connection returns the connection settings handed to the driver.
func (c *Config) Connection() core.ConnectionConfig {
	cc := core.ConnectionConfig{
		Driver:       c.Driver,
		Server:       c.Server,
		Username:     c.Username,
		Password:     c.Password,
		Database:     c.Database,
		Schema:       c.Schema,
		QueryTimeout: c.QueryTimeout,
		Options:      c.Options,
		Params:       c.Params,
	}
	if c.SSL.Mode != "" {
		cc.SSL = &core.SSLConfig{
			Mode:   c.SSL.Mode,
			Key:    c.SSL.Key,
			Cert:   c.SSL.Cert,
			CA:     c.SSL.CA,
			Verify: c.SSL.Verify,
		}
	}
	return cc
}
