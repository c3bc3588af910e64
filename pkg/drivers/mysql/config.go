package mysql

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

const defaultPort = 3306

// Params holds MySQL-specific configuration.
// Parsed from core.ConnectionConfig.Params using mapstructure.
type Params struct {
	// Charset sent with SET NAMES on connect; utf8mb4 when empty.
	Charset string `mapstructure:"charset"`

	// Collation of the connection.
	Collation string `mapstructure:"collation"`

	// ConnectTimeout bounds the TCP dial.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// SQLMode overrides the session sql_mode.
	SQLMode string `mapstructure:"sql_mode"`

	// AllowCleartext permits the mysql_clear_password plugin (needed by some proxies).
	AllowCleartext bool `mapstructure:"allow_cleartext"`
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if err := driver.DecodeParams(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}

// buildConfig translates a connection into a go-sql-driver config.
// A server starting with "/" is a unix socket path.
func buildConfig(cfg core.ConnectionConfig) (*gomysql.Config, error) {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	mc := gomysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.AllowCleartextPasswords = params.AllowCleartext

	if strings.HasPrefix(cfg.Server, "/") {
		mc.Net = "unix"
		mc.Addr = cfg.Server
	} else {
		host, port := cfg.HostPort(defaultPort)
		mc.Net = "tcp"
		mc.Addr = host + ":" + strconv.Itoa(port)
	}

	charset := params.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}
	if params.Collation != "" {
		mc.Collation = params.Collation
	}
	if params.SQLMode != "" {
		mc.Params["sql_mode"] = "'" + params.SQLMode + "'"
	}
	if params.ConnectTimeout > 0 {
		mc.Timeout = params.ConnectTimeout
	}
	if cfg.QueryTimeout > 0 {
		mc.ReadTimeout = cfg.QueryTimeout
	}

	if cfg.SSL.Enabled() {
		tlsCfg, err := buildTLS(cfg.SSL, strings.Split(mc.Addr, ":")[0])
		if err != nil {
			return nil, err
		}
		name := "leapadmin-" + mc.Addr
		if err := gomysql.RegisterTLSConfig(name, tlsCfg); err != nil {
			return nil, fmt.Errorf("failed to register TLS config: %w", err)
		}
		mc.TLSConfig = name
	}
	return mc, nil
}

// buildTLS loads the CA and client certificate named in ssl.
func buildTLS(ssl *core.SSLConfig, serverName string) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !ssl.Verify, //nolint:gosec // verification is opt-in per connection
	}
	if ssl.CA != "" {
		pem, err := os.ReadFile(ssl.CA)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", ssl.CA)
		}
		tlsCfg.RootCAs = pool
	}
	if ssl.Cert != "" && ssl.Key != "" {
		cert, err := tls.LoadX509KeyPair(ssl.Cert, ssl.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}
