package core

import (
	"net"
	"strconv"
	"time"
)

// ConnectionConfig holds configuration for one administrative connection.
// A connection lives for exactly one request and is released when it ends.
type ConnectionConfig struct {
	Driver       string
	Server       string // host[:port] for network engines, file path for embedded ones
	Username     string
	Password     string
	Database     string
	Schema       string
	SSL          *SSLConfig
	QueryTimeout time.Duration
	Options      map[string]string
	Params       map[string]any
}

// SSLConfig describes how a connection negotiates TLS.
type SSLConfig struct {
	Mode   string // disable, require, verify-ca, verify-full
	Key    string
	Cert   string
	CA     string
	Verify bool
}

// Enabled reports whether TLS was requested at all.
func (s *SSLConfig) Enabled() bool {
	return s != nil && s.Mode != "" && s.Mode != "disable"
}

// HostPort splits Server into host and port.
// An empty host becomes "localhost" and a missing port becomes defaultPort.
func (c ConnectionConfig) HostPort(defaultPort int) (string, int) {
	server := c.Server
	if server == "" {
		return "localhost", defaultPort
	}

	host, portStr, err := net.SplitHostPort(server)
	if err != nil {
		// No port component
		return server, defaultPort
	}
	if host == "" {
		host = "localhost"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		port = defaultPort
	}
	return host, port
}

// Option returns a driver option or def when unset.
func (c ConnectionConfig) Option(key, def string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return def
}
