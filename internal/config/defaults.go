package config

import "time"

// Default configuration values.
const (
	DefaultLang         = "en"
	DefaultOutput       = "auto" // table on a TTY, markdown otherwise
	DefaultHistoryPath  = ".leapadmin/history.db"
	DefaultAddr         = "127.0.0.1:8765"
	DefaultRateLimit    = 5.0
	DefaultRateBurst    = 10
	DefaultPollInterval = 2 * time.Second
)

func defaults() map[string]any {
	return map[string]any{
		"lang":               DefaultLang,
		"output":             DefaultOutput,
		"verbose":            false,
		"history.enabled":    true,
		"history.path":       DefaultHistoryPath,
		"http.addr":          DefaultAddr,
		"http.rate_limit":    DefaultRateLimit,
		"http.rate_burst":    DefaultRateBurst,
		"http.poll_interval": DefaultPollInterval.String(),
	}
}
