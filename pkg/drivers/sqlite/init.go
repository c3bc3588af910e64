// Package sqlite provides a SQLite driver for leapadmin built on the pure-Go modernc.org/sqlite.
//
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/leapadmin/pkg/drivers/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

func init() {
	driver.Register("sqlite", func(logger *slog.Logger) driver.Driver { return New(logger) })
	driver.Register("sqlite3", func(logger *slog.Logger) driver.Driver { return New(logger) })
}
