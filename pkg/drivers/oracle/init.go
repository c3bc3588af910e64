// Package oracle provides an Oracle Database driver for leapadmin built on the pure-Go go-ora client.
//
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/leapadmin/pkg/drivers/oracle"
package oracle

import (
	"log/slog"

	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

func init() {
	driver.Register("oracle", func(logger *slog.Logger) driver.Driver { return New(logger) })
}
