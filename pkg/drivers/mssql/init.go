// Package mssql provides a Microsoft SQL Server driver for leapadmin.
//
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/leapadmin/pkg/drivers/mssql"
package mssql

import (
	"log/slog"

	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

func init() {
	driver.Register("mssql", func(logger *slog.Logger) driver.Driver { return New(logger) })
	driver.Register("sqlserver", func(logger *slog.Logger) driver.Driver { return New(logger) })
}
