// Package duckdb provides a DuckDB driver for leapadmin.
//
// This file registers the DuckDB driver with the driver registry.
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/leapadmin/pkg/drivers/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

func init() {
	driver.Register("duckdb", func(logger *slog.Logger) driver.Driver { return New(logger) })
}
