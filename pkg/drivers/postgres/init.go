// Package postgres provides a PostgreSQL driver for leapadmin.
//
// This file registers the PostgreSQL driver with the driver registry.
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/leapadmin/pkg/drivers/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

func init() {
	driver.Register("postgres", func(logger *slog.Logger) driver.Driver { return New(logger) })
	driver.Register("pgsql", func(logger *slog.Logger) driver.Driver { return New(logger) })
}
