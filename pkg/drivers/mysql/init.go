// Package mysql provides a MySQL and MariaDB driver for leapadmin.
//
// This file registers the MySQL driver with the driver registry.
// Import this package with a blank identifier to register the driver:
//
//	import _ "github.com/leapstack-labs/leapadmin/pkg/drivers/mysql"
package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/leapadmin/pkg/driver"
)

func init() {
	driver.Register("mysql", func(logger *slog.Logger) driver.Driver { return New(logger) })
	driver.Register("mariadb", func(logger *slog.Logger) driver.Driver { return New(logger) })
}
