// Package main is the leapadmin command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapadmin/internal/cli"

	// Database drivers register themselves with the driver registry.
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/duckdb"
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/mssql"
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/mysql"
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/oracle"
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/postgres"
	_ "github.com/leapstack-labs/leapadmin/pkg/drivers/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
