package commands

import (
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewDatabasesCommand creates the databases command.
func NewDatabasesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases on the server",
		Long: `List the databases visible to the configured user.

Databases matching a hidden_databases pattern are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := cc.Session.Databases(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Renderer.Render(nameTable("Database", names))
		},
	}
}

// nameTable is a one-column listing.
func nameTable(header string, names []string) output.Table {
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	if names == nil {
		names = []string{}
	}
	return output.Table{Headers: []string{header}, Rows: rows, JSON: names}
}
