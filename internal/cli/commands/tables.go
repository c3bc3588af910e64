package commands

import (
	"strconv"

	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/leapstack-labs/leapadmin/pkg/driver"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tables",
		Aliases: []string{"ls"},
		Short:   "List tables and views",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tables, err := cc.Session.Tables(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Renderer.Render(tablesTable(tables, cc.Session.Driver()))
		},
	}
}

func tablesTable(tables []core.TableStatus, r driver.Renderer) output.Table {
	t := output.Table{
		Headers: []string{"Table", "Type", "Engine", "Rows", "Data length", "Comment"},
		JSON:    tables,
	}
	if tables == nil {
		t.JSON = []core.TableStatus{}
	}
	for _, ts := range tables {
		kind := "table"
		if ts.IsView {
			kind = "view"
		}
		t.Rows = append(t.Rows, []string{
			r.TableName(ts), kind, ts.Engine,
			count(ts.Rows),
			count(ts.DataLength),
			ts.Comment,
		})
	}
	return t
}

// count formats a size estimate; negative means unknown.
func count(n int64) string {
	if n < 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
