package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "describe <table>",
		Aliases: []string{"desc"},
		Short:   "Show the structure of a table",
		Long: `Show the columns, indexes and foreign keys of a table,
including keys of other tables that reference it.`,
		Example: `  leapadmin describe orders
  leapadmin describe orders -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ts, err := cc.Session.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderStructure(cc.Renderer, ts)
		},
	}
}

func renderStructure(r *output.Renderer, ts *admin.TableStructure) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(ts)
	}

	fields := output.Table{Headers: []string{"Column", "Type", "Null", "Default", "Extra", "Comment"}}
	for _, f := range ts.Fields {
		def := ""
		if f.Default != nil {
			def = *f.Default
		}
		var extra []string
		if f.Primary {
			extra = append(extra, "primary")
		}
		if f.AutoIncrement {
			extra = append(extra, "auto_increment")
		}
		fields.Rows = append(fields.Rows, []string{f.Name, f.Type, yesNo(f.Null), def, strings.Join(extra, " "), f.Comment})
	}
	if err := r.Render(fields); err != nil {
		return err
	}

	if len(ts.Indexes) > 0 {
		indexes := output.Table{Headers: []string{"Index", "Kind", "Columns"}}
		for _, ix := range ts.Indexes {
			indexes.Rows = append(indexes.Rows, []string{ix.Name, string(ix.Kind), strings.Join(ix.ColumnNames(), ", ")})
		}
		if err := r.Render(indexes); err != nil {
			return err
		}
	}

	if len(ts.ForeignKeys) > 0 {
		keys := output.Table{Headers: []string{"Source", "Target", "ON DELETE", "ON UPDATE"}}
		for _, fk := range ts.ForeignKeys {
			keys.Rows = append(keys.Rows, []string{
				strings.Join(fk.Source, ", "),
				fmt.Sprintf("%s(%s)", fk.Table, strings.Join(fk.Target, ", ")),
				fk.OnDelete, fk.OnUpdate,
			})
		}
		if err := r.Render(keys); err != nil {
			return err
		}
	}

	if len(ts.BackwardKeys) > 0 {
		refs := output.Table{Headers: []string{"Referenced by", "Columns"}}
		for _, bk := range ts.BackwardKeys {
			refs.Rows = append(refs.Rows, []string{bk.Table, strings.Join(bk.Key.Source, ", ")})
		}
		return r.Render(refs)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
