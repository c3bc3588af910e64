package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/spf13/cobra"
)

// SQLOptions holds options for the sql command.
type SQLOptions struct {
	Input string
}

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	opts := &SQLOptions{}

	cmd := &cobra.Command{
		Use:   "sql [statement]",
		Short: "Execute SQL commands",
		Long: `Execute SQL commands on the configured server and print their rows or
the number of affected rows. Executed statements are kept in the history.

Scripts may hold several statements separated by semicolons. Execution stops
at the first failing statement. MySQL scripts may switch the separator with
DELIMITER.

Without a statement the command reads the script from --input or standard
input, or starts an interactive prompt when standard input is a terminal.`,
		Example: `  leapadmin sql "UPDATE orders SET total = total * 1.1 WHERE id = 3"
  leapadmin sql -i cleanup.sql
  echo "SELECT 1" | leapadmin sql
  leapadmin sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the script from a file")
	return cmd
}

func runSQL(cmd *cobra.Command, args []string, opts *SQLOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var script string
	switch {
	case len(args) > 0:
		script = strings.Join(args, " ")
	case opts.Input != "":
		b, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.Input, err)
		}
		script = string(b)
	case isTerminalReader(cmd.InOrStdin()):
		return runREPL(cmd, cc)
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read statement: %w", err)
		}
		script = string(b)
	}

	if strings.TrimSpace(script) == "" {
		return core.Invalid("sql", "statement is empty")
	}
	return execAndRender(cmd, cc, script)
}

// execAndRender runs every statement of script and prints each result.
// Results of statements before a failing one are printed before the error is returned.
func execAndRender(cmd *cobra.Command, cc *CommandContext, script string) error {
	results, err := cc.Session.ExecScript(cmd.Context(), script)
	if cc.Renderer.Mode() == output.ModeJSON {
		var v any = results
		if len(results) == 1 {
			v = results[0]
		}
		if len(results) > 0 {
			if jerr := cc.Renderer.JSON(v); jerr != nil {
				return jerr
			}
		}
		return err
	}

	for _, res := range results {
		if res.Columns != nil {
			result := &admin.SelectResult{Columns: res.Columns, Rows: res.Rows}
			d := cc.Session.Driver()
			if rerr := cc.Renderer.Render(cellTable(admin.Headers(result, d), admin.RenderRows(result, d, 0))); rerr != nil {
				return rerr
			}
		}
		cc.Renderer.Success(res.Message)
	}
	return err
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && output.IsTerminal(f)
}
