package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/pkg/core"
	"github.com/spf13/cobra"
)

// DumpOptions holds options for the dump command.
type DumpOptions struct {
	Database      string
	Format        string
	Compress      string
	File          string
	DatabaseStyle string
	TableStyle    string
	DataStyle     string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	opts := &DumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump [table]...",
		Short: "Export tables as SQL or delimited text",
		Long: `Export the structure and data of tables, every table of the database
when none are named. Views are exported as their definition only.

Plain output goes to standard output unless --file is given. Compressed
output goes to --file, or to a file named after the table or database.
Delimited formats of several tables are packed into a tar archive.`,
		Example: `  leapadmin dump > shop.sql
  leapadmin dump customers --format csv --file customers.csv
  leapadmin dump --compress gz
  leapadmin dump orders --data-style INSERT+UPDATE --table-style ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "Database to export (default: current)")
	cmd.Flags().StringVar(&opts.Format, "format", core.FormatSQL, "Format: sql, csv, csv;, tsv")
	cmd.Flags().StringVar(&opts.Compress, "compress", "", "Compression: gz, zst")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Write to this file")
	cmd.Flags().StringVar(&opts.DatabaseStyle, "db-style", core.DatabaseStyleNone, "Database statements: USE, DROP+CREATE, CREATE")
	cmd.Flags().StringVar(&opts.TableStyle, "table-style", core.TableStyleDropCreate, "Table statements: DROP+CREATE, CREATE")
	cmd.Flags().StringVar(&opts.DataStyle, "data-style", core.DataStyleInsert, "Data statements: INSERT, TRUNCATE+INSERT, INSERT+UPDATE")

	return cmd
}

// Request builds the dump request for tables.
func (o *DumpOptions) Request(tables []string) admin.DumpRequest {
	req := admin.DumpRequest{
		Database:      o.Database,
		Tables:        tables,
		Output:        core.OutputText,
		Format:        o.Format,
		DatabaseStyle: o.DatabaseStyle,
		TableStyle:    o.TableStyle,
		DataStyle:     o.DataStyle,
	}
	switch {
	case o.Compress != "":
		req.Output = o.Compress
	case o.File != "":
		req.Output = core.OutputFile
	}
	return req
}

func runDump(cmd *cobra.Command, args []string, opts *DumpOptions) (err error) {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	req := opts.Request(args)
	if req.Database == "" {
		if req.Database, err = cc.Session.Driver().Database(cmd.Context()); err != nil {
			return err
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	path := opts.File
	if path == "" && req.Output != core.OutputText {
		path = strings.TrimPrefix(cc.Session.DumpHeaders(req).Disposition, "attachment; filename=")
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if err := cc.Session.Dump(cmd.Context(), w, req); err != nil {
		return err
	}
	if path != "" {
		cc.Renderer.Success("Exported to " + path)
	}
	return nil
}
