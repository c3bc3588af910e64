package commands

import (
	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/internal/i18n"
	"github.com/spf13/cobra"
)

// NewProcessListCommand creates the processlist command.
func NewProcessListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "processlist",
		Aliases: []string{"ps"},
		Short:   "List sessions running on the server",
		Long: `List the sessions connected to the server with the columns the engine
reports, in server order. Use "leapadmin kill" to end them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			listing, err := cc.Session.ProcessList().List(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Renderer.Render(processTable(listing, cc.Cfg.Lang))
		},
	}
}

// processTable shows the engine's columns followed by the statement to clone.
func processTable(listing *admin.ProcessListing, lang string) output.Table {
	headers := append(append([]string(nil), listing.Headers...), i18n.Clone(lang))
	t := output.Table{Headers: headers, JSON: listing}
	for _, p := range listing.Processes {
		row := make([]string, len(headers))
		for i, h := range listing.Headers {
			row[i] = p.Raw.String(h)
		}
		row[len(row)-1] = p.Clone
		t.Rows = append(t.Rows, row)
	}
	return t
}
