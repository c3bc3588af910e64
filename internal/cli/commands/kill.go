package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewKillCommand creates the kill command.
func NewKillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <id>...",
		Short: "Terminate server sessions",
		Long: `Terminate the sessions with the given ids, as listed by "leapadmin processlist".

Each id is tried in order; a failure is reported and the rest are still
tried. Repeated ids are killed once.`,
		Example: `  leapadmin kill 5 7`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := cc.Session.ProcessList().Kill(cmd.Context(), args)
			if err != nil {
				return err
			}

			if cc.Renderer.Mode() == output.ModeJSON {
				if err := cc.Renderer.JSON(res); err != nil {
					return err
				}
			} else {
				cc.Renderer.Success(admin.KillMessage(cc.Cfg.Lang, res.Killed))
				for _, f := range res.Failed {
					cc.Renderer.Warning(f.ID + ": " + f.Error)
				}
			}

			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d sessions could not be killed", len(res.Failed), len(res.Failed)+res.Killed)
			}
			return nil
		},
	}
}
