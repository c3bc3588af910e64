package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapadmin/internal/config"
	"github.com/leapstack-labs/leapadmin/internal/ui"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin HTTP server",
		Long: `Start the HTTP server exposing the admin JSON API, the live process list,
dumps and Prometheus metrics for the configured connection.

With --watch, connection settings are reloaded when the config file changes.`,
		Example: `  leapadmin serve
  leapadmin serve --addr 0.0.0.0:9000 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutSession(cmd)

			store, err := openHistory(cc.Cfg, cc.Logger)
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ui.NewServer(ui.Config{
				Config:  cc.Cfg,
				History: store,
				Watch:   watch,
				Logger:  cc.Logger,
			}).Serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default "+config.DefaultAddr+")")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload connection settings when the config file changes")
	return cmd
}
