package commands

import (
	"errors"
	"time"

	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/spf13/cobra"
)

var errHistoryDisabled = errors.New("history is disabled (history.enabled is false)")

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed statements",
		Long: `Show the statements executed through leapadmin, newest first,
with their duration and outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, store, err := historyContext(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return cc.Renderer.Render(historyTable(entries))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.AddCommand(newHistoryClearCommand())
	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the statement history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, store, err := historyContext(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			cc.Renderer.Success("History cleared.")
			return nil
		},
	}
}

func historyContext(cmd *cobra.Command) (*CommandContext, *history.Store, error) {
	cc := NewCommandContextWithoutSession(cmd)
	store, err := openHistory(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errHistoryDisabled
	}
	return cc, store, nil
}

func historyTable(entries []history.Entry) output.Table {
	t := output.Table{
		Headers: []string{"Time", "Driver", "Database", "Duration", "Status", "Statement"},
		JSON:    entries,
	}
	if entries == nil {
		t.JSON = []history.Entry{}
	}
	for _, e := range entries {
		status := "ok"
		if e.Failed {
			status = "error: " + e.Error
		}
		t.Rows = append(t.Rows, []string{
			e.CreatedAt.Local().Format(time.DateTime),
			e.Driver,
			e.Database,
			e.Duration.Round(time.Microsecond).String(),
			status,
			e.Statement,
		})
	}
	return t
}
