package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapadmin/pkg/sqlscript"
	"github.com/spf13/cobra"
)

const (
	replPrompt      = "leapadmin> "
	replContinue    = "       ...> "
	replHistoryFile = ".leapadmin_history"
)

// runREPL reads statements until .quit or EOF. Input is run once every
// statement typed so far is terminated.
func runREPL(cmd *cobra.Command, cc *CommandContext) error {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, replHistoryFile)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(cmd, cc),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "leapadmin SQL (%s)\n", cc.Session.Driver().Name())
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	syntax := cc.Session.Driver().Dialect().ScriptOptions()
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, cc, line); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if !sqlscript.Complete(buf.String(), syntax) {
			rl.SetPrompt(replContinue)
			continue
		}
		rl.SetPrompt(replPrompt)

		script := buf.String()
		buf.Reset()

		if err := execAndRender(cmd, cc, script); err != nil {
			cc.Renderer.Error(err)
		}
	}
}

// handleDotCommand runs a REPL command and reports whether the REPL should end.
func handleDotCommand(cmd *cobra.Command, cc *CommandContext, line string) bool {
	parts := strings.Fields(line)
	ctx := cmd.Context()

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".tables":
		tables, err := cc.Session.Tables(ctx)
		if err != nil {
			cc.Renderer.Error(err)
			return false
		}
		if err := cc.Renderer.Render(tablesTable(tables, cc.Session.Driver())); err != nil {
			cc.Renderer.Error(err)
		}

	case ".describe":
		if len(parts) < 2 {
			cc.Renderer.Warning("Usage: .describe <table>")
			return false
		}
		ts, err := cc.Session.Describe(ctx, parts[1])
		if err != nil {
			cc.Renderer.Error(err)
			return false
		}
		if err := renderStructure(cc.Renderer, ts); err != nil {
			cc.Renderer.Error(err)
		}

	default:
		cc.Renderer.Warning(fmt.Sprintf("Unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, `
Commands:
  .help              Show this help message
  .tables            List tables and views
  .describe <table>  Show the structure of a table
  .quit / .exit      Exit

Statements end with a semicolon and may span lines.
A DELIMITER line applies until the input typed after it has run.
Tab completes table names.`)
}

// newTableCompleter completes dot-commands and the table names of the current database.
func newTableCompleter(cmd *cobra.Command, cc *CommandContext) *readline.PrefixCompleter {
	tables, err := cc.Session.Tables(cmd.Context())
	if err != nil {
		cc.Logger.Debug("table completion unavailable", "error", err)
	}

	names := make([]readline.PrefixCompleterInterface, 0, len(tables))
	for _, t := range tables {
		names = append(names, readline.PcItem(t.Name))
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(tables)+4)
	items = append(items, names...)
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".describe", names...),
		readline.PcItem(".quit"),
	)
	return readline.NewPrefixCompleter(items...)
}
