// Package commands implements the leapadmin subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapadmin/internal/admin"
	"github.com/leapstack-labs/leapadmin/internal/cli/output"
	"github.com/leapstack-labs/leapadmin/internal/config"
	"github.com/leapstack-labs/leapadmin/internal/history"
	"github.com/spf13/cobra"
)

// SkipConfig marks commands that run without a loaded configuration.
const SkipConfig = "leapadmin/skip-config"

type configKey struct{}

type loggerKey struct{}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFrom returns the configuration loaded by the root command, or nil.
func ConfigFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom retrieves the logger from the command context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Session  *admin.Session
	History  *history.Store // nil when history is disabled
	Renderer *output.Renderer
}

// NewCommandContext connects to the configured server.
// The returned cleanup closes the session and the history store and must be called.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutSession(cmd)

	store, err := openHistory(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	var rec history.Recorder
	if store != nil {
		rec = store
	}

	s, err := admin.Open(cmd.Context(), cc.Cfg.Connection(), admin.Options{
		HiddenDatabases:   cc.Cfg.HiddenDatabases,
		HiddenSchemas:     cc.Cfg.HiddenSchemas,
		DisabledOperators: cc.Cfg.DisabledOperators,
		Recorder:          rec,
		Lang:              cc.Cfg.Lang,
	}, cc.Logger)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}
	cc.Session = s
	cc.History = store

	cleanup := func() {
		_ = s.Close()
		if store != nil {
			_ = store.Close()
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutSession creates a CommandContext for commands that
// don't talk to a server. Configuration is not loaded for them, so the output
// flag is read directly.
func NewCommandContextWithoutSession(cmd *cobra.Command) *CommandContext {
	cfg := &config.Config{Output: config.DefaultOutput, Lang: config.DefaultLang}
	if loaded := ConfigFrom(cmd.Context()); loaded != nil {
		c := *loaded
		cfg = &c
	}
	if out, err := cmd.Flags().GetString("output"); err == nil && out != "" {
		cfg.Output = out
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   LoggerFrom(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

func openHistory(cfg *config.Config, logger *slog.Logger) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.OpenStore(cfg.History.Path, logger)
}
