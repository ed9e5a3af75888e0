// Package cli wires the history engine, storage, and transports into the
// rewind command tree.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylla/rewind/internal/adapters/storage/sqlite"
	"github.com/hylla/rewind/internal/config"
	"github.com/hylla/rewind/internal/history"
	"github.com/hylla/rewind/internal/platform"
	"github.com/hylla/rewind/internal/storage"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DBPath     string
	Verbose    bool
	DevMode    bool
}

// NewRootCommand creates the root command for the rewind CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "rewind",
		Short:         "Operation-sourced undo/redo history for workflow documents",
		Long:          "rewind keeps bounded per-workflow, per-user undo/redo stacks of reversible edit operations,\npersisted through SQLite and inspectable over a TUI or MCP server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config.toml (defaults to the platform config dir)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the history database (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().BoolVar(&opts.DevMode, "dev", false, "use the -dev config and data dirs")

	cmd.AddCommand(NewPathsCommand(opts))
	cmd.AddCommand(NewSizesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewSetCapacityCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	tuiCmd := NewTUICommand(opts)
	cmd.AddCommand(tuiCmd)
	// Bare invocation opens the inspector.
	cmd.Args = cobra.NoArgs
	cmd.RunE = tuiCmd.RunE

	return cmd
}

// environment bundles the opened runtime dependencies of one command.
type environment struct {
	cfg    config.Config
	paths  platform.Paths
	logger *charmLog.Logger
	kv     *sqlite.KV
	engine *history.Engine
}

// openEnvironment resolves paths, loads config, opens storage, and builds the
// engine. Callers must Close it.
func openEnvironment(cmd *cobra.Command, opts *RootOptions) (*environment, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: "rewind", DevMode: opts.DevMode})
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	configPath := strings.TrimSpace(opts.ConfigPath)
	if configPath == "" {
		configPath = paths.ConfigPath
	}
	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPath := strings.TrimSpace(opts.DBPath); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(cmd.ErrOrStderr(), cfg.Logging, opts.Verbose)
	if err != nil {
		return nil, err
	}

	kv, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	engine := history.New(
		storage.NewAdapter(kv, logger),
		history.WithCapacity(cfg.History.Capacity),
		history.WithMaxStacks(cfg.History.MaxStacks),
		history.WithIDGenerator(uuid.NewString),
		history.WithLogger(logger),
	)

	return &environment{
		cfg:    cfg,
		paths:  paths,
		logger: logger,
		kv:     kv,
		engine: engine,
	}, nil
}

// Close releases the environment's storage handle.
func (e *environment) Close() error {
	if e == nil || e.kv == nil {
		return nil
	}
	return e.kv.Close()
}

// newRuntimeLogger configures the runtime log sink from config and CLI state.
func newRuntimeLogger(stderr io.Writer, cfg config.LoggingConfig, verbose bool) (*charmLog.Logger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = charmLog.DebugLevel
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          "rewind",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	}), nil
}
