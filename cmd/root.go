// Package cmd provides the fragments command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/adalundhe/fragments/core/config"
	"github.com/adalundhe/fragments/core/registry"
	"github.com/adalundhe/fragments/core/storage"
)

var (
	noColor  bool
	logLevel string

	cfg    = config.DefaultConfig()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "fragments",
	Short: "Fragments - keep related text files in step",
	Long: `Fragments tracks a set of text files that started from a common template.
A change committed in one of them can be replayed onto the others, cleanly
where possible and with conflict markers where not.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setup loads settings for the repository around the working directory and
// installs the logger and color mode every command uses.
func setup(cmd *cobra.Command, args []string) error {
	dirs, err := storage.ResolveDirs()
	if err != nil {
		return fmt.Errorf("resolve directories: %w", err)
	}

	var project *storage.ProjectDirs
	if cwd, err := os.Getwd(); err == nil {
		project, _ = storage.FindProjectDirs(cwd)
	}

	manager := config.NewManager(dirs, project)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = manager.Get()

	level := cfg.LogLevel()
	if cmd.Flags().Changed("log-level") {
		if level, err = config.ParseLevel(logLevel); err != nil {
			return err
		}
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	configureColor(cfg.Output.Color, noColor, cmd.OutOrStdout())
	return nil
}

func openRegistry() (*registry.Registry, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return registry.Open(cwd, registry.WithLogger(logger))
}

// contextLines prefers an explicit -U over the configured default.
func contextLines(cmd *cobra.Command, flagValue int) int {
	if cmd.Flags().Changed("unified") {
		return flagValue
	}
	return cfg.Diff.ContextLines
}
