// Package commands implements CLI command handlers for oometrics.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
	"github.com/Sumatoshi-tech/oometrics/pkg/version"
)

const (
	levelDebug = "debug"
	levelError = "error"
)

// ErrConflictingVerbosity is returned when both --verbose and --quiet are set.
var ErrConflictingVerbosity = errors.New("--verbose and --quiet are mutually exclusive")

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the oometrics command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "oometrics",
		Short: "Object-oriented code metrics",
		Long: `oometrics computes object-oriented code metrics (cyclomatic and cognitive
complexity, size, cohesion) for the types and operations of Java and Go sources.

Commands:
  run       Measure source trees and render a report
  catalog   List the available metrics
  mcp       Serve the metrics engine to AI agents over MCP`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"config file (default: .oometrics.yaml in ., ./config or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "log errors only")

	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newMCPCommand(flags))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// load reads the configuration and applies the verbosity flags.
func (f *globalFlags) load() (*config.Config, error) {
	if f.verbose && f.quiet {
		return nil, ErrConflictingVerbosity
	}

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case f.verbose:
		cfg.Logging.Level = levelDebug
		cfg.Observability.DebugTrace = true
	case f.quiet:
		cfg.Logging.Level = levelError
	}

	return cfg, nil
}

// initObservability installs telemetry for one command invocation.
func initObservability(cfg *config.Config, mode observability.AppMode) (observability.Providers, error) {
	providers, err := observability.Init(cfg.ObservabilityConfig(mode, version.Version))
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

// shutdown flushes telemetry and logs a failure instead of masking the
// command's own result.
func shutdown(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), version.String()+"\n")

			return err
		},
	}
}
