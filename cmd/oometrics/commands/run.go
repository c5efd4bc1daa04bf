package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
	"github.com/Sumatoshi-tech/oometrics/pkg/report"
)

const (
	opRun        = "run"
	defaultTitle = "oometrics report"
)

// ErrThresholdExceeded is returned by run --fail-on-error when a metric
// crossed its error threshold.
var ErrThresholdExceeded = errors.New("error thresholds exceeded")

type runFlags struct {
	format      string
	output      string
	title       string
	metrics     []string
	workers     int
	failOnError bool
	noColor     bool
}

func newRunCommand(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Measure source trees and render a report",
		Long: `Measure every supported source file below the given paths (default: .).

Types are reported with their type metrics and with the configured
aggregations (sum, average, highest) of their operation metrics. Values are
graded against the thresholds of the configuration file.`,
		Example: `  oometrics run ./src
  oometrics run --format html --output report.html .
  oometrics run --metrics CYCLO,WMC --fail-on-error ./pkg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, global, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: text, json, yaml, html (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&flags.title, "title", defaultTitle, "HTML report title")
	cmd.Flags().StringSliceVarP(&flags.metrics, "metrics", "m", nil, "metric keys to compute (default: all enabled)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "parallel file workers (default from config)")
	cmd.Flags().BoolVar(&flags.failOnError, "fail-on-error", false, "exit with status 2 when an error threshold is exceeded")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	return cmd
}

func runAnalysis(cmd *cobra.Command, global *globalFlags, flags *runFlags, args []string) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}

	if err := flags.apply(cfg); err != nil {
		return err
	}

	providers, err := initObservability(cfg, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer shutdown(providers)

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	engine, err := observability.NewEngineMetrics(providers.Meter)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	done := red.TrackInflight(ctx, opRun)
	start := time.Now()

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	rep, err := report.Analyze(ctx, paths, report.Options{
		Config:   cfg,
		Logger:   providers.Logger,
		Recorder: engine,
		Tracer:   providers.Tracer,
	})

	done()

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}

	red.RecordRequest(ctx, opRun, status, time.Since(start))

	if err != nil {
		return err
	}

	if err := flags.render(cmd.OutOrStdout(), rep, cfg); err != nil {
		return err
	}

	if flags.failOnError && rep.HasErrors() {
		return fmt.Errorf("%w: %d values", ErrThresholdExceeded, rep.Summary.Errors)
	}

	return nil
}

// apply folds the command-line overrides into cfg.
func (f *runFlags) apply(cfg *config.Config) error {
	if f.format != "" {
		cfg.Output.Format = f.format
	}

	if f.noColor {
		cfg.Output.Color = config.ColorNever
	}

	if len(f.metrics) > 0 {
		cfg.Metrics.Enabled = f.metrics
	}

	if f.workers != 0 {
		cfg.Analysis.Workers = f.workers
	}

	return cfg.Validate()
}

func (f *runFlags) render(stdout io.Writer, rep *report.Report, cfg *config.Config) error {
	opts := report.RenderOptions{Title: f.title, Color: useColor(cfg.Output.Color)}

	if f.output == "" {
		return report.Render(stdout, rep, cfg.Output.Format, opts)
	}

	// ANSI codes do not belong in files.
	opts.Color = false

	out, err := os.Create(f.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := report.Render(out, rep, cfg.Output.Format, opts); err != nil {
		out.Close()

		return err
	}

	return out.Close()
}

func useColor(mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return !color.NoColor
	}
}
