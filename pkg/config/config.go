// Package config loads the oometrics configuration from defaults, an optional
// YAML file and OOMETRICS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrSchema             = errors.New("config does not match schema")
	ErrInvalidWorkers     = errors.New("analysis workers must not be negative")
	ErrInvalidFileSize    = errors.New("invalid max file size")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidColor       = errors.New("invalid color mode")
	ErrInvalidOption      = errors.New("invalid aggregation option")
	ErrInvalidThreshold   = errors.New("invalid threshold")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

// Threshold categories.
const (
	CategoryOperation = "operation"
	CategoryType      = "type"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// OutputFormats lists the accepted report formats.
var OutputFormats = []string{"text", "json", "yaml", "html"}

// Config holds all oometrics configuration.
type Config struct {
	Metrics       MetricsConfig                   `mapstructure:"metrics"`
	Thresholds    map[string]map[string]Threshold `mapstructure:"thresholds"`
	Analysis      AnalysisConfig                  `mapstructure:"analysis"`
	Logging       LoggingConfig                   `mapstructure:"logging"`
	Observability ObservabilityConfig             `mapstructure:"observability"`
	Output        OutputConfig                    `mapstructure:"output"`
}

// MetricsConfig selects what is computed.
type MetricsConfig struct {
	// Enabled lists metric names to compute. Empty enables all.
	Enabled []string `mapstructure:"enabled"`

	// Versions maps a lower-case metric name to the version to compute.
	Versions map[string]string `mapstructure:"versions"`

	// Options are the aggregations of operation metrics reported per type.
	Options []string `mapstructure:"options"`
}

// Threshold bounds one metric. A zero bound is disabled. Below flips the
// comparison for metrics where small values are bad.
type Threshold struct {
	Warn  float64 `mapstructure:"warn"`
	Error float64 `mapstructure:"error"`
	Below bool    `mapstructure:"below"`
}

// AnalysisConfig controls file discovery and parallelism.
type AnalysisConfig struct {
	Workers      int      `mapstructure:"workers"`
	Include      []string `mapstructure:"include"`
	Exclude      []string `mapstructure:"exclude"`
	MaxFileSize  string   `mapstructure:"max_file_size"`
	SkipVendored bool     `mapstructure:"skip_vendored"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig controls telemetry export.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  string `mapstructure:"color"`
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Analysis.Workers)
	}

	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if !slices.Contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Output.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.Output.Color)
	}

	if _, err := c.ResultOptions(); err != nil {
		return err
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return c.validateThresholds()
}

func (c *Config) validateThresholds() error {
	for category, byName := range c.Thresholds {
		if category != CategoryOperation && category != CategoryType {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidThreshold, category)
		}

		for name, th := range byName {
			if th.Warn == 0 || th.Error == 0 {
				continue
			}

			if (!th.Below && th.Warn > th.Error) || (th.Below && th.Warn < th.Error) {
				return fmt.Errorf("%w: %s.%s warn %v is past error %v",
					ErrInvalidThreshold, category, name, th.Warn, th.Error)
			}
		}
	}

	return nil
}

// MaxFileSizeBytes parses analysis.max_file_size. Zero means unlimited.
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	if c.Analysis.MaxFileSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Analysis.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFileSize, c.Analysis.MaxFileSize)
	}

	return size, nil
}

// ResultOptions parses metrics.options.
func (c *Config) ResultOptions() ([]metrics.ResultOption, error) {
	options := make([]metrics.ResultOption, 0, len(c.Metrics.Options))

	for _, raw := range c.Metrics.Options {
		option, err := metrics.ParseResultOption(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}

		options = append(options, option)
	}

	return options, nil
}

// LogLevel returns the configured slog level, or Info when unparsable.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}

	return level
}

// MetricEnabled reports whether name is selected by metrics.enabled.
func (c *Config) MetricEnabled(name string) bool {
	if len(c.Metrics.Enabled) == 0 {
		return true
	}

	return slices.ContainsFunc(c.Metrics.Enabled, func(enabled string) bool {
		return strings.EqualFold(enabled, name)
	})
}

// Version returns the configured version of a metric, or [metrics.Standard].
func (c *Config) Version(name string) metrics.Version {
	if v, ok := c.Metrics.Versions[strings.ToLower(name)]; ok && v != "" {
		return metrics.Version(v)
	}

	return metrics.Standard
}

// Threshold returns the bounds configured for a metric in a category.
func (c *Config) Threshold(category, name string) (Threshold, bool) {
	th, ok := c.Thresholds[category][strings.ToLower(name)]

	return th, ok
}

// ObservabilityConfig builds the telemetry configuration for a run.
func (c *Config) ObservabilityConfig(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.Environment = c.Observability.Environment
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.SampleRatio = c.Observability.SampleRatio
	cfg.DebugTrace = c.Observability.DebugTrace
	cfg.LogLevel = c.LogLevel()
	cfg.LogJSON = c.Logging.Format == LogFormatJSON

	return cfg
}
