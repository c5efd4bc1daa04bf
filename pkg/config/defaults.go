package config

import (
	"slices"

	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/cohesion"
	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/complexity"
	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/size"
)

// Analysis defaults.
const (
	DefaultWorkers      = 0
	DefaultMaxFileSize  = "1MiB"
	DefaultSkipVendored = true
)

// Logging and output defaults.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = LogFormatText
	DefaultOutputFormat = "text"
	DefaultColor        = ColorAuto
)

// DefaultOptions are the aggregations reported for operation metrics over a type.
var DefaultOptions = []string{"sum", "average", "highest"}

// DefaultThresholds returns the built-in warn and error bounds, keyed by
// category and lower-case metric name.
func DefaultThresholds() map[string]map[string]Threshold {
	return map[string]map[string]Threshold{
		CategoryOperation: {
			"cyclo":     {Warn: complexity.CyclomaticThresholdModerate, Error: complexity.CyclomaticThresholdHigh},
			"cognitive": {Warn: complexity.CognitiveThresholdModerate, Error: complexity.CognitiveThresholdHigh},
			"ncss":      {Warn: size.NCSSThresholdOperation / 2, Error: size.NCSSThresholdOperation},
			"nparam":    {Warn: size.NPARAMThreshold},
		},
		CategoryType: {
			"wmc":  {Warn: complexity.WMCThresholdModerate, Error: complexity.WMCThresholdHigh},
			"ncss": {Warn: size.NCSSThresholdType / 2, Error: size.NCSSThresholdType},
			"nom":  {Warn: size.NOMThreshold},
			"lcom": {Warn: cohesion.LCOMThresholdHigh},
			"tcc":  {Warn: cohesion.TCCThresholdLow, Below: true},
			"woc":  {Warn: cohesion.WOCThresholdLow, Below: true},
			"nopa": {Warn: cohesion.NOPAThreshold},
			"noam": {Warn: cohesion.NOAMThreshold},
		},
	}
}

// Default returns the configuration LoadConfig yields when no file and no
// environment override is present.
func Default() *Config {
	return &Config{
		Metrics: MetricsConfig{
			Versions: map[string]string{},
			Options:  slices.Clone(DefaultOptions),
		},
		Thresholds: DefaultThresholds(),
		Analysis: AnalysisConfig{
			Workers:      DefaultWorkers,
			MaxFileSize:  DefaultMaxFileSize,
			SkipVendored: DefaultSkipVendored,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Output:  OutputConfig{Format: DefaultOutputFormat, Color: DefaultColor},
	}
}
