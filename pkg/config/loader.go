package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

const (
	configName       = ".oometrics"
	configType       = "yaml"
	envPrefix        = "OOMETRICS"
	envKeySeparator  = "_"
	configSubdirName = "config"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON Schema configuration files are validated against.
func Schema() []byte {
	return schemaJSON
}

// LoadConfig loads configuration from defaults, a config file and env vars.
// An explicit configPath must exist. Otherwise .oometrics.yaml is searched in
// the working directory, ./config and $HOME, and a missing file is not an
// error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./" + configSubdirName)

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	if used := viperCfg.ConfigFileUsed(); used != "" && readErr == nil {
		if err := validateFile(used); err != nil {
			return nil, err
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// validateFile checks the settings of one config file, without defaults or
// environment overrides, against the embedded schema.
func validateFile(path string) error {
	fileCfg := viper.New()
	fileCfg.SetConfigFile(path)
	fileCfg.SetConfigType(configType)

	if err := fileCfg.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(fileCfg.AllSettings()),
	)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))

	for _, resultErr := range result.Errors() {
		problems = append(problems, resultErr.Field()+": "+resultErr.Description())
	}

	return fmt.Errorf("%w: %s: %s", ErrSchema, path, strings.Join(problems, "; "))
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("metrics.enabled", []string{})
	viperCfg.SetDefault("metrics.versions", map[string]string{})
	viperCfg.SetDefault("metrics.options", DefaultOptions)

	for category, byName := range DefaultThresholds() {
		for name, th := range byName {
			prefix := "thresholds." + category + "." + name + "."
			viperCfg.SetDefault(prefix+"warn", th.Warn)
			viperCfg.SetDefault(prefix+"error", th.Error)
			viperCfg.SetDefault(prefix+"below", th.Below)
		}
	}

	viperCfg.SetDefault("analysis.workers", DefaultWorkers)
	viperCfg.SetDefault("analysis.include", []string{})
	viperCfg.SetDefault("analysis.exclude", []string{})
	viperCfg.SetDefault("analysis.max_file_size", DefaultMaxFileSize)
	viperCfg.SetDefault("analysis.skip_vendored", DefaultSkipVendored)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.debug_trace", false)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.color", DefaultColor)
}
