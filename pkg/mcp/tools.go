package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/oometrics/pkg/catalog"
	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
	"github.com/Sumatoshi-tech/oometrics/pkg/report"
)

// Tool names.
const (
	ToolNameCompute = "oometrics_compute"
	ToolNameCatalog = "oometrics_catalog"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MiB).
const MaxCodeInputBytes = 1 << 20

const syntheticBaseName = "input"

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrEmptyLanguage indicates the language parameter is empty.
	ErrEmptyLanguage = errors.New("language parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrUnsupportedLanguage indicates no frontend handles the language.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrInvalidOption indicates an unknown aggregation option.
	ErrInvalidOption = errors.New("invalid option")
	// ErrInvalidCategory indicates an unknown catalog category filter.
	ErrInvalidCategory = errors.New("category must be operation or type")
)

// ComputeInput is the input schema for the oometrics_compute tool.
type ComputeInput struct {
	Code     string   `json:"code"              jsonschema:"source code to measure"`
	Language string   `json:"language"          jsonschema:"programming language (java or go)"`
	Metrics  []string `json:"metrics,omitempty" jsonschema:"optional metric names to compute (default: all)"`
	Version  string   `json:"version,omitempty" jsonschema:"optional metric version, e.g. ignore_boolean_paths"`
	Option   string   `json:"option,omitempty"  jsonschema:"optional aggregation of operation metrics per type: sum, average or highest"`
}

// CatalogInput is the input schema for the oometrics_catalog tool.
type CatalogInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional category filter: operation or type"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateCodeInput checks common code input constraints.
func validateCodeInput(code, language string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if language == "" {
		return ErrEmptyLanguage
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}

// handleCompute processes oometrics_compute tool calls. Every call measures
// the code in its own metrics context.
func (s *Server) handleCompute(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ComputeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCodeInput(input.Code, input.Language)
	if err != nil {
		return errorResult(err)
	}

	parser, err := s.parsers.ForLanguage(input.Language)
	if err != nil {
		return errorResult(fmt.Errorf("%w: %s", ErrUnsupportedLanguage, input.Language))
	}

	cfg, err := s.requestConfig(input)
	if err != nil {
		return errorResult(err)
	}

	filename := syntheticBaseName + parser.Extensions()[0]

	rep, err := report.AnalyzeSource(ctx, filename, []byte(input.Code), report.Options{
		Config:   cfg,
		Parsers:  s.parsers,
		Logger:   s.logger,
		Recorder: s.recorder,
		Tracer:   s.tracer,
	})
	if err != nil {
		return errorResult(fmt.Errorf("compute: %w", err))
	}

	ctx = observability.WithLogAttrs(ctx, slog.String(observability.LogKeyLanguage, input.Language))

	s.logger.DebugContext(ctx, "compute finished",
		"types", rep.Summary.Types,
		"operations", rep.Summary.Operations)

	return jsonResult(rep)
}

// requestConfig derives the configuration of one compute call from the
// server configuration and the call's filters.
func (s *Server) requestConfig(input ComputeInput) (*config.Config, error) {
	base := s.config
	if base == nil {
		base = config.Default()
	}

	cfg := *base
	cfg.Metrics = config.MetricsConfig{
		Enabled:  input.Metrics,
		Versions: map[string]string{},
		Options:  base.Metrics.Options,
	}

	for name, v := range base.Metrics.Versions {
		cfg.Metrics.Versions[name] = v
	}

	if input.Version != "" {
		for _, name := range catalog.Default().Names() {
			cfg.Metrics.Versions[strings.ToLower(name)] = input.Version
		}
	}

	if input.Option != "" {
		if _, err := metrics.ParseResultOption(input.Option); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}

		cfg.Metrics.Options = []string{input.Option}
	}

	return &cfg, nil
}

// handleCatalog processes oometrics_catalog tool calls.
func handleCatalog(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input CatalogInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	entries := catalog.Describe(catalog.Default())

	if input.Category == "" {
		return jsonResult(entries)
	}

	category := strings.ToLower(input.Category)
	if category != config.CategoryOperation && category != config.CategoryType {
		return errorResult(fmt.Errorf("%w: %q", ErrInvalidCategory, input.Category))
	}

	filtered := make([]catalog.Entry, 0, len(entries))

	for _, entry := range entries {
		if entry.Category == category {
			filtered = append(filtered, entry)
		}
	}

	return jsonResult(filtered)
}
