package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
)

const yamlIndent = 2

// ErrUnknownFormat is returned for an output format no renderer handles.
var ErrUnknownFormat = errors.New("unknown output format")

// RenderOptions tunes the renderers.
type RenderOptions struct {
	// Color enables ANSI colors in text output.
	Color bool

	// Title heads the HTML dashboard.
	Title string
}

// Render writes rep to w in the given format.
func Render(w io.Writer, rep *Report, format string, opts RenderOptions) error {
	switch format {
	case FormatText, "":
		return renderText(w, rep, opts)
	case FormatJSON:
		return renderJSON(w, rep)
	case FormatYAML:
		return renderYAML(w, rep)
	case FormatHTML:
		return renderHTML(w, rep, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, rep *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
