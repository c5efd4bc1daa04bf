// Package report runs the metrics engine over source trees and renders the
// results as text, JSON, YAML or an HTML dashboard.
package report

import (
	"math"

	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
)

// Severity grades a value against its configured threshold.
type Severity string

// Severities in increasing order.
const (
	SeverityNone  Severity = ""
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Value is one computed metric value. NaN results are never stored.
type Value struct {
	Metric   string   `json:"metric"             yaml:"metric"`
	Version  string   `json:"version,omitempty"  yaml:"version,omitempty"`
	Option   string   `json:"option,omitempty"   yaml:"option,omitempty"`
	Value    float64  `json:"value"              yaml:"value"`
	Severity Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// Operation holds the values of one method, constructor or function.
type Operation struct {
	Name   string  `json:"name"   yaml:"name"`
	Line   uint    `json:"line"   yaml:"line"`
	Values []Value `json:"values" yaml:"values"`
}

// Type holds the values of one class, interface, enum or struct, together
// with its operations and nested types.
type Type struct {
	Name       string      `json:"name"                 yaml:"name"`
	Kind       string      `json:"kind"                 yaml:"kind"`
	Line       uint        `json:"line"                 yaml:"line"`
	Values     []Value     `json:"values"               yaml:"values"`
	Operations []Operation `json:"operations,omitempty" yaml:"operations,omitempty"`
	Types      []Type      `json:"types,omitempty"      yaml:"types,omitempty"`
}

// File is the result of one source file. Error is set when the file could
// not be read or parsed; the other fields are then empty.
type File struct {
	Path      string      `json:"path"                yaml:"path"`
	Language  string      `json:"language,omitempty"  yaml:"language,omitempty"`
	Package   string      `json:"package,omitempty"   yaml:"package,omitempty"`
	Size      int64       `json:"size"                yaml:"size"`
	Types     []Type      `json:"types,omitempty"     yaml:"types,omitempty"`
	Functions []Operation `json:"functions,omitempty" yaml:"functions,omitempty"`
	Error     string      `json:"error,omitempty"     yaml:"error,omitempty"`
}

// Summary counts what a run measured.
type Summary struct {
	Files      int   `json:"files"      yaml:"files"`
	Failed     int   `json:"failed"     yaml:"failed"`
	Skipped    int   `json:"skipped"    yaml:"skipped"`
	Types      int   `json:"types"      yaml:"types"`
	Operations int   `json:"operations" yaml:"operations"`
	Warnings   int   `json:"warnings"   yaml:"warnings"`
	Errors     int   `json:"errors"     yaml:"errors"`
	Bytes      int64 `json:"bytes"      yaml:"bytes"`
}

// Report is the outcome of one analysis run.
type Report struct {
	Files   []File             `json:"files"   yaml:"files"`
	Summary Summary            `json:"summary" yaml:"summary"`
	Cache   metrics.CacheStats `json:"cache"   yaml:"cache"`
}

// HasErrors reports whether any value crossed its error threshold.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// Classify grades v against th. A zero bound is disabled. Upper bounds are
// inclusive; Below thresholds flag values strictly under the bound.
func Classify(th config.Threshold, v float64) Severity {
	if math.IsNaN(v) {
		return SeverityNone
	}

	switch {
	case crosses(th.Error, th.Below, v):
		return SeverityError
	case crosses(th.Warn, th.Below, v):
		return SeverityWarn
	default:
		return SeverityNone
	}
}

func crosses(bound float64, below bool, v float64) bool {
	if bound == 0 {
		return false
	}

	if below {
		return v < bound
	}

	return v >= bound
}

// count adds the severities of values to the summary.
func (s *Summary) count(values []Value) {
	for _, v := range values {
		switch v.Severity {
		case SeverityWarn:
			s.Warnings++
		case SeverityError:
			s.Errors++
		case SeverityNone:
		}
	}
}

// tally fills the structural counters of the summary from files.
func (s *Summary) tally(files []File) {
	var walk func(types []Type)

	walk = func(types []Type) {
		for _, t := range types {
			s.Types++
			s.count(t.Values)

			for _, op := range t.Operations {
				s.Operations++
				s.count(op.Values)
			}

			walk(t.Types)
		}
	}

	for _, f := range files {
		s.Files++
		s.Bytes += f.Size

		if f.Error != "" {
			s.Failed++

			continue
		}

		walk(f.Types)

		for _, fn := range f.Functions {
			s.Operations++
			s.count(fn.Values)
		}
	}
}
