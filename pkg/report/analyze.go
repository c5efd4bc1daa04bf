package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/oometrics/pkg/catalog"
	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

const tracerName = "github.com/Sumatoshi-tech/oometrics/report"

// ErrNoPaths is returned when Analyze is called without input paths.
var ErrNoPaths = errors.New("no paths to analyze")

// Options holds the dependencies of an analysis run. Zero-value fields use
// production defaults.
type Options struct {
	// Config selects metrics, thresholds and discovery rules. Nil uses
	// [config.Default].
	Config *config.Config

	// Parsers selects the frontend per file. Nil uses [uast.NewRegistry].
	Parsers *uast.Registry

	// Keys is the catalog to compute from. Nil uses [catalog.Default].
	Keys *metrics.Registry

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Recorder receives engine events of the shared metrics context.
	Recorder metrics.Recorder

	// Tracer creates the run and file spans. Nil uses the global provider.
	Tracer trace.Tracer
}

type analyzer struct {
	cfg      *config.Config
	parsers  *uast.Registry
	keys     []*metrics.Key
	options  []metrics.ResultOption
	engine   *metrics.Context
	logger   *slog.Logger
	tracer   trace.Tracer
	maxBytes uint64
}

// Analyze discovers the supported source files below paths, measures every
// type and operation in them with one shared metrics context and returns the
// graded results in discovery order. Parse failures are recorded on the file
// and do not stop the run; context cancellation does.
func Analyze(ctx context.Context, paths []string, opts Options) (*Report, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	a, err := newAnalyzer(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "oometrics.analyze",
		trace.WithAttributes(attribute.StringSlice("run.paths", paths)))
	defer span.End()

	start := time.Now()

	files, skipped, err := a.discover(paths)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	results := make([]File, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers())

	for i, path := range files {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			results[i] = a.file(groupCtx, path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("analyze: %w", err)
	}

	rep := &Report{Files: results, Cache: a.engine.CacheStats()}
	rep.Summary.Skipped = skipped
	rep.Summary.tally(results)

	span.SetAttributes(
		attribute.Int("files", rep.Summary.Files),
		attribute.Int("records", rep.Cache.Records),
	)

	a.logger.InfoContext(ctx, "analysis complete",
		"files", rep.Summary.Files,
		"failed", rep.Summary.Failed,
		"skipped", rep.Summary.Skipped,
		"warnings", rep.Summary.Warnings,
		"errors", rep.Summary.Errors,
		"cache_hits", rep.Cache.Hits,
		"cache_misses", rep.Cache.Misses,
		"duration", time.Since(start),
	)

	return rep, nil
}

func newAnalyzer(opts Options) (*analyzer, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	parsers := opts.Parsers
	if parsers == nil {
		parsers = uast.NewRegistry()
	}

	keys := opts.Keys
	if keys == nil {
		keys = catalog.Default()
	}

	selected, err := keys.Select(cfg.Metrics.Enabled)
	if err != nil {
		return nil, fmt.Errorf("select metrics: %w", err)
	}

	options, err := cfg.ResultOptions()
	if err != nil {
		return nil, err
	}

	maxBytes, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &analyzer{
		cfg:      cfg,
		parsers:  parsers,
		keys:     selected.Keys(),
		options:  options,
		engine:   metrics.New(metrics.Options{Logger: logger, Recorder: opts.Recorder}),
		logger:   logger,
		tracer:   tracer,
		maxBytes: maxBytes,
	}, nil
}

func (a *analyzer) workers() int {
	if a.cfg.Analysis.Workers > 0 {
		return a.cfg.Analysis.Workers
	}

	return runtime.GOMAXPROCS(0)
}

// discover expands paths into the sorted list of files to measure and
// counts the supported files it left out.
func (a *analyzer) discover(paths []string) ([]string, int, error) {
	var (
		files   []string
		skipped int
	)

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			if a.accept(root, filepath.Base(root), info.Size()) {
				files = append(files, root)
			} else {
				skipped++
			}

			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}

			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != root && a.skipDir(d.Name(), rel) {
					return filepath.SkipDir
				}

				return nil
			}

			if !d.Type().IsRegular() || !a.parsers.IsSupported(path) {
				return nil
			}

			fileInfo, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}

			if a.accept(path, rel, fileInfo.Size()) {
				files = append(files, path)
			} else {
				skipped++
			}

			return nil
		})
		if walkErr != nil {
			return nil, 0, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	return files, skipped, nil
}

func (a *analyzer) skipDir(name, rel string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}

	if a.cfg.Analysis.SkipVendored && uast.IsVendored(rel+"/") {
		return true
	}

	return matchAny(a.cfg.Analysis.Exclude, rel)
}

// accept applies the vendoring, include, exclude and size rules to one file.
func (a *analyzer) accept(path, rel string, size int64) bool {
	if !a.parsers.IsSupported(path) {
		return false
	}

	if a.cfg.Analysis.SkipVendored && uast.IsVendored(rel) {
		return false
	}

	if len(a.cfg.Analysis.Include) > 0 && !matchAny(a.cfg.Analysis.Include, rel) {
		return false
	}

	if matchAny(a.cfg.Analysis.Exclude, rel) {
		return false
	}

	if a.maxBytes > 0 && size > 0 && uint64(size) > a.maxBytes {
		a.logger.Debug("file too large", "file", path, "size", size)

		return false
	}

	return true
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			continue
		}

		if matched {
			return true
		}
	}

	return false
}

// AnalyzeSource measures one in-memory source file. The parser is chosen
// from filename as for files on disk. Unlike [Analyze], a parse failure is
// returned as an error.
func AnalyzeSource(ctx context.Context, filename string, src []byte, opts Options) (*Report, error) {
	a, err := newAnalyzer(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "oometrics.analyze_source",
		trace.WithAttributes(attribute.String("file.path", filename)))
	defer span.End()

	ctx = observability.WithLogAttrs(ctx, slog.String(observability.LogKeyFile, filename))

	result, err := a.measure(ctx, filename, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	rep := &Report{Files: []File{result}, Cache: a.engine.CacheStats()}
	rep.Summary.tally(rep.Files)

	return rep, nil
}

// file reads and measures one file. Failures are recorded on the result.
func (a *analyzer) file(ctx context.Context, path string) File {
	ctx, span := a.tracer.Start(ctx, "oometrics.file",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	ctx = observability.WithLogAttrs(ctx, slog.String(observability.LogKeyFile, path))

	src, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)

		return File{Path: filepath.ToSlash(path), Error: err.Error()}
	}

	result, err := a.measure(ctx, path, src)
	if err != nil {
		span.RecordError(err)
		a.logger.WarnContext(ctx, "parse failed", "error", err)

		return File{Path: filepath.ToSlash(path), Size: int64(len(src)), Error: err.Error()}
	}

	span.SetAttributes(
		attribute.String("language", result.Language),
		attribute.Int("file.types", len(result.Types)),
	)

	return result
}

func (a *analyzer) measure(ctx context.Context, path string, src []byte) (File, error) {
	root, err := a.parsers.Parse(ctx, path, src)
	if err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}

	result := File{
		Path:     filepath.ToSlash(path),
		Language: root.Prop(node.PropLanguage),
		Package:  root.PackageName(),
		Size:     int64(len(src)),
	}

	for _, t := range root.Types() {
		result.Types = append(result.Types, a.measureType(t))
	}

	for _, fn := range root.Operations() {
		result.Functions = append(result.Functions, a.measureOperation(fn))
	}

	a.logger.DebugContext(observability.WithLogAttrs(ctx, slog.String(observability.LogKeyLanguage, result.Language)),
		"file measured", "types", len(result.Types), "functions", len(result.Functions))

	return result, nil
}

func (a *analyzer) measureType(t *node.Node) Type {
	result := Type{
		Name: t.Name(),
		Kind: strings.ToLower(string(t.Type)),
		Line: line(t),
	}

	for _, key := range a.keys {
		version := a.cfg.Version(key.Name())

		switch key.Category() {
		case node.CategoryType:
			result.Values = a.appendValue(result.Values, key, version, metrics.OptionNone,
				a.engine.GetVersion(key, t, version))
		case node.CategoryOperation:
			for _, option := range a.options {
				result.Values = a.appendValue(result.Values, key, version, option,
					a.engine.GetVersionAggregate(key, t, version, option))
			}
		case node.CategoryOther, node.CategoryPackage:
		}
	}

	for _, op := range t.Operations() {
		result.Operations = append(result.Operations, a.measureOperation(op))
	}

	for _, nested := range t.Types() {
		result.Types = append(result.Types, a.measureType(nested))
	}

	return result
}

func (a *analyzer) measureOperation(op *node.Node) Operation {
	result := Operation{Name: op.Name(), Line: line(op)}

	for _, key := range a.keys {
		if key.Category() != node.CategoryOperation {
			continue
		}

		version := a.cfg.Version(key.Name())
		result.Values = a.appendValue(result.Values, key, version, metrics.OptionNone,
			a.engine.GetVersion(key, op, version))
	}

	return result
}

// appendValue records v unless it is NaN. Only plain values are graded;
// aggregates are informational.
func (a *analyzer) appendValue(values []Value, key *metrics.Key, version metrics.Version,
	option metrics.ResultOption, v float64,
) []Value {
	if math.IsNaN(v) {
		return values
	}

	value := Value{Metric: key.Name(), Value: v}

	if resolved := metrics.ResolveVersion(key.Metric(), version); resolved != metrics.Standard {
		value.Version = string(resolved)
	}

	if option != metrics.OptionNone {
		value.Option = option.String()
	} else if th, ok := a.cfg.Threshold(key.Category().String(), key.Name()); ok {
		value.Severity = Classify(th, v)
	}

	return append(values, value)
}

func line(n *node.Node) uint {
	if n.Pos == nil {
		return 0
	}

	return n.Pos.StartLine
}
