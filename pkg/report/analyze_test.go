package report_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
	"github.com/Sumatoshi-tech/oometrics/pkg/report"
)

const counterJava = `package demo;

public class Counter {
    private int count;

    public void inc(boolean big) {
        if (big) {
            count += 10;
        } else {
            count++;
        }
    }

    public int get() {
        return count;
    }
}
`

const classifyGo = `package demo

func Classify(n int) string {
	switch {
	case n < 0:
		return "neg"
	case n == 0:
		return "zero"
	}

	return "pos"
}
`

type countingRecorder struct {
	lookups atomic.Int64
}

func (r *countingRecorder) RecordLookup(string, bool) { r.lookups.Add(1) }

func (r *countingRecorder) RecordReset() {}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root
}

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".oometrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	return cfg
}

func findType(t *testing.T, rep *report.Report, name string) report.Type {
	t.Helper()

	for _, f := range rep.Files {
		for _, typ := range f.Types {
			if typ.Name == name {
				return typ
			}
		}
	}

	require.FailNow(t, "type not found", name)

	return report.Type{}
}

func value(t *testing.T, values []report.Value, metric, option string) report.Value {
	t.Helper()

	for _, v := range values {
		if v.Metric == metric && v.Option == option {
			return v
		}
	}

	require.FailNow(t, "value not found", "%s %s", metric, option)

	return report.Value{}
}

func TestAnalyze_MeasuresTypesAndFunctions(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/Counter.java":              counterJava,
		"src/classify.go":               classifyGo,
		"README.md":                     "# demo\n",
		"vendor/github.com/x/lib.go":    classifyGo,
		".cache/Hidden.java":            counterJava,
		"src/generated/Generated.java":  counterJava,
		"src/generated/nested/Gen.java": counterJava,
	})

	cfg := loadConfig(t, `metrics:
  enabled: [CYCLO, WMC, NOM]
analysis:
  exclude: ["**/generated/**"]
thresholds:
  operation:
    cyclo:
      warn: 2
      error: 3
`)

	recorder := &countingRecorder{}

	rep, err := report.Analyze(context.Background(), []string{root}, report.Options{
		Config:   cfg,
		Recorder: recorder,
	})
	require.NoError(t, err)

	require.Len(t, rep.Files, 2)
	assert.True(t, strings.HasSuffix(rep.Files[0].Path, "src/Counter.java"))
	assert.True(t, strings.HasSuffix(rep.Files[1].Path, "src/classify.go"))

	javaFile := rep.Files[0]
	assert.Equal(t, "java", javaFile.Language)
	assert.Equal(t, "demo", javaFile.Package)
	assert.Positive(t, javaFile.Size)

	counter := findType(t, rep, "Counter")
	assert.Equal(t, "class", counter.Kind)
	assert.Equal(t, uint(3), counter.Line)
	assert.InDelta(t, 3.0, value(t, counter.Values, "WMC", "").Value, 0)
	assert.InDelta(t, 2.0, value(t, counter.Values, "NOM", "").Value, 0)
	assert.InDelta(t, 3.0, value(t, counter.Values, "CYCLO", "sum").Value, 0)
	assert.InDelta(t, 1.5, value(t, counter.Values, "CYCLO", "average").Value, 0)
	assert.InDelta(t, 2.0, value(t, counter.Values, "CYCLO", "highest").Value, 0)
	assert.Empty(t, value(t, counter.Values, "CYCLO", "highest").Severity)

	require.Len(t, counter.Operations, 2)
	inc := counter.Operations[0]
	assert.Equal(t, "inc", inc.Name)
	assert.Equal(t, report.SeverityWarn, value(t, inc.Values, "CYCLO", "").Severity)
	assert.Equal(t, report.SeverityNone, value(t, counter.Operations[1].Values, "CYCLO", "").Severity)

	goFile := rep.Files[1]
	assert.Equal(t, "go", goFile.Language)
	assert.Empty(t, goFile.Types)
	require.Len(t, goFile.Functions, 1)
	assert.Equal(t, "Classify", goFile.Functions[0].Name)

	cyclo := value(t, goFile.Functions[0].Values, "CYCLO", "")
	assert.InDelta(t, 3.0, cyclo.Value, 0)
	assert.Equal(t, report.SeverityError, cyclo.Severity)

	assert.Equal(t, report.Summary{
		Files:      2,
		Types:      1,
		Operations: 3,
		Warnings:   1,
		Errors:     1,
		Bytes:      int64(len(counterJava) + len(classifyGo)),
	}, rep.Summary)
	assert.True(t, rep.HasErrors())

	assert.Positive(t, rep.Cache.Hits)
	assert.Positive(t, rep.Cache.Misses)
	assert.Positive(t, rep.Cache.Records)
	assert.Positive(t, recorder.lookups.Load())
}

func TestAnalyze_SkipsLargeFilesAndHonorsInclude(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/Small.java": "class Small {}",
		"a/Large.java": counterJava,
		"b/small.go":   "package b\n",
	})

	cfg := loadConfig(t, `analysis:
  include: ["a/**"]
  max_file_size: 100B
`)

	rep, err := report.Analyze(context.Background(), []string{root}, report.Options{Config: cfg})
	require.NoError(t, err)

	require.Len(t, rep.Files, 1)
	assert.True(t, strings.HasSuffix(rep.Files[0].Path, "a/Small.java"))
	assert.Equal(t, 2, rep.Summary.Skipped)
	assert.False(t, rep.HasErrors())
}

func TestAnalyze_ExplicitFile(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"Counter.java": counterJava, "notes.txt": "x"})

	rep, err := report.Analyze(context.Background(), []string{
		filepath.Join(root, "Counter.java"),
		filepath.Join(root, "notes.txt"),
	}, report.Options{})
	require.NoError(t, err)

	require.Len(t, rep.Files, 1)
	assert.Equal(t, 1, rep.Summary.Skipped)

	// Default thresholds and every catalog key apply without a config.
	counter := findType(t, rep, "Counter")
	value(t, counter.Values, "LCOM", "")
	value(t, counter.Operations[0].Values, "NCSS", "")
}

func TestAnalyze_FileLogsCarryPathAndLanguage(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"Counter.java": counterJava})
	path := filepath.Join(root, "Counter.java")

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, observability.DefaultConfig()))

	_, err := report.Analyze(context.Background(), []string{path}, report.Options{Logger: logger})
	require.NoError(t, err)

	var measured map[string]any

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))

		if record["msg"] == "file measured" {
			measured = record
		}
	}

	require.NotNil(t, measured, "file measured record not logged")
	assert.Equal(t, path, measured["file.path"])
	assert.Equal(t, "java", measured["language"])
	assert.Equal(t, "oometrics", measured["service"])
	assert.InDelta(t, 1, measured["types"], 0)
}

func TestAnalyze_VersionFromConfig(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"Guard.java": `class Guard {
    boolean check(boolean a, boolean b) {
        if (a && b) {
            return true;
        }
        return false;
    }
}
`})

	cfg := loadConfig(t, `metrics:
  enabled: [CYCLO]
  versions:
    cyclo: ignore_boolean_paths
`)

	rep, err := report.Analyze(context.Background(), []string{root}, report.Options{Config: cfg})
	require.NoError(t, err)

	op := findType(t, rep, "Guard").Operations[0]
	cyclo := value(t, op.Values, "CYCLO", "")
	assert.Equal(t, "ignore_boolean_paths", cyclo.Version)
	assert.InDelta(t, 2.0, cyclo.Value, 0)
}

func TestAnalyze_Errors(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"Counter.java": counterJava})

	_, err := report.Analyze(context.Background(), nil, report.Options{})
	require.ErrorIs(t, err, report.ErrNoPaths)

	_, err = report.Analyze(context.Background(), []string{filepath.Join(root, "missing")}, report.Options{})
	require.ErrorIs(t, err, os.ErrNotExist)

	cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: []string{"NOPE"}}}
	_, err = report.Analyze(context.Background(), []string{root}, report.Options{Config: cfg})
	require.ErrorIs(t, err, metrics.ErrUnknownKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = report.Analyze(ctx, []string{root}, report.Options{})
	require.ErrorIs(t, err, context.Canceled)
}
