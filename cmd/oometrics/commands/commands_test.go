package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/oometrics/cmd/oometrics/commands"
	"github.com/Sumatoshi-tech/oometrics/pkg/catalog"
	"github.com/Sumatoshi-tech/oometrics/pkg/config"
	"github.com/Sumatoshi-tech/oometrics/pkg/report"
)

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

const strictConfig = `metrics:
  enabled: [CYCLO]
thresholds:
  operation:
    cyclo:
      warn: 2
      error: 3
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := commands.NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"run", "catalog", "mcp", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "quiet"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd, _, err := commands.NewRootCommand().Find([]string{"mcp"})
	require.NoError(t, err)
	assert.NotEmpty(t, cmd.Long)

	flag := cmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, flag)
	assert.Empty(t, flag.DefValue)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "oometrics "))
}

func TestCatalogCommand_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "catalog", "--format", "json")
	require.NoError(t, err)

	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, len(catalog.Default().Keys()))
}

func TestCatalogCommand_Text(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "CYCLO")
	assert.Contains(t, out, "WMC")

	_, err = execute(t, "catalog", "--format", "html")
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestRunCommand_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "classify.go", classifyGo)
	cfgPath := writeFile(t, t.TempDir(), "oometrics.yaml", strictConfig)

	out, err := execute(t, "run", "-q", "--config", cfgPath, "--format", "json", dir)
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	require.Len(t, rep.Files, 1)
	require.Len(t, rep.Files[0].Functions, 1)

	fn := rep.Files[0].Functions[0]
	assert.Equal(t, "Classify", fn.Name)
	require.Len(t, fn.Values, 1)
	assert.InDelta(t, 3.0, fn.Values[0].Value, 0)
	assert.Equal(t, report.SeverityError, fn.Values[0].Severity)
}

func TestRunCommand_FailOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "classify.go", classifyGo)
	cfgPath := writeFile(t, t.TempDir(), "oometrics.yaml", strictConfig)

	_, err := execute(t, "run", "-q", "--config", cfgPath, "--no-color", "--fail-on-error", dir)
	require.ErrorIs(t, err, commands.ErrThresholdExceeded)
}

func TestRunCommand_OutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "classify.go", classifyGo)
	target := filepath.Join(t.TempDir(), "report.html")

	out, err := execute(t, "run", "-q", "--format", "html", "--title", "Demo <run>", "--output", target, dir)
	require.NoError(t, err)
	assert.Empty(t, out)

	html, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Demo &lt;run&gt;")
}

func TestRunCommand_Errors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "run", "-q", "--format", "xml", t.TempDir())
	require.ErrorIs(t, err, config.ErrInvalidFormat)

	_, err = execute(t, "run", "-v", "-q", t.TempDir())
	require.ErrorIs(t, err, commands.ErrConflictingVerbosity)

	_, err = execute(t, "run", "-q", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
