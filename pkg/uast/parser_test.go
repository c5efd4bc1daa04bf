package uast_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

func parse(t *testing.T, filename, src string) *node.Node {
	t.Helper()

	file, err := uast.NewRegistry().Parse(context.Background(), filename, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, file)
	require.Equal(t, node.UASTFile, file.Type)

	return file
}

func findOperation(t *testing.T, root *node.Node, name string) *node.Node {
	t.Helper()

	found := root.Find(func(n *node.Node) bool {
		return n.Category() == node.CategoryOperation && n.Name() == name
	})
	require.Len(t, found, 1, name)

	return found[0]
}

func findType(t *testing.T, root *node.Node, name string) *node.Node {
	t.Helper()

	found := root.Find(func(n *node.Node) bool {
		return n.Category() == node.CategoryType && n.Name() == name
	})
	require.Len(t, found, 1, name)

	return found[0]
}

func names(nodes []*node.Node) []string {
	result := make([]string, 0, len(nodes))

	for _, n := range nodes {
		result = append(result, n.Name())
	}

	return result
}

func compute(key *metrics.Key, n *node.Node) float64 {
	return metrics.New(metrics.Options{}).Get(key, n)
}

func TestRegistry_Languages(t *testing.T) {
	t.Parallel()

	registry := uast.NewRegistry()
	assert.Equal(t, []string{"go", "java"}, registry.Languages())

	p, err := registry.ForLanguage("Java")
	require.NoError(t, err)
	assert.Equal(t, []string{".java"}, p.Extensions())

	_, err = registry.ForLanguage("cobol")
	require.ErrorIs(t, err, uast.ErrUnsupportedLanguage)
}

func TestRegistry_ForFile(t *testing.T) {
	t.Parallel()

	registry := uast.NewRegistry()

	tests := []struct {
		filename string
		language string
	}{
		{filename: "src/Main.java", language: "java"},
		{filename: "cmd/main.go", language: "go"},
		{filename: "LEGACY.GO", language: "go"},
	}

	for _, tt := range tests {
		p, err := registry.ForFile(tt.filename, nil)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.language, p.Language(), tt.filename)
		assert.True(t, registry.IsSupported(tt.filename), tt.filename)
	}

	_, err := registry.ForFile("README.md", []byte("# readme\n"))
	require.ErrorIs(t, err, uast.ErrUnsupportedLanguage)
	assert.False(t, registry.IsSupported("README.md"))
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "python", uast.DetectLanguage("tool.py", []byte("print('x')\n")))
	assert.Equal(t, "java", uast.DetectLanguage("Main.java", nil))
}

func TestIsVendored(t *testing.T) {
	t.Parallel()

	assert.True(t, uast.IsVendored("vendor/github.com/acme/lib/lib.go"))
	assert.True(t, uast.IsVendored("web/node_modules/left-pad/index.js"))
	assert.False(t, uast.IsVendored("pkg/shop/cart.go"))
}

func TestParse_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uast.NewRegistry().Parse(ctx, "Main.java", []byte("class Main {}"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParse_SyntaxErrorsAreTolerated(t *testing.T) {
	t.Parallel()

	file := parse(t, "Broken.java", "class Broken { void ok() { return; } void bad( { }")

	assert.Equal(t, "Broken.java", file.ID)
	assert.Equal(t, "java", file.Prop(node.PropLanguage))
	assert.Contains(t, names(file.Types()), "Broken")
}
