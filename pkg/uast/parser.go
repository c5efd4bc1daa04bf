// Package uast turns source files into the node trees the metrics engine
// measures. Each supported language has a tree-sitter frontend that lowers the
// concrete syntax tree into [node.Node] values with package, type and
// operation nodes plus the control-flow shapes the metrics rely on.
package uast

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Sentinel errors for parser operations.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoRootNode          = errors.New("parser produced no root node")
	errPoolType            = errors.New("unexpected type in parser pool")
)

// Parser lowers the source of one language into a UAST.
type Parser interface {
	// Language returns the lower-case language name, e.g. "java".
	Language() string

	// Extensions returns the file extensions handled, with leading dot.
	Extensions() []string

	// Parse returns the File node of src. Syntax errors do not fail the
	// parse; the erroneous regions are dropped from the tree.
	Parse(ctx context.Context, filename string, src []byte) (*node.Node, error)
}

// Registry selects a Parser for a file by extension, falling back to
// content-based language detection.
type Registry struct {
	parsers    map[string]Parser
	extensions map[string]Parser
}

// NewRegistry returns a registry with every built-in frontend.
func NewRegistry() *Registry {
	r := &Registry{
		parsers:    make(map[string]Parser),
		extensions: make(map[string]Parser),
	}

	r.Register(NewJavaParser())
	r.Register(NewGoParser())

	return r
}

// Register adds or replaces a parser for its language and extensions.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Language()] = p

	for _, ext := range p.Extensions() {
		r.extensions[strings.ToLower(ext)] = p
	}
}

// Languages returns the sorted names of the registered languages.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.parsers))

	for name := range r.parsers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// ForLanguage returns the parser registered under a language name.
func (r *Registry) ForLanguage(language string) (Parser, error) {
	if p, ok := r.parsers[strings.ToLower(language)]; ok {
		return p, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
}

// ForFile returns the parser for filename. The extension decides first;
// otherwise the language detected from the name and content is used.
func (r *Registry) ForFile(filename string, src []byte) (Parser, error) {
	if p, ok := r.extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return p, nil
	}

	language := DetectLanguage(filename, src)
	if language == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
	}

	return r.ForLanguage(language)
}

// IsSupported reports whether filename has a registered extension.
func (r *Registry) IsSupported(filename string) bool {
	_, ok := r.extensions[strings.ToLower(filepath.Ext(filename))]

	return ok
}

// Parse parses src with the parser selected by [Registry.ForFile].
func (r *Registry) Parse(ctx context.Context, filename string, src []byte) (*node.Node, error) {
	p, err := r.ForFile(filename, src)
	if err != nil {
		return nil, err
	}

	return p.Parse(ctx, filename, src)
}

// DetectLanguage returns the lower-case language name enry detects for a
// file, or "" when it cannot tell.
func DetectLanguage(filename string, src []byte) string {
	return strings.ToLower(enry.GetLanguage(filepath.Base(filename), src))
}

// IsVendored reports whether path points into vendored or generated
// third-party code.
func IsVendored(path string) bool {
	return enry.IsVendor(filepath.ToSlash(path))
}
