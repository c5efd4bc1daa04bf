package uast

import (
	"sync"
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	golang "github.com/alexaandru/go-sitter-forest/go"
	"github.com/alexaandru/go-sitter-forest/java"
)

// languageFuncs maps grammar names to their tree-sitter language constructors.
var languageFuncs = map[string]func() unsafe.Pointer{
	"go":   golang.GetLanguage,
	"java": java.GetLanguage,
}

var languageCache sync.Map

// GetLanguage returns the tree-sitter Language for the given name, or nil if not supported.
func GetLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(name, lang)

	return lang
}
