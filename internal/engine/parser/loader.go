package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var (
	pythonOnce sync.Once
	pythonLang *sitter.Language
)

// PythonLanguage returns the process-wide Python grammar.
func PythonLanguage() *sitter.Language {
	pythonOnce.Do(func() {
		pythonLang = sitter.NewLanguage(tree_sitter_python.Language())
	})
	return pythonLang
}

var pythonExtensions = map[string]bool{
	".py":  true,
	".pyi": true,
}

// IsPythonPath reports whether path names a Python source or stub file.
func IsPythonPath(path string) bool {
	return pythonExtensions[strings.ToLower(filepath.Ext(path))]
}

// ModuleName derives a dotted module name from a path relative to root.
// Package `__init__.py` files map to the package itself.
func ModuleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.TrimSuffix(rel, "/__init__")
	if rel == "__init__" {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.ReplaceAll(rel, "/", ".")
}
