// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"pyuml/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*File, error)
}

// Parser turns Python source into a File summary. It is safe for
// concurrent use; tree-sitter parsers are pooled.
type Parser struct {
	pool      *ParserPool
	extractor Extractor
}

func NewParser() *Parser {
	return NewParserWithExtractor(NewPythonExtractor())
}

func NewParserWithExtractor(extractor Extractor) *Parser {
	return &Parser{
		pool:      NewParserPool(PythonLanguage()),
		extractor: extractor,
	}
}

// ParseFile parses content as Python. A source with syntax errors yields a
// SYNTAX_ERROR carrying the first offending line; anything else that goes
// wrong is a PARSER_ERROR.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	if !IsPythonPath(path) {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, "not a python source file"),
			errors.CtxPath, path,
		)
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.NewParserError("parse failed", nil), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorRow(root) + 1
		return nil, errors.NewSyntaxError(path, line, fmt.Errorf("syntax error near line %d", line))
	}

	res, err := p.extractor.Extract(root, content, path)
	if err != nil {
		return nil, errors.AddContext(errors.NewParserError("extraction failed", err), errors.CtxPath, path)
	}
	if res.Module == "" {
		res.Module = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return res, nil
}

func (p *Parser) IsSupportedPath(path string) bool {
	return IsPythonPath(path)
}
