// # internal/engine/parser/types.go
package parser

import (
	"time"
)

// File is the syntax summary of one Python module. Only top-level classes
// and functions are recorded; nested definitions are not.
type File struct {
	Path      string
	Module    string // dotted module name derived from the path
	Imports   []Import
	Classes   []Class
	Functions []Function
	ParsedAt  time.Time
}

type Import struct {
	Module     string   // Imported module
	Alias      string   // Optional alias
	Items      []string // For "from X import Y, Z"
	IsRelative bool
	Location   Location
}

type Class struct {
	Name       string
	Bases      []string // identifier/attribute superclasses only
	Metaclass  string
	Decorators []string
	Attributes []Attribute
	Methods    []Function
	Location   Location
}

// Attribute is a class-body assignment (`x: int = 5`, `x = 5`, `x: int`).
type Attribute struct {
	Name       string
	Annotation string
	Default    string
	// Constructs holds the callee when the default is a bare `Name(...)`
	// call, used to detect composition.
	Constructs string
	Location   Location
}

type ParameterKind int

const (
	ParamPlain ParameterKind = iota
	ParamVarArgs
	ParamKwArgs
)

type Parameter struct {
	Name       string
	Annotation string
	Default    string
	Kind       ParameterKind
}

type Function struct {
	Name       string
	Parameters []Parameter
	ReturnType string
	Decorators []string
	IsAsync    bool
	// Calls are in source order and include calls in nested blocks, but not
	// calls inside nested function or class definitions.
	Calls    []Call
	Location Location
}

// Call is one call expression. For `self.repo.save(x)` Receiver is
// "self.repo" and Name is "save"; for `Order(x)` Receiver is empty.
type Call struct {
	Receiver string
	Name     string
	Awaited  bool
	Location Location
}

type Location struct {
	File   string
	Line   int
	Column int
}
