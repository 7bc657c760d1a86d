package model

import "strings"

type Visibility string

const (
	Public    Visibility = "+"
	Protected Visibility = "#"
	Private   Visibility = "-"
)

// VisibilityOf derives visibility from leading underscores. Dunder names
// such as __init__ are public.
func VisibilityOf(name string) Visibility {
	switch {
	case strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__"):
		return Private
	case strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__"):
		return Protected
	default:
		return Public
	}
}

type RelationshipType string

const (
	Inheritance RelationshipType = "--|>"
	Association RelationshipType = "-->"
	Composition RelationshipType = "*-->"
)

type ParameterKind int

const (
	ParamPlain ParameterKind = iota
	ParamVarArgs
	ParamKwArgs
)

type Parameter struct {
	Name           string
	TypeAnnotation string
	DefaultValue   string
	Kind           ParameterKind
}

// DefaultTypeAnnotation is used for members without an annotation.
const DefaultTypeAnnotation = "Any"

type Attribute struct {
	Name           string
	TypeAnnotation string
	Visibility     Visibility
	DefaultValue   string
}

type Method struct {
	Name          string
	Visibility    Visibility
	Parameters    []Parameter
	ReturnType    string
	Decorators    []string
	IsStatic      bool
	IsClassMethod bool
	IsAbstract    bool
	IsAsync       bool
}

type Class struct {
	Name       string
	Filename   string
	Bases      []string
	Metaclass  string
	Methods    []Method
	Attributes []Attribute
	Decorators []string
}

// Stereotypes derives render-time tags from decorators, bases and the
// metaclass. Order is stable.
func (c *Class) Stereotypes() []string {
	var out []string
	has := func(values []string, names ...string) bool {
		for _, v := range values {
			last := v
			if i := strings.IndexByte(last, '('); i >= 0 {
				last = last[:i]
			}
			if i := strings.LastIndexByte(last, '.'); i >= 0 {
				last = last[i+1:]
			}
			for _, n := range names {
				if last == n {
					return true
				}
			}
		}
		return false
	}
	if has(c.Decorators, "dataclass") {
		out = append(out, "dataclass")
	}
	if has(c.Bases, "ABC") || has([]string{c.Metaclass}, "ABCMeta") {
		out = append(out, "abstract")
	}
	if has(c.Bases, "Enum", "IntEnum", "StrEnum", "Flag", "IntFlag") {
		out = append(out, "enum")
	}
	if has(c.Bases, "Protocol") {
		out = append(out, "protocol")
	}
	return out
}

type Function struct {
	Name       string
	Parameters []Parameter
	ReturnType string
	Decorators []string
	IsAsync    bool
}

type Import struct {
	Module     string
	Alias      string
	Items      []string
	IsRelative bool
}

type File struct {
	Path      string
	Classes   []*Class
	Functions []*Function
	Imports   []Import
}

type Relationship struct {
	Source string
	Target string
	Type   RelationshipType
	Label  string
}

type ClassDiagram struct {
	header
	Files         []*File
	Relationships []Relationship

	byName map[string]*Class
	rels   map[Relationship]bool
}

func NewClassDiagram(name string) *ClassDiagram {
	return &ClassDiagram{
		header: header{name: name, kind: KindClass},
		byName: make(map[string]*Class),
		rels:   make(map[Relationship]bool),
	}
}

// AddFile appends f. A class whose name is already known from an earlier
// file is dropped from f so each name lives in exactly one file.
func (d *ClassDiagram) AddFile(f *File) {
	kept := f.Classes[:0]
	for _, c := range f.Classes {
		if _, dup := d.byName[c.Name]; dup {
			continue
		}
		d.byName[c.Name] = c
		kept = append(kept, c)
	}
	f.Classes = kept
	d.Files = append(d.Files, f)
}

// AddRelationship records r once. Reports whether it was new.
func (d *ClassDiagram) AddRelationship(r Relationship) bool {
	if d.rels[r] {
		return false
	}
	d.rels[r] = true
	d.Relationships = append(d.Relationships, r)
	return true
}

func (d *ClassDiagram) FindClass(name string) (*Class, bool) {
	c, ok := d.byName[name]
	return c, ok
}

// Classes returns every class in file order.
func (d *ClassDiagram) Classes() []*Class {
	var out []*Class
	for _, f := range d.Files {
		out = append(out, f.Classes...)
	}
	return out
}
