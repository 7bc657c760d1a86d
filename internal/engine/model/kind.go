// Package model holds the in-memory diagram representations produced by
// analyzers and consumed by generators. Models accumulate state and carry no
// rendering logic.
package model

import (
	"strings"

	"pyuml/internal/core/errors"
)

// Kind is the closed set of diagram types.
type Kind int

const (
	KindClass Kind = iota + 1
	KindSequence
	KindActivity
	KindState
)

var kindNames = map[Kind]string{
	KindClass:    "class",
	KindSequence: "sequence",
	KindActivity: "activity",
	KindState:    "state",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds returns every diagram kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindClass, KindSequence, KindActivity, KindState}
}

// ParseKind maps a type tag to a Kind. Unknown tags yield DIAGRAM_TYPE_ERROR.
func ParseKind(tag string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	for kind, name := range kindNames {
		if name == normalized {
			return kind, nil
		}
	}
	return 0, errors.NewDiagramTypeError(tag)
}

// Diagram is implemented by every concrete diagram model. Name and kind are
// fixed at construction.
type Diagram interface {
	Name() string
	Kind() Kind
}

type header struct {
	name string
	kind Kind
}

func (h header) Name() string { return h.name }
func (h header) Kind() Kind   { return h.kind }
