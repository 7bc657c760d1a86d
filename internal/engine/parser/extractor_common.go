package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func trimStars(value string) string {
	return strings.TrimLeft(strings.TrimSpace(value), "*")
}

func appendUnique(values []string, seen map[string]bool, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return values
	}
	if seen[value] {
		return values
	}
	seen[value] = true
	return append(values, value)
}

// firstErrorRow returns the 0-based row of the first ERROR or MISSING node
// in document order, or -1 when none is found.
func firstErrorRow(node *sitter.Node) int {
	if node == nil {
		return -1
	}
	if node.IsError() || node.IsMissing() {
		return int(node.StartPosition().Row)
	}
	if !node.HasError() {
		return -1
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if row := firstErrorRow(node.Child(i)); row >= 0 {
			return row
		}
	}
	return int(node.StartPosition().Row)
}

// definitionOf unwraps a decorated_definition to its class or function.
func definitionOf(node *sitter.Node) *sitter.Node {
	if node == nil || node.Kind() != "decorated_definition" {
		return node
	}
	return node.ChildByFieldName("definition")
}
