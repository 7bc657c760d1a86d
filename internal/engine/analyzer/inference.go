package analyzer

import (
	"strings"
	"unicode"

	"pyuml/internal/core/config"
)

// ClassInferrer maps a call receiver such as "self.repo" to the participant
// it is attributed to. Inference is best effort and purely name based.
type ClassInferrer interface {
	Infer(receiver string, known map[string]bool) (string, bool)
}

// NewClassInferrer returns the inferrer for a class_inference mode.
// Unknown modes fall back to literal.
func NewClassInferrer(mode string) ClassInferrer {
	if mode == config.InferenceCamelCase {
		return CamelCaseInferrer{}
	}
	return LiteralInferrer{}
}

// LiteralInferrer uses the receiver's last name segment as-is, so
// `self.repo.save()` is attributed to a participant named "repo".
type LiteralInferrer struct{}

func (LiteralInferrer) Infer(receiver string, _ map[string]bool) (string, bool) {
	return lastSegment(receiver)
}

// CamelCaseInferrer converts snake_case receivers to CamelCase and uses the
// result when it names a known class; otherwise it behaves like
// LiteralInferrer.
type CamelCaseInferrer struct{}

func (CamelCaseInferrer) Infer(receiver string, known map[string]bool) (string, bool) {
	name, ok := lastSegment(receiver)
	if !ok {
		return "", false
	}
	if known[name] {
		return name, true
	}
	if camel := camelCase(name); known[camel] {
		return camel, true
	}
	return name, true
}

func lastSegment(receiver string) (string, bool) {
	receiver = strings.TrimSpace(receiver)
	if receiver == "" || strings.ContainsAny(receiver, "()[]") {
		return "", false
	}
	if i := strings.LastIndexByte(receiver, '.'); i >= 0 {
		receiver = receiver[i+1:]
	}
	if receiver == "" {
		return "", false
	}
	return receiver, true
}

func camelCase(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
