package generator

import (
	"fmt"
	"strings"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
)

const stateMarker = "skinparam stateBorderColor #555555"

type StateGenerator struct {
	core
}

func NewStateGenerator(fs ports.FileSystem, manifests ports.ManifestStore, settings config.GeneratorSettings) *StateGenerator {
	g := &StateGenerator{}
	g.core = core{kind: model.KindState, settings: settings, fs: fs, manifests: manifests, render: g.Render}
	return g
}

// Render emits state declarations, composite blocks with their inner
// transitions, then top-level transitions. Start and end states are drawn
// as [*]; choice states keep their outgoing transitions.
func (g *StateGenerator) Render(d model.Diagram) (string, error) {
	if err := g.checkKind(d); err != nil {
		return "", err
	}
	sd, ok := d.(*model.StateDiagram)
	if !ok {
		return "", errors.NewGeneratorError(fmt.Sprintf("unexpected model %T", d), nil)
	}

	var b strings.Builder
	writeHeader(&b, stateMarker, g.settings, sd.Title)
	writeDirection(&b, g.settings.Direction)
	b.WriteString("hide empty description\n")
	if sd.Placeholder {
		fmt.Fprintf(&b, "note \"%s\" as placeholder_note\n", placeholderNote)
	}
	b.WriteString("\n")

	w := &stateWriter{d: sd, b: &b}
	for _, s := range sd.States {
		w.writeState(s, "")
	}
	if len(sd.Transitions) > 0 {
		b.WriteString("\n")
	}
	w.writeTransitions(sd.Transitions, nil, "")

	b.WriteString("@enduml\n")
	return b.String(), nil
}

type stateWriter struct {
	d *model.StateDiagram
	b *strings.Builder
}

func (w *stateWriter) writeState(s *model.State, indent string) {
	switch s.Kind {
	case model.StateStart, model.StateEnd:
		return
	case model.StateChoice:
		fmt.Fprintf(w.b, "%sstate %s <<choice>>\n", indent, sanitizePlantUMLAlias(s.ID))
		return
	}

	id := sanitizePlantUMLAlias(s.ID)
	decl := indent + "state "
	if s.Label != "" && s.Label != s.ID {
		decl += fmt.Sprintf("\"%s\" as %s", escapePlantUML(s.Label), id)
	} else {
		decl += id
	}

	if s.Kind == model.StateComposite || len(s.Substates) > 0 {
		w.b.WriteString(decl + " {\n")
		for _, sub := range s.Substates {
			w.writeState(sub, indent+"  ")
		}
		w.writeTransitions(s.Transitions, s.Substates, indent+"  ")
		w.b.WriteString(indent + "}\n")
	} else {
		w.b.WriteString(decl + "\n")
	}

	if s.Entry != "" {
		fmt.Fprintf(w.b, "%s%s : entry / %s\n", indent, id, escapePlantUML(s.Entry))
	}
	if s.Exit != "" {
		fmt.Fprintf(w.b, "%s%s : exit / %s\n", indent, id, escapePlantUML(s.Exit))
	}
	for _, a := range s.Internal {
		fmt.Fprintf(w.b, "%s%s : %s / %s\n", indent, id, escapePlantUML(a.Event), escapePlantUML(a.Action))
	}
}

func (w *stateWriter) writeTransitions(ts []model.Transition, scope []*model.State, indent string) {
	for _, t := range ts {
		line := fmt.Sprintf("%s%s --> %s", indent, w.ref(t.SourceID, scope), w.ref(t.TargetID, scope))
		if lbl := transitionLabel(t); lbl != "" {
			line += " : " + escapePlantUML(lbl)
		}
		w.b.WriteString(line + "\n")
	}
}

// ref resolves a transition endpoint. Inside a composite, scope holds its
// substates; an unknown "start" or "end" there is the pseudo-state.
func (w *stateWriter) ref(id string, scope []*model.State) string {
	for _, s := range scope {
		if s.ID == id {
			return stateRef(s)
		}
	}
	if s, ok := w.d.Find(id); ok {
		return stateRef(s)
	}
	if id == "start" || id == "end" {
		return "[*]"
	}
	return sanitizePlantUMLAlias(id)
}

func stateRef(s *model.State) string {
	if s.Kind == model.StateStart || s.Kind == model.StateEnd {
		return "[*]"
	}
	return sanitizePlantUMLAlias(s.ID)
}
