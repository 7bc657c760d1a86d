package generator

import (
	"fmt"
	"strings"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
)

const activityMarker = "skinparam activityArrowColor #555555"

type ActivityGenerator struct {
	core
}

func NewActivityGenerator(fs ports.FileSystem, manifests ports.ManifestStore, settings config.GeneratorSettings) *ActivityGenerator {
	g := &ActivityGenerator{}
	g.core = core{kind: model.KindActivity, settings: settings, fs: fs, manifests: manifests, render: g.Render}
	return g
}

// Render walks the graph from the start node using the activity syntax.
// Decision and fork nodes become if/else and fork blocks, so transitions
// leaving them are not emitted as arrows. Reaching an already emitted node
// is a loop: it is noted and the branch detached.
func (g *ActivityGenerator) Render(d model.Diagram) (string, error) {
	if err := g.checkKind(d); err != nil {
		return "", err
	}
	ad, ok := d.(*model.ActivityDiagram)
	if !ok {
		return "", errors.NewGeneratorError(fmt.Sprintf("unexpected model %T", d), nil)
	}

	var b strings.Builder
	writeHeader(&b, activityMarker, g.settings, ad.Title)
	if ad.Placeholder {
		fmt.Fprintf(&b, "floating note left: %s\n", placeholderNote)
	}
	b.WriteString("\n")

	w := &activityWriter{d: ad, b: &b, emitted: make(map[string]bool)}
	if first, ok := ad.Start(); ok {
		w.walk(first, nil, "")
	}
	// Nodes unreachable from the start are emitted as detached flows.
	for _, n := range ad.Nodes {
		if !w.emitted[n.ID] {
			w.walk(n.ID, nil, "")
			if !w.terminated {
				b.WriteString("detach\n")
			}
		}
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}

type activityWriter struct {
	d          *model.ActivityDiagram
	b          *strings.Builder
	emitted    map[string]bool
	terminated bool
}

// walk emits nodes from id until it reaches stop, a terminal node or a
// node that was already emitted.
func (w *activityWriter) walk(id string, stop map[string]bool, indent string) {
	w.terminated = false
	for id != "" {
		if stop[id] {
			return
		}
		node, ok := w.d.Node(id)
		if !ok {
			return
		}
		if w.emitted[id] {
			label := node.Label
			if label == "" {
				label = node.ID
			}
			fmt.Fprintf(w.b, "%snote right: back to %s\n", indent, escapePlantUML(label))
			fmt.Fprintf(w.b, "%sdetach\n", indent)
			w.terminated = true
			return
		}
		w.emitted[id] = true

		out := w.d.Outgoing(id)
		switch node.Kind {
		case model.NodeStart:
			w.b.WriteString(indent + "start\n")
		case model.NodeEnd:
			w.b.WriteString(indent + "stop\n")
			w.terminated = true
			return
		case model.NodeDecision, model.NodeFork:
			id = w.block(node, out, stop, indent)
			continue
		case model.NodeJoin:
		default:
			label := node.Label
			if label == "" {
				label = node.ID
			}
			fmt.Fprintf(w.b, "%s:%s;\n", indent, escapePlantUML(label))
		}

		if len(out) == 0 {
			return
		}
		if lbl := transitionLabel(out[0]); lbl != "" {
			fmt.Fprintf(w.b, "%s-> %s;\n", indent, escapePlantUML(lbl))
		}
		id = out[0].TargetID
	}
}

// block renders a decision or fork and returns the node where its branches
// rejoin, or "" when they never do.
func (w *activityWriter) block(node model.ActivityNode, out []model.Transition, stop map[string]bool, indent string) string {
	if len(out) == 0 {
		return ""
	}
	join := w.joinPoint(node.ID, out)
	inner := make(map[string]bool, len(stop)+1)
	for k := range stop {
		inner[k] = true
	}
	if join != "" {
		inner[join] = true
	}

	decision := node.Kind == model.NodeDecision
	label := node.Label
	if label == "" {
		label = node.ID
	}
	for i, t := range out {
		guard := t.Guard
		if guard == "" {
			guard = t.Label
		}
		switch {
		case decision && i == 0:
			fmt.Fprintf(w.b, "%sif (%s) then (%s)\n", indent, escapePlantUML(label), escapePlantUML(guard))
		case decision && i == len(out)-1:
			fmt.Fprintf(w.b, "%selse (%s)\n", indent, escapePlantUML(guard))
		case decision:
			fmt.Fprintf(w.b, "%selseif (%s) then (%s)\n", indent, escapePlantUML(label), escapePlantUML(guard))
		case i == 0:
			w.b.WriteString(indent + "fork\n")
		default:
			w.b.WriteString(indent + "fork again\n")
		}
		w.walk(t.TargetID, inner, indent+"  ")
	}
	if decision {
		w.b.WriteString(indent + "endif\n")
	} else {
		w.b.WriteString(indent + "end fork\n")
	}
	w.terminated = false
	return join
}

// joinPoint is the first node, in breadth-first order from the first
// branch, that every branch reaches.
func (w *activityWriter) joinPoint(from string, out []model.Transition) string {
	if len(out) < 2 {
		return ""
	}
	reach := make([]map[string]bool, len(out))
	for i, t := range out {
		reach[i] = w.reachable(t.TargetID, from)
	}
	for _, id := range w.bfs(out[0].TargetID, from) {
		shared := true
		for _, r := range reach[1:] {
			if !r[id] {
				shared = false
				break
			}
		}
		if shared {
			return id
		}
	}
	return ""
}

func (w *activityWriter) reachable(start, exclude string) map[string]bool {
	seen := make(map[string]bool)
	for _, id := range w.bfs(start, exclude) {
		seen[id] = true
	}
	return seen
}

func (w *activityWriter) bfs(start, exclude string) []string {
	var order []string
	seen := map[string]bool{exclude: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		for _, t := range w.d.Outgoing(id) {
			queue = append(queue, t.TargetID)
		}
	}
	return order
}
