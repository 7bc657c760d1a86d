package model

type Transition struct {
	SourceID string
	TargetID string
	Event    string
	Guard    string
	Action   string
	Label    string
}

type NodeKind string

const (
	NodeStart    NodeKind = "start"
	NodeEnd      NodeKind = "end"
	NodeAction   NodeKind = "action"
	NodeDecision NodeKind = "decision"
	NodeFork     NodeKind = "fork"
	NodeJoin     NodeKind = "join"
)

type ActivityNode struct {
	ID    string
	Label string
	Kind  NodeKind
}

type ActivityDiagram struct {
	header
	Title       string
	Nodes       []ActivityNode
	Transitions []Transition
	// Placeholder marks a fixed illustrative topology that was not derived
	// from source.
	Placeholder bool

	nodeIndex map[string]int
}

func NewActivityDiagram(name string) *ActivityDiagram {
	return &ActivityDiagram{
		header:    header{name: name, kind: KindActivity},
		Title:     name,
		nodeIndex: make(map[string]int),
	}
}

// AddNode appends a node. A repeated ID replaces the earlier label and kind.
func (d *ActivityDiagram) AddNode(id, label string, kind NodeKind) {
	if i, ok := d.nodeIndex[id]; ok {
		d.Nodes[i] = ActivityNode{ID: id, Label: label, Kind: kind}
		return
	}
	d.nodeIndex[id] = len(d.Nodes)
	d.Nodes = append(d.Nodes, ActivityNode{ID: id, Label: label, Kind: kind})
}

func (d *ActivityDiagram) AddTransition(t Transition) {
	d.Transitions = append(d.Transitions, t)
}

func (d *ActivityDiagram) Node(id string) (ActivityNode, bool) {
	i, ok := d.nodeIndex[id]
	if !ok {
		return ActivityNode{}, false
	}
	return d.Nodes[i], true
}

// Start returns the first start node, or the first node when there is none.
func (d *ActivityDiagram) Start() (string, bool) {
	for _, n := range d.Nodes {
		if n.Kind == NodeStart {
			return n.ID, true
		}
	}
	if len(d.Nodes) == 0 {
		return "", false
	}
	return d.Nodes[0].ID, true
}

// Outgoing returns the transitions leaving id in insertion order.
func (d *ActivityDiagram) Outgoing(id string) []Transition {
	var out []Transition
	for _, t := range d.Transitions {
		if t.SourceID == id {
			out = append(out, t)
		}
	}
	return out
}
