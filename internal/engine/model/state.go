package model

type StateKind string

const (
	StateStart     StateKind = "start"
	StateEnd       StateKind = "end"
	StateSimple    StateKind = "simple"
	StateComposite StateKind = "composite"
	StateChoice    StateKind = "choice"
)

// InternalAction is an `event / action` pair handled without leaving the
// state.
type InternalAction struct {
	Event  string
	Action string
}

type State struct {
	ID       string
	Label    string
	Kind     StateKind
	Entry    string
	Exit     string
	Internal []InternalAction
	// Substates and Transitions are only populated for composite states.
	Substates   []*State
	Transitions []Transition
}

type StateDiagram struct {
	header
	Title       string
	States      []*State
	Transitions []Transition
	Placeholder bool
}

func NewStateDiagram(name string) *StateDiagram {
	return &StateDiagram{
		header: header{name: name, kind: KindState},
		Title:  name,
	}
}

func (d *StateDiagram) AddState(s *State) *State {
	d.States = append(d.States, s)
	return s
}

func (d *StateDiagram) AddTransition(t Transition) {
	d.Transitions = append(d.Transitions, t)
}

// Find looks up a state by ID, descending into composite states.
func (d *StateDiagram) Find(id string) (*State, bool) {
	return findState(d.States, id)
}

func findState(states []*State, id string) (*State, bool) {
	for _, s := range states {
		if s.ID == id {
			return s, true
		}
		if found, ok := findState(s.Substates, id); ok {
			return found, true
		}
	}
	return nil, false
}

func (s *State) AddSubstate(sub *State) *State {
	s.Kind = StateComposite
	s.Substates = append(s.Substates, sub)
	return sub
}

func (s *State) AddTransition(t Transition) {
	s.Transitions = append(s.Transitions, t)
}
