package model

type ParticipantType string

const (
	ParticipantActor    ParticipantType = "actor"
	ParticipantBoundary ParticipantType = "boundary"
	ParticipantControl  ParticipantType = "control"
	ParticipantEntity   ParticipantType = "entity"
	ParticipantDatabase ParticipantType = "database"
	ParticipantClass    ParticipantType = "class"
)

type MessageType string

const (
	Synchronous  MessageType = "->"
	Asynchronous MessageType = "->>"
	Reply        MessageType = "-->"
	Create       MessageType = "-->>"
)

type Participant struct {
	Name  string
	Type  ParticipantType
	Alias string
}

type Message struct {
	From          string
	To            string
	Text          string
	Type          MessageType
	IsSelfMessage bool
	Level         int
	MethodName    string
}

// ActivationBar spans the messages during which a participant is active.
// Start is the index of the opening message; Before is set when the bar
// opens ahead of that message (the caller) rather than after it (the
// callee). End is the index of the closing reply, or -1 when the bar stays
// open to the end of the diagram.
type ActivationBar struct {
	Participant string
	Start       int
	Before      bool
	End         int
}

type SequenceDiagram struct {
	header
	Title    string
	Messages []Message

	participants []Participant
	index        map[string]int
}

func NewSequenceDiagram(name string) *SequenceDiagram {
	return &SequenceDiagram{
		header: header{name: name, kind: KindSequence},
		Title:  name,
		index:  make(map[string]int),
	}
}

// AddParticipant registers name once; later calls keep the first entry.
func (d *SequenceDiagram) AddParticipant(name string, typ ParticipantType, alias string) {
	if _, ok := d.index[name]; ok {
		return
	}
	if typ == "" {
		typ = ParticipantClass
	}
	d.index[name] = len(d.participants)
	d.participants = append(d.participants, Participant{Name: name, Type: typ, Alias: alias})
}

func (d *SequenceDiagram) Participants() []Participant {
	out := make([]Participant, len(d.participants))
	copy(out, d.participants)
	return out
}

func (d *SequenceDiagram) HasParticipant(name string) bool {
	_, ok := d.index[name]
	return ok
}

// AddMessage appends a message, registering unseen endpoints as class
// participants.
func (d *SequenceDiagram) AddMessage(from, to, text string, typ MessageType, level int, method string) {
	d.AddParticipant(from, ParticipantClass, "")
	d.AddParticipant(to, ParticipantClass, "")
	d.Messages = append(d.Messages, Message{
		From:          from,
		To:            to,
		Text:          text,
		Type:          typ,
		IsSelfMessage: from == to,
		Level:         level,
		MethodName:    method,
	})
}

// Activations derives activation bars from message order. A non-self
// synchronous or asynchronous message activates its source (if idle) before
// and its target (if idle) after; a reply deactivates its source.
func (d *SequenceDiagram) Activations() []ActivationBar {
	var bars []ActivationBar
	open := make(map[string]int)

	activate := func(name string, at int, before bool) {
		if _, ok := open[name]; ok {
			return
		}
		open[name] = len(bars)
		bars = append(bars, ActivationBar{Participant: name, Start: at, Before: before, End: -1})
	}

	for i, msg := range d.Messages {
		if msg.IsSelfMessage {
			continue
		}
		switch msg.Type {
		case Synchronous, Asynchronous:
			activate(msg.From, i, true)
			activate(msg.To, i, false)
		case Reply:
			if idx, ok := open[msg.From]; ok {
				bars[idx].End = i
				delete(open, msg.From)
			}
		}
	}
	return bars
}
