package generator

import (
	"fmt"
	"strings"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
)

const sequenceMarker = "skinparam sequenceMessageAlign left"

type SequenceGenerator struct {
	core
}

func NewSequenceGenerator(fs ports.FileSystem, manifests ports.ManifestStore, settings config.GeneratorSettings) *SequenceGenerator {
	g := &SequenceGenerator{}
	g.core = core{kind: model.KindSequence, settings: settings, fs: fs, manifests: manifests, render: g.Render}
	return g
}

var participantKeywords = map[model.ParticipantType]string{
	model.ParticipantActor:    "actor",
	model.ParticipantBoundary: "boundary",
	model.ParticipantControl:  "control",
	model.ParticipantEntity:   "entity",
	model.ParticipantDatabase: "database",
	model.ParticipantClass:    "participant",
}

// Render emits participants in registration order followed by messages in
// model order. Activation lines come from the model's derived bars.
func (g *SequenceGenerator) Render(d model.Diagram) (string, error) {
	if err := g.checkKind(d); err != nil {
		return "", err
	}
	sd, ok := d.(*model.SequenceDiagram)
	if !ok {
		return "", errors.NewGeneratorError(fmt.Sprintf("unexpected model %T", d), nil)
	}
	s := g.settings

	var b strings.Builder
	writeHeader(&b, sequenceMarker, s, sd.Title)
	if s.Autonumber {
		b.WriteString("autonumber\n")
	}
	if s.HideFootbox {
		b.WriteString("hide footbox\n")
	}
	b.WriteString("\n")

	participants := sd.Participants()
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, p.Name)
	}
	aliases := makePlantUMLAliases(names)
	for _, p := range participants {
		if p.Alias != "" {
			aliases[p.Name] = sanitizePlantUMLAlias(p.Alias)
		}
		keyword, ok := participantKeywords[p.Type]
		if !ok {
			keyword = "participant"
		}
		fmt.Fprintf(&b, "%s \"%s\" as %s\n", keyword, escapePlantUML(p.Name), aliases[p.Name])
	}
	if len(sd.Messages) > 0 {
		b.WriteString("\n")
	}

	bars := sd.Activations()
	before := make(map[int][]string)
	after := make(map[int][]string)
	closing := make(map[int][]string)
	var open []string
	for _, bar := range bars {
		if bar.Before {
			before[bar.Start] = append(before[bar.Start], bar.Participant)
		} else {
			after[bar.Start] = append(after[bar.Start], bar.Participant)
		}
		if bar.End >= 0 {
			closing[bar.End] = append(closing[bar.End], bar.Participant)
		} else {
			open = append(open, bar.Participant)
		}
	}

	for i, msg := range sd.Messages {
		for _, p := range before[i] {
			fmt.Fprintf(&b, "activate %s\n", aliases[p])
		}
		if msg.Type != model.Reply || s.ShowReturns {
			line := fmt.Sprintf("%s %s %s", aliases[msg.From], msg.Type, aliases[msg.To])
			if msg.Text != "" {
				line += " : " + escapePlantUML(msg.Text)
			}
			b.WriteString(line + "\n")
		}
		for _, p := range after[i] {
			fmt.Fprintf(&b, "activate %s\n", aliases[p])
		}
		for _, p := range closing[i] {
			fmt.Fprintf(&b, "deactivate %s\n", aliases[p])
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "deactivate %s\n", aliases[open[i]])
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}
