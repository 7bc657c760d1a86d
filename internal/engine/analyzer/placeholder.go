package analyzer

import (
	"context"
	"time"

	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
	"pyuml/internal/shared/observability"
)

const placeholderSuffix = " (placeholder)"

// PlaceholderAnalyzer produces a fixed illustrative activity or state
// topology. The source path must exist but its contents are not analyzed;
// the resulting model is flagged as a placeholder.
type PlaceholderAnalyzer struct {
	fs   ports.FileSystem
	kind model.Kind
}

func NewActivityPlaceholder(fs ports.FileSystem) *PlaceholderAnalyzer {
	return &PlaceholderAnalyzer{fs: fs, kind: model.KindActivity}
}

func NewStatePlaceholder(fs ports.FileSystem) *PlaceholderAnalyzer {
	return &PlaceholderAnalyzer{fs: fs, kind: model.KindState}
}

func (a *PlaceholderAnalyzer) Kind() model.Kind { return a.kind }

func (a *PlaceholderAnalyzer) Analyze(ctx context.Context, path string) (model.Diagram, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues(a.kind.String()).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := a.fs.Stat(path); err != nil {
		return nil, errors.AddContext(errors.NewParserError("source not found", err), errors.CtxPath, path)
	}

	name := diagramName(path)
	switch a.kind {
	case model.KindActivity:
		return placeholderActivity(name), nil
	case model.KindState:
		return placeholderState(name), nil
	default:
		return nil, errors.NewDiagramTypeError(a.kind.String())
	}
}

func placeholderActivity(name string) *model.ActivityDiagram {
	d := model.NewActivityDiagram(name)
	d.Title = name + placeholderSuffix
	d.Placeholder = true

	d.AddNode("start", "", model.NodeStart)
	d.AddNode("init", "Initialize", model.NodeAction)
	d.AddNode("process", "Process input", model.NodeAction)
	d.AddNode("validate", "Validate result", model.NodeAction)
	d.AddNode("check", "Valid?", model.NodeDecision)
	d.AddNode("save", "Save result", model.NodeAction)
	d.AddNode("retry", "Retry", model.NodeAction)
	d.AddNode("end", "", model.NodeEnd)

	d.AddTransition(model.Transition{SourceID: "start", TargetID: "init"})
	d.AddTransition(model.Transition{SourceID: "init", TargetID: "process"})
	d.AddTransition(model.Transition{SourceID: "process", TargetID: "validate"})
	d.AddTransition(model.Transition{SourceID: "validate", TargetID: "check"})
	d.AddTransition(model.Transition{SourceID: "check", TargetID: "save", Guard: "yes"})
	d.AddTransition(model.Transition{SourceID: "check", TargetID: "retry", Guard: "no"})
	d.AddTransition(model.Transition{SourceID: "retry", TargetID: "process"})
	d.AddTransition(model.Transition{SourceID: "save", TargetID: "end"})
	return d
}

func placeholderState(name string) *model.StateDiagram {
	d := model.NewStateDiagram(name)
	d.Title = name + placeholderSuffix
	d.Placeholder = true

	d.AddState(&model.State{ID: "start", Kind: model.StateStart})
	d.AddState(&model.State{ID: "Idle", Label: "Idle", Kind: model.StateSimple})
	d.AddState(&model.State{
		ID:    "Processing",
		Label: "Processing",
		Kind:  model.StateSimple,
		Entry: "start_timer",
		Exit:  "stop_timer",
		Internal: []model.InternalAction{
			{Event: "tick", Action: "update_progress"},
		},
	})
	d.AddState(&model.State{ID: "Waiting", Label: "Waiting", Kind: model.StateSimple})
	d.AddState(&model.State{ID: "Error", Label: "Error", Kind: model.StateSimple, Entry: "log_error"})

	finalizing := d.AddState(&model.State{ID: "Finalizing", Label: "Finalizing", Kind: model.StateSimple})
	finalizing.AddSubstate(&model.State{ID: "Saving", Label: "Saving", Kind: model.StateSimple})
	finalizing.AddSubstate(&model.State{ID: "Notifying", Label: "Notifying", Kind: model.StateSimple})
	finalizing.AddTransition(model.Transition{SourceID: "start", TargetID: "Saving"})
	finalizing.AddTransition(model.Transition{SourceID: "Saving", TargetID: "Notifying", Event: "saved"})
	finalizing.AddTransition(model.Transition{SourceID: "Notifying", TargetID: "end"})

	d.AddState(&model.State{ID: "end", Kind: model.StateEnd})

	d.AddTransition(model.Transition{SourceID: "start", TargetID: "Idle"})
	d.AddTransition(model.Transition{SourceID: "Idle", TargetID: "Processing", Event: "submit"})
	d.AddTransition(model.Transition{SourceID: "Processing", TargetID: "Waiting", Event: "pause"})
	d.AddTransition(model.Transition{SourceID: "Waiting", TargetID: "Processing", Event: "resume"})
	d.AddTransition(model.Transition{SourceID: "Processing", TargetID: "Error", Event: "failure", Action: "notify"})
	d.AddTransition(model.Transition{SourceID: "Error", TargetID: "Idle", Event: "reset"})
	d.AddTransition(model.Transition{SourceID: "Processing", TargetID: "Finalizing", Event: "done", Guard: "valid"})
	d.AddTransition(model.Transition{SourceID: "Finalizing", TargetID: "end"})
	return d
}
