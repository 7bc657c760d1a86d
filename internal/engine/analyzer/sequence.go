package analyzer

import (
	"context"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
	"pyuml/internal/shared/observability"
)

// FunctionCall is one classified call site found while scanning method
// bodies. It feeds the traversal and never reaches the model.
type FunctionCall struct {
	CallerClass   string
	CallerMethod  string
	CalledClass   string
	CalledMethod  string
	IsConstructor bool
	// IsFunction marks a call to a module-level function; it has no class
	// to anchor a participant and is not traversed.
	IsFunction bool
	Awaited    bool
	LineNumber int
	FilePath   string
}

func (c FunctionCall) isSelf() bool {
	return !c.IsConstructor && !c.IsFunction && c.CallerClass == c.CalledClass
}

type methodKey struct {
	class  string
	method string
}

// callGraph is the result of the extraction phase.
type callGraph struct {
	classes map[string]bool
	methods map[methodKey]bool
	calls   map[methodKey][]FunctionCall
}

type SequenceAnalyzer struct {
	scanner  scanner
	settings config.AnalyzerSettings
	inferrer ClassInferrer
}

func NewSequenceAnalyzer(fs ports.FileSystem, p ports.CodeParser, settings config.AnalyzerSettings) *SequenceAnalyzer {
	if settings.MaxDepth <= 0 {
		settings.MaxDepth = config.DefaultMaxDepth
	}
	return &SequenceAnalyzer{
		scanner: scanner{
			fs:        fs,
			parser:    p,
			exclude:   settings.ExcludePatterns,
			recursive: settings.Recursive,
		},
		settings: settings,
		inferrer: NewClassInferrer(settings.ClassInference),
	}
}

// WithInferrer replaces the receiver-to-class inference strategy.
func (a *SequenceAnalyzer) WithInferrer(inf ClassInferrer) *SequenceAnalyzer {
	a.inferrer = inf
	return a
}

func (a *SequenceAnalyzer) Kind() model.Kind { return model.KindSequence }

// Analyze walks the call graph under path (or root_dir when set) from the
// configured entry point.
func (a *SequenceAnalyzer) Analyze(ctx context.Context, path string) (model.Diagram, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues(model.KindSequence.String()).Observe(time.Since(start).Seconds())
	}()

	entryClass, entryMethod := a.settings.EntryClass, a.settings.EntryMethod
	if entryClass == "" || entryMethod == "" {
		return nil, errors.NewParserError("sequence analysis requires entry_class and entry_method", nil)
	}

	root := path
	if a.settings.RootDir != "" {
		root = a.settings.RootDir
	}
	graph, err := a.extract(ctx, root)
	if err != nil {
		return nil, err
	}

	if !graph.classes[entryClass] {
		return nil, errors.AddContext(
			errors.NewParserError(fmt.Sprintf("entry class %s not found", entryClass), nil),
			errors.CtxSymbol, entryClass,
		)
	}
	entry := methodKey{class: entryClass, method: entryMethod}
	if !graph.methods[entry] {
		return nil, errors.AddContext(
			errors.NewParserError(fmt.Sprintf("entry method %s.%s not found", entryClass, entryMethod), nil),
			errors.CtxSymbol, entryClass+"."+entryMethod,
		)
	}

	name := entryClass + "." + entryMethod
	diagram := model.NewSequenceDiagram(name)
	diagram.AddParticipant(entryClass, model.ParticipantClass, "")
	a.walk(diagram, graph, entry, 0, map[methodKey]bool{})

	observability.SequenceMessages.Observe(float64(len(diagram.Messages)))
	return diagram, nil
}

func (a *SequenceAnalyzer) extract(ctx context.Context, root string) (*callGraph, error) {
	files, err := a.scanner.parseAll(ctx, root)
	if err != nil {
		return nil, err
	}

	graph := &callGraph{
		classes: make(map[string]bool),
		methods: make(map[methodKey]bool),
		calls:   make(map[methodKey][]FunctionCall),
	}
	for _, file := range files {
		for _, class := range file.Classes {
			graph.classes[class.Name] = true
			for _, method := range class.Methods {
				graph.methods[methodKey{class.Name, method.Name}] = true
			}
		}
	}

	for _, file := range files {
		for _, class := range file.Classes {
			for _, method := range class.Methods {
				key := methodKey{class.Name, method.Name}
				// A class redefined in a later file keeps its first body.
				if _, seen := graph.calls[key]; seen {
					continue
				}
				calls := make([]FunctionCall, 0, len(method.Calls))
				for _, call := range method.Calls {
					fc := FunctionCall{
						CallerClass:  class.Name,
						CallerMethod: method.Name,
						CalledMethod: call.Name,
						Awaited:      call.Awaited,
						LineNumber:   call.Location.Line,
						FilePath:     file.Path,
					}
					switch {
					case call.Receiver == "self" || call.Receiver == "cls":
						fc.CalledClass = class.Name
					case call.Receiver == "":
						if startsUpper(call.Name) {
							fc.CalledClass = call.Name
							fc.CalledMethod = "__init__"
							fc.IsConstructor = true
						} else {
							fc.IsFunction = true
						}
					default:
						target, ok := a.inferrer.Infer(call.Receiver, graph.classes)
						if !ok {
							continue
						}
						fc.CalledClass = target
					}
					calls = append(calls, fc)
				}
				graph.calls[key] = calls
			}
		}
	}
	return graph, nil
}

// walk emits messages depth first. visited is scoped to the current path,
// so sibling branches may revisit a method.
func (a *SequenceAnalyzer) walk(d *model.SequenceDiagram, g *callGraph, key methodKey, depth int, visited map[methodKey]bool) {
	if depth >= a.settings.MaxDepth {
		return
	}
	visited[key] = true
	defer delete(visited, key)

	for _, call := range g.calls[key] {
		if call.IsFunction {
			continue
		}
		target := methodKey{class: call.CalledClass, method: call.CalledMethod}
		descend := func() {
			if g.methods[target] && !visited[target] {
				a.walk(d, g, target, depth+1, visited)
			}
		}

		switch {
		case call.IsConstructor:
			d.AddMessage(call.CallerClass, call.CalledClass, "<<create>>", model.Create, depth, call.CalledMethod)
			descend()
		case call.isSelf():
			typ := model.Synchronous
			if call.Awaited {
				typ = model.Asynchronous
			}
			d.AddMessage(call.CallerClass, call.CallerClass, call.CalledMethod+"()", typ, depth, call.CalledMethod)
			descend()
		case call.Awaited:
			d.AddMessage(call.CallerClass, call.CalledClass, call.CalledMethod+"()", model.Asynchronous, depth, call.CalledMethod)
			descend()
		default:
			d.AddMessage(call.CallerClass, call.CalledClass, call.CalledMethod+"()", model.Synchronous, depth, call.CalledMethod)
			descend()
			d.AddMessage(call.CalledClass, call.CallerClass, "return", model.Reply, depth, call.CalledMethod)
		}
	}
}

func startsUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
