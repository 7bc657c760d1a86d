// Package app orchestrates diagram generation: it resolves analyzers and
// generators through the factory, runs them per source, and records each
// attempt.
package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pyuml/internal/core/factory"
	"pyuml/internal/core/ports"
	"pyuml/internal/data/history"
	"pyuml/internal/engine/generator"
	"pyuml/internal/engine/model"
	"pyuml/internal/shared/observability"
	"pyuml/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Overrides are call-time settings layered over the configuration.
type Overrides struct {
	Analyzer  map[string]any
	Generator map[string]any
}

// Reporter observes batch progress. All methods may be called from the
// goroutine running the batch only.
type Reporter interface {
	Start(kind string, total int)
	Advance(source string, err error)
	Finish(kind string)
}

type nopReporter struct{}

func (nopReporter) Start(string, int)     {}
func (nopReporter) Advance(string, error) {}
func (nopReporter) Finish(string)         {}

// SourceFailure is a source skipped by a batch.
type SourceFailure struct {
	Source string
	Err    error
}

// BatchResult summarizes one kind's batch.
type BatchResult struct {
	Kind      string
	OutputDir string
	Outputs   []string
	Failures  []SourceFailure
	Index     string
	Duration  time.Duration
}

type Service struct {
	factory   *factory.Factory
	history   ports.HistoryStore
	reporter  Reporter
	extension string
}

// NewService wires the service over f. history may be nil.
func NewService(f *factory.Factory, hist ports.HistoryStore) *Service {
	ext := f.Config().Output.Extension
	if ext == "" {
		ext = ".puml"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Service{
		factory:   f,
		history:   hist,
		reporter:  nopReporter{},
		extension: ext,
	}
}

func (s *Service) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	s.reporter = r
}

func (s *Service) Factory() *factory.Factory { return s.factory }

// GenerateDiagram analyzes one source and writes one diagram. Every error
// propagates.
func (s *Service) GenerateDiagram(ctx context.Context, kind, source, output string, ov Overrides) error {
	ctx, span := observability.Tracer.Start(ctx, "Service.GenerateDiagram", trace.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("source", source),
	))
	defer span.End()

	analyzer, gen, err := s.pipeline(kind, ov)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	err = s.run(ctx, analyzer, gen, source, output, "")
	observability.RecordError(span, err)
	return err
}

// GenerateDiagrams runs every source through kind's pipeline. A failing
// source is logged and skipped; factory errors abort before any work. The
// index is built from whatever succeeded.
func (s *Service) GenerateDiagrams(ctx context.Context, kind string, sources []string, outputDir string, ov Overrides) (BatchResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "Service.GenerateDiagrams", trace.WithAttributes(
		attribute.String("kind", kind),
		attribute.Int("sources", len(sources)),
	))
	defer span.End()

	start := time.Now()
	result := BatchResult{Kind: kind, OutputDir: outputDir}
	analyzer, gen, err := s.pipeline(kind, ov)
	if err != nil {
		observability.RecordError(span, err)
		return result, err
	}
	result.Kind = analyzer.Kind().String()

	batchID := uuid.NewString()
	taken := make(map[string]bool, len(sources))
	s.reporter.Start(result.Kind, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			s.reporter.Finish(result.Kind)
			return result, err
		}
		name := util.UniqueName(outputStem(source), taken)
		output := filepath.Join(outputDir, name+s.extension)
		if err := s.run(ctx, analyzer, gen, source, output, batchID); err != nil {
			slog.Warn("skipping source", "kind", result.Kind, "source", source, "error", err)
			result.Failures = append(result.Failures, SourceFailure{Source: source, Err: err})
			s.reporter.Advance(source, err)
			continue
		}
		result.Outputs = append(result.Outputs, output)
		s.reporter.Advance(source, nil)
	}
	s.reporter.Finish(result.Kind)

	index, err := gen.GenerateIndex(ctx, outputDir, result.Outputs)
	result.Duration = time.Since(start)
	if err != nil {
		observability.RecordError(span, err)
		return result, err
	}
	result.Index = index
	slog.Info("batch complete",
		"kind", result.Kind,
		"generated", len(result.Outputs),
		"failed", len(result.Failures),
		"index", index,
	)
	return result, nil
}

// GenerateAllDiagrams runs each kind of plan into outputDir/<kind>. A kind
// that fails does not stop the others; their errors are joined.
func (s *Service) GenerateAllDiagrams(ctx context.Context, plan map[string][]string, outputDir string, ov Overrides) (map[string]BatchResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "Service.GenerateAllDiagrams")
	defer span.End()

	results := make(map[string]BatchResult, len(plan))
	var errs []error
	for _, kind := range sortedKinds(plan) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		dir := filepath.Join(outputDir, strings.ToLower(strings.TrimSpace(kind)))
		res, err := s.GenerateDiagrams(ctx, kind, plan[kind], dir, ov)
		if err != nil {
			slog.Error("diagram kind failed", "kind", kind, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}
		results[res.Kind] = res
	}
	err := stderrors.Join(errs...)
	observability.RecordError(span, err)
	return results, err
}

// History exposes the run store, or nil when history is disabled.
func (s *Service) History() ports.HistoryStore { return s.history }

func (s *Service) pipeline(kind string, ov Overrides) (ports.Analyzer, ports.Generator, error) {
	analyzer, err := s.factory.CreateAnalyzer(kind, ov.Analyzer)
	if err != nil {
		return nil, nil, err
	}
	gen, err := s.factory.CreateGenerator(kind, ov.Generator)
	if err != nil {
		return nil, nil, err
	}
	return analyzer, gen, nil
}

func (s *Service) run(ctx context.Context, analyzer ports.Analyzer, gen ports.Generator, source, output, batchID string) error {
	kind := analyzer.Kind().String()
	runID := uuid.NewString()
	start := time.Now()

	err := func() error {
		diagram, err := analyzer.Analyze(ctx, source)
		if err != nil {
			return err
		}
		ctx := generator.WithRunInfo(ctx, generator.RunInfo{ID: runID, Source: source})
		return gen.GenerateDiagram(ctx, diagram, output)
	}()

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusFailed
	}
	observability.DiagramsGeneratedTotal.WithLabelValues(kind, status).Inc()
	s.record(ctx, history.Run{
		ID:        runID,
		BatchID:   batchID,
		Kind:      kind,
		Source:    source,
		Output:    output,
		Status:    history.Status(status),
		Error:     errorText(err),
		StartedAt: start,
		Duration:  time.Since(start),
	})
	return err
}

func (s *Service) record(ctx context.Context, run history.Run) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordRun(ctx, run); err != nil {
		slog.Warn("failed to record generation run", "source", run.Source, "error", err)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// outputStem names a diagram after its source: the file stem, or the
// directory name.
func outputStem(source string) string {
	base := filepath.Base(filepath.Clean(source))
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "diagram"
	}
	return base
}

// sortedKinds orders plan keys by declaration order of known kinds, with
// unknown tags last.
func sortedKinds(plan map[string][]string) []string {
	rank := func(tag string) int {
		kind, err := model.ParseKind(tag)
		if err != nil {
			return len(model.Kinds()) + 1
		}
		return int(kind)
	}
	keys := util.SortedStringKeys(plan)
	sort.SliceStable(keys, func(i, j int) bool { return rank(keys[i]) < rank(keys[j]) })
	return keys
}
