package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/factory"
	"pyuml/internal/data/history"
	"pyuml/internal/data/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelsSource = `class Repo:
    def save(self, item):
        pass


class SqlRepo(Repo):
    def __init__(self, dsn: str):
        self.dsn = dsn
`

const serviceSource = `class Service:
    def run(self):
        self.prepare()
        self.repo.save(1)

    def prepare(self):
        pass
`

type recordingHistory struct {
	mu   sync.Mutex
	runs []history.Run
}

func (h *recordingHistory) RecordRun(_ context.Context, run history.Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, run)
	return nil
}

func (h *recordingHistory) RecentRuns(context.Context, history.Filter) ([]history.Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]history.Run(nil), h.runs...), nil
}

func (h *recordingHistory) Summary(context.Context) ([]history.KindSummary, error) {
	return nil, nil
}

func (h *recordingHistory) Close() error { return nil }

type countingReporter struct {
	started  int
	advanced int
	failed   int
	finished int
}

func (r *countingReporter) Start(string, int) { r.started++ }
func (r *countingReporter) Advance(_ string, err error) {
	r.advanced++
	if err != nil {
		r.failed++
	}
}
func (r *countingReporter) Finish(string) { r.finished++ }

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newService(t *testing.T, hist *recordingHistory) *Service {
	t.Helper()
	f, err := factory.New(config.Default(), factory.Deps{})
	require.NoError(t, err)
	if hist == nil {
		return NewService(f, nil)
	}
	return NewService(f, hist)
}

func TestService_GenerateDiagram_Class(t *testing.T) {
	src := t.TempDir()
	source := writeSource(t, src, "models.py", modelsSource)
	out := filepath.Join(t.TempDir(), "nested", "models.puml")

	svc := newService(t, nil)
	require.NoError(t, svc.GenerateDiagram(context.Background(), "class", source, out, Overrides{}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "@startuml")
	assert.Contains(t, text, "class SqlRepo")
	assert.Contains(t, text, "SqlRepo --|> Repo")
	assert.FileExists(t, manifest.PathFor(out))
}

func TestService_GenerateDiagram_SequenceOverrides(t *testing.T) {
	src := t.TempDir()
	source := writeSource(t, src, "service.py", serviceSource)
	out := filepath.Join(t.TempDir(), "run.puml")

	svc := newService(t, nil)
	err := svc.GenerateDiagram(context.Background(), "sequence", source, out, Overrides{
		Analyzer:  map[string]any{"entry_class": "Service", "entry_method": "run"},
		Generator: map[string]any{"autonumber": true},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "autonumber")
	assert.Contains(t, string(data), "prepare")
}

func TestService_GenerateDiagram_SequenceWithoutEntryFails(t *testing.T) {
	source := writeSource(t, t.TempDir(), "service.py", serviceSource)
	out := filepath.Join(t.TempDir(), "run.puml")

	err := newService(t, nil).GenerateDiagram(context.Background(), "sequence", source, out, Overrides{})
	require.Error(t, err)
	assert.True(t, errors.IsParserError(err), "expected PARSER_ERROR, got %v", err)
	assert.NoFileExists(t, out)
}

func TestService_GenerateDiagram_UnknownKind(t *testing.T) {
	source := writeSource(t, t.TempDir(), "models.py", modelsSource)
	out := filepath.Join(t.TempDir(), "models.puml")

	err := newService(t, nil).GenerateDiagram(context.Background(), "flowchart", source, out, Overrides{})
	require.Error(t, err)
	assert.True(t, errors.IsDiagramTypeError(err))
	assert.NoFileExists(t, out)
}

func TestService_GenerateDiagrams_ContinuesPastFailures(t *testing.T) {
	src := t.TempDir()
	good := writeSource(t, src, "models.py", modelsSource)
	missing := filepath.Join(src, "missing.py")
	outDir := t.TempDir()

	hist := &recordingHistory{}
	reporter := &countingReporter{}
	svc := newService(t, hist)
	svc.SetReporter(reporter)

	res, err := svc.GenerateDiagrams(context.Background(), "class", []string{missing, good}, outDir, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "class", res.Kind)
	assert.Equal(t, []string{filepath.Join(outDir, "models.puml")}, res.Outputs)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, missing, res.Failures[0].Source)
	assert.True(t, errors.IsParserError(res.Failures[0].Err))

	index, err := os.ReadFile(res.Index)
	require.NoError(t, err)
	assert.Contains(t, string(index), "[models](models.puml)")
	assert.NotContains(t, string(index), "missing")

	assert.Equal(t, 1, reporter.started)
	assert.Equal(t, 2, reporter.advanced)
	assert.Equal(t, 1, reporter.failed)
	assert.Equal(t, 1, reporter.finished)

	require.Len(t, hist.runs, 2)
	assert.Equal(t, history.StatusFailed, hist.runs[0].Status)
	assert.NotEmpty(t, hist.runs[0].Error)
	assert.Equal(t, history.StatusSuccess, hist.runs[1].Status)
	assert.Equal(t, hist.runs[0].BatchID, hist.runs[1].BatchID)
	assert.NotEqual(t, hist.runs[0].ID, hist.runs[1].ID)
}

func TestService_GenerateDiagrams_UniqueOutputNames(t *testing.T) {
	src := t.TempDir()
	first := writeSource(t, src, filepath.Join("a", "models.py"), modelsSource)
	second := writeSource(t, src, filepath.Join("b", "models.py"), modelsSource)
	outDir := t.TempDir()

	res, err := newService(t, nil).GenerateDiagrams(context.Background(), "class", []string{first, second}, outDir, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "models.puml"),
		filepath.Join(outDir, "models_2.puml"),
	}, res.Outputs)
}

func TestService_GenerateDiagrams_FactoryErrorAborts(t *testing.T) {
	source := writeSource(t, t.TempDir(), "models.py", modelsSource)
	outDir := filepath.Join(t.TempDir(), "out")

	hist := &recordingHistory{}
	_, err := newService(t, hist).GenerateDiagrams(context.Background(), "flowchart", []string{source}, outDir, Overrides{})
	require.Error(t, err)
	assert.True(t, errors.IsDiagramTypeError(err))
	assert.Empty(t, hist.runs)
	assert.NoDirExists(t, outDir)
}

func TestService_GenerateAllDiagrams(t *testing.T) {
	src := t.TempDir()
	source := writeSource(t, src, "models.py", modelsSource)
	outDir := t.TempDir()

	plan := map[string][]string{
		"state":     {source},
		"class":     {source},
		"activity":  {source},
		"flowchart": {source},
	}
	results, err := newService(t, nil).GenerateAllDiagrams(context.Background(), plan, outDir, Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flowchart")

	require.Len(t, results, 3)
	for _, kind := range []string{"class", "activity", "state"} {
		res, ok := results[kind]
		require.True(t, ok, "missing %s result", kind)
		assert.Equal(t, filepath.Join(outDir, kind), res.OutputDir)
		assert.FileExists(t, filepath.Join(outDir, kind, "models.puml"))
		assert.FileExists(t, res.Index)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "activity", "models.puml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "placeholder")
}

func TestService_CancelledContext(t *testing.T) {
	source := writeSource(t, t.TempDir(), "models.py", modelsSource)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newService(t, nil).GenerateDiagrams(ctx, "class", []string{source}, t.TempDir(), Overrides{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Outputs)
}

func TestOutputStem(t *testing.T) {
	tests := map[string]string{
		"src/models.py":  "models",
		"src/pkg/":       "pkg",
		"service":        "service",
		"archive.tar.py": "archive.tar",
	}
	for in, want := range tests {
		assert.Equal(t, want, outputStem(in), in)
	}
}

func TestSortedKinds(t *testing.T) {
	plan := map[string][]string{"state": nil, "zzz": nil, "class": nil, "sequence": nil}
	assert.Equal(t, []string{"class", "sequence", "state", "zzz"}, sortedKinds(plan))
}

func TestWatchRoots(t *testing.T) {
	plan := map[string][]string{
		"class":    {"b.py", "a.py"},
		"sequence": {"a.py"},
	}
	assert.Equal(t, []string{"a.py", "b.py"}, watchRoots(plan))
}
