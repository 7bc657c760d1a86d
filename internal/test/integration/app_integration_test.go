package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pyuml/internal/core/app"
	"pyuml/internal/core/config"
	"pyuml/internal/core/factory"
	"pyuml/internal/data/filesystem"
	"pyuml/internal/data/history"
	"pyuml/internal/data/manifest"
	"pyuml/internal/shared/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFiles(t *testing.T, tmpDir string) string {
	pkg := filepath.Join(tmpDir, "shop")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "__pycache__"), 0o755))

	models := `from dataclasses import dataclass


class Entity:
    id: int


class Order(Entity):
    total: float = 0.0

    def add(self, amount: float) -> None:
        self.total += amount
`
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "models.py"), []byte(models), 0o644))

	service := `from .models import Order


class Repository:
    def save(self, order: Order) -> None:
        pass


class OrderService:
    repo: Repository = Repository()

    def checkout(self, amount):
        order = Order()
        order.add(amount)
        self.validate(order)
        self.repo.save(order)

    def validate(self, order):
        pass
`
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "service.py"), []byte(service), 0o644))

	broken := "class Broken(:\n    pass\n"
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "broken.py"), []byte(broken), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "__pycache__", "models.py"), []byte("class Ghost:\n    pass\n"), 0o644))
	return pkg
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := createTestFiles(t, tmpDir)

	cfg := config.Default()
	cfg.ProjectRoot = tmpDir
	cfg.Sequence.EntryClass = "OrderService"
	cfg.Sequence.EntryMethod = "checkout"

	store, err := history.Open(filepath.Join(tmpDir, ".pyuml", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	f, err := factory.New(cfg, factory.Deps{})
	require.NoError(t, err)
	svc := app.NewService(f, store)

	ctx := context.Background()
	outDir := filepath.Join(tmpDir, "docs")
	plan := map[string][]string{
		"class":    {pkg},
		"sequence": {pkg},
		"activity": {pkg},
		"state":    {pkg},
	}
	results, err := svc.GenerateAllDiagrams(ctx, plan, outDir, app.Overrides{})
	require.NoError(t, err)
	require.Len(t, results, 4)

	classPath := filepath.Join(outDir, "class", "shop.puml")
	data, err := os.ReadFile(classPath)
	require.NoError(t, err)
	classText := string(data)
	assert.Contains(t, classText, "Order --|> Entity")
	assert.Contains(t, classText, "OrderService *--> Repository : repo")
	assert.NotContains(t, classText, "Ghost", "__pycache__ must be excluded")
	assert.NotContains(t, classText, "Broken", "files with syntax errors are skipped")

	data, err = os.ReadFile(filepath.Join(outDir, "sequence", "shop.puml"))
	require.NoError(t, err)
	seqText := string(data)
	assert.Contains(t, seqText, "<<create>>")
	assert.Contains(t, seqText, "validate")

	rec, ok, err := manifest.NewStore(filesystem.NewLocal()).Read(classPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "class", rec.Kind)
	assert.Equal(t, pkg, rec.Source)
	assert.NotEmpty(t, rec.RunID)
	assert.False(t, rec.Placeholder)

	for kind, res := range results {
		index, err := os.ReadFile(res.Index)
		require.NoError(t, err, kind)
		assert.Contains(t, string(index), "[shop](shop.puml)", kind)
	}

	summary, err := store.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	for _, s := range summary {
		assert.Equal(t, 1, s.Succeeded, s.Kind)
		assert.Zero(t, s.Failed, s.Kind)
	}

	runs, err := store.RecentRuns(ctx, history.Filter{Kind: "class"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, classPath, runs[0].Output)
	assert.Equal(t, rec.RunID, runs[0].ID, "manifest and history share the run id")
}

func TestWatchRegeneratesOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	pkg := createTestFiles(t, tmpDir)

	cfg := config.Default()
	cfg.Watch.Debounce = 50 * time.Millisecond
	cfg.Watch.MaxRate = 100

	f, err := factory.New(cfg, factory.Deps{})
	require.NoError(t, err)
	svc := app.NewService(f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	batches := 0
	regenerated := make(chan struct{}, 4)
	done := make(chan error, 1)
	outDir := filepath.Join(tmpDir, "docs")
	go func() {
		done <- svc.WatchAndRegenerate(ctx, map[string][]string{"class": {pkg}}, outDir, app.WatchOptions{
			OnBatch: func(results map[string]app.BatchResult, err error) {
				mu.Lock()
				batches++
				mu.Unlock()
				select {
				case regenerated <- struct{}{}:
				default:
				}
			},
		})
	}()

	select {
	case <-regenerated:
	case <-time.After(5 * time.Second):
		t.Fatal("initial generation did not run")
	}
	// Give the watcher a moment to register directories.
	time.Sleep(200 * time.Millisecond)

	extra := "class Invoice:\n    pass\n"
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "billing.py"), []byte(extra), 0o644))

	select {
	case <-regenerated:
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger regeneration")
	}

	data, err := os.ReadFile(filepath.Join(outDir, "class", "shop.puml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "class Invoice")
	assert.Positive(t, testutil.ToFloat64(observability.ParseCacheEntries), "parse cache gauge")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, batches, 2)
}
