package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pyuml/internal/data/filesystem"
)

func TestStore_WriteRead(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filesystem.NewLocal())
	diagram := filepath.Join(dir, "class", "models.puml")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{RunID: "run-1", Kind: "class", Model: "models", Source: "src/models.py", GeneratedAt: at}
	if err := store.Write(diagram, rec); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(diagram + Suffix)
	if err != nil {
		t.Fatalf("expected sidecar on disk: %v", err)
	}
	if !strings.Contains(string(raw), "kind: class") {
		t.Fatalf("unexpected sidecar content:\n%s", raw)
	}

	got, ok, err := store.Read(diagram)
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if got.RunID != "run-1" || got.Model != "models" || !got.GeneratedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	store := NewStore(filesystem.NewLocal())
	_, ok, err := store.Read(filepath.Join(t.TempDir(), "none.puml"))
	if err != nil {
		t.Fatalf("expected no error for missing sidecar, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing sidecar")
	}
}

func TestStore_ReadMalformed(t *testing.T) {
	dir := t.TempDir()
	diagram := filepath.Join(dir, "x.puml")
	if err := os.WriteFile(diagram+Suffix, []byte("kind: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(filesystem.NewLocal())
	if _, _, err := store.Read(diagram); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestIsManifestPath(t *testing.T) {
	if !IsManifestPath("a.puml" + Suffix) {
		t.Fatal("expected sidecar path to be recognized")
	}
	if IsManifestPath("a.puml") {
		t.Fatal("diagram path must not be a sidecar")
	}
}
