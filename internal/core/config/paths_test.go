package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte("[project]\nname = \"demo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "pkg", "inner")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	got, err := ResolvePaths(cfg, sub)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.OutputDir != filepath.Join(root, "docs", "diagrams") {
		t.Fatalf("unexpected output dir: %q", got.OutputDir)
	}
	if got.HistoryPath != filepath.Join(root, ".pyuml", "history.db") {
		t.Fatalf("unexpected history path: %q", got.HistoryPath)
	}
	if got.RootDir != filepath.Clean(root) {
		t.Fatalf("expected empty root_dir to resolve to project root, got %q", got.RootDir)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "diagrams")

	cfg := Default()
	cfg.ProjectRoot = root
	cfg.Output.Dir = out
	cfg.Sequence.RootDir = "src"

	got, err := ResolvePaths(cfg, "/somewhere/else")
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected explicit project root, got %q", got.ProjectRoot)
	}
	if got.OutputDir != filepath.Clean(out) {
		t.Fatalf("expected absolute output dir preserved, got %q", got.OutputDir)
	}
	if got.RootDir != filepath.Join(root, "src") {
		t.Fatalf("unexpected root dir: %q", got.RootDir)
	}
}

func TestResolvePaths_EmptyCWD(t *testing.T) {
	if _, err := ResolvePaths(Default(), " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}
