package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "pyuml.toml", "[sequence]\nmax_depth = 3\n")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Invalid edits are ignored.
	if err := os.WriteFile(path, []byte("[sequence]\nmax_depth = 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config delivered: %+v", cfg.Sequence)
	case <-time.After(400 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("[sequence]\nmax_depth = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Sequence.MaxDepth != 4 {
			t.Fatalf("expected max_depth 4, got %d", cfg.Sequence.MaxDepth)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
