package filesystem

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"pyuml/internal/core/errors"
)

func TestLocal_WriteReadRoundTrip(t *testing.T) {
	fsys := NewLocal()
	path := filepath.Join(t.TempDir(), "a", "b", "diagram.puml")

	if err := fsys.WriteFile(path, []byte("@startuml\n@enduml\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "@startuml\n@enduml\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestLocal_WriteUnderFileIsFileSystemError(t *testing.T) {
	fsys := NewLocal()
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := fsys.WriteFile(filepath.Join(blocker, "out", "diagram.puml"), []byte("@startuml\n"))
	if !errors.IsFileSystemError(err) {
		t.Fatalf("expected FILE_SYSTEM_ERROR, got %v", err)
	}
}

func TestLocal_ReadMissingIsFileSystemError(t *testing.T) {
	fsys := NewLocal()
	_, err := fsys.ReadFile(filepath.Join(t.TempDir(), "missing.py"))
	if !errors.IsFileSystemError(err) {
		t.Fatalf("expected FILE_SYSTEM_ERROR, got %v", err)
	}
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected underlying not-exist cause, got %v", err)
	}
}

func TestLocal_FindFiles(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a.py", "pkg/b.py", "pkg/sub/c.py", "pkg/readme.md"} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fsys := NewLocal()
	got, err := fsys.FindFiles(root, "**/*.py")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.py"),
		filepath.Join(root, "pkg", "b.py"),
		filepath.Join(root, "pkg", "sub", "c.py"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if _, err := fsys.FindFiles(root, "[unclosed"); !errors.IsFileSystemError(err) {
		t.Fatalf("expected bad pattern to be a FILE_SYSTEM_ERROR, got %v", err)
	}
}

func TestLocal_ReadDirAndStat(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	fsys := NewLocal()

	entries, err := fsys.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("unexpected entries %+v", entries)
	}

	info, err := fsys.Stat(filepath.Join(root, "pkg"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory stat, got %v %v", info, err)
	}
	if _, err := fsys.Stat(filepath.Join(root, "nope")); !errors.IsFileSystemError(err) {
		t.Fatalf("expected FILE_SYSTEM_ERROR, got %v", err)
	}
}
