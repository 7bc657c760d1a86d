// Package filesystem is the local-disk implementation of the pipeline's
// file system port. Every failure is a FILE_SYSTEM_ERROR wrapping the
// underlying I/O error.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"pyuml/internal/core/errors"
	"pyuml/internal/shared/util"

	"github.com/bmatcuk/doublestar/v4"
)

type Local struct{}

func NewLocal() *Local { return &Local{} }

func (Local) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileSystemError("read", path, err)
	}
	return data, nil
}

// WriteFile creates parent directories as needed. Writes are not atomic.
func (Local) WriteFile(path string, data []byte) error {
	if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
		return errors.NewFileSystemError("write", path, err)
	}
	return nil
}

func (Local) EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.NewFileSystemError("mkdir", path, err)
	}
	return nil
}

// FindFiles returns files under dir matching a doublestar pattern such as
// "**/*.py", joined onto dir and sorted.
func (Local) FindFiles(dir, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.NewFileSystemError("glob", dir, doublestar.ErrBadPattern)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.NewFileSystemError("glob", dir, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// ReadDir lists entries sorted by name.
func (Local) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.NewFileSystemError("readdir", path, err)
	}
	return entries, nil
}

func (Local) Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewFileSystemError("stat", path, err)
	}
	return info, nil
}
