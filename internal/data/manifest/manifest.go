// Package manifest reads and writes the YAML sidecar recorded next to each
// generated diagram, so index generation can classify files without
// re-reading their markup.
package manifest

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const Suffix = ".manifest.yaml"

type Record struct {
	RunID       string    `yaml:"run_id"`
	Kind        string    `yaml:"kind"`
	Model       string    `yaml:"model"`
	Source      string    `yaml:"source,omitempty"`
	Placeholder bool      `yaml:"placeholder,omitempty"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

// FileIO is the subset of the file system port the store needs.
type FileIO interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
}

type Store struct {
	fs FileIO
}

func NewStore(fs FileIO) *Store {
	return &Store{fs: fs}
}

// PathFor returns the sidecar path for a diagram file.
func PathFor(diagramPath string) string {
	return diagramPath + Suffix
}

// IsManifestPath reports whether path is itself a sidecar.
func IsManifestPath(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

func (s *Store) Write(diagramPath string, rec Record) error {
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode manifest for %s: %w", diagramPath, err)
	}
	return s.fs.WriteFile(PathFor(diagramPath), data)
}

// Read loads the sidecar for diagramPath. A missing sidecar reports
// ok=false without an error.
func (s *Store) Read(diagramPath string) (Record, bool, error) {
	data, err := s.fs.ReadFile(PathFor(diagramPath))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode manifest for %s: %w", diagramPath, err)
	}
	if rec.Kind == "" {
		return Record{}, false, nil
	}
	return rec, true, nil
}
