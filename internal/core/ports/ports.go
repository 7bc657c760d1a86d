package ports

import (
	"context"
	"io/fs"

	"pyuml/internal/data/history"
	"pyuml/internal/data/manifest"
	"pyuml/internal/engine/model"
	"pyuml/internal/engine/parser"
)

// FileSystem isolates the pipeline from disk I/O. Implementations return
// FILE_SYSTEM_ERROR on failure; writes are not atomic.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	EnsureDirectory(path string) error
	FindFiles(dir, pattern string) ([]string, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
}

// CodeParser abstracts Python source parsing.
type CodeParser interface {
	ParseFile(path string, content []byte) (*parser.File, error)
	// IsSupportedPath reports whether path is a file the parser accepts.
	IsSupportedPath(path string) bool
}

// Analyzer turns a source path into a populated diagram model. Settings are
// bound when the analyzer is constructed.
type Analyzer interface {
	Kind() model.Kind
	Analyze(ctx context.Context, path string) (model.Diagram, error)
}

// Generator renders a diagram model to markup and writes it out. Settings
// are bound when the generator is constructed.
type Generator interface {
	Kind() model.Kind
	Render(diagram model.Diagram) (string, error)
	GenerateDiagram(ctx context.Context, diagram model.Diagram, outputPath string) error
	// GenerateIndex writes an index of the diagramPaths that belong to this
	// generator's kind and returns the index path.
	GenerateIndex(ctx context.Context, outputDir string, diagramPaths []string) (string, error)
}

// ManifestStore records what produced each diagram file.
type ManifestStore interface {
	Write(diagramPath string, rec manifest.Record) error
	Read(diagramPath string) (manifest.Record, bool, error)
}

// HistoryStore persists generation attempts.
type HistoryStore interface {
	RecordRun(ctx context.Context, run history.Run) error
	RecentRuns(ctx context.Context, filter history.Filter) ([]history.Run, error)
	Summary(ctx context.Context) ([]history.KindSummary, error)
	Close() error
}
