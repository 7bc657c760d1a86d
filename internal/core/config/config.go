package config

import (
	"time"
)

type Config struct {
	Version       int                       `toml:"version"`
	ProjectRoot   string                    `toml:"project_root"`
	Analysis      Analysis                  `toml:"analysis"`
	Sequence      Sequence                  `toml:"sequence"`
	Output        Output                    `toml:"output"`
	Generators    map[string]map[string]any `toml:"generators"`
	Plan          map[string][]string       `toml:"plan"`
	Watch         Watch                     `toml:"watch"`
	History       History                   `toml:"history"`
	Observability Observability             `toml:"observability"`
	Log           Log                       `toml:"log"`
}

// Analysis holds the settings shared by every analyzer.
type Analysis struct {
	ExcludePatterns []string `toml:"exclude_patterns"`
	IncludePrivate  bool     `toml:"include_private"`
	Recursive       bool     `toml:"recursive"`
	ParseCacheSize  int      `toml:"parse_cache_size"`
}

type Sequence struct {
	EntryClass     string `toml:"entry_class"`
	EntryMethod    string `toml:"entry_method"`
	RootDir        string `toml:"root_dir"`
	MaxDepth       int    `toml:"max_depth"`
	ClassInference string `toml:"class_inference"`
}

type Output struct {
	Dir       string `toml:"dir"`
	Extension string `toml:"extension"`
	Manifest  bool   `toml:"manifest"`
	IndexHTML bool   `toml:"index_html"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Ignore   []string      `toml:"ignore"`
	MaxRate  float64       `toml:"max_rate"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AnalyzerSettings is the per-run view of analysis options after overrides
// have been applied. Keys mirror the analyzer keyword settings.
type AnalyzerSettings struct {
	ExcludePatterns []string `toml:"exclude_patterns"`
	IncludePrivate  bool     `toml:"include_private"`
	Recursive       bool     `toml:"recursive"`
	EntryClass      string   `toml:"entry_class"`
	EntryMethod     string   `toml:"entry_method"`
	RootDir         string   `toml:"root_dir"`
	MaxDepth        int      `toml:"max_depth"`
	ClassInference  string   `toml:"class_inference"`
}

// GeneratorSettings is the per-run view of generator options.
type GeneratorSettings struct {
	Title          string `toml:"title"`
	Theme          string `toml:"theme"`
	Direction      string `toml:"direction"`
	ShowAttributes bool   `toml:"show_attributes"`
	ShowMethods    bool   `toml:"show_methods"`
	ShowFunctions  bool   `toml:"show_functions"`
	Autonumber     bool   `toml:"autonumber"`
	HideFootbox    bool   `toml:"hide_footbox"`
	ShowReturns    bool   `toml:"show_returns"`
	Manifest       bool   `toml:"manifest"`
	IndexHTML      bool   `toml:"index_html"`
}

const (
	InferenceLiteral   = "literal"
	InferenceCamelCase = "camel_case"

	DefaultMaxDepth = 10
)

var DefaultExcludePatterns = []string{
	"__pycache__",
	".git",
	".venv",
	"venv",
	".tox",
	".mypy_cache",
	"node_modules",
	"site-packages",
}

func Default() *Config {
	return &Config{
		Version: 1,
		Analysis: Analysis{
			ExcludePatterns: append([]string(nil), DefaultExcludePatterns...),
			Recursive:       true,
			ParseCacheSize:  512,
		},
		Sequence: Sequence{
			MaxDepth:       DefaultMaxDepth,
			ClassInference: InferenceLiteral,
		},
		Output: Output{
			Dir:       "docs/diagrams",
			Extension: ".puml",
			Manifest:  true,
		},
		Generators: map[string]map[string]any{},
		Plan:       map[string][]string{},
		Watch: Watch{
			Debounce: 500 * time.Millisecond,
			Ignore:   []string{"*.pyc", ".#*", "*~"},
			MaxRate:  2,
		},
		History: History{
			Path: ".pyuml/history.db",
		},
		Observability: Observability{
			ServiceName: "pyuml",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// AnalyzerDefaults projects the loaded configuration onto analyzer settings.
func (c *Config) AnalyzerDefaults() AnalyzerSettings {
	return AnalyzerSettings{
		ExcludePatterns: append([]string(nil), c.Analysis.ExcludePatterns...),
		IncludePrivate:  c.Analysis.IncludePrivate,
		Recursive:       c.Analysis.Recursive,
		EntryClass:      c.Sequence.EntryClass,
		EntryMethod:     c.Sequence.EntryMethod,
		RootDir:         c.Sequence.RootDir,
		MaxDepth:        c.Sequence.MaxDepth,
		ClassInference:  c.Sequence.ClassInference,
	}
}

// GeneratorDefaults returns the generator baseline before the raw
// generators.<kind> table and call-time overrides are merged on top.
func (c *Config) GeneratorDefaults() GeneratorSettings {
	return GeneratorSettings{
		ShowAttributes: true,
		ShowMethods:    true,
		ShowReturns:    true,
		Manifest:       c.Output.Manifest,
		IndexHTML:      c.Output.IndexHTML,
	}
}
