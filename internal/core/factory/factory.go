// Package factory maps diagram kinds to analyzer and generator
// constructors and caches one instance of each per kind.
package factory

import (
	"fmt"
	"sync"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/data/filesystem"
	"pyuml/internal/data/manifest"
	"pyuml/internal/engine/analyzer"
	"pyuml/internal/engine/generator"
	"pyuml/internal/engine/model"
	"pyuml/internal/engine/parser"
)

// Deps are the collaborators handed to every constructor.
type Deps struct {
	FS        ports.FileSystem
	Parser    ports.CodeParser
	Manifests ports.ManifestStore
}

type AnalyzerConstructor func(deps Deps, settings config.AnalyzerSettings) ports.Analyzer

type GeneratorConstructor func(deps Deps, settings config.GeneratorSettings) ports.Generator

type Registration struct {
	Analyzer  AnalyzerConstructor
	Generator GeneratorConstructor
}

// DefaultRegistry returns the built-in registrations. Activity and state
// use placeholder analyzers.
func DefaultRegistry() map[model.Kind]Registration {
	return map[model.Kind]Registration{
		model.KindClass: {
			Analyzer: func(d Deps, s config.AnalyzerSettings) ports.Analyzer {
				return analyzer.NewClassAnalyzer(d.FS, d.Parser, s)
			},
			Generator: func(d Deps, s config.GeneratorSettings) ports.Generator {
				return generator.NewClassGenerator(d.FS, d.Manifests, s)
			},
		},
		model.KindSequence: {
			Analyzer: func(d Deps, s config.AnalyzerSettings) ports.Analyzer {
				return analyzer.NewSequenceAnalyzer(d.FS, d.Parser, s)
			},
			Generator: func(d Deps, s config.GeneratorSettings) ports.Generator {
				return generator.NewSequenceGenerator(d.FS, d.Manifests, s)
			},
		},
		model.KindActivity: {
			Analyzer: func(d Deps, _ config.AnalyzerSettings) ports.Analyzer {
				return analyzer.NewActivityPlaceholder(d.FS)
			},
			Generator: func(d Deps, s config.GeneratorSettings) ports.Generator {
				return generator.NewActivityGenerator(d.FS, d.Manifests, s)
			},
		},
		model.KindState: {
			Analyzer: func(d Deps, _ config.AnalyzerSettings) ports.Analyzer {
				return analyzer.NewStatePlaceholder(d.FS)
			},
			Generator: func(d Deps, s config.GeneratorSettings) ports.Generator {
				return generator.NewStateGenerator(d.FS, d.Manifests, s)
			},
		},
	}
}

// Factory hands out analyzers and generators by kind tag. Instances built
// from the configuration alone are cached for the factory's lifetime;
// a call carrying overrides builds a fresh, uncached instance.
type Factory struct {
	cfg      *config.Config
	deps     Deps
	registry map[model.Kind]Registration

	mu         sync.Mutex
	analyzers  map[model.Kind]ports.Analyzer
	generators map[model.Kind]ports.Generator
}

// New builds a factory over cfg. Missing deps get local defaults: the disk
// file system, a cached tree-sitter parser and a manifest store.
func New(cfg *config.Config, deps Deps) (*Factory, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.FS == nil {
		deps.FS = filesystem.NewLocal()
	}
	if deps.Parser == nil {
		cached, err := parser.NewCachedParser(parser.NewParser().ParseFile, cfg.Analysis.ParseCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create parse cache: %w", err)
		}
		deps.Parser = cached
	}
	if deps.Manifests == nil {
		deps.Manifests = manifest.NewStore(deps.FS)
	}
	return &Factory{
		cfg:        cfg,
		deps:       deps,
		registry:   DefaultRegistry(),
		analyzers:  make(map[model.Kind]ports.Analyzer),
		generators: make(map[model.Kind]ports.Generator),
	}, nil
}

// Register replaces the constructors for kind and drops cached instances.
func (f *Factory) Register(kind model.Kind, reg Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry[kind] = reg
	delete(f.analyzers, kind)
	delete(f.generators, kind)
}

func (f *Factory) Config() *config.Config { return f.cfg }

func (f *Factory) Deps() Deps { return f.deps }

// CreateAnalyzer resolves tag and returns its analyzer. Unknown tags yield
// DIAGRAM_TYPE_ERROR before anything is constructed.
func (f *Factory) CreateAnalyzer(tag string, overrides map[string]any) (ports.Analyzer, error) {
	kind, reg, err := f.lookup(tag)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(overrides) == 0 {
		if a, ok := f.analyzers[kind]; ok {
			return a, nil
		}
	}
	settings, err := f.cfg.ResolveAnalyzer(overrides)
	if err != nil {
		return nil, err
	}
	a := reg.Analyzer(f.deps, settings)
	if len(overrides) == 0 {
		f.analyzers[kind] = a
	}
	return a, nil
}

// CreateGenerator resolves tag and returns its generator. Settings layer
// the generators.<kind> table under same-named overrides.
func (f *Factory) CreateGenerator(tag string, overrides map[string]any) (ports.Generator, error) {
	kind, reg, err := f.lookup(tag)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(overrides) == 0 {
		if g, ok := f.generators[kind]; ok {
			return g, nil
		}
	}
	settings, err := f.cfg.ResolveGenerator(kind.String(), overrides)
	if err != nil {
		return nil, err
	}
	g := reg.Generator(f.deps, settings)
	if len(overrides) == 0 {
		f.generators[kind] = g
	}
	return g, nil
}

func (f *Factory) lookup(tag string) (model.Kind, Registration, error) {
	kind, err := model.ParseKind(tag)
	if err != nil {
		return 0, Registration{}, err
	}
	f.mu.Lock()
	reg, ok := f.registry[kind]
	f.mu.Unlock()
	if !ok {
		return 0, Registration{}, errors.NewDiagramTypeError(tag)
	}
	return kind, reg, nil
}
