package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	coreapp "pyuml/internal/core/app"
	"pyuml/internal/core/config"
	"pyuml/internal/core/factory"
	"pyuml/internal/data/history"
	"pyuml/internal/shared/logging"
	"pyuml/internal/shared/observability"
)

// runtime is everything a command needs once flags and config are merged.
type runtime struct {
	cfg       *config.Config
	cfgPath   string
	paths     config.ResolvedPaths
	service   *coreapp.Service
	history   *history.Store
	overrides coreapp.Overrides

	shutdown []func(context.Context) error
}

func (o *options) resolveConfigPath(cwd string) string {
	if strings.TrimSpace(o.configPath) != "" {
		return o.configPath
	}
	return filepath.Join(cwd, config.DefaultConfigFile)
}

func loadConfig(opts *options) (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("detect working directory: %w", err)
	}
	path := opts.resolveConfigPath(cwd)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// applyFlags layers command-line flags over the loaded configuration.
func applyFlags(opts *options, cfg *config.Config) {
	if opts.output != "" {
		cfg.Output.Dir = opts.output
	}
	cfg.Analysis.ExcludePatterns = append(cfg.Analysis.ExcludePatterns, opts.exclude...)
	if opts.includePrivate {
		cfg.Analysis.IncludePrivate = true
	}
	if opts.noRecursive {
		cfg.Analysis.Recursive = false
	}
	if opts.entryClass != "" {
		cfg.Sequence.EntryClass = opts.entryClass
	}
	if opts.entryMethod != "" {
		cfg.Sequence.EntryMethod = opts.entryMethod
	}
	if opts.rootDir != "" {
		cfg.Sequence.RootDir = opts.rootDir
	}
	if opts.maxDepth != 0 {
		cfg.Sequence.MaxDepth = opts.maxDepth
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
}

func setup(ctx context.Context, opts *options) (*runtime, error) {
	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	applyFlags(opts, cfg)
	logging.Setup(opts.stderr, cfg.Log.Level, cfg.Log.Format)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("detect working directory: %w", err)
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve runtime paths: %w", err)
	}
	if cfg.Sequence.RootDir != "" {
		cfg.Sequence.RootDir = paths.RootDir
	}

	generatorOverrides, err := parseSets(opts.sets)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:       cfg,
		cfgPath:   cfgPath,
		paths:     paths,
		overrides: coreapp.Overrides{Generator: generatorOverrides},
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return nil, err
	}
	rt.shutdown = append(rt.shutdown, shutdownTracing)

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.history = store
		rt.shutdown = append(rt.shutdown, func(context.Context) error { return store.Close() })
	}

	if cfg.Observability.MetricsAddr != "" {
		srv := NewObservabilityServer(cfg.Observability.MetricsAddr, rt.healthCheck)
		if err := srv.Start(ctx); err != nil {
			rt.close()
			return nil, err
		}
		rt.shutdown = append(rt.shutdown, srv.Stop)
	}

	f, err := factory.New(cfg, factory.Deps{})
	if err != nil {
		rt.close()
		return nil, err
	}
	if rt.history != nil {
		rt.service = coreapp.NewService(f, rt.history)
	} else {
		rt.service = coreapp.NewService(f, nil)
	}
	rt.service.SetReporter(newReporter(opts.stderr, opts.verbose))

	slog.Debug("runtime ready",
		"config", cfgPath,
		"project_root", paths.ProjectRoot,
		"output", paths.OutputDir,
		"history", cfg.History.Enabled,
	)
	return rt, nil
}

func (rt *runtime) healthCheck(ctx context.Context) error {
	if rt.history == nil {
		return nil
	}
	_, err := rt.history.RecentRuns(ctx, history.Filter{Limit: 1})
	return err
}

// close runs shutdown hooks in reverse order.
func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		if err := rt.shutdown[i](ctx); err != nil {
			slog.Warn("shutdown hook failed", "error", err)
		}
	}
	rt.shutdown = nil
}
