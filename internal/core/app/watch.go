package app

import (
	"context"
	"log/slog"
	"sort"

	"pyuml/internal/core/config"
	"pyuml/internal/core/factory"
	"pyuml/internal/core/watcher"
	"pyuml/internal/engine/parser"
	"pyuml/internal/shared/observability"
	"pyuml/internal/shared/util"
)

// WatchOptions tune WatchAndRegenerate. ConfigPath, when set, is watched
// and a changed configuration replaces the factory for later runs.
type WatchOptions struct {
	Overrides  Overrides
	ConfigPath string
	// OnBatch is called after every full regeneration.
	OnBatch func(map[string]BatchResult, error)
}

// WatchAndRegenerate generates every kind of plan, then regenerates on
// Python source changes until ctx is done. Changes are debounced by the
// watcher and regenerations bounded by watch.max_rate.
func (s *Service) WatchAndRegenerate(ctx context.Context, plan map[string][]string, outputDir string, opts WatchOptions) error {
	cfg := s.factory.Config()

	cache, _ := s.factory.Deps().Parser.(*parser.CachedParser)
	regenerate := func() {
		results, err := s.GenerateAllDiagrams(ctx, plan, outputDir, opts.Overrides)
		if cache != nil {
			observability.ParseCacheEntries.Set(float64(cache.Len()))
		}
		if opts.OnBatch != nil {
			opts.OnBatch(results, err)
		}
	}
	regenerate()
	if err := ctx.Err(); err != nil {
		return nil
	}

	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Analysis.ExcludePatterns, cfg.Watch.Ignore, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A regeneration is already queued; it will pick these up.
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(watchRoots(plan)); err != nil {
		return err
	}

	reloads := make(chan *config.Config, 1)
	if opts.ConfigPath != "" {
		cw := config.NewWatcher(opts.ConfigPath, func(next *config.Config) {
			select {
			case reloads <- next:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher disabled", "path", opts.ConfigPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	limiter := util.NewLimiter(cfg.Watch.MaxRate, 1)
	slog.Info("watching sources", "roots", len(watchRoots(plan)), "output", outputDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case next := <-reloads:
			f, err := factory.New(next, s.factory.Deps())
			if err != nil {
				slog.Warn("ignoring configuration reload", "error", err)
				continue
			}
			s.factory = f
			// Exclude patterns may have changed; drop trees for files now out of scope.
			if cache != nil {
				cache.Purge()
			}
			w.SetDebounce(next.Watch.Debounce)
			limiter = util.NewLimiter(next.Watch.MaxRate, 1)
			slog.Info("configuration reloaded", "path", opts.ConfigPath)
		case paths := <-changes:
			slog.Info("sources changed", "count", len(paths))
			if !limiter.Allow(1) {
				observability.RegenerationsThrottledTotal.Inc()
				if err := limiter.Wait(ctx, 1); err != nil {
					return nil
				}
			}
			regenerate()
		}
	}
}

// watchRoots returns the distinct sources across plan.
func watchRoots(plan map[string][]string) []string {
	seen := make(map[string]bool)
	for _, sources := range plan {
		for _, src := range sources {
			seen[src] = true
		}
	}
	roots := make([]string, 0, len(seen))
	for src := range seen {
		roots = append(roots, src)
	}
	sort.Strings(roots)
	return roots
}
