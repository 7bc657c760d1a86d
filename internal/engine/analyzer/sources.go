// Package analyzer turns Python sources into diagram models. The class and
// sequence analyzers derive their models from parsed source; activity and
// state analyzers are placeholders producing a fixed topology.
package analyzer

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/parser"
	"pyuml/internal/shared/observability"
	"pyuml/internal/shared/util"
)

// scanner enumerates and parses the Python files under a path.
type scanner struct {
	fs        ports.FileSystem
	parser    ports.CodeParser
	exclude   []string
	recursive bool
}

// collect returns the .py files under root. Any path containing an exclude
// pattern is skipped, directories included. Entries are visited in the
// order ReadDir returns them.
func (s scanner) collect(root string) ([]string, error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if _, excluded := util.ContainsAny(root, s.exclude); excluded {
			return nil, nil
		}
		return []string{root}, nil
	}

	var files []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if pattern, excluded := util.ContainsAny(path, s.exclude); excluded {
				slog.Debug("excluded path", "path", path, "pattern", pattern)
				continue
			}
			if entry.IsDir() {
				if !s.recursive {
					continue
				}
				if err := walk(path); err != nil {
					return err
				}
				continue
			}
			if s.parser.IsSupportedPath(path) {
				files = append(files, path)
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}

// parseAll parses every file under root. Files with syntax errors are
// logged and skipped; any other failure aborts with a PARSER_ERROR.
func (s scanner) parseAll(ctx context.Context, root string) ([]*parser.File, error) {
	paths, err := s.collect(root)
	if err != nil {
		return nil, errors.AddContext(errors.NewParserError("enumerate sources", err), errors.CtxPath, root)
	}

	files := make([]*parser.File, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := s.fs.ReadFile(path)
		if err != nil {
			return nil, errors.AddContext(errors.NewParserError("read source", err), errors.CtxPath, path)
		}

		start := time.Now()
		file, err := s.parser.ParseFile(path, content)
		observability.ParsingDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			if errors.IsSyntaxError(err) {
				slog.Warn("skipping file with syntax error", "path", path, "error", err)
				observability.FilesSkippedTotal.WithLabelValues("syntax").Inc()
				continue
			}
			if errors.IsParserError(err) {
				return nil, err
			}
			return nil, errors.AddContext(errors.NewParserError("parse source", err), errors.CtxPath, path)
		}
		files = append(files, file)
	}
	return files, nil
}
