package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"pyuml/internal/core/errors"
	"pyuml/internal/data/manifest"
	"pyuml/internal/shared/util"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	IndexFile     = "index.md"
	IndexHTMLFile = "index.html"
)

// GenerateIndex writes index.md into outputDir listing the diagramPaths of
// this generator's kind, relative to outputDir with forward slashes and
// sorted. Each path is classified by its manifest, falling back to
// DetectKind when the manifest is missing.
func (c *core) GenerateIndex(ctx context.Context, outputDir string, diagramPaths []string) (string, error) {
	entries := make([]string, 0, len(diagramPaths))
	seen := make(map[string]bool, len(diagramPaths))
	for _, path := range diagramPaths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if manifest.IsManifestPath(path) || seen[path] {
			continue
		}
		base := filepath.Base(path)
		if base == IndexFile || base == IndexHTMLFile {
			continue
		}
		seen[path] = true
		if !c.belongs(path) {
			continue
		}
		entries = append(entries, util.RelSlash(outputDir, path))
	}
	sort.Strings(entries)

	doc := renderIndex(c.kind.String(), entries)
	indexPath := filepath.Join(outputDir, IndexFile)
	if err := c.fs.EnsureDirectory(outputDir); err != nil {
		return "", errors.NewGeneratorError("create index directory", err)
	}
	if err := c.fs.WriteFile(indexPath, doc); err != nil {
		return "", errors.NewGeneratorError("write index", err)
	}

	if c.settings.IndexHTML {
		var html bytes.Buffer
		md := goldmark.New(goldmark.WithExtensions(extension.GFM))
		if err := md.Convert(doc, &html); err != nil {
			return "", errors.NewGeneratorError("render index html", err)
		}
		if err := c.fs.WriteFile(filepath.Join(outputDir, IndexHTMLFile), html.Bytes()); err != nil {
			return "", errors.NewGeneratorError("write index html", err)
		}
	}
	return indexPath, nil
}

func (c *core) belongs(path string) bool {
	if c.manifests != nil {
		rec, ok, err := c.manifests.Read(path)
		if err != nil {
			slog.Warn("unreadable manifest, falling back to content detection", "path", path, "error", err)
		} else if ok {
			return rec.Kind == c.kind.String()
		}
	}
	data, err := c.fs.ReadFile(path)
	if err != nil {
		slog.Warn("skipping unreadable diagram in index", "path", path, "error", err)
		return false
	}
	kind, ok := DetectKind(string(data))
	return ok && kind == c.kind
}

func renderIndex(kind string, entries []string) []byte {
	var b strings.Builder
	title := strings.ToUpper(kind[:1]) + kind[1:]
	fmt.Fprintf(&b, "# %s diagrams\n\n", title)
	if len(entries) == 0 {
		b.WriteString("_No diagrams generated._\n")
		return []byte(b.String())
	}
	for _, rel := range entries {
		name := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		fmt.Fprintf(&b, "- [%s](%s)\n", linkText.Replace(name), linkTarget(rel))
	}
	return []byte(b.String())
}

var linkText = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`)

// linkTarget percent-encodes each segment of a slash-separated path.
func linkTarget(rel string) string {
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
