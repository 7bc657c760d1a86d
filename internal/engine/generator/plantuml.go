// Package generator renders diagram models to PlantUML markup, writes them
// to disk with an optional manifest sidecar, and builds per-kind indexes.
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/data/manifest"
	"pyuml/internal/engine/model"
	"pyuml/internal/shared/observability"

	"github.com/google/uuid"
)

// RunInfo identifies the pipeline run a diagram belongs to. It travels on
// the context so generators can stamp manifests.
type RunInfo struct {
	ID     string
	Source string
}

type runInfoKey struct{}

func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

func RunInfoFrom(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}

// core is shared by every generator. render is the kind-specific markup
// function.
type core struct {
	kind      model.Kind
	settings  config.GeneratorSettings
	fs        ports.FileSystem
	manifests ports.ManifestStore
	render    func(model.Diagram) (string, error)
}

func (c *core) Kind() model.Kind { return c.kind }

// Settings returns the settings bound at construction.
func (c *core) Settings() config.GeneratorSettings { return c.settings }

func (c *core) checkKind(d model.Diagram) error {
	if d == nil {
		return errors.NewGeneratorError("nil diagram", nil)
	}
	if d.Kind() != c.kind {
		return errors.AddContext(
			errors.NewGeneratorError(fmt.Sprintf("%s generator cannot render a %s diagram", c.kind, d.Kind()), nil),
			errors.CtxKind, d.Kind().String(),
		)
	}
	return nil
}

// GenerateDiagram renders d and writes it to outputPath, creating the
// directory as needed. Any failure is a GENERATOR_ERROR.
func (c *core) GenerateDiagram(ctx context.Context, d model.Diagram, outputPath string) error {
	start := time.Now()
	defer func() {
		observability.GenerationDuration.WithLabelValues(c.kind.String()).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	markup, err := c.render(d)
	if err != nil {
		return err
	}
	if err := c.fs.EnsureDirectory(filepath.Dir(outputPath)); err != nil {
		return errors.NewGeneratorError("create output directory", err)
	}
	if err := c.fs.WriteFile(outputPath, []byte(markup)); err != nil {
		return errors.NewGeneratorError("write diagram", err)
	}

	if c.settings.Manifest && c.manifests != nil {
		info, _ := RunInfoFrom(ctx)
		if info.ID == "" {
			info.ID = uuid.NewString()
		}
		rec := manifest.Record{
			RunID:       info.ID,
			Kind:        c.kind.String(),
			Model:       d.Name(),
			Source:      info.Source,
			Placeholder: isPlaceholder(d),
			GeneratedAt: time.Now().UTC(),
		}
		if err := c.manifests.Write(outputPath, rec); err != nil {
			return errors.NewGeneratorError("write manifest", err)
		}
	}
	return nil
}

func isPlaceholder(d model.Diagram) bool {
	switch v := d.(type) {
	case *model.ActivityDiagram:
		return v.Placeholder
	case *model.StateDiagram:
		return v.Placeholder
	}
	return false
}

const placeholderNote = "placeholder topology, not derived from source"

// writeHeader emits the opening lines shared by every kind. marker is a
// kind-specific skinparam that DetectKind keys on.
func writeHeader(b *strings.Builder, marker string, s config.GeneratorSettings, title string) {
	b.WriteString("@startuml\n")
	if s.Theme != "" {
		fmt.Fprintf(b, "!theme %s\n", s.Theme)
	}
	b.WriteString(marker + "\n")
	if s.Title != "" {
		title = s.Title
	}
	if title != "" {
		fmt.Fprintf(b, "title %s\n", escapePlantUML(title))
	}
}

func writeDirection(b *strings.Builder, direction string) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "left to right", "lr":
		b.WriteString("left to right direction\n")
	case "top to bottom", "tb":
		b.WriteString("top to bottom direction\n")
	}
}

func sanitizePlantUMLAlias(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

func makePlantUMLAliases(names []string) map[string]string {
	aliases := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		if _, done := aliases[name]; done {
			continue
		}
		base := sanitizePlantUMLAlias(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			aliases[name] = base
			continue
		}
		aliases[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return aliases
}

func escapePlantUML(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

// transitionLabel formats `event [guard] / action`, or the explicit label.
func transitionLabel(t model.Transition) string {
	if t.Label != "" {
		return t.Label
	}
	var parts []string
	if t.Event != "" {
		parts = append(parts, t.Event)
	}
	if t.Guard != "" {
		parts = append(parts, "["+t.Guard+"]")
	}
	label := strings.Join(parts, " ")
	if t.Action != "" {
		if label != "" {
			label += " "
		}
		label += "/ " + t.Action
	}
	return label
}
