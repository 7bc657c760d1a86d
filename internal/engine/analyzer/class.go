package analyzer

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"pyuml/internal/core/config"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
	"pyuml/internal/engine/parser"
	"pyuml/internal/shared/observability"
)

// Dunder members kept even when private members are excluded.
var alwaysIncluded = map[string]bool{
	"__init__": true,
	"__new__":  true,
	"__call__": true,
}

type ClassAnalyzer struct {
	scanner  scanner
	settings config.AnalyzerSettings
}

func NewClassAnalyzer(fs ports.FileSystem, p ports.CodeParser, settings config.AnalyzerSettings) *ClassAnalyzer {
	return &ClassAnalyzer{
		scanner: scanner{
			fs:        fs,
			parser:    p,
			exclude:   settings.ExcludePatterns,
			recursive: settings.Recursive,
		},
		settings: settings,
	}
}

func (a *ClassAnalyzer) Kind() model.Kind { return model.KindClass }

// memberRef is an attribute that may link its owner to another class.
type memberRef struct {
	owner      *model.Class
	attribute  string
	annotation string
	constructs string
}

// Analyze builds a class diagram from a file or directory. The diagram is
// named after the path's base name.
func (a *ClassAnalyzer) Analyze(ctx context.Context, path string) (model.Diagram, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues(model.KindClass.String()).Observe(time.Since(start).Seconds())
	}()

	files, err := a.scanner.parseAll(ctx, path)
	if err != nil {
		return nil, err
	}

	diagram := model.NewClassDiagram(diagramName(path))
	var refs []memberRef
	for _, pf := range files {
		file, fileRefs := a.convertFile(pf)
		diagram.AddFile(file)
		refs = append(refs, fileRefs...)
	}
	linkClasses(diagram, refs)
	return diagram, nil
}

func (a *ClassAnalyzer) convertFile(pf *parser.File) (*model.File, []memberRef) {
	file := &model.File{Path: pf.Path}
	for _, imp := range pf.Imports {
		file.Imports = append(file.Imports, model.Import{
			Module:     imp.Module,
			Alias:      imp.Alias,
			Items:      append([]string(nil), imp.Items...),
			IsRelative: imp.IsRelative,
		})
	}

	var refs []memberRef
	for _, pc := range pf.Classes {
		class := &model.Class{
			Name:       pc.Name,
			Filename:   pf.Path,
			Bases:      append([]string(nil), pc.Bases...),
			Metaclass:  pc.Metaclass,
			Decorators: append([]string(nil), pc.Decorators...),
		}
		for _, attr := range pc.Attributes {
			if !a.includeMember(attr.Name) {
				continue
			}
			annotation := attr.Annotation
			if annotation == "" {
				annotation = model.DefaultTypeAnnotation
			}
			class.Attributes = append(class.Attributes, model.Attribute{
				Name:           attr.Name,
				TypeAnnotation: annotation,
				Visibility:     model.VisibilityOf(attr.Name),
				DefaultValue:   attr.Default,
			})
			if attr.Annotation != "" || attr.Constructs != "" {
				refs = append(refs, memberRef{
					owner:      class,
					attribute:  attr.Name,
					annotation: attr.Annotation,
					constructs: attr.Constructs,
				})
			}
		}
		for _, fn := range pc.Methods {
			if !a.includeMember(fn.Name) {
				continue
			}
			class.Methods = append(class.Methods, convertMethod(fn))
		}
		file.Classes = append(file.Classes, class)
	}

	for _, fn := range pf.Functions {
		if !a.includeMember(fn.Name) {
			continue
		}
		file.Functions = append(file.Functions, &model.Function{
			Name:       fn.Name,
			Parameters: convertParameters(fn.Parameters),
			ReturnType: fn.ReturnType,
			Decorators: append([]string(nil), fn.Decorators...),
			IsAsync:    fn.IsAsync,
		})
	}
	return file, refs
}

func (a *ClassAnalyzer) includeMember(name string) bool {
	if a.settings.IncludePrivate || alwaysIncluded[name] {
		return true
	}
	// Dunders render as public but are only listed when whitelisted.
	return !strings.HasPrefix(name, "_")
}

func convertMethod(fn parser.Function) model.Method {
	m := model.Method{
		Name:       fn.Name,
		Visibility: model.VisibilityOf(fn.Name),
		Parameters: convertParameters(fn.Parameters),
		ReturnType: fn.ReturnType,
		Decorators: append([]string(nil), fn.Decorators...),
		IsAsync:    fn.IsAsync,
	}
	for _, dec := range fn.Decorators {
		switch decoratorName(dec) {
		case "staticmethod":
			m.IsStatic = true
		case "classmethod":
			m.IsClassMethod = true
		case "abstractmethod":
			m.IsAbstract = true
		}
	}
	return m
}

func convertParameters(params []parser.Parameter) []model.Parameter {
	out := make([]model.Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, model.Parameter{
			Name:           p.Name,
			TypeAnnotation: p.Annotation,
			DefaultValue:   p.Default,
			Kind:           model.ParameterKind(p.Kind),
		})
	}
	return out
}

// decoratorName strips call arguments and module qualifiers:
// "abc.abstractmethod" and "dataclass(frozen=True)" become their last name.
func decoratorName(dec string) string {
	if i := strings.IndexByte(dec, '('); i >= 0 {
		dec = dec[:i]
	}
	if i := strings.LastIndexByte(dec, '.'); i >= 0 {
		dec = dec[i+1:]
	}
	return strings.TrimSpace(dec)
}

// linkClasses adds relationships once every file is known. Inheritance is
// emitted for all classes before any composition or association.
func linkClasses(d *model.ClassDiagram, refs []memberRef) {
	classes := d.Classes()
	for _, class := range classes {
		for _, base := range class.Bases {
			target, ok := resolveClass(d, base)
			if !ok || target == class.Name {
				continue
			}
			d.AddRelationship(model.Relationship{Source: class.Name, Target: target, Type: model.Inheritance})
		}
	}

	for _, ref := range refs {
		// Classes dropped as duplicates contribute nothing.
		if kept, ok := d.FindClass(ref.owner.Name); !ok || kept != ref.owner {
			continue
		}
		composed := ""
		if ref.constructs != "" {
			if target, ok := resolveClass(d, ref.constructs); ok && target != ref.owner.Name {
				composed = target
				d.AddRelationship(model.Relationship{
					Source: ref.owner.Name,
					Target: target,
					Type:   model.Composition,
					Label:  ref.attribute,
				})
			}
		}
		for _, token := range annotationNames(ref.annotation) {
			target, ok := resolveClass(d, token)
			if !ok || target == ref.owner.Name || target == composed {
				continue
			}
			d.AddRelationship(model.Relationship{
				Source: ref.owner.Name,
				Target: target,
				Type:   model.Association,
				Label:  ref.attribute,
			})
		}
	}
}

// resolveClass matches a textual reference against known classes: exact
// name first, then the last dotted segment.
func resolveClass(d *model.ClassDiagram, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if _, ok := d.FindClass(ref); ok {
		return ref, true
	}
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		short := ref[i+1:]
		if _, ok := d.FindClass(short); ok {
			return short, true
		}
	}
	return "", false
}

// annotationNames splits an annotation like "Optional[list[models.User]]"
// into dotted identifiers, in order and without repeats.
func annotationNames(annotation string) []string {
	if annotation == "" {
		return nil
	}
	fields := strings.FieldsFunc(annotation, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.')
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func diagramName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "diagram"
	}
	return base
}
