package generator

import (
	"fmt"
	"path/filepath"
	"strings"

	"pyuml/internal/core/config"
	"pyuml/internal/core/errors"
	"pyuml/internal/core/ports"
	"pyuml/internal/engine/model"
)

const classMarker = "skinparam classAttributeIconSize 0"

type ClassGenerator struct {
	core
}

func NewClassGenerator(fs ports.FileSystem, manifests ports.ManifestStore, settings config.GeneratorSettings) *ClassGenerator {
	g := &ClassGenerator{}
	g.core = core{kind: model.KindClass, settings: settings, fs: fs, manifests: manifests, render: g.Render}
	return g
}

type classGroup struct {
	name    string
	classes []*model.Class
}

// Render emits classes grouped into packages by their file's parent
// directory. Grouping only applies when classes span more than one
// directory; otherwise every class is standalone.
func (g *ClassGenerator) Render(d model.Diagram) (string, error) {
	if err := g.checkKind(d); err != nil {
		return "", err
	}
	cd, ok := d.(*model.ClassDiagram)
	if !ok {
		return "", errors.NewGeneratorError(fmt.Sprintf("unexpected model %T", d), nil)
	}
	s := g.settings

	var b strings.Builder
	writeHeader(&b, classMarker, s, cd.Name())
	writeDirection(&b, s.Direction)
	b.WriteString("hide empty members\n\n")

	groups := groupByDirectory(cd.Files)
	if len(groups) > 1 {
		for _, grp := range groups {
			if grp.name == "" {
				for _, c := range grp.classes {
					g.writeClass(&b, c, "")
				}
				continue
			}
			fmt.Fprintf(&b, "package \"%s\" {\n", escapePlantUML(grp.name))
			for _, c := range grp.classes {
				g.writeClass(&b, c, "  ")
			}
			b.WriteString("}\n")
		}
	} else {
		for _, c := range cd.Classes() {
			g.writeClass(&b, c, "")
		}
	}

	if s.ShowFunctions {
		for _, f := range cd.Files {
			g.writeFunctions(&b, f)
		}
	}

	if len(cd.Relationships) > 0 {
		b.WriteString("\n")
	}
	for _, pass := range []bool{true, false} {
		for _, r := range cd.Relationships {
			if (r.Type == model.Inheritance) != pass {
				continue
			}
			line := fmt.Sprintf("%s %s %s", r.Source, r.Type, r.Target)
			if r.Label != "" {
				line += " : " + escapePlantUML(r.Label)
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("@enduml\n")
	return b.String(), nil
}

func groupByDirectory(files []*model.File) []classGroup {
	var groups []classGroup
	index := make(map[string]int)
	for _, f := range files {
		if len(f.Classes) == 0 {
			continue
		}
		name := filepath.Base(filepath.Dir(f.Path))
		if name == "." || name == string(filepath.Separator) {
			name = ""
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, classGroup{name: name})
		}
		groups[i].classes = append(groups[i].classes, f.Classes...)
	}
	return groups
}

func (g *ClassGenerator) writeClass(b *strings.Builder, c *model.Class, indent string) {
	head := indent + "class " + c.Name
	for _, st := range c.Stereotypes() {
		head += " <<" + st + ">>"
	}

	var attrs, methods []string
	if g.settings.ShowAttributes {
		for _, a := range c.Attributes {
			attrs = append(attrs, formatAttribute(a))
		}
	}
	if g.settings.ShowMethods {
		for _, m := range c.Methods {
			methods = append(methods, formatMethod(m))
		}
	}
	if len(attrs) == 0 && len(methods) == 0 {
		b.WriteString(head + "\n")
		return
	}

	b.WriteString(head + " {\n")
	for _, line := range attrs {
		b.WriteString(indent + "  " + line + "\n")
	}
	if len(attrs) > 0 && len(methods) > 0 {
		b.WriteString(indent + "  --\n")
	}
	for _, line := range methods {
		b.WriteString(indent + "  " + line + "\n")
	}
	b.WriteString(indent + "}\n")
}

func (g *ClassGenerator) writeFunctions(b *strings.Builder, f *model.File) {
	if len(f.Functions) == 0 {
		return
	}
	module := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	fmt.Fprintf(b, "class \"%s\" as %s <<module>> {\n", escapePlantUML(module), sanitizePlantUMLAlias(module+"_module"))
	for _, fn := range f.Functions {
		line := "+ "
		if fn.IsAsync {
			line += "async "
		}
		line += fn.Name + "(" + formatParameters(fn.Parameters, false) + ")"
		if fn.ReturnType != "" {
			line += " : " + fn.ReturnType
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("}\n")
}

func formatAttribute(a model.Attribute) string {
	typ := a.TypeAnnotation
	if typ == "" {
		typ = model.DefaultTypeAnnotation
	}
	line := fmt.Sprintf("%s %s : %s", a.Visibility, a.Name, typ)
	if a.DefaultValue != "" {
		line += " = " + a.DefaultValue
	}
	return line
}

func formatMethod(m model.Method) string {
	var mods string
	if m.IsStatic {
		mods += "{static} "
	}
	if m.IsAbstract {
		mods += "{abstract} "
	}
	if m.IsAsync {
		mods += "async "
	}
	line := fmt.Sprintf("%s %s%s(%s)", m.Visibility, mods, m.Name, formatParameters(m.Parameters, !m.IsStatic))
	if m.ReturnType != "" {
		line += " : " + m.ReturnType
	}
	return line
}

// formatParameters renders a parameter list. With dropReceiver a leading
// self or cls is omitted.
func formatParameters(params []model.Parameter, dropReceiver bool) string {
	if dropReceiver && len(params) > 0 && (params[0].Name == "self" || params[0].Name == "cls") {
		params = params[1:]
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		name := p.Name
		switch p.Kind {
		case model.ParamVarArgs:
			name = "*" + name
		case model.ParamKwArgs:
			name = "**" + name
		}
		if p.TypeAnnotation != "" {
			name += ": " + p.TypeAnnotation
		}
		if p.DefaultValue != "" {
			name += " = " + p.DefaultValue
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
