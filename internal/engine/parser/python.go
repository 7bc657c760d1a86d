package parser

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type PythonExtractor struct {
	calls *ExtractorEngine
}

func NewPythonExtractor() *PythonExtractor {
	e := &PythonExtractor{}
	e.calls = NewExtractorEngine(map[string]NodeHandler{
		"call":                e.extractCall,
		"function_definition": stopWalk,
		"class_definition":    stopWalk,
		"lambda":              stopWalk,
	})
	return e
}

func stopWalk(*ExtractionContext, *sitter.Node) bool { return true }

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		ParsedAt: time.Now(),
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      e.extractImport,
		"import_from_statement": e.extractFromImport,
		"function_definition":   e.extractFunction,
		"class_definition":      e.extractClass,
	})
	engine.Walk(ctx, root)

	return file, nil
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			ctx.File.Imports = append(ctx.File.Imports, Import{
				Module:   ctx.Text(child),
				Location: ctx.Location(child),
			})
		case "aliased_import":
			ctx.File.Imports = append(ctx.File.Imports, Import{
				Module:   ctx.FieldText(child, "name"),
				Alias:    ctx.FieldText(child, "alias"),
				Location: ctx.Location(child),
			})
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	imp := Import{Location: ctx.Location(node)}

	if moduleNode := node.ChildByFieldName("module_name"); moduleNode != nil {
		text := ctx.Text(moduleNode)
		if moduleNode.Kind() == "relative_import" {
			imp.IsRelative = true
			text = strings.TrimLeft(text, ".")
		}
		imp.Module = text
	}

	seen := make(map[string]bool)
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.StartByte() < endOf(node.ChildByFieldName("module_name")) {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			imp.Items = appendUnique(imp.Items, seen, ctx.Text(child))
		case "aliased_import":
			imp.Items = appendUnique(imp.Items, seen, ctx.FieldText(child, "name"))
		case "wildcard_import":
			imp.Items = appendUnique(imp.Items, seen, "*")
		}
	}

	ctx.File.Imports = append(ctx.File.Imports, imp)
	return true
}

func endOf(node *sitter.Node) uint {
	if node == nil {
		return 0
	}
	return node.EndByte()
}

// extractFunction records a module-level function. Methods are handled by
// extractClass, so the walker never reaches them here.
func (e *PythonExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node) bool {
	if fn, ok := e.function(ctx, node); ok {
		ctx.File.Functions = append(ctx.File.Functions, fn)
	}
	return true
}

func (e *PythonExtractor) function(ctx *ExtractionContext, node *sitter.Node) (Function, bool) {
	name := ctx.FieldText(node, "name")
	if name == "" {
		return Function{}, false
	}

	fn := Function{
		Name:       name,
		Parameters: e.parameters(ctx, node.ChildByFieldName("parameters")),
		ReturnType: ctx.FieldText(node, "return_type"),
		Decorators: e.decorators(ctx, node),
		IsAsync:    isAsync(node),
		Location:   ctx.Location(node),
	}

	saved := ctx.Function
	ctx.Function = &fn
	e.calls.WalkChildren(ctx, node.ChildByFieldName("body"))
	ctx.Function = saved

	return fn, true
}

func isAsync(node *sitter.Node) bool {
	first := node.Child(0)
	return first != nil && first.Kind() == "async"
}

func (e *PythonExtractor) parameters(ctx *ExtractionContext, params *sitter.Node) []Parameter {
	if params == nil {
		return nil
	}
	var out []Parameter
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			out = append(out, Parameter{Name: ctx.Text(child)})
		case "list_splat_pattern":
			out = append(out, Parameter{Name: trimStars(ctx.Text(child)), Kind: ParamVarArgs})
		case "dictionary_splat_pattern":
			out = append(out, Parameter{Name: trimStars(ctx.Text(child)), Kind: ParamKwArgs})
		case "typed_parameter":
			p := Parameter{Annotation: ctx.FieldText(child, "type")}
			if inner := child.NamedChild(0); inner != nil {
				p.Name = trimStars(ctx.Text(inner))
				switch inner.Kind() {
				case "list_splat_pattern":
					p.Kind = ParamVarArgs
				case "dictionary_splat_pattern":
					p.Kind = ParamKwArgs
				}
			}
			out = append(out, p)
		case "default_parameter":
			out = append(out, Parameter{
				Name:    ctx.FieldText(child, "name"),
				Default: ctx.FieldText(child, "value"),
			})
		case "typed_default_parameter":
			out = append(out, Parameter{
				Name:       ctx.FieldText(child, "name"),
				Annotation: ctx.FieldText(child, "type"),
				Default:    ctx.FieldText(child, "value"),
			})
		}
	}
	return out
}

func (e *PythonExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node) bool {
	name := ctx.FieldText(node, "name")
	if name == "" {
		return true
	}

	class := Class{
		Name:       name,
		Decorators: e.decorators(ctx, node),
		Location:   ctx.Location(node),
	}
	e.superclasses(ctx, node.ChildByFieldName("superclasses"), &class)

	body := node.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			e.classMember(ctx, body.NamedChild(i), &class)
		}
	}

	ctx.File.Classes = append(ctx.File.Classes, class)
	return true
}

func (e *PythonExtractor) superclasses(ctx *ExtractionContext, args *sitter.Node, class *Class) {
	if args == nil {
		return
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		switch arg.Kind() {
		case "identifier", "attribute":
			class.Bases = append(class.Bases, ctx.CompactText(arg))
		case "keyword_argument":
			if ctx.FieldText(arg, "name") == "metaclass" {
				class.Metaclass = ctx.CompactText(arg.ChildByFieldName("value"))
			}
		}
	}
}

func (e *PythonExtractor) classMember(ctx *ExtractionContext, member *sitter.Node, class *Class) {
	switch member.Kind() {
	case "function_definition", "decorated_definition":
		def := definitionOf(member)
		if def == nil || def.Kind() != "function_definition" {
			return
		}
		if fn, ok := e.function(ctx, def); ok {
			class.Methods = append(class.Methods, fn)
		}
	case "expression_statement":
		assign := member.NamedChild(0)
		if assign == nil || assign.Kind() != "assignment" {
			return
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Kind() != "identifier" {
			return
		}
		attr := Attribute{
			Name:       ctx.Text(left),
			Annotation: ctx.FieldText(assign, "type"),
			Location:   ctx.Location(assign),
		}
		if right := assign.ChildByFieldName("right"); right != nil {
			attr.Default = strings.TrimSpace(ctx.Text(right))
			if right.Kind() == "call" {
				if fn := right.ChildByFieldName("function"); fn != nil && (fn.Kind() == "identifier" || fn.Kind() == "attribute") {
					attr.Constructs = ctx.CompactText(fn)
				}
			}
		}
		class.Attributes = append(class.Attributes, attr)
	}
}

func (e *PythonExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Function == nil {
		return false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	call := Call{Location: ctx.Location(node)}
	switch fn.Kind() {
	case "identifier":
		call.Name = ctx.Text(fn)
	case "attribute":
		call.Receiver = ctx.CompactText(fn.ChildByFieldName("object"))
		call.Name = ctx.FieldText(fn, "attribute")
	default:
		return false
	}
	if parent := node.Parent(); parent != nil && parent.Kind() == "await" {
		call.Awaited = true
	}
	ctx.Function.Calls = append(ctx.Function.Calls, call)
	return false
}

func (e *PythonExtractor) decorators(ctx *ExtractionContext, node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}

	decorators := make([]string, 0, parent.ChildCount())
	for i := uint(0); i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		if child.Kind() != "decorator" {
			continue
		}
		dec := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ctx.Text(child)), "@"))
		if dec == "" {
			continue
		}
		decorators = append(decorators, dec)
	}
	return decorators
}
