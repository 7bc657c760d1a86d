// # internal/engine/parser/parser_test.go
package parser

import (
	"testing"

	"pyuml/internal/core/errors"
)

func TestPythonExtraction(t *testing.T) {
	p := NewParser()

	code := `
import os
import sys as system
from auth.utils import login as auth_login, logout
from . import local_mod
from ..parent import *

@dataclass
class Point(Base, mixins.Printable, Generic[T], metaclass=ABCMeta):
    x: int = 5
    y = Vector(0, 0)
    label: str

    def __init__(self, x: int, y=0, *args, **kwargs) -> None:
        self.repo.save(x)
        helper()

    @staticmethod
    def origin() -> "Point":
        return Point(0, 0)

    async def fetch(self):
        await self.client.get()
        def inner():
            self.hidden()

async def main(cfg: Config, retries: int = 3):
    svc = Service(cfg)
    svc.run()
`
	file, err := p.ParseFile("pkg/geometry.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}
	if file.Module != "geometry" {
		t.Errorf("expected module geometry, got %q", file.Module)
	}

	if len(file.Imports) != 5 {
		t.Fatalf("expected 5 imports, got %d: %+v", len(file.Imports), file.Imports)
	}
	if file.Imports[1].Module != "sys" || file.Imports[1].Alias != "system" {
		t.Errorf("unexpected aliased import: %+v", file.Imports[1])
	}
	if got := file.Imports[2].Items; len(got) != 2 || got[0] != "login" || got[1] != "logout" {
		t.Errorf("unexpected from-import items: %v", got)
	}
	if !file.Imports[3].IsRelative || file.Imports[3].Module != "" {
		t.Errorf("expected bare relative import, got %+v", file.Imports[3])
	}
	if !file.Imports[4].IsRelative || file.Imports[4].Module != "parent" || file.Imports[4].Items[0] != "*" {
		t.Errorf("unexpected wildcard relative import: %+v", file.Imports[4])
	}

	if len(file.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(file.Classes))
	}
	cls := file.Classes[0]
	if cls.Name != "Point" {
		t.Errorf("expected Point, got %s", cls.Name)
	}
	if len(cls.Bases) != 2 || cls.Bases[0] != "Base" || cls.Bases[1] != "mixins.Printable" {
		t.Errorf("expected identifier/attribute bases only, got %v", cls.Bases)
	}
	if cls.Metaclass != "ABCMeta" {
		t.Errorf("expected metaclass ABCMeta, got %q", cls.Metaclass)
	}
	if len(cls.Decorators) != 1 || cls.Decorators[0] != "dataclass" {
		t.Errorf("expected dataclass decorator, got %v", cls.Decorators)
	}

	if len(cls.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %+v", cls.Attributes)
	}
	if a := cls.Attributes[0]; a.Name != "x" || a.Annotation != "int" || a.Default != "5" {
		t.Errorf("unexpected attribute x: %+v", a)
	}
	if a := cls.Attributes[1]; a.Constructs != "Vector" || a.Annotation != "" {
		t.Errorf("expected y to construct Vector, got %+v", a)
	}
	if a := cls.Attributes[2]; a.Name != "label" || a.Default != "" {
		t.Errorf("unexpected annotation-only attribute: %+v", a)
	}

	if len(cls.Methods) != 3 {
		t.Fatalf("expected 3 methods, got %d", len(cls.Methods))
	}
	init := cls.Methods[0]
	if init.ReturnType != "None" {
		t.Errorf("expected return type None, got %q", init.ReturnType)
	}
	if len(init.Parameters) != 5 {
		t.Fatalf("expected 5 parameters, got %+v", init.Parameters)
	}
	if init.Parameters[1].Annotation != "int" || init.Parameters[2].Default != "0" {
		t.Errorf("unexpected parameters: %+v", init.Parameters)
	}
	if init.Parameters[3].Kind != ParamVarArgs || init.Parameters[3].Name != "args" {
		t.Errorf("expected *args, got %+v", init.Parameters[3])
	}
	if init.Parameters[4].Kind != ParamKwArgs || init.Parameters[4].Name != "kwargs" {
		t.Errorf("expected **kwargs, got %+v", init.Parameters[4])
	}
	if len(init.Calls) != 2 {
		t.Fatalf("expected 2 calls in __init__, got %+v", init.Calls)
	}
	if c := init.Calls[0]; c.Receiver != "self.repo" || c.Name != "save" {
		t.Errorf("unexpected receiver call: %+v", c)
	}
	if c := init.Calls[1]; c.Receiver != "" || c.Name != "helper" {
		t.Errorf("unexpected bare call: %+v", c)
	}

	origin := cls.Methods[1]
	if len(origin.Decorators) != 1 || origin.Decorators[0] != "staticmethod" {
		t.Errorf("expected staticmethod decorator, got %v", origin.Decorators)
	}
	if len(origin.Calls) != 1 || origin.Calls[0].Name != "Point" {
		t.Errorf("expected constructor call, got %+v", origin.Calls)
	}

	fetch := cls.Methods[2]
	if !fetch.IsAsync {
		t.Error("expected fetch to be async")
	}
	if len(fetch.Calls) != 1 {
		t.Fatalf("expected nested function calls to be excluded, got %+v", fetch.Calls)
	}
	if !fetch.Calls[0].Awaited || fetch.Calls[0].Receiver != "self.client" {
		t.Errorf("expected awaited call on self.client, got %+v", fetch.Calls[0])
	}

	if len(file.Functions) != 1 {
		t.Fatalf("expected 1 top-level function, got %d", len(file.Functions))
	}
	mainFn := file.Functions[0]
	if mainFn.Name != "main" || !mainFn.IsAsync {
		t.Errorf("unexpected function: %+v", mainFn)
	}
	if p := mainFn.Parameters[1]; p.Annotation != "int" || p.Default != "3" {
		t.Errorf("unexpected typed default parameter: %+v", p)
	}
	if len(mainFn.Calls) != 2 || mainFn.Calls[0].Name != "Service" || mainFn.Calls[1].Receiver != "svc" {
		t.Errorf("unexpected calls in main: %+v", mainFn.Calls)
	}
}

func TestParseFile_SyntaxError(t *testing.T) {
	p := NewParser()
	code := "class Broken:\n    def m(self):\n        return (\n"

	_, err := p.ParseFile("broken.py", []byte(code))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !errors.IsSyntaxError(err) {
		t.Fatalf("expected SYNTAX_ERROR, got %v", err)
	}
	if errors.IsParserError(err) {
		t.Fatal("syntax errors must stay distinguishable from parser errors")
	}
}

func TestParseFile_UnsupportedPath(t *testing.T) {
	p := NewParser()
	_, err := p.ParseFile("main.go", []byte("package main"))
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
}

func TestParseFile_NestedClassesIgnored(t *testing.T) {
	p := NewParser()
	code := `
class Outer:
    class Inner:
        pass

def factory():
    class Local:
        pass
    return Local()
`
	file, err := p.ParseFile("nested.py", []byte(code))
	if err != nil {
		t.Fatal(err)
	}
	if len(file.Classes) != 1 || file.Classes[0].Name != "Outer" {
		t.Fatalf("expected only Outer, got %+v", file.Classes)
	}
	if len(file.Functions) != 1 || file.Functions[0].Name != "factory" {
		t.Fatalf("expected only factory, got %+v", file.Functions)
	}
}

func TestModuleName(t *testing.T) {
	cases := []struct {
		root, path, want string
	}{
		{"/src", "/src/app/models.py", "app.models"},
		{"/src", "/src/app/__init__.py", "app"},
		{"/src", "/src/main.py", "main"},
		{"/other", "/src/main.py", "main"},
	}
	for _, tc := range cases {
		if got := ModuleName(tc.root, tc.path); got != tc.want {
			t.Errorf("ModuleName(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
		}
	}
}

func TestCachedParser(t *testing.T) {
	counting := &countingParser{inner: NewParser()}
	cached, err := NewCachedParser(counting.ParseFile, 4)
	if err != nil {
		t.Fatal(err)
	}

	src := []byte("class A:\n    pass\n")
	first, err := cached.ParseFile("a.py", src)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cached.ParseFile("a.py", src)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected cached result to be reused")
	}
	if counting.calls != 1 {
		t.Errorf("expected 1 underlying parse, got %d", counting.calls)
	}

	if _, err := cached.ParseFile("a.py", []byte("class B:\n    pass\n")); err != nil {
		t.Fatal(err)
	}
	if counting.calls != 2 {
		t.Errorf("expected changed content to miss the cache, got %d parses", counting.calls)
	}

	if _, err := cached.ParseFile("bad.py", []byte("def (:\n")); err == nil {
		t.Fatal("expected syntax error to pass through")
	}
	if cached.Len() != 2 {
		t.Errorf("expected errors not to be cached, len=%d", cached.Len())
	}
	if !cached.IsSupportedPath("pkg/a.py") || cached.IsSupportedPath("README.md") {
		t.Error("unexpected supported path result")
	}

	cached.Purge()
	if cached.Len() != 0 {
		t.Fatalf("expected empty cache after purge, len=%d", cached.Len())
	}
	if _, err := cached.ParseFile("a.py", src); err != nil {
		t.Fatal(err)
	}
	if counting.calls != 4 {
		t.Errorf("expected purge to force a reparse, got %d parses", counting.calls)
	}
}

type countingParser struct {
	inner *Parser
	calls int
}

func (c *countingParser) ParseFile(path string, content []byte) (*File, error) {
	c.calls++
	return c.inner.ParseFile(path, content)
}
