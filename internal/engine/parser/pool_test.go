// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"
)

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Leased())
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(PythonLanguage())
	pool.Put(nil)
	if pool.Leased() != 0 {
		t.Fatalf("Put(nil) must not change the lease count, got %d", pool.Leased())
	}
}

func TestParserPool_ParsesValidPython(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("def f():\n    return 1\n"), nil)
	if tree == nil {
		t.Fatal("expected a tree")
	}
	defer tree.Close()
	if tree.RootNode().HasError() {
		t.Fatal("expected valid python to parse without errors")
	}
}

func TestParserPool_Concurrent(t *testing.T) {
	p := NewParser()
	src := []byte("class A:\n    def m(self):\n        self.n()\n")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			file, err := p.ParseFile("a.py", src)
			if err != nil {
				errs <- err
				return
			}
			if len(file.Classes) != 1 {
				t.Errorf("expected 1 class, got %d", len(file.Classes))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if p.pool.Leased() != 0 {
		t.Fatalf("expected all parsers returned, got %d leased", p.pool.Leased())
	}
}
