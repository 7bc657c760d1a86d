package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped cause to be reachable with errors.Is")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeNested", func(t *testing.T) {
		fsErr := NewFileSystemError("read", "a.py", errors.New("permission denied"))
		err := NewGeneratorError("write diagram", fsErr)
		if !IsGeneratorError(err) {
			t.Error("expected outer generator code")
		}
		if !IsFileSystemError(err) {
			t.Error("expected file system cause to be detected through the chain")
		}
		if IsParserError(err) {
			t.Error("did not expect parser code")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("batch item: %w", NewParserError("entry point missing", nil))
		if !IsParserError(err) {
			t.Error("expected parser code behind fmt wrapping")
		}
	})
}

func TestTaxonomyConstructors(t *testing.T) {
	err := NewDiagramTypeError("flowchart")
	if !IsDiagramTypeError(err) {
		t.Fatalf("expected diagram type error, got %v", err)
	}
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("expected DomainError")
	}
	if de.Context[CtxKind] != "flowchart" {
		t.Fatalf("expected kind context, got %v", de.Context)
	}

	syn := NewSyntaxError("broken.py", 3, nil)
	if !IsSyntaxError(syn) || IsParserError(syn) {
		t.Fatalf("syntax error must be distinct from parser error: %v", syn)
	}
	if !errors.As(syn, &de) || de.Context[CtxLine] != 3 {
		t.Fatalf("expected line context, got %v", syn)
	}
}

func TestAddContext(t *testing.T) {
	err := AddContext(New(CodeParser, "bad"), CtxPath, "x.py")
	var de *DomainError
	if !errors.As(err, &de) || de.Context[CtxPath] != "x.py" {
		t.Fatalf("expected context on domain error, got %v", err)
	}

	plain := AddContext(errors.New("plain"), CtxOperation, "scan")
	if !IsCode(plain, CodeInternal) {
		t.Fatalf("expected plain errors to be wrapped as internal, got %v", plain)
	}
}
