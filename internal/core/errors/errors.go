package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"

	// Pipeline taxonomy.
	CodeParser      ErrorCode = "PARSER_ERROR"
	CodeSyntax      ErrorCode = "SYNTAX_ERROR"
	CodeGenerator   ErrorCode = "GENERATOR_ERROR"
	CodeDiagramType ErrorCode = "DIAGRAM_TYPE_ERROR"
	CodeFileSystem  ErrorCode = "FILE_SYSTEM_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxKind      = "kind"
	CtxLine      = "line"
	CtxSymbol    = "symbol"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value to the outermost DomainError in err's chain.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

func NewParserError(msg string, cause error) error {
	return &DomainError{Code: CodeParser, Message: msg, Err: cause}
}

func NewSyntaxError(path string, line int, cause error) error {
	e := &DomainError{Code: CodeSyntax, Message: "invalid python syntax", Err: cause}
	e.WithContext(CtxPath, path)
	if line > 0 {
		e.WithContext(CtxLine, line)
	}
	return e
}

func NewGeneratorError(msg string, cause error) error {
	return &DomainError{Code: CodeGenerator, Message: msg, Err: cause}
}

func NewDiagramTypeError(tag string) error {
	e := &DomainError{Code: CodeDiagramType, Message: fmt.Sprintf("unsupported diagram type %q", tag)}
	e.WithContext(CtxKind, tag)
	return e
}

func NewFileSystemError(op, path string, cause error) error {
	e := &DomainError{Code: CodeFileSystem, Message: op + " failed", Err: cause}
	e.WithContext(CtxPath, path)
	e.WithContext(CtxOperation, op)
	return e
}

func IsParserError(err error) bool      { return IsCode(err, CodeParser) }
func IsSyntaxError(err error) bool      { return IsCode(err, CodeSyntax) }
func IsGeneratorError(err error) bool   { return IsCode(err, CodeGenerator) }
func IsDiagramTypeError(err error) bool { return IsCode(err, CodeDiagramType) }
func IsFileSystemError(err error) bool  { return IsCode(err, CodeFileSystem) }
