package cshapeerr

import (
	"fmt"
	"strings"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSyntax   ErrorType = "SyntaxError"
	TypeSemantic ErrorType = "SemanticError"
	TypeInternal ErrorType = "InternalError"
)

// CShapeError is the interface for all errors raised by the toolchain.
type CShapeError interface {
	error
	Type() ErrorType
}

// BaseError provides common fields for errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

// SyntaxError represents an error reported by the source parser.
type SyntaxError struct {
	BaseError
	Line     int
	Column   int
	FilePath string
}

func (e *SyntaxError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("[%s] %s:%d:%d %s", e.ErrType, e.FilePath, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.Msg)
}

// SemanticError represents a source construct the front-end refuses to lower.
type SemanticError struct {
	BaseError
	Line     int
	Column   int
	FilePath string
}

func (e *SemanticError) Error() string {
	if e.Line > 0 {
		if e.FilePath != "" {
			return fmt.Sprintf("[%s] %s:%d:%d %s", e.ErrType, e.FilePath, e.Line, e.Column, e.Msg)
		}
		return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

// InternalError marks a broken invariant inside the engine. It is raised with
// panic, never returned.
type InternalError struct {
	BaseError
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Type() ErrorType {
	if len(m.Errors) > 0 {
		if ce, ok := m.Errors[0].(CShapeError); ok {
			return ce.Type()
		}
	}
	return "MultiError"
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// NewSyntaxError creates a new SyntaxError.
func NewSyntaxError(line, column int, msg string) *SyntaxError {
	return &SyntaxError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSyntax,
		},
		Line:   line,
		Column: column,
	}
}

// NewSyntaxErrorInFile creates a SyntaxError carrying the source file name.
func NewSyntaxErrorInFile(filePath string, line, column int, msg string) *SyntaxError {
	err := NewSyntaxError(line, column, msg)
	err.FilePath = filePath
	return err
}

// NewSemanticError creates a new SemanticError.
func NewSemanticError(msg string) *SemanticError {
	return &SemanticError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSemantic,
		},
	}
}

// NewSemanticErrorInFile creates a SemanticError with file path, line, and column position.
func NewSemanticErrorInFile(filePath string, line, column int, msg string) *SemanticError {
	return &SemanticError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSemantic,
		},
		Line:     line,
		Column:   column,
		FilePath: filePath,
	}
}

// NewInternalError creates a new InternalError.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Msg:     fmt.Sprintf(format, args...),
			ErrType: TypeInternal,
		},
	}
}
