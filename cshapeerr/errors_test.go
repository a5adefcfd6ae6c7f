package cshapeerr_test

import (
	"errors"
	"strings"
	"testing"

	"martianoff/cshape/cshapeerr"

	"github.com/stretchr/testify/assert"
)

func TestSyntaxError(t *testing.T) {
	err := cshapeerr.NewSyntaxError(10, 5, "unexpected token")
	assert.Equal(t, cshapeerr.TypeSyntax, err.Type())
	assert.Equal(t, 10, err.Line)
	assert.Equal(t, 5, err.Column)
	assert.Equal(t, "[SyntaxError] line 10:5 unexpected token", err.Error())
}

func TestSyntaxErrorInFile(t *testing.T) {
	err := cshapeerr.NewSyntaxErrorInFile("main.js", 3, 7, "unexpected token")
	assert.Equal(t, "[SyntaxError] main.js:3:7 unexpected token", err.Error())
}

func TestSemanticError(t *testing.T) {
	err := cshapeerr.NewSemanticError("unsupported binding pattern")
	assert.Equal(t, cshapeerr.TypeSemantic, err.Type())
	assert.Equal(t, 0, err.Line)
	assert.Equal(t, "[SemanticError] unsupported binding pattern", err.Error())
}

func TestSemanticErrorInFile(t *testing.T) {
	err := cshapeerr.NewSemanticErrorInFile("main.js", 10, 5, "unsupported binding pattern")
	assert.Equal(t, cshapeerr.TypeSemantic, err.Type())
	assert.Equal(t, "main.js", err.FilePath)
	assert.Equal(t, "[SemanticError] main.js:10:5 unsupported binding pattern", err.Error())
}

func TestInternalError(t *testing.T) {
	err := cshapeerr.NewInternalError("cannot render %T", 42)
	assert.Equal(t, cshapeerr.TypeInternal, err.Type())
	assert.Equal(t, "[InternalError] cannot render int", err.Error())
}

func TestMultiError(t *testing.T) {
	e1 := cshapeerr.NewSyntaxError(1, 1, "error 1")
	e2 := cshapeerr.NewSyntaxError(2, 2, "error 2")
	multi := &cshapeerr.MultiError{Errors: []error{e1, e2}}

	assert.Equal(t, cshapeerr.TypeSyntax, multi.Type())
	errMsg := multi.Error()
	assert.Contains(t, errMsg, "2 error(s) occurred:")
	assert.Contains(t, errMsg, "- [SyntaxError] line 1:1 error 1")
	assert.Contains(t, errMsg, "- [SyntaxError] line 2:2 error 2")

	var syn *cshapeerr.SyntaxError
	assert.True(t, errors.As(multi, &syn))
	assert.Equal(t, 1, syn.Line)
}

func TestMultiErrorEmpty(t *testing.T) {
	multi := &cshapeerr.MultiError{Errors: []error{}}
	assert.Equal(t, cshapeerr.ErrorType("MultiError"), multi.Type())
	assert.True(t, strings.HasPrefix(multi.Error(), "0 error(s) occurred:"))
}
