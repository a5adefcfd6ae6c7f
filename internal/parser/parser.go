package parser

import (
	"errors"

	"martianoff/cshape/cshapeerr"
	"martianoff/cshape/internal/frontend"

	jsparser "github.com/dop251/goja/parser"
)

type JSParser struct {
}

func NewJSParser() *JSParser {
	return &JSParser{}
}

// Parse parses JavaScript source and lowers it into a front-end program.
// Syntax errors come back as a *cshapeerr.MultiError of *cshapeerr.SyntaxError.
func (p *JSParser) Parse(filename, input string) (*frontend.Program, error) {
	prog, err := jsparser.ParseFile(nil, filename, input, jsparser.IgnoreRegExpErrors, jsparser.WithDisableSourceMaps)
	if err != nil {
		return nil, syntaxErrors(filename, err)
	}
	return frontend.Build(prog), nil
}

func syntaxErrors(filename string, err error) error {
	var list jsparser.ErrorList
	if errors.As(err, &list) {
		errs := make([]error, 0, len(list))
		for _, e := range list {
			errs = append(errs, cshapeerr.NewSyntaxErrorInFile(filename, e.Position.Line, e.Position.Column, e.Message))
		}
		return &cshapeerr.MultiError{Errors: errs}
	}
	var single *jsparser.Error
	if errors.As(err, &single) {
		return &cshapeerr.MultiError{Errors: []error{
			cshapeerr.NewSyntaxErrorInFile(filename, single.Position.Line, single.Position.Column, single.Message),
		}}
	}
	return &cshapeerr.MultiError{Errors: []error{cshapeerr.NewSyntaxErrorInFile(filename, 0, 0, err.Error())}}
}
