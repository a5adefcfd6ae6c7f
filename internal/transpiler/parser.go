package transpiler

import (
	"martianoff/cshape/internal/frontend"
	"martianoff/cshape/internal/parser"
)

type goJSParser struct {
	wrapper *parser.JSParser
}

// NewJSParser creates a new SourceParser implementation backed by goja.
func NewJSParser() SourceParser {
	return &goJSParser{
		wrapper: parser.NewJSParser(),
	}
}

// Parse implements the SourceParser interface.
func (p *goJSParser) Parse(filename, input string) (*frontend.Program, error) {
	return p.wrapper.Parse(filename, input)
}

// Ensure goJSParser implements SourceParser interface.
var _ SourceParser = (*goJSParser)(nil)
