package transpiler

import (
	"martianoff/cshape/internal/frontend"
	"martianoff/cshape/internal/inference"
)

// SourceParser parses and lowers one source file.
type SourceParser interface {
	Parse(filename, input string) (*frontend.Program, error)
}

// ShapeInferrer resolves the static shapes of a lowered program.
type ShapeInferrer interface {
	Infer(prog *frontend.Program) (*inference.Result, error)
}

// CodeGenerator renders an inference result.
type CodeGenerator interface {
	Generate(prog *frontend.Program, res *inference.Result) (string, error)
}

// Transpiler defines the high-level interface from source text to rendered
// declarations.
type Transpiler interface {
	Transpile(filename, input string) (string, error)
}

// ShapeTranspiler orchestrates parsing, inference and rendering.
type ShapeTranspiler struct {
	parser    SourceParser
	inferrer  ShapeInferrer
	generator CodeGenerator
}

// NewShapeTranspiler creates a new instance of ShapeTranspiler with its dependencies.
func NewShapeTranspiler(
	parser SourceParser,
	inferrer ShapeInferrer,
	generator CodeGenerator,
) *ShapeTranspiler {
	return &ShapeTranspiler{
		parser:    parser,
		inferrer:  inferrer,
		generator: generator,
	}
}

// Analyze runs the pipeline up to inference.
func (t *ShapeTranspiler) Analyze(filename, input string) (*frontend.Program, *inference.Result, error) {
	prog, err := t.parser.Parse(filename, input)
	if err != nil {
		return nil, nil, err
	}

	res, err := t.inferrer.Infer(prog)
	if err != nil {
		return prog, res, err
	}
	return prog, res, nil
}

// Transpile executes the full pipeline.
func (t *ShapeTranspiler) Transpile(filename, input string) (string, error) {
	prog, res, err := t.Analyze(filename, input)
	if err != nil {
		return "", err
	}

	return t.generator.Generate(prog, res)
}

var _ Transpiler = (*ShapeTranspiler)(nil)
