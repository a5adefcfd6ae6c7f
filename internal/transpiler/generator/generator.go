package generator

import (
	"bytes"

	"martianoff/cshape/internal/frontend"
	"martianoff/cshape/internal/inference"
	"martianoff/cshape/internal/report"
	"martianoff/cshape/internal/transpiler"
)

type reportGenerator struct {
	format string
}

// NewReportGenerator creates a new instance of CodeGenerator that renders
// reports in the given format: text, yaml or json.
func NewReportGenerator(format string) transpiler.CodeGenerator {
	return &reportGenerator{format: format}
}

// Generate implements the CodeGenerator interface.
func (g *reportGenerator) Generate(prog *frontend.Program, res *inference.Result) (string, error) {
	var buf bytes.Buffer
	if err := report.Write(&buf, g.format, report.Build(prog, res)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var _ transpiler.CodeGenerator = (*reportGenerator)(nil)
