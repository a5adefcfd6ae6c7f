// Package infer adapts the inference engine to the transpiler pipeline.
package infer

import (
	"martianoff/cshape/internal/frontend"
	"martianoff/cshape/internal/inference"
	"martianoff/cshape/internal/transpiler"
)

type engineInferrer struct {
	opts   inference.Options
	strict bool
}

// NewEngineInferrer creates a ShapeInferrer running a fresh engine per
// program. In strict mode warnings fail the stage.
func NewEngineInferrer(opts inference.Options, strict bool) transpiler.ShapeInferrer {
	return &engineInferrer{opts: opts, strict: strict}
}

// Infer implements the ShapeInferrer interface.
func (i *engineInferrer) Infer(prog *frontend.Program) (*inference.Result, error) {
	res := inference.Infer(prog, i.opts)
	if i.strict {
		if err := res.Err(); err != nil {
			return res, err
		}
	}
	return res, nil
}

var _ transpiler.ShapeInferrer = (*engineInferrer)(nil)
