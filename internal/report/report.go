// Package report renders an inference result for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja/file"
	"gopkg.in/yaml.v3"

	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"
	"martianoff/cshape/internal/inference"
)

// Source is the front-end view a report needs for names and positions.
type Source interface {
	Node(id frontend.NodeID) *frontend.Node
	Position(id frontend.NodeID) file.Position
	Filename() string
}

type Report struct {
	File        string     `yaml:"file" json:"file"`
	Records     []Record   `yaml:"records,omitempty" json:"records,omitempty"`
	Functions   []Function `yaml:"functions,omitempty" json:"functions,omitempty"`
	Variables   []Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
	Diagnostics []string   `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
	Iterations  int        `yaml:"iterations" json:"iterations"`
	Converged   bool       `yaml:"converged" json:"converged"`
}

type Field struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

type Record struct {
	Name   string  `yaml:"name" json:"name"`
	Fields []Field `yaml:"fields" json:"fields"`
}

type Function struct {
	Name      string  `yaml:"name" json:"name"`
	Line      int     `yaml:"line" json:"line"`
	Return    string  `yaml:"return" json:"return"`
	Params    []Field `yaml:"params,omitempty" json:"params,omitempty"`
	CallSites int     `yaml:"call_sites" json:"call_sites"`
}

type Variable struct {
	Name        string `yaml:"name" json:"name"`
	Line        int    `yaml:"line" json:"line"`
	Column      int    `yaml:"column" json:"column"`
	Type        string `yaml:"type" json:"type"`
	Declaration string `yaml:"declaration" json:"declaration"`
	Allocate    bool   `yaml:"allocate" json:"allocate"`
	Parameter   bool   `yaml:"parameter,omitempty" json:"parameter,omitempty"`
	Function    string `yaml:"function,omitempty" json:"function,omitempty"`
	References  int    `yaml:"references" json:"references"`
}

// Build flattens res into a report. Types are rendered with their final
// record names.
func Build(src Source, res *inference.Result) *Report {
	r := &Report{
		File:       src.Filename(),
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}
	for _, rec := range res.Records {
		out := Record{Name: rec.Name()}
		for _, p := range rec.Props {
			out.Fields = append(out.Fields, Field{Name: p.Name, Type: ctypes.Render(p.Type)})
		}
		r.Records = append(r.Records, out)
	}
	for _, f := range res.Functions {
		out := Function{
			Name:      functionName(src, f.Node, f.Name),
			Line:      src.Position(f.Node).Line,
			Return:    ctypes.Render(f.Return),
			CallSites: f.CallSites,
		}
		for _, p := range f.Params {
			out.Params = append(out.Params, Field{Name: p.Name, Type: ctypes.Render(p.Type)})
		}
		r.Functions = append(r.Functions, out)
	}
	for _, v := range res.Variables {
		pos := src.Position(v.Decl)
		out := Variable{
			Name:        v.Name,
			Line:        pos.Line,
			Column:      pos.Column,
			Type:        ctypes.Render(v.Type),
			Declaration: ctypes.Declare(v.Type, v.Name),
			Allocate:    v.NeedsAllocation,
			Parameter:   v.Param,
			References:  len(v.References),
		}
		if v.Param {
			if fn := src.Node(v.Func); fn != nil {
				out.Function = functionName(src, fn.ID, fn.Name)
			}
		}
		r.Variables = append(r.Variables, out)
	}
	for _, d := range res.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, d.String())
	}
	return r
}

// functionName names anonymous functions after the variable they initialize.
func functionName(src Source, id frontend.NodeID, name string) string {
	if name != "" {
		return name
	}
	if n := src.Node(id); n != nil {
		if parent := src.Node(n.Parent); parent != nil && parent.Kind == frontend.KindVarDecl && parent.Name != "" {
			return parent.Name
		}
	}
	return fmt.Sprintf("anonymous_%d", src.Position(id).Line)
}

// WriteText writes C-style declarations: record definitions, function
// prototypes, then every non-parameter variable.
func WriteText(w io.Writer, r *Report) error {
	var sb strings.Builder
	if r.File != "" {
		fmt.Fprintf(&sb, "/* %s */\n", r.File)
	}
	for _, rec := range r.Records {
		fmt.Fprintf(&sb, "\nstruct %s {\n", rec.Name)
		for _, f := range rec.Fields {
			fmt.Fprintf(&sb, "    %s;\n", declare(f.Type, f.Name))
		}
		sb.WriteString("};\n")
	}
	if len(r.Functions) > 0 {
		sb.WriteByte('\n')
	}
	for _, f := range r.Functions {
		params := make([]string, 0, len(f.Params))
		for _, p := range f.Params {
			params = append(params, declare(p.Type, p.Name))
		}
		if len(params) == 0 {
			params = append(params, "void")
		}
		fmt.Fprintf(&sb, "%s(%s);\n", declare(f.Return, f.Name), strings.Join(params, ", "))
	}
	first := true
	for _, v := range r.Variables {
		if v.Parameter {
			continue
		}
		if first {
			sb.WriteByte('\n')
			first = false
		}
		sb.WriteString(v.Declaration)
		sb.WriteByte(';')
		if v.Allocate {
			sb.WriteString(" /* heap */")
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// declare mirrors ctypes.Declare over already rendered type text.
func declare(typ, name string) string {
	switch {
	case strings.Contains(typ, "{var}"):
		return strings.ReplaceAll(typ, "{var}", name)
	case strings.HasSuffix(typ, "*"):
		return typ + name
	}
	return typ + " " + name
}

func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	return enc.Close()
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return nil
}

// Write dispatches on format: text, yaml or json.
func Write(w io.Writer, format string, r *Report) error {
	switch format {
	case "", "text":
		return WriteText(w, r)
	case "yaml":
		return WriteYAML(w, r)
	case "json":
		return WriteJSON(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}
