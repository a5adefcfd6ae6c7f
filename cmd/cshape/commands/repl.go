package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"martianoff/cshape/internal/config"
	"martianoff/cshape/internal/transpiler"
	"martianoff/cshape/internal/transpiler/generator"
	"martianoff/cshape/internal/transpiler/infer"
)

const historyFile = ".cshape_history"

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shape inference",
	Long: `Read JavaScript line by line. An empty line runs inference over
everything entered since the last :reset and prints the declarations.

Commands:
  :reset   forget the buffered program
  :show    print the buffered program
  :quit    exit`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

// session accumulates source lines between inference runs.
type session struct {
	tr     *transpiler.ShapeTranspiler
	lines  []string
	out    io.Writer
	errOut io.Writer
}

func newSession(cfg *config.Config, out, errOut io.Writer) *session {
	return &session{
		tr: transpiler.NewShapeTranspiler(
			transpiler.NewJSParser(),
			infer.NewEngineInferrer(cfg.Options(), false),
			generator.NewReportGenerator("text"),
		),
		out:    out,
		errOut: errOut,
	}
}

// handle processes one input line and reports whether the session goes on.
func (s *session) handle(line string) bool {
	switch strings.TrimSpace(line) {
	case ":quit":
		return false
	case ":reset":
		s.lines = nil
		return true
	case ":show":
		for _, l := range s.lines {
			fmt.Fprintln(s.out, l)
		}
		return true
	case "":
		s.run()
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(line), ":") {
		fmt.Fprintln(s.out, "unknown command. Type :quit to exit.")
		return true
	}
	s.lines = append(s.lines, line)
	return true
}

func (s *session) run() {
	if len(s.lines) == 0 {
		return
	}
	out, err := s.tr.Transpile("<repl>", strings.Join(s.lines, "\n"))
	if err != nil {
		fmt.Fprintln(s.errOut, err)
		return
	}
	fmt.Fprint(s.out, out)
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	s := newSession(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(s.out, "cshape %s. Empty line infers, :quit exits.\n", Version)
	for {
		prompt := "js> "
		if len(s.lines) > 0 {
			prompt = "... "
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if !s.handle(line) {
			return nil
		}
	}
}
