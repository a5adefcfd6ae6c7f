package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"martianoff/cshape/internal/config"
	"martianoff/cshape/internal/inference"
	"martianoff/cshape/internal/report"
	"martianoff/cshape/internal/transpiler"
	"martianoff/cshape/internal/transpiler/generator"
	"martianoff/cshape/internal/transpiler/infer"
)

var (
	inferInput   string
	inferOutput  string
	inferFormat  string
	inferConfig  string
	inferVerbose bool
	inferDump    bool
	inferStrict  bool
)

var inferCmd = &cobra.Command{
	Use:   "infer [file.js]",
	Short: "Infer static shapes of a JavaScript file",
	Long: `Infer static shapes of a JavaScript file and print them as C-style
declarations, YAML or JSON.

Settings are read from --config, else .cshape.yaml in the working directory.
CSHAPE_MAX_ITERATIONS overrides the iteration bound.

Examples:
  cshape infer main.js                  # Declarations to stdout
  cshape infer -i main.js -o main.h     # Declarations to a file
  cshape infer main.js -f json          # JSON report
  cshape infer main.js --strict         # Fail on unsupported constructs
  cshape -i main.js -f yaml             # Shorthand (same as infer)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfer,
}

func init() {
	addInferFlags(inferCmd)
}

func addInferFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inferInput, "input", "i", "", "Path to the input .js file")
	cmd.Flags().StringVarP(&inferOutput, "output", "o", "", "Path to the output file")
	cmd.Flags().StringVarP(&inferFormat, "format", "f", "text", "Report format: text, yaml or json")
	cmd.Flags().StringVarP(&inferConfig, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().BoolVarP(&inferVerbose, "verbose", "v", false, "Print diagnostics to stderr")
	cmd.Flags().BoolVar(&inferDump, "dump", false, "Dump the raw report to stderr")
	cmd.Flags().BoolVar(&inferStrict, "strict", false, "Treat inference warnings as errors")
}

// loadConfig merges the config file with flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(inferConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = inferFormat
	}
	if inferVerbose {
		cfg.Verbose = true
	}
	if inferDump {
		cfg.Dump = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInfer(cmd *cobra.Command, args []string) error {
	inputPath := inferInput
	if inputPath == "" && len(args) > 0 {
		inputPath = args[0]
	}
	if inputPath == "" {
		return fmt.Errorf("no input file specified\nUsage: cshape infer [file.js] or cshape -i file.js")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	// Create the pipeline
	g := generator.NewReportGenerator(cfg.Format)
	t := transpiler.NewShapeTranspiler(
		transpiler.NewJSParser(),
		infer.NewEngineInferrer(cfg.Options(), inferStrict),
		g,
	)

	prog, res, err := t.Analyze(inputPath, string(content))
	if res != nil && cfg.Verbose {
		printDiagnostics(cmd.ErrOrStderr(), res)
	}
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}
	if cfg.Dump {
		spew.Fdump(cmd.ErrOrStderr(), report.Build(prog, res))
	}

	out, err := g.Generate(prog, res)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if inferOutput == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(inferOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inferred shapes saved to %s\n", inferOutput)
	return nil
}

func printDiagnostics(w io.Writer, res *inference.Result) {
	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, d.String())
	}
	fmt.Fprintf(w, "%d iteration(s), converged: %t\n", res.Iterations, res.Converged)
}
