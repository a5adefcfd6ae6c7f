// Package commands provides the CLI commands for the cshape tool.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cshape [file.js]",
	Short: "Static shape inference for JavaScript",
	Long: `cshape infers fixed-layout static types for the variables, parameters
and return values of a JavaScript program: primitives, fixed and dynamic
arrays, dictionaries and deduplicated records.

Usage:
  cshape [file.js]                  Infer a file (shorthand)
  cshape -i file.js -o out.h        Infer with explicit input/output
  cshape infer [file.js] -f yaml    Infer explicitly
  cshape repl                       Interactive session
  cshape version                    Print version`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	// Run infer by default if a .js file is provided as argument
	RunE: func(cmd *cobra.Command, args []string) error {
		if inferInput != "" {
			return runInfer(cmd, args)
		}

		if len(args) > 0 && strings.HasSuffix(args[0], ".js") {
			return runInfer(cmd, args)
		}

		if len(args) == 0 {
			return cmd.Help()
		}

		return fmt.Errorf("unknown command %q for \"cshape\"\nRun 'cshape --help' for usage", args[0])
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)

	// Global flags that mirror infer flags for the shorthand form
	addInferFlags(rootCmd)
}
