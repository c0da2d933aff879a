package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nilang-go/nilangc/compiler"
	"github.com/nilang-go/nilangc/internal/config"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	debugBuild bool
	flavourArg string
)

var buildCmd = &cobra.Command{
	Use:   "build <file>.nil",
	Short: "Compile a source file to GNU AT&T x86-64 assembly",
	Long: `build runs the full pipeline - tokenizer, parser, transformer,
code generator - over <file>.nil and writes the resulting .s file.

Examples:
  nilangc build program.nil
  nilangc build program.nil -o out.s
  nilangc build program.nil --flavour gnu64 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output assembly file (default: input with .s suffix)")
	buildCmd.Flags().BoolVar(&debugBuild, "debug", false, "prefix the emitted assembly with a debug-build header comment")
	buildCmd.Flags().StringVar(&flavourArg, "flavour", config.Default.Flavour, "assembly flavour to emit (only gnu64 is implemented)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if flavourArg != config.Default.Flavour {
		return fmt.Errorf("unsupported flavour %q: only %q is implemented", flavourArg, config.Default.Flavour)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	path := args[0]

	start := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "read %s (%d bytes)\n", path, len(source))
	}

	out := outputPath
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + config.Default.OutputSuffix
	}

	asm, compileErr := compiler.New(string(source), path).Compile()
	if compileErr != nil {
		fmt.Fprintln(os.Stderr, compileErr.FormatWithContext(3, isTerminal(os.Stderr)))
		return fmt.Errorf("compilation failed")
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "compiled %s in %s\n", path, time.Since(start))
	}

	if debugBuild {
		asm = fmt.Sprintf("# nilangc debug build of %s\n", path) + asm
	}

	if err := os.WriteFile(out, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}
	return nil
}

// isTerminal reports whether f looks like an interactive character
// device, the stdlib-only heuristic the compiler uses to decide whether
// to emit ANSI color in its error output; no pack example wires a
// dedicated isatty dependency for this.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
