// Package cmd implements nilangc's cobra command tree: build, tokens,
// and ir, sharing a persistent --verbose flag.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, overridable via -ldflags at release-build time.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nilangc",
	Short: "Compiler for the nilang source language",
	Long: `nilangc lowers a small statically-typed imperative source language
to GNU AT&T x86-64 assembly, via a tokenizer, a recursive-descent
parser, an IR-flattening transformer, and a register-allocating
code generator.`,
	Version: Version,
}

// Execute runs the root command, returning any error from the selected
// subcommand for main to report and exit on.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print stage timing and progress to stderr")
}
