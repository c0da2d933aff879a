package cmd

import (
	"fmt"
	"os"

	"github.com/nilang-go/nilangc/lexer"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>.nil",
	Short: "Dump the token stream for a source file",
	Long: `tokens runs only the lexer over <file>.nil and prints each token's
type, literal text, and source location - a debugging aid for the
tokenizer stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	toks, compileErr := lexer.All(string(source), path)
	if compileErr != nil {
		fmt.Fprintln(os.Stderr, compileErr.FormatWithContext(3, false))
		return fmt.Errorf("tokenizing failed")
	}

	for _, tok := range toks {
		fmt.Printf("%-14s %-20q @%d:%d\n", tok.Type, tok.Literal, tok.Location.LineStart+1, tok.Location.ColStart+1)
	}
	return nil
}
