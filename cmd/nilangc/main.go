// Command nilangc is the compiler's CLI entry point: build, tokens, and
// ir subcommands wired around the compiler/lexer/transformer packages.
package main

import (
	"fmt"
	"os"

	"github.com/nilang-go/nilangc/cmd/nilangc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
