package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/nilang-go/nilangc/ir"
	"github.com/nilang-go/nilangc/parser"
	"github.com/nilang-go/nilangc/transformer"
	"github.com/nilang-go/nilangc/types"
	"github.com/spf13/cobra"
)

var irCmd = &cobra.Command{
	Use:   "ir <file>.nil",
	Short: "Dump the lowered IR instruction stream per function",
	Long: `ir runs the pipeline through the transformer stage (tokenizer,
parser, transformer) and prints each function's flattened instruction
stream - a debugging aid over the stage codegen consumes.`,
	Args: cobra.ExactArgs(1),
	RunE: runIR,
}

func init() {
	rootCmd.AddCommand(irCmd)
}

func runIR(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	program, compileErr := parser.Parse(string(source), path)
	if compileErr != nil {
		fmt.Fprintln(os.Stderr, compileErr.FormatWithContext(3, false))
		return fmt.Errorf("parsing failed")
	}

	functions := types.NewFunctionsRef()
	structures := types.NewStructuresRef()
	for _, decl := range program.Structures {
		structures.Declare(decl)
	}
	for name, decl := range program.Functions {
		functions.Declare(name, types.FunctionSignature{ReturnType: decl.ReturnType, Parameters: decl.Parameters})
	}

	names := make([]string, 0, len(program.Functions))
	for name := range program.Functions {
		names = append(names, name)
	}
	sort.Strings(names)

	data := ir.NewDataPool()
	for _, name := range names {
		fn := program.Functions[name]
		ctx := &transformer.Context{Functions: functions, Structures: structures, Data: data, Source: string(source), File: path}

		instrs, err := transformer.Function(ctx, fn)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.FormatWithContext(3, false))
			return fmt.Errorf("lowering failed")
		}

		fmt.Printf("fn %s:\n", name)
		for _, instr := range instrs {
			fmt.Printf("  %+v\n", instr)
		}
	}
	return nil
}
