// Package compiler glues the tokenizer, parser, transformer, and
// codegen stages into the single-shot batch pipeline the CLI drives:
// source text in, assembly text out, aborting on the first error.
package compiler

import (
	"sort"

	"github.com/nilang-go/nilangc/ast"
	"github.com/nilang-go/nilangc/codegen"
	"github.com/nilang-go/nilangc/compileerr"
	"github.com/nilang-go/nilangc/ir"
	"github.com/nilang-go/nilangc/parser"
	"github.com/nilang-go/nilangc/token"
	"github.com/nilang-go/nilangc/transformer"
	"github.com/nilang-go/nilangc/types"
)

// Compiler holds the state threaded through one compilation: the
// source text and file name used to locate every error it can emit.
type Compiler struct {
	source string
	file   string
}

// New returns a Compiler for the given source text. file is used only
// for error messages; empty is fine for in-memory snippets.
func New(source, file string) *Compiler {
	return &Compiler{source: source, file: file}
}

// Compile runs the full pipeline and returns the generated GNU AT&T
// assembly text, or the first CompilerError encountered.
func (c *Compiler) Compile() (string, *compileerr.CompilerError) {
	program, err := parser.Parse(c.source, c.file)
	if err != nil {
		return "", err
	}

	functions := types.NewFunctionsRef()
	structures := types.NewStructuresRef()

	for _, decl := range program.Structures {
		structures.Declare(decl)
	}
	for name, decl := range program.Functions {
		functions.Declare(name, types.FunctionSignature{
			ReturnType: decl.ReturnType,
			Parameters: decl.Parameters,
		})
	}

	data := ir.NewDataPool()
	bodies, err := c.lowerFunctions(program, functions, structures, data)
	if err != nil {
		return "", err
	}

	gen := codegen.New()
	out, genErr := gen.Program(bodies, data)
	if genErr != nil {
		// Codegen errors (an unreserved temporary, a location already
		// taken) surface from the memory manager with no AST node to
		// anchor a location to; they indicate a transformer defect,
		// not a source-level mistake, so no context window is shown.
		return "", compileerr.New(compileerr.VariableDoesNotExist, genErr.Error(), token.Location{}, c.source, c.file)
	}
	return out, nil
}

// lowerFunctions transforms every declared function into its IR
// instruction stream, in a deterministic (sorted) name order so the
// emitted assembly and snapshot tests are stable across runs.
func (c *Compiler) lowerFunctions(program *ast.Program, functions *types.FunctionsRef, structures *types.StructuresRef, data *ir.DataPool) ([]codegen.FunctionBody, *compileerr.CompilerError) {
	var bodies []codegen.FunctionBody

	for _, name := range orderedNames(program) {
		fn := program.Functions[name]

		ctx := &transformer.Context{
			Functions:  functions,
			Structures: structures,
			Data:       data,
			Source:     c.source,
			File:       c.file,
		}

		instrs, err := transformer.Function(ctx, fn)
		if err != nil {
			return nil, err
		}

		bodies = append(bodies, codegen.FunctionBody{Name: name, Body: instrs})
	}

	return bodies, nil
}

func orderedNames(program *ast.Program) []string {
	names := make([]string, 0, len(program.Functions))
	for name := range program.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
