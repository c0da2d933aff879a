// Package codegen orchestrates the memory manager, calling convention,
// and assembly flavour printer into one per-function and whole-program
// assembly generator.
package codegen

import (
	"fmt"
	"strings"

	"github.com/nilang-go/nilangc/codegen/callingconv"
	"github.com/nilang-go/nilangc/codegen/flavour"
	"github.com/nilang-go/nilangc/codegen/memory"
	"github.com/nilang-go/nilangc/ir"
)

// FunctionBody pairs a function's name with its lowered instruction
// stream, the unit the generator turns into one assembly routine.
type FunctionBody struct {
	Name string
	Body []ir.Instruction
}

// Generator drives the System V AMD64 calling convention through
// a fresh memory.Manager per function, rendering the result with a
// GNU AT&T flavour printer.
type Generator struct {
	Flavour flavour.AtAndT
}

// New returns a Generator using the GNU AT&T flavour.
func New() *Generator {
	return &Generator{}
}

// Function renders one function's full assembly text: header,
// prologue, the body's lowered instructions, and epilogue. Each
// function gets its own fresh memory.Manager, since temporaries never
// outlive the function that declared them.
func (g *Generator) Function(fn FunctionBody) ([]string, error) {
	mm := memory.New()

	var instrs []flavour.Instruction
	for _, instr := range fn.Body {
		generated, err := callingconv.Generate(mm, instr)
		if err != nil {
			return nil, fmt.Errorf("function '%s': %w", fn.Name, err)
		}
		instrs = append(instrs, generated...)
	}

	var lines []string
	lines = append(lines, g.Flavour.FunctionHeader(fn.Name)...)
	lines = append(lines, g.Flavour.FunctionPrologue()...)
	lines = append(lines, g.Flavour.IndentBody(instrs)...)
	lines = append(lines, g.Flavour.FunctionEpilogue()...)
	return lines, nil
}

// Program renders the whole compilation unit: the `.data`/`_start`
// scaffold (carrying every interned string literal alongside the
// builtin print-format strings), followed by every function's
// generated body in the given order.
func (g *Generator) Program(functions []FunctionBody, data *ir.DataPool) (string, error) {
	extraData := make([]string, 0, len(data.Entries()))
	for _, entry := range data.Entries() {
		extraData = append(extraData, fmt.Sprintf("%s: .asciz %q", entry.Label, entry.Content))
	}

	lines := g.Flavour.ProgramScaffold(extraData)

	for _, fn := range functions {
		generated, err := g.Function(fn)
		if err != nil {
			return "", err
		}
		lines = append(lines, "")
		lines = append(lines, generated...)
	}

	return strings.Join(lines, "\n") + "\n", nil
}
