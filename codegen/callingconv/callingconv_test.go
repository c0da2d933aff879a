package callingconv

import (
	"testing"

	"github.com/nilang-go/nilangc/codegen/flavour"
	"github.com/nilang-go/nilangc/codegen/memory"
	"github.com/nilang-go/nilangc/codegen/registers"
	"github.com/nilang-go/nilangc/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNthArgumentLocationUsesSystemVOrderThenStack(t *testing.T) {
	want := []registers.Register{registers.Rdi, registers.Rsi, registers.Rdx, registers.Rcx, registers.R8, registers.R9}
	for i, reg := range want {
		loc := NthArgumentLocation(i)
		require.Equal(t, memory.InRegister, loc.Kind)
		assert.Equal(t, reg, loc.Register)
	}

	spilled := NthArgumentLocation(6)
	assert.Equal(t, memory.OnStack, spilled.Kind)
	assert.Equal(t, 0, spilled.Slot)
}

func TestFunctionCallTargetMangling(t *testing.T) {
	assert.Equal(t, "printi", FunctionCallTarget("printi"))
	assert.Equal(t, "printc", FunctionCallTarget("printc"))
	assert.Equal(t, "print", FunctionCallTarget("print"))
	assert.Equal(t, "_add", FunctionCallTarget("add"))
	assert.Equal(t, "_main", FunctionCallTarget("main"))
}

func TestGenerateDeclareLoadAndReturn(t *testing.T) {
	mm := memory.New()

	_, err := Generate(mm, ir.DeclareOf("x"))
	require.NoError(t, err)

	instrs, err := Generate(mm, ir.LoadNumberOf("x", 42))
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, flavour.Move, instrs[0].Op)
	assert.Equal(t, flavour.ParamNumber, instrs[0].Params[1].Kind)
	assert.Equal(t, 42.0, instrs[0].Params[1].Number)

	instrs, err = Generate(mm, ir.ReturnVariableOf("x"))
	require.NoError(t, err)
	require.Len(t, instrs, 1)
	assert.Equal(t, flavour.Move, instrs[0].Op)
	assert.Equal(t, flavour.ParamRegister, instrs[0].Params[0].Kind)
	assert.Equal(t, "rax", instrs[0].Params[0].Register)
}

func TestTakeArgumentBindsWithoutEmittingInstructions(t *testing.T) {
	mm := memory.New()
	instrs, err := Generate(mm, ir.TakeArgumentOf(0, "a"))
	require.NoError(t, err)
	assert.Empty(t, instrs, "the value already lives in its ABI register before the callee starts")

	loc, ok := mm.GetLocation("a")
	require.True(t, ok)
	assert.Equal(t, registers.Rdi, loc.Register)
}

func TestArithmeticEmitsMoveThenOp(t *testing.T) {
	mm := memory.New()
	for _, n := range []string{"a", "b", "result"} {
		_, err := Generate(mm, ir.DeclareOf(n))
		require.NoError(t, err)
	}

	instrs, err := Generate(mm, ir.AddOf("result", "a", "b"))
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, flavour.Move, instrs[0].Op)
	assert.Equal(t, flavour.Add, instrs[1].Op)
}

func TestCompareZeroesResultThenCmpThenSetCC(t *testing.T) {
	mm := memory.New()
	for _, n := range []string{"a", "b", "result"} {
		_, err := Generate(mm, ir.DeclareOf(n))
		require.NoError(t, err)
	}

	instrs, err := Generate(mm, ir.CompareOf(ir.CompareLess, "result", "a", "b"))
	require.NoError(t, err)
	require.Len(t, instrs, 3)
	assert.Equal(t, flavour.Move, instrs[0].Op)
	assert.Equal(t, flavour.ParamNumber, instrs[0].Params[1].Kind)
	assert.Equal(t, 0.0, instrs[0].Params[1].Number)
	assert.Equal(t, flavour.Cmp, instrs[1].Op)
	assert.Equal(t, flavour.SetLess, instrs[2].Op)
	assert.Len(t, instrs[2].Params, 1, "setCC only takes its destination operand")
}

func TestDivModRoutesThroughRaxRdx(t *testing.T) {
	mm := memory.New()
	for _, n := range []string{"a", "b", "q", "r"} {
		_, err := Generate(mm, ir.DeclareOf(n))
		require.NoError(t, err)
	}

	instrs, err := Generate(mm, ir.DivOf("q", "a", "b"))
	require.NoError(t, err)

	var sawDiv bool
	for _, instr := range instrs {
		if instr.Op == flavour.Div {
			sawDiv = true
		}
	}
	assert.True(t, sawDiv, "division must lower through an idivq-shaped Div op")

	// The quotient must land back in q's own location, not rax itself,
	// once the sequence finishes.
	qLoc, err := mm.GetLocationOrErr("q")
	require.NoError(t, err)
	assert.NotEqual(t, registers.Rax, qLoc.Register, "q keeps its own slot; rax is scratch for the idivq dance")

	modInstrs, err := Generate(mm, ir.ModOf("r", "a", "b"))
	require.NoError(t, err)
	var sawRdxSource bool
	last := modInstrs[len(modInstrs)-1]
	if last.Op == flavour.Move && last.Params[1].Kind == flavour.ParamRegister && last.Params[1].Register == "rdx" {
		sawRdxSource = true
	}
	assert.True(t, sawRdxSource, "modulo's result must be moved out of rdx, the remainder register")
}

func TestGenerateFunctionCallShufflesArgumentsAndMovesResult(t *testing.T) {
	mm := memory.New()
	for _, n := range []string{"x", "y", "sum"} {
		_, err := Generate(mm, ir.DeclareOf(n))
		require.NoError(t, err)
	}

	instrs, err := GenerateFunctionCall(mm, "add", []string{"x", "y"}, "sum", true)
	require.NoError(t, err)

	var sawCall, sawResultMove bool
	for _, instr := range instrs {
		if instr.Op == flavour.Call {
			require.Equal(t, flavour.ParamFunction, instr.Params[0].Kind)
			assert.Equal(t, "_add", instr.Params[0].Name)
			sawCall = true
		}
	}
	last := instrs[len(instrs)-1]
	if last.Op == flavour.Move && last.Params[0].Kind == flavour.ParamRegister {
		sawResultMove = true
	}
	assert.True(t, sawCall)
	assert.True(t, sawResultMove)

	sumLoc, err := mm.GetLocationOrErr("sum")
	require.NoError(t, err)
	assert.NotEqual(t, memory.Location{}, sumLoc)
}

func TestAllocateInEvictsConflictingOccupant(t *testing.T) {
	mm := memory.New()

	// Force "a" to occupy rdi, the destination the argument shuffle needs.
	rdi := memory.Location{Kind: memory.InRegister, Register: registers.Rdi}
	require.NoError(t, mm.ReserveLocation("a", rdi))
	_, err := Generate(mm, ir.LoadNumberOf("a", 1))
	require.NoError(t, err)

	_, err = Generate(mm, ir.DeclareOf("arg"))
	require.NoError(t, err)
	_, err = Generate(mm, ir.LoadNumberOf("arg", 9))
	require.NoError(t, err)

	instrs, err := AllocateIn(mm, []string{"arg"}, []memory.Location{rdi})
	require.NoError(t, err)

	var sawSwap, sawMoveIntoRdi bool
	for _, instr := range instrs {
		if instr.Op == flavour.Swap {
			sawSwap = true
		}
		if instr.Op == flavour.Move && instr.Params[0].Kind == flavour.ParamRegister && instr.Params[0].Register == "rdi" {
			sawMoveIntoRdi = true
		}
	}
	assert.True(t, sawSwap, "evicting a's prior occupancy of rdi must swap it to a fresh scratch slot")
	assert.True(t, sawMoveIntoRdi, "arg's value must land in rdi after the eviction")

	aLoc, err := mm.GetLocationOrErr("a")
	require.NoError(t, err)
	assert.NotEqual(t, rdi, aLoc, "a must have moved off rdi")
}
