package flavour

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func regParam(name string) Param  { return Param{Kind: ParamRegister, Register: name} }
func numParam(n float64) Param    { return Param{Kind: ParamNumber, Number: n} }
func memParam(offset int) Param   { return Param{Kind: ParamMemory, Offset: offset} }
func labelParam(name string) Param { return Param{Kind: ParamLabel, Name: name} }

func TestRenderMoveSourceBeforeDestination(t *testing.T) {
	f := AtAndT{}
	line := f.Render(Instruction{Op: Move, Params: []Param{regParam("rax"), numParam(42)}})
	assert.Equal(t, "movq $42, %rax", line)
}

func TestRenderMemoryOperandUsesRbpRelativeAddressingWithWordScaling(t *testing.T) {
	f := AtAndT{}
	line := f.Render(Instruction{Op: Move, Params: []Param{memParam(0), regParam("rax")}})
	assert.Equal(t, "movq %rax, -8(%rbp)", line)

	line = f.Render(Instruction{Op: Move, Params: []Param{memParam(2), regParam("rax")}})
	assert.Equal(t, "movq %rax, -24(%rbp)", line)
}

func TestRenderDivOnlyTakesDivisorOperand(t *testing.T) {
	f := AtAndT{}
	line := f.Render(Instruction{Op: Div, Params: []Param{regParam("rbx")}})
	assert.Equal(t, "idivq %rbx", line)
}

func TestRenderComparisonFamily(t *testing.T) {
	f := AtAndT{}

	cmp := f.Render(Instruction{Op: Cmp, Params: []Param{regParam("rax"), regParam("rbx")}})
	assert.Equal(t, "cmpq %rbx, %rax", cmp)

	cases := []struct {
		op   Op
		want string
	}{
		{SetEqual, "sete %al"},
		{SetNotEqual, "setne %al"},
		{SetLess, "setl %al"},
		{SetGreater, "setg %al"},
		{SetLessEqual, "setle %al"},
		{SetGreaterEqual, "setge %al"},
	}
	for _, tc := range cases {
		line := f.Render(Instruction{Op: tc.op, Params: []Param{regParam("rax")}})
		assert.Equal(t, tc.want, line)
	}
}

func TestRenderSetCCOnMemoryDestinationKeepsAddress(t *testing.T) {
	f := AtAndT{}
	line := f.Render(Instruction{Op: SetEqual, Params: []Param{memParam(1)}})
	assert.Equal(t, "sete -16(%rbp)", line)
}

func TestRenderCommentPadding(t *testing.T) {
	f := AtAndT{}
	line := f.Render(Instruction{Op: Label, Params: []Param{labelParam("label_0")}, Comment: "Create label `label_0`"})
	assert.True(t, strings.HasPrefix(line, "label_0:"))
	assert.Contains(t, line, "# Create label `label_0`")
}

func TestFunctionHeaderPrefixesLabelWithUnderscore(t *testing.T) {
	f := AtAndT{}
	lines := f.FunctionHeader("main")
	assert.Equal(t, []string{".globl _main", "_main:"}, lines)
}

func TestProgramScaffoldCallsUnderscoreMain(t *testing.T) {
	f := AtAndT{}
	lines := f.ProgramScaffold(nil)
	found := false
	for _, l := range lines {
		if strings.Contains(l, "call _main") {
			found = true
		}
	}
	assert.True(t, found, "the _start trampoline must call the underscore-prefixed entry point")
}

func TestIndentBodyPrefixesEveryLine(t *testing.T) {
	f := AtAndT{}
	lines := f.IndentBody([]Instruction{
		{Op: Move, Params: []Param{regParam("rax"), numParam(1)}},
		{Op: Jump, Params: []Param{labelParam("label_1")}},
	})
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "    "))
	}
}
