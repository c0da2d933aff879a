package transformer

import (
	"testing"

	"github.com/nilang-go/nilangc/compileerr"
	"github.com/nilang-go/nilangc/ir"
	"github.com/nilang-go/nilangc/parser"
	"github.com/nilang-go/nilangc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerMain(t *testing.T, source string) []ir.Instruction {
	t.Helper()

	program, err := parser.Parse(source, "test.nil")
	require.Nil(t, err, "%v", err)

	functions := types.NewFunctionsRef()
	structures := types.NewStructuresRef()
	for _, decl := range program.Structures {
		structures.Declare(decl)
	}
	for name, decl := range program.Functions {
		functions.Declare(name, types.FunctionSignature{ReturnType: decl.ReturnType, Parameters: decl.Parameters})
	}

	ctx := &Context{Functions: functions, Structures: structures, Data: ir.NewDataPool(), Source: source, File: "test.nil"}
	instrs, cerr := Function(ctx, program.Functions["main"])
	require.Nil(t, cerr, "%v", cerr)
	return instrs
}

func declaredTemps(instrs []ir.Instruction) []string {
	var out []string
	for _, instr := range instrs {
		if instr.Kind == ir.Declare {
			out = append(out, instr.Temp)
		}
	}
	return out
}

func TestFlatStructureLiteralDeclaresOneTempPerLeafField(t *testing.T) {
	instrs := lowerMain(t, `st Point { x: int, y: int }
		fn main(): int { vr p: Point = Point { x: 1, y: 2 }; rt p.x + p.y; }`)

	require.Contains(t, declaredTemps(instrs), "p.x")
	require.Contains(t, declaredTemps(instrs), "p.y")
}

func TestNestedStructureLiteralDeclaresOnlyLeafTempsNotTheCompositeField(t *testing.T) {
	instrs := lowerMain(t, `st Point { x: int, y: int }
		st Rect { start: Point, end: Point }
		fn main(): int {
			vr r: Rect = Rect { start: Point { x: 1, y: 2 }, end: Point { x: 3, y: 4 } };
			rt r.start.x + r.end.y;
		}`)

	temps := declaredTemps(instrs)

	require.Contains(t, temps, "r.start.x")
	require.Contains(t, temps, "r.start.y")
	require.Contains(t, temps, "r.end.x")
	require.Contains(t, temps, "r.end.y")

	require.NotContains(t, temps, "r.start", "the composite field itself should never get its own temp")
	require.NotContains(t, temps, "r.end", "the composite field itself should never get its own temp")
}

func TestObjectLiteralWithWrongFieldCountIsAnError(t *testing.T) {
	source := `st Point { x: int, y: int }
		fn main(): int { vr p: Point = Point { x: 1 }; rt 0; }`

	program, err := parser.Parse(source, "test.nil")
	require.Nil(t, err)

	functions := types.NewFunctionsRef()
	structures := types.NewStructuresRef()
	for _, decl := range program.Structures {
		structures.Declare(decl)
	}
	for name, decl := range program.Functions {
		functions.Declare(name, types.FunctionSignature{ReturnType: decl.ReturnType, Parameters: decl.Parameters})
	}

	ctx := &Context{Functions: functions, Structures: structures, Data: ir.NewDataPool(), Source: source, File: "test.nil"}
	_, cerr := Function(ctx, program.Functions["main"])
	require.NotNil(t, cerr)
	assert.Equal(t, compileerr.FieldsMismatch, cerr.Kind)
}
