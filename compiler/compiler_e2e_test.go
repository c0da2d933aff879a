package compiler

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

// TestEndToEndScenarios runs the six worked scenarios and snapshots the
// emitted assembly text, so a change in codegen shape shows up as a
// reviewable diff instead of a silent behavioural change.
func TestEndToEndScenarios(t *testing.T) {
	scenarios := []struct {
		name   string
		source string
	}{
		{
			name:   "constant_return",
			source: "fn main(): int { rt 42; }",
		},
		{
			name:   "arithmetic_precedence",
			source: "fn main(): int { rt 2 + 3 * 4; }",
		},
		{
			name:   "parameter_passing",
			source: "fn add(a: int, b: int): int { rt a + b; } fn main(): int { rt add(7, 35); }",
		},
		{
			name:   "structure_flattening",
			source: "st P { x: int, y: int } fn main(): int { vr p: P = P { x: 10, y: 32 }; rt p.x + p.y; }",
		},
		{
			name:   "division_and_modulo",
			source: "fn main(): int { rt 100 / 7 + 100 % 7; }",
		},
		{
			name:   "conditional_control_flow",
			source: "fn main(): int { vr x: int = 3; if x == 3 { rt 1; } rt 0; }",
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			out, err := New(sc.source, sc.name+".nil").Compile()
			require.Nil(t, err, "unexpected compile error: %v", err)
			snaps.MatchSnapshot(t, sc.name, out)
		})
	}
}

func TestEndToEndScenarioShapes(t *testing.T) {
	t.Run("division_and_modulo uses idivq with a single divisor operand", func(t *testing.T) {
		out, err := New("fn main(): int { rt 100 / 7 + 100 % 7; }", "div.nil").Compile()
		require.Nil(t, err)
		require.Contains(t, out, "idivq")
		require.NotRegexp(t, `idivq[^#\n]*,`, out)
	})

	t.Run("conditional_control_flow emits exactly one conditional jump", func(t *testing.T) {
		out, err := New("fn main(): int { vr x: int = 3; if x == 3 { rt 1; } rt 0; }", "cond.nil").Compile()
		require.Nil(t, err)
		require.Equal(t, 1, strings.Count(out, "je "))
		require.Contains(t, out, "cmpq")
	})

	t.Run("structure_flattening leaves no composite record in the output", func(t *testing.T) {
		out, err := New("st P { x: int, y: int } fn main(): int { vr p: P = P { x: 10, y: 32 }; rt p.x + p.y; }", "struct.nil").Compile()
		require.Nil(t, err)
		require.Contains(t, out, "_main:")
		require.NotContains(t, out, "`p`")
	})
}
