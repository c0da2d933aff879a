package compiler

import (
	"strings"
	"testing"

	"github.com/nilang-go/nilangc/compileerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSuccess(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
	}{
		{
			name:     "constant return",
			source:   "fn main(): int { rt 42; }",
			contains: []string{".globl _main", "_main:", "$42"},
		},
		{
			name:     "arithmetic precedence",
			source:   "fn main(): int { rt 2 + 3 * 4; }",
			contains: []string{"imulq", "addq"},
		},
		{
			name:     "parameter passing",
			source:   "fn add(a: int, b: int): int { rt a + b; } fn main(): int { rt add(7, 35); }",
			contains: []string{".globl _add", "call _add"},
		},
		{
			name:     "structure flattening",
			source:   "st P { x: int, y: int } fn main(): int { vr p: P = P { x: 10, y: 32 }; rt p.x + p.y; }",
			contains: []string{"_main:"},
		},
		{
			name:     "division and modulo",
			source:   "fn main(): int { rt 100 / 7 + 100 % 7; }",
			contains: []string{"idivq"},
		},
		{
			name:     "conditional control flow",
			source:   "fn main(): int { vr x: int = 3; if x == 3 { rt 1; } rt 0; }",
			contains: []string{"cmpq", "sete", "je"},
		},
		{
			name:     "builtin print call",
			source:   "fn main(): int { printi(7); rt 0; }",
			contains: []string{"call printi"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := New(tc.source, "test.nil").Compile()
			require.Nil(t, err, "unexpected compile error: %v", err)
			for _, want := range tc.contains {
				assert.True(t, strings.Contains(out, want), "expected output to contain %q\noutput:\n%s", want, out)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   compileerr.Kind
	}{
		{
			name:   "call to undeclared function",
			source: "fn main(): int { rt nope(1); }",
			kind:   compileerr.FunctionNotFound,
		},
		{
			name:   "comparison returned where int is expected",
			source: "fn main(): int { rt 1 == 2; }",
			kind:   compileerr.TypeMismatch,
		},
		{
			name:   "wrong argument count",
			source: "fn add(a: int, b: int): int { rt a + b; } fn main(): int { rt add(1); }",
			kind:   compileerr.FunctionCallArgumentsMismatch,
		},
		{
			name:   "reference to undeclared structure",
			source: "fn f(p: Missing): int { rt 0; } fn main(): int { rt 0; }",
			kind:   compileerr.TypeNotFound,
		},
		{
			name:   "unexpected token",
			source: "fn main(): int { rt ; }",
			kind:   compileerr.InvalidOperand,
		},
		{
			name:   "unterminated function",
			source: "fn main(): int { rt 1;",
			kind:   compileerr.EndOfInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.source, "test.nil").Compile()
			require.NotNil(t, err, "expected a compile error")
			assert.Equal(t, tc.kind, err.Kind)
		})
	}
}

func TestCompileDeterministicOrdering(t *testing.T) {
	source := "fn z(): int { rt 1; } fn a(): int { rt 2; } fn main(): int { rt 0; }"
	first, err := New(source, "test.nil").Compile()
	require.Nil(t, err)
	second, err := New(source, "test.nil").Compile()
	require.Nil(t, err)
	assert.Equal(t, first, second, "identical source must compile to byte-identical assembly")

	assert.True(t, strings.Index(first, "_a:") < strings.Index(first, "_main:"))
	assert.True(t, strings.Index(first, "_main:") < strings.Index(first, "_z:"))
}
