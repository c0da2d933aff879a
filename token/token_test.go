package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdentifierRecognizesEveryKeyword(t *testing.T) {
	cases := map[string]Type{
		"fn": FUNCTION,
		"vr": VARIABLE,
		"rt": RETURN,
		"st": STRUCTURE,
		"if": IF,
		"ei": ELSEIF,
		"el": ELSE,
		"wh": WHILE,
	}
	for word, want := range cases {
		assert.Equal(t, want, LookupIdentifier(word), "keyword %q", word)
	}
}

func TestLookupIdentifierFallsBackToIdentifier(t *testing.T) {
	assert.Equal(t, IDENTIFIER, LookupIdentifier("main"))
	assert.Equal(t, IDENTIFIER, LookupIdentifier("flag"))
	assert.Equal(t, IDENTIFIER, LookupIdentifier(""))
}

func TestIsComparisonAcceptsOnlyTheSixComparisonOperators(t *testing.T) {
	for _, want := range []Type{EQUAL, NOT_EQUAL, LESS, GREATER, LESS_EQUAL, GREATER_EQUAL} {
		assert.True(t, IsComparison(want), "%s should be a comparison operator", want)
	}
	for _, want := range []Type{PLUS, MINUS, ASTERISK, SLASH, PERCENT, ASSIGN} {
		assert.False(t, IsComparison(want), "%s should not be a comparison operator", want)
	}
}

func TestIsArithmeticAcceptsOnlyTheFiveArithmeticOperators(t *testing.T) {
	for _, want := range []Type{PLUS, MINUS, ASTERISK, SLASH, PERCENT} {
		assert.True(t, IsArithmetic(want), "%s should be an arithmetic operator", want)
	}
	for _, want := range []Type{EQUAL, NOT_EQUAL, LESS, ASSIGN} {
		assert.False(t, IsArithmetic(want), "%s should not be an arithmetic operator", want)
	}
}

func TestBetweenSpansTwoLocations(t *testing.T) {
	a := Location{LineStart: 2, ColStart: 4, LineEnd: 2, ColEnd: 7}
	b := Location{LineStart: 2, ColStart: 9, LineEnd: 3, ColEnd: 1}

	got := Between(a, b)

	assert.Equal(t, Location{LineStart: 2, ColStart: 4, LineEnd: 3, ColEnd: 1}, got)
}

func TestBetweenIsOrderIndependent(t *testing.T) {
	a := Location{LineStart: 1, ColStart: 0, LineEnd: 1, ColEnd: 3}
	b := Location{LineStart: 1, ColStart: 5, LineEnd: 1, ColEnd: 8}

	assert.Equal(t, Between(a, b), Between(b, a))
}
