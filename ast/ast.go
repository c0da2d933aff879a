// Package ast defines the AST node unions produced by the parser: the
// Expression and Statement tagged unions, the top-level Program, and the
// source Type enum.
package ast

import "github.com/nilang-go/nilangc/token"

// Type is the source-level type of an expression, parameter, field, or
// declaration.
type Type struct {
	Kind TypeKind
	// Name holds the structure name when Kind == TypeObject.
	Name string
}

// TypeKind enumerates the primitive type universe plus the Object escape
// hatch for user-defined structures.
type TypeKind int

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeInt
	TypeChar
	TypeString
	TypeObject
)

func (t Type) String() string {
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeChar:
		return "char"
	case TypeString:
		return "string"
	case TypeObject:
		return t.Name
	default:
		return "?"
	}
}

// Equal reports whether two types denote the same type.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == TypeObject {
		return t.Name == other.Name
	}
	return true
}

// ExpressionKind tags the variant carried by an Expression node.
type ExpressionKind int

const (
	ExprBool ExpressionKind = iota
	ExprNumber
	ExprChar
	ExprString
	ExprVariableReference
	ExprFieldAccess
	ExprFunctionCall
	ExprParenthesis
	ExprOperation
	ExprObject
)

// Expression is a tagged union over every expression-producing AST node.
// Only the fields relevant to Kind are populated.
type Expression struct {
	Kind     ExpressionKind
	Location token.Location

	// ExprBool
	BoolValue bool
	// ExprNumber
	NumberValue float64
	// ExprChar
	CharValue byte
	// ExprString
	StringValue string

	// ExprVariableReference
	Name string

	// ExprFieldAccess
	Target *Expression
	Field  string

	// ExprFunctionCall
	Callee    string
	Arguments []*Expression

	// ExprParenthesis
	Inner *Expression

	// ExprOperation
	Operator token.Type
	Left     *Expression
	Right    *Expression

	// ExprObject
	ObjectType Type
	Fields     map[string]*Expression
	// FieldOrder preserves the source order of object-literal fields for
	// deterministic error messages and stable flattening.
	FieldOrder []string
}

// StatementKind tags the variant carried by a Statement node.
type StatementKind int

const (
	StmtDeclaration StatementKind = iota
	StmtAssignment
	StmtReturn
	StmtExpression
	StmtConditional
	StmtWhileLoop
)

// Statement is a tagged union over every statement AST node.
type Statement struct {
	Kind     StatementKind
	Location token.Location

	// StmtDeclaration / StmtAssignment
	Name  string
	Type  Type
	Value *Expression

	// StmtReturn
	ReturnValue *Expression

	// StmtExpression
	Call *Expression

	// StmtConditional
	Condition *Expression
	Body      []*Statement
	Chained   *Statement // next link in the if/else-if/else chain, or nil

	// StmtWhileLoop reuses Condition and Body above.
}

// Parameter is a named, typed function parameter.
type Parameter struct {
	Name string
	Type Type
}

// FunctionDeclaration is a top-level function definition.
type FunctionDeclaration struct {
	Name       string
	Parameters []Parameter
	ReturnType Type
	Body       []*Statement
	Location   token.Location
}

// StructureDeclaration is a top-level record-type definition. Fields
// preserves declaration order; FieldTypes is the name-indexed lookup.
type StructureDeclaration struct {
	Name       string
	Fields     []string
	FieldTypes map[string]Type
	Location   token.Location
}

// Program is the parsed root: every top-level structure and function,
// keyed by name.
type Program struct {
	Structures map[string]*StructureDeclaration
	Functions  map[string]*FunctionDeclaration
}

// NewProgram returns an empty Program ready to be populated by the
// parser.
func NewProgram() *Program {
	return &Program{
		Structures: make(map[string]*StructureDeclaration),
		Functions:  make(map[string]*FunctionDeclaration),
	}
}
