// Package transformer lowers a parsed ast.Program into the linear IR
// consumed by codegen: one flat []ir.Instruction per function, with
// every object-typed value flattened to its scalar leaves.
package transformer

import (
	"fmt"
	"sort"

	"github.com/nilang-go/nilangc/ast"
	"github.com/nilang-go/nilangc/compileerr"
	"github.com/nilang-go/nilangc/ir"
	"github.com/nilang-go/nilangc/token"
	"github.com/nilang-go/nilangc/types"
)

// Context is passed down through every lowering call: the two
// program-wide registries, plus the per-function temporaries/labels
// scratchpads and the program-wide string pool.
type Context struct {
	Functions  *types.FunctionsRef
	Structures *types.StructuresRef
	Temps      *ir.Temporaries
	Labels     *ir.Labels
	Data       *ir.DataPool
	Source     string
	File       string
}

func (c *Context) errf(kind compileerr.Kind, loc token.Location, format string, args ...interface{}) *compileerr.CompilerError {
	return compileerr.New(kind, fmt.Sprintf(format, args...), loc, c.Source, c.File)
}

// Function lowers one function declaration to its instruction stream:
// flattened parameter entry followed by the lowered body.
func Function(ctx *Context, fn *ast.FunctionDeclaration) ([]ir.Instruction, *compileerr.CompilerError) {
	ctx.Temps = ir.NewTemporaries()
	ctx.Labels = &ir.Labels{}

	var out []ir.Instruction

	entry, err := parameters(ctx, fn.Parameters)
	if err != nil {
		return nil, err
	}
	out = append(out, entry...)

	for _, stmt := range fn.Body {
		instrs, err := statement(ctx, stmt, fn.ReturnType)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}

	return out, nil
}

// parameters lowers a function's entry: scalar parameters get a single
// TakeArgument; object parameters get one TakeArgument per flattened
// leaf, in sorted field-path order.
func parameters(ctx *Context, params []ast.Parameter) ([]ir.Instruction, *compileerr.CompilerError) {
	var out []ir.Instruction
	slot := 0

	for _, param := range params {
		if param.Type.Kind == ast.TypeObject {
			flat, paths, err := ctx.Structures.Flattened(param.Type.Name, token.Location{}, ctx.Source, ctx.File)
			if err != nil {
				return nil, err
			}
			for _, path := range paths {
				name := param.Name + "." + path
				ctx.Temps.DeclareNamed(name, flat[path])
				out = append(out, ir.TakeArgumentOf(slot, name))
				slot++
			}
			continue
		}

		ctx.Temps.DeclareNamed(param.Name, param.Type)
		out = append(out, ir.TakeArgumentOf(slot, param.Name))
		slot++
	}

	return out, nil
}

// statement lowers a single statement to its instruction stream,
// dispatching on the statement's kind.
func statement(ctx *Context, stmt *ast.Statement, returnType ast.Type) ([]ir.Instruction, *compileerr.CompilerError) {
	switch stmt.Kind {
	case ast.StmtDeclaration:
		return declaration(ctx, stmt)
	case ast.StmtAssignment:
		return assignment(ctx, stmt)
	case ast.StmtReturn:
		return returnStatement(ctx, stmt, returnType)
	case ast.StmtExpression:
		discard := ctx.Temps.Declare(ast.Type{Kind: ast.TypeVoid})
		return expression(ctx, stmt.Call, discard, ast.Type{Kind: ast.TypeVoid})
	case ast.StmtConditional:
		return conditionalChain(ctx, stmt)
	case ast.StmtWhileLoop:
		return whileLoop(ctx, stmt)
	default:
		return nil, ctx.errf(compileerr.InvalidNode, stmt.Location, "unknown statement kind")
	}
}

func declaration(ctx *Context, stmt *ast.Statement) ([]ir.Instruction, *compileerr.CompilerError) {
	ctx.Temps.DeclareNamed(stmt.Name, stmt.Type)
	out := []ir.Instruction{ir.DeclareOf(stmt.Name)}
	rest, err := expression(ctx, stmt.Value, stmt.Name, stmt.Type)
	if err != nil {
		return nil, err
	}
	return append(out, rest...), nil
}

func assignment(ctx *Context, stmt *ast.Statement) ([]ir.Instruction, *compileerr.CompilerError) {
	typ, ok := ctx.Temps.TypeOf(stmt.Name)
	if !ok {
		return nil, ctx.errf(compileerr.TemporaryNotFound, stmt.Location, "assignment to undeclared variable '%s'", stmt.Name)
	}
	return expression(ctx, stmt.Value, stmt.Name, typ)
}

func returnStatement(ctx *Context, stmt *ast.Statement, returnType ast.Type) ([]ir.Instruction, *compileerr.CompilerError) {
	temp := ctx.Temps.Declare(returnType)
	out := []ir.Instruction{ir.DeclareOf(temp)}
	rest, err := expression(ctx, stmt.ReturnValue, temp, returnType)
	if err != nil {
		return nil, err
	}
	out = append(out, rest...)
	out = append(out, ir.ReturnVariableOf(temp))
	return out, nil
}

// conditionalChain lowers one link of an if/else-if/else chain and
// recurses into Chained: lower the condition, jump past the body when
// it's false, recurse on the next link, and emit the shared end label
// last. The end label is only emitted by the outermost call, so chained
// links return without one and the caller appends it once.
func conditionalChain(ctx *Context, stmt *ast.Statement) ([]ir.Instruction, *compileerr.CompilerError) {
	endLabel := ctx.Labels.New()
	out, err := conditionalLink(ctx, stmt, endLabel)
	if err != nil {
		return nil, err
	}
	return append(out, ir.LabelOf(endLabel)), nil
}

func conditionalLink(ctx *Context, stmt *ast.Statement, endLabel string) ([]ir.Instruction, *compileerr.CompilerError) {
	condTemp := ctx.Temps.Declare(ast.Type{Kind: ast.TypeBool})
	condInstrs, err := expression(ctx, stmt.Condition, condTemp, ast.Type{Kind: ast.TypeBool})
	if err != nil {
		return nil, err
	}

	skipLabel := ctx.Labels.New()

	var out []ir.Instruction
	out = append(out, ir.DeclareOf(condTemp))
	out = append(out, condInstrs...)
	out = append(out, ir.ConditionalJumpOf(condTemp, skipLabel))

	for _, bodyStmt := range stmt.Body {
		instrs, err := statement(ctx, bodyStmt, ast.Type{Kind: ast.TypeVoid})
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}

	out = append(out, ir.JumpOf(endLabel))
	out = append(out, ir.LabelOf(skipLabel))

	if stmt.Chained != nil {
		chained, err := conditionalLink(ctx, stmt.Chained, endLabel)
		if err != nil {
			return nil, err
		}
		out = append(out, chained...)
	}

	return out, nil
}

func whileLoop(ctx *Context, stmt *ast.Statement) ([]ir.Instruction, *compileerr.CompilerError) {
	topLabel := ctx.Labels.New()
	endLabel := ctx.Labels.New()

	condTemp := ctx.Temps.Declare(ast.Type{Kind: ast.TypeBool})
	condInstrs, err := expression(ctx, stmt.Condition, condTemp, ast.Type{Kind: ast.TypeBool})
	if err != nil {
		return nil, err
	}

	var out []ir.Instruction
	out = append(out, ir.LabelOf(topLabel))
	out = append(out, ir.DeclareOf(condTemp))
	out = append(out, condInstrs...)
	out = append(out, ir.ConditionalJumpOf(condTemp, endLabel))

	for _, bodyStmt := range stmt.Body {
		instrs, err := statement(ctx, bodyStmt, ast.Type{Kind: ast.TypeVoid})
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}

	out = append(out, ir.JumpOf(topLabel))
	out = append(out, ir.LabelOf(endLabel))
	return out, nil
}

// expression lowers node into result, declared (by the caller) as
// expectedType.
func expression(ctx *Context, node *ast.Expression, result string, expectedType ast.Type) ([]ir.Instruction, *compileerr.CompilerError) {
	switch node.Kind {
	case ast.ExprBool:
		return []ir.Instruction{ir.LoadBooleanOf(result, node.BoolValue)}, nil

	case ast.ExprNumber:
		return []ir.Instruction{ir.LoadNumberOf(result, node.NumberValue)}, nil

	case ast.ExprChar:
		return []ir.Instruction{ir.LoadCharOf(result, node.CharValue)}, nil

	case ast.ExprString:
		label := ctx.Data.Intern(node.StringValue)
		return []ir.Instruction{ir.LoadStringLocationOf(result, label)}, nil

	case ast.ExprVariableReference:
		return copyAllFields(ctx, node.Name, result, expectedType, node.Location)

	case ast.ExprFieldAccess:
		path, err := flattenFieldAccess(node)
		if err != nil {
			return nil, ctx.errf(compileerr.InvalidNode, node.Location, "%s", err)
		}
		return copyAllFields(ctx, path, result, expectedType, node.Location)

	case ast.ExprParenthesis:
		return expression(ctx, node.Inner, result, expectedType)

	case ast.ExprOperation:
		return operation(ctx, node, result, expectedType)

	case ast.ExprFunctionCall:
		return functionCall(ctx, node, result, expectedType)

	case ast.ExprObject:
		return object(ctx, node, result)

	default:
		return nil, ctx.errf(compileerr.InvalidNode, node.Location, "unknown expression kind")
	}
}

// flattenFieldAccess collapses a chain of VariableReference/FieldAccess
// nodes into a single dotted temporary name.
func flattenFieldAccess(node *ast.Expression) (string, error) {
	switch node.Kind {
	case ast.ExprVariableReference:
		return node.Name, nil
	case ast.ExprFieldAccess:
		base, err := flattenFieldAccess(node.Target)
		if err != nil {
			return "", err
		}
		return base + "." + node.Field, nil
	default:
		return "", fmt.Errorf("field access target is not a variable or field chain")
	}
}

// copyAllFields copies source into destination: a single Copy for
// scalars, or one Declare+Copy per flattened leaf for an object type.
func copyAllFields(ctx *Context, source, destination string, typ ast.Type, loc token.Location) ([]ir.Instruction, *compileerr.CompilerError) {
	if typ.Kind == ast.TypeVoid {
		return nil, nil
	}
	if typ.Kind != ast.TypeObject {
		return []ir.Instruction{ir.CopyOf(destination, source)}, nil
	}

	flat, paths, err := ctx.Structures.Flattened(typ.Name, loc, ctx.Source, ctx.File)
	if err != nil {
		return nil, err
	}

	var out []ir.Instruction
	for _, path := range paths {
		srcTemp := source + "." + path
		dstTemp := destination + "." + path
		ctx.Temps.DeclareNamed(srcTemp, flat[path])
		out = append(out, ir.DeclareOf(dstTemp))
		out = append(out, ir.CopyOf(dstTemp, srcTemp))
	}
	return out, nil
}

var compareKinds = map[token.Type]ir.Kind{
	token.EQUAL:         ir.CompareEqual,
	token.NOT_EQUAL:     ir.CompareNotEqual,
	token.LESS:          ir.CompareLess,
	token.GREATER:       ir.CompareGreater,
	token.LESS_EQUAL:    ir.CompareLessEqual,
	token.GREATER_EQUAL: ir.CompareGreaterEqual,
}

var arithmeticBuilders = map[token.Type]func(result, a, b string) ir.Instruction{
	token.PLUS:     ir.AddOf,
	token.MINUS:    ir.SubOf,
	token.ASTERISK: ir.MulOf,
	token.SLASH:    ir.DivOf,
	token.PERCENT:  ir.ModOf,
}

// operation lowers a binary Operation node: declare two fresh
// temporaries of the operand type, lower each side, then emit the
// matching IR op. Arithmetic operates on Int operands producing Int;
// comparisons operate on Int operands producing Bool.
func operation(ctx *Context, node *ast.Expression, result string, expectedType ast.Type) ([]ir.Instruction, *compileerr.CompilerError) {
	if compareKind, isComparison := compareKinds[node.Operator]; isComparison {
		if expectedType.Kind != ast.TypeBool {
			return nil, ctx.errf(compileerr.TypeMismatch, node.Location, "expected bool, found %s", expectedType)
		}
		operandType := ast.Type{Kind: ast.TypeInt}

		aTemp := ctx.Temps.Declare(operandType)
		aInstrs, err := expression(ctx, node.Left, aTemp, operandType)
		if err != nil {
			return nil, err
		}
		bTemp := ctx.Temps.Declare(operandType)
		bInstrs, err := expression(ctx, node.Right, bTemp, operandType)
		if err != nil {
			return nil, err
		}

		var out []ir.Instruction
		out = append(out, ir.DeclareOf(aTemp))
		out = append(out, aInstrs...)
		out = append(out, ir.DeclareOf(bTemp))
		out = append(out, bInstrs...)
		out = append(out, ir.CompareOf(compareKind, result, aTemp, bTemp))
		return out, nil
	}

	build, ok := arithmeticBuilders[node.Operator]
	if !ok {
		return nil, ctx.errf(compileerr.InvalidNode, node.Location, "unknown operator '%s'", node.Operator)
	}
	if expectedType.Kind != ast.TypeInt {
		return nil, ctx.errf(compileerr.TypeMismatch, node.Location, "arithmetic requires int, found %s", expectedType)
	}

	aTemp := ctx.Temps.Declare(expectedType)
	aInstrs, err := expression(ctx, node.Left, aTemp, expectedType)
	if err != nil {
		return nil, err
	}
	bTemp := ctx.Temps.Declare(expectedType)
	bInstrs, err := expression(ctx, node.Right, bTemp, expectedType)
	if err != nil {
		return nil, err
	}

	var out []ir.Instruction
	out = append(out, ir.DeclareOf(aTemp))
	out = append(out, aInstrs...)
	out = append(out, ir.DeclareOf(bTemp))
	out = append(out, bInstrs...)
	out = append(out, build(result, aTemp, bTemp))
	return out, nil
}

// functionCall lowers each argument into a fresh temporary of its
// declared parameter type (flattening object arguments into adjacent
// flat names), then emits a single FunctionCall.
func functionCall(ctx *Context, node *ast.Expression, result string, expectedType ast.Type) ([]ir.Instruction, *compileerr.CompilerError) {
	sig, ok := ctx.Functions.Lookup(node.Callee)
	if !ok {
		return nil, ctx.errf(compileerr.FunctionNotFound, node.Location, "function '%s' not found", node.Callee)
	}
	if len(node.Arguments) != len(sig.Parameters) {
		return nil, ctx.errf(compileerr.FunctionCallArgumentsMismatch, node.Location,
			"function '%s' expects %d argument(s), got %d", node.Callee, len(sig.Parameters), len(node.Arguments))
	}

	var out []ir.Instruction
	var argNames []string

	for i, argNode := range node.Arguments {
		paramType := sig.Parameters[i].Type
		argTemp := ctx.Temps.Declare(paramType)
		out = append(out, ir.DeclareOf(argTemp))

		instrs, err := expression(ctx, argNode, argTemp, paramType)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)

		if paramType.Kind == ast.TypeObject {
			_, paths, err := ctx.Structures.Flattened(paramType.Name, argNode.Location, ctx.Source, ctx.File)
			if err != nil {
				return nil, err
			}
			for _, path := range paths {
				argNames = append(argNames, argTemp+"."+path)
			}
		} else {
			argNames = append(argNames, argTemp)
		}
	}

	hasReturn := sig.ReturnType.Kind != ast.TypeVoid
	returnTemp := ""
	if hasReturn {
		returnTemp = result
	}
	out = append(out, ir.FunctionCallOf(node.Callee, argNames, returnTemp, hasReturn))
	return out, nil
}

// object lowers an object literal: validate the field count against the
// declared structure, then pair sorted provided fields with the
// structure's sorted top-level fields and lower each value into
// result.field (recursing naturally through expression for nested
// Object-typed fields).
func object(ctx *Context, node *ast.Expression, result string) ([]ir.Instruction, *compileerr.CompilerError) {
	structName := node.ObjectType.Name
	fields, fieldTypes, ok := ctx.Structures.Fields(structName)
	if !ok {
		return nil, ctx.errf(compileerr.TypeNotFound, node.Location, "unknown structure type '%s'", structName)
	}
	if len(node.FieldOrder) != len(fields) {
		return nil, ctx.errf(compileerr.FieldsMismatch, node.Location,
			"structure '%s' expects %d field(s), got %d", structName, len(fields), len(node.FieldOrder))
	}

	wantFields := append([]string(nil), fields...)
	sort.Strings(wantFields)
	gotFields := append([]string(nil), node.FieldOrder...)
	sort.Strings(gotFields)

	var out []ir.Instruction
	for i, fieldName := range wantFields {
		if gotFields[i] != fieldName {
			return nil, ctx.errf(compileerr.FieldsMismatch, node.Location,
				"structure '%s' has no field '%s'", structName, gotFields[i])
		}

		fieldType := fieldTypes[fieldName]
		fieldTemp := result + "." + fieldName

		// A nested Object field has no scalar location of its own - only
		// its flattened leaves do, declared by the recursive object()
		// call below - so skip declaring a temp for the composite name
		// itself.
		if fieldType.Kind != ast.TypeObject {
			ctx.Temps.DeclareNamed(fieldTemp, fieldType)
			out = append(out, ir.DeclareOf(fieldTemp))
		}

		instrs, err := expression(ctx, node.Fields[fieldName], fieldTemp, fieldType)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}

	return out, nil
}
