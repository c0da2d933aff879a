// Package parser implements the recursive-descent, precedence-climbing
// parser that turns a token stream into an ast.Program.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nilang-go/nilangc/ast"
	"github.com/nilang-go/nilangc/compileerr"
	"github.com/nilang-go/nilangc/lexer"
	"github.com/nilang-go/nilangc/token"
)

// Parser walks a MultiPeek-buffered token stream, assuming each
// production as it goes.
type Parser struct {
	tokens     *MultiPeek
	source     string
	file       string
	knownTypes map[string]bool
}

// Parse tokenizes and parses a complete source file into a Program.
func Parse(source, file string) (*ast.Program, *compileerr.CompilerError) {
	tokens, err := lexer.All(source, file)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: NewMultiPeek(tokens), source: source, file: file, knownTypes: structureNames(tokens)}
	return p.parseProgram()
}

// structureNames scans the whole token stream for "st Name" pairs before
// any parsing begins, so parseIdentifierAtom can tell an object literal
// from a bare variable reference regardless of where a structure is
// declared relative to its uses.
func structureNames(tokens []token.Token) map[string]bool {
	names := make(map[string]bool)
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type == token.STRUCTURE && tokens[i+1].Type == token.IDENTIFIER {
			names[tokens[i+1].Literal] = true
		}
	}
	return names
}

func (p *Parser) peek() token.Token        { return p.tokens.Peek(0) }
func (p *Parser) peekN(n int) token.Token  { return p.tokens.Peek(n) }
func (p *Parser) advance() token.Token     { return p.tokens.Next() }

func (p *Parser) assume(t token.Type) (token.Token, *compileerr.CompilerError) {
	tok := p.peek()
	if tok.Type != t {
		return token.Token{}, p.expectedTokens(tok, []token.Type{t})
	}
	return p.advance(), nil
}

func (p *Parser) assumeIdentifier() (token.Token, *compileerr.CompilerError) {
	tok := p.peek()
	if tok.Type != token.IDENTIFIER {
		return token.Token{}, p.expectedTokens(tok, []token.Type{token.IDENTIFIER})
	}
	return p.advance(), nil
}

func (p *Parser) expectedTokens(got token.Token, want []token.Type) *compileerr.CompilerError {
	names := make([]string, len(want))
	for i, w := range want {
		names[i] = string(w)
	}
	msg := fmt.Sprintf("expected %s, found %s", strings.Join(names, " or "), describeToken(got))
	return compileerr.New(compileerr.ExpectedTokens, msg, got.Location, p.source, p.file)
}

func (p *Parser) unexpectedToken(tok token.Token) *compileerr.CompilerError {
	if tok.Type == token.EOF {
		return compileerr.New(compileerr.EndOfInput, "unexpected end of input", tok.Location, p.source, p.file)
	}
	return compileerr.New(compileerr.UnexpectedToken, fmt.Sprintf("unexpected token %s", describeToken(tok)), tok.Location, p.source, p.file)
}

func describeToken(tok token.Token) string {
	if tok.Literal != "" {
		return fmt.Sprintf("'%s'", tok.Literal)
	}
	return string(tok.Type)
}

// parseProgram loops until EOF, dispatching on the leading keyword.
func (p *Parser) parseProgram() (*ast.Program, *compileerr.CompilerError) {
	program := ast.NewProgram()

	for p.peek().Type != token.EOF {
		switch p.peek().Type {
		case token.FUNCTION:
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			program.Functions[fn.Name] = fn
		case token.STRUCTURE:
			st, err := p.parseStructure()
			if err != nil {
				return nil, err
			}
			program.Structures[st.Name] = st
		default:
			return nil, p.unexpectedToken(p.peek())
		}
	}

	return program, nil
}

func (p *Parser) parseTypeAnnotation() (ast.Type, *compileerr.CompilerError) {
	tok, err := p.assumeIdentifier()
	if err != nil {
		return ast.Type{}, err
	}
	switch tok.Literal {
	case "int":
		return ast.Type{Kind: ast.TypeInt}, nil
	case "char":
		return ast.Type{Kind: ast.TypeChar}, nil
	case "string":
		return ast.Type{Kind: ast.TypeString}, nil
	case "bool":
		return ast.Type{Kind: ast.TypeBool}, nil
	case "void":
		return ast.Type{Kind: ast.TypeVoid}, nil
	default:
		return ast.Type{Kind: ast.TypeObject, Name: tok.Literal}, nil
	}
}

// parseStructure parses `st Name { field: Type, … }`.
func (p *Parser) parseStructure() (*ast.StructureDeclaration, *compileerr.CompilerError) {
	start, err := p.assume(token.STRUCTURE)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.assumeIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.assume(token.LBRACE); err != nil {
		return nil, err
	}

	var fields []string
	fieldTypes := make(map[string]ast.Type)

	for p.peek().Type != token.RBRACE {
		fieldTok, err := p.assumeIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.assume(token.COLON); err != nil {
			return nil, err
		}
		fieldType, err := p.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
		if _, exists := fieldTypes[fieldTok.Literal]; exists {
			return nil, compileerr.New(compileerr.DuplicateField, fmt.Sprintf("duplicate field '%s'", fieldTok.Literal), fieldTok.Location, p.source, p.file)
		}

		fields = append(fields, fieldTok.Literal)
		fieldTypes[fieldTok.Literal] = fieldType

		if p.peek().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}

	end, err := p.assume(token.RBRACE)
	if err != nil {
		return nil, err
	}

	return &ast.StructureDeclaration{
		Name:       nameTok.Literal,
		Fields:     fields,
		FieldTypes: fieldTypes,
		Location:   token.Between(start.Location, end.Location),
	}, nil
}

// parseFunction parses `fn name(param: T, …): T { statement; … }`.
func (p *Parser) parseFunction() (*ast.FunctionDeclaration, *compileerr.CompilerError) {
	start, err := p.assume(token.FUNCTION)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.assumeIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.assume(token.LPAREN); err != nil {
		return nil, err
	}

	var params []ast.Parameter
	seen := make(map[string]bool)
	for p.peek().Type != token.RPAREN {
		paramTok, err := p.assumeIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.assume(token.COLON); err != nil {
			return nil, err
		}
		paramType, err := p.parseTypeAnnotation()
		if err != nil {
			return nil, err
		}
		if seen[paramTok.Literal] {
			return nil, compileerr.New(compileerr.DuplicateField, fmt.Sprintf("duplicate parameter '%s'", paramTok.Literal), paramTok.Location, p.source, p.file)
		}
		seen[paramTok.Literal] = true
		params = append(params, ast.Parameter{Name: paramTok.Literal, Type: paramType})

		if p.peek().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.assume(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.assume(token.COLON); err != nil {
		return nil, err
	}
	returnType, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}

	body, err := p.parseScope()
	if err != nil {
		return nil, err
	}

	end := start
	if len(body) > 0 {
		end.Location = body[len(body)-1].Location
	}

	return &ast.FunctionDeclaration{
		Name:       nameTok.Literal,
		Parameters: params,
		ReturnType: returnType,
		Body:       body,
		Location:   token.Between(start.Location, end.Location),
	}, nil
}

// parseScope parses a brace-delimited statement list.
func (p *Parser) parseScope() ([]*ast.Statement, *compileerr.CompilerError) {
	if _, err := p.assume(token.LBRACE); err != nil {
		return nil, err
	}

	var stmts []*ast.Statement
	for p.peek().Type != token.RBRACE {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	if _, err := p.assume(token.RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (*ast.Statement, *compileerr.CompilerError) {
	switch p.peek().Type {
	case token.VARIABLE:
		return p.parseDeclaration()
	case token.RETURN:
		return p.parseReturn()
	case token.IF:
		return p.parseConditional()
	case token.WHILE:
		return p.parseWhileLoop()
	case token.IDENTIFIER:
		return p.parseIdentifierStatement()
	default:
		return nil, p.unexpectedToken(p.peek())
	}
}

// parseIdentifierStatement distinguishes `name = e;` from `name(...);`
// by looking one token past the identifier.
func (p *Parser) parseIdentifierStatement() (*ast.Statement, *compileerr.CompilerError) {
	nameTok := p.peek()
	switch p.peekN(1).Type {
	case token.ASSIGN:
		p.advance()
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		end, err := p.assume(token.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.Statement{
			Kind:     ast.StmtAssignment,
			Name:     nameTok.Literal,
			Value:    value,
			Location: token.Between(nameTok.Location, end.Location),
		}, nil
	case token.LPAREN:
		call, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		end, err := p.assume(token.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.Statement{
			Kind:     ast.StmtExpression,
			Call:     call,
			Location: token.Between(call.Location, end.Location),
		}, nil
	default:
		return nil, p.expectedTokens(p.peekN(1), []token.Type{token.ASSIGN, token.LPAREN})
	}
}

func (p *Parser) parseDeclaration() (*ast.Statement, *compileerr.CompilerError) {
	start, err := p.assume(token.VARIABLE)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.assumeIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.assume(token.COLON); err != nil {
		return nil, err
	}
	declType, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}
	if _, err := p.assume(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end, err := p.assume(token.SEMICOLON)
	if err != nil {
		return nil, err
	}

	return &ast.Statement{
		Kind:     ast.StmtDeclaration,
		Name:     nameTok.Literal,
		Type:     declType,
		Value:    value,
		Location: token.Between(start.Location, end.Location),
	}, nil
}

func (p *Parser) parseReturn() (*ast.Statement, *compileerr.CompilerError) {
	start, err := p.assume(token.RETURN)
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	end, err := p.assume(token.SEMICOLON)
	if err != nil {
		return nil, err
	}

	return &ast.Statement{
		Kind:        ast.StmtReturn,
		ReturnValue: value,
		Location:    token.Between(start.Location, end.Location),
	}, nil
}

// parseConditional dispatches on the current keyword to build one link
// of an if/else-if/else chain, recursing into Chained for the rest.
func (p *Parser) parseConditional() (*ast.Statement, *compileerr.CompilerError) {
	switch p.peek().Type {
	case token.IF:
		return p.parseIfLike(token.IF)
	case token.ELSEIF:
		return p.parseIfLike(token.ELSEIF)
	case token.ELSE:
		return p.parseElse()
	default:
		return nil, p.expectedTokens(p.peek(), []token.Type{token.IF, token.ELSE})
	}
}

func (p *Parser) parseIfLike(kw token.Type) (*ast.Statement, *compileerr.CompilerError) {
	start, err := p.assume(kw)
	if err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseScope()
	if err != nil {
		return nil, err
	}

	stmt := &ast.Statement{
		Kind:      ast.StmtConditional,
		Condition: condition,
		Body:      body,
		Location:  start.Location,
	}

	if p.peek().Type == token.ELSEIF || p.peek().Type == token.ELSE {
		chained, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		stmt.Chained = chained
	}

	return stmt, nil
}

func (p *Parser) parseElse() (*ast.Statement, *compileerr.CompilerError) {
	start, err := p.assume(token.ELSE)
	if err != nil {
		return nil, err
	}
	body, err := p.parseScope()
	if err != nil {
		return nil, err
	}

	return &ast.Statement{
		Kind:      ast.StmtConditional,
		Condition: &ast.Expression{Kind: ast.ExprBool, BoolValue: true, Location: start.Location},
		Body:      body,
		Location:  start.Location,
	}, nil
}

func (p *Parser) parseWhileLoop() (*ast.Statement, *compileerr.CompilerError) {
	start, err := p.assume(token.WHILE)
	if err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseScope()
	if err != nil {
		return nil, err
	}

	return &ast.Statement{
		Kind:      ast.StmtWhileLoop,
		Condition: condition,
		Body:      body,
		Location:  start.Location,
	}, nil
}

// precedence ranks operators: higher binds tighter. 0 means "not an
// operator".
func precedence(t token.Type) int {
	switch t {
	case token.ASTERISK, token.SLASH, token.PERCENT:
		return 3
	case token.PLUS, token.MINUS:
		return 2
	case token.EQUAL, token.NOT_EQUAL, token.LESS, token.GREATER, token.LESS_EQUAL, token.GREATER_EQUAL:
		return 1
	default:
		return 0
	}
}

// parseExpression parses a full expression via precedence climbing: an
// atom, followed by zero or more (operator, atom) extensions combined
// left-to-right according to each operator's precedence.
func (p *Parser) parseExpression() (*ast.Expression, *compileerr.CompilerError) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.extendOperation(left, 1)
}

// extendOperation consumes operator+atom pairs and merges each into
// left: if the next operator binds tighter than the current one, it
// recurses to build the right operand first; otherwise it wraps the
// accumulated left operand and continues.
func (p *Parser) extendOperation(left *ast.Expression, minPrec int) (*ast.Expression, *compileerr.CompilerError) {
	for precedence(p.peek().Type) >= minPrec {
		opTok := p.advance()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}

		for precedence(p.peek().Type) > precedence(opTok.Type) {
			right, err = p.extendOperation(right, precedence(p.peek().Type))
			if err != nil {
				return nil, err
			}
		}

		left = &ast.Expression{
			Kind:     ast.ExprOperation,
			Operator: opTok.Type,
			Left:     left,
			Right:    right,
			Location: token.Between(left.Location, right.Location),
		}
	}
	return left, nil
}

// parseAtom parses a single operand: literal, parenthesized expression,
// or an identifier-led atom (variable reference, call, object literal,
// field-access chain).
func (p *Parser) parseAtom() (*ast.Expression, *compileerr.CompilerError) {
	tok := p.peek()

	switch tok.Type {
	case token.NUMBER:
		p.advance()
		n, convErr := strconv.ParseFloat(tok.Literal, 64)
		if convErr != nil {
			return nil, compileerr.New(compileerr.InvalidLiteral, fmt.Sprintf("invalid number literal '%s'", tok.Literal), tok.Location, p.source, p.file)
		}
		return &ast.Expression{Kind: ast.ExprNumber, NumberValue: n, Location: tok.Location}, nil

	case token.STRING:
		p.advance()
		return &ast.Expression{Kind: ast.ExprString, StringValue: tok.Literal, Location: tok.Location}, nil

	case token.CHAR:
		p.advance()
		var c byte
		if len(tok.Literal) > 0 {
			c = tok.Literal[0]
		}
		return &ast.Expression{Kind: ast.ExprChar, CharValue: c, Location: tok.Location}, nil

	case token.LPAREN:
		p.advance()
		if p.peek().Type == token.RPAREN {
			return nil, compileerr.New(compileerr.EmptyParenthesis, "empty parenthesized expression", tok.Location, p.source, p.file)
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		end, err := p.assume(token.RPAREN)
		if err != nil {
			return nil, err
		}
		return &ast.Expression{Kind: ast.ExprParenthesis, Inner: inner, Location: token.Between(tok.Location, end.Location)}, nil

	case token.IDENTIFIER:
		return p.parseIdentifierAtom()

	default:
		return nil, compileerr.New(compileerr.InvalidOperand, fmt.Sprintf("expected an expression, found %s", describeToken(tok)), tok.Location, p.source, p.file)
	}
}

func (p *Parser) parseIdentifierAtom() (*ast.Expression, *compileerr.CompilerError) {
	nameTok := p.advance()

	if nameTok.Literal == "true" || nameTok.Literal == "false" {
		return &ast.Expression{Kind: ast.ExprBool, BoolValue: nameTok.Literal == "true", Location: nameTok.Location}, nil
	}

	var expr *ast.Expression
	switch p.peek().Type {
	case token.LPAREN:
		call, err := p.parseCallArguments(nameTok)
		if err != nil {
			return nil, err
		}
		expr = call
	case token.LBRACE:
		if p.knownTypes[nameTok.Literal] {
			obj, err := p.parseObjectLiteral(nameTok)
			if err != nil {
				return nil, err
			}
			expr = obj
		} else {
			expr = &ast.Expression{Kind: ast.ExprVariableReference, Name: nameTok.Literal, Location: nameTok.Location}
		}
	default:
		expr = &ast.Expression{Kind: ast.ExprVariableReference, Name: nameTok.Literal, Location: nameTok.Location}
	}

	for p.peek().Type == token.DOT {
		p.advance()
		fieldTok, err := p.assumeIdentifier()
		if err != nil {
			return nil, err
		}
		expr = &ast.Expression{
			Kind:     ast.ExprFieldAccess,
			Target:   expr,
			Field:    fieldTok.Literal,
			Location: token.Between(expr.Location, fieldTok.Location),
		}
	}

	return expr, nil
}

func (p *Parser) parseCallArguments(nameTok token.Token) (*ast.Expression, *compileerr.CompilerError) {
	if _, err := p.assume(token.LPAREN); err != nil {
		return nil, err
	}

	var args []*ast.Expression
	for p.peek().Type != token.RPAREN {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.peek().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}

	end, err := p.assume(token.RPAREN)
	if err != nil {
		return nil, err
	}

	return &ast.Expression{
		Kind:      ast.ExprFunctionCall,
		Callee:    nameTok.Literal,
		Arguments: args,
		Location:  token.Between(nameTok.Location, end.Location),
	}, nil
}

func (p *Parser) parseObjectLiteral(nameTok token.Token) (*ast.Expression, *compileerr.CompilerError) {
	if _, err := p.assume(token.LBRACE); err != nil {
		return nil, err
	}

	fields := make(map[string]*ast.Expression)
	var order []string

	for p.peek().Type != token.RBRACE {
		fieldTok, err := p.assumeIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.assume(token.COLON); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, exists := fields[fieldTok.Literal]; exists {
			return nil, compileerr.New(compileerr.DuplicateField, fmt.Sprintf("duplicate field '%s'", fieldTok.Literal), fieldTok.Location, p.source, p.file)
		}
		fields[fieldTok.Literal] = value
		order = append(order, fieldTok.Literal)

		if p.peek().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}

	end, err := p.assume(token.RBRACE)
	if err != nil {
		return nil, err
	}

	return &ast.Expression{
		Kind:       ast.ExprObject,
		ObjectType: ast.Type{Kind: ast.TypeObject, Name: nameTok.Literal},
		Fields:     fields,
		FieldOrder: order,
		Location:   token.Between(nameTok.Location, end.Location),
	}, nil
}
