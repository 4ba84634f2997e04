// Package parser turns a jexpr query string into a compiled *ast.Expression.
// Lexer produces a token stream; Parser consumes it with a recursive
// descent/Pratt hybrid, folding each run of `.`-joined steps into a flat
// NodePath and attaching predicates/group-by clauses directly to the step
// they postfix. NewParser/Parse is the low-level entry point; Compile
// layers CompileOption configuration on top and is what the top-level
// jexpr package calls.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/sandrolain/jexpr/pkg/ast"
)

// Parser builds a flattened ast.Node tree from a token stream using
// recursive descent with Pratt-style infix binding for operators. Unlike
// the teacher's binary LHS/RHS `.`-chain, every run of `.`-joined steps is
// collected into a single NodePath up front (see parsePrimaryWithPostfix),
// because pkg/evaluator's path walker expects that flattened shape.
type Parser struct {
	lexer   *Lexer
	current Token
	arena   *ast.NodeArena
	opts    CompileOptions
}

// CompileOption configures a Parser's CompileOptions; applied in order by
// NewParser.
type CompileOption func(*CompileOptions)

// CompileOptions holds per-parse configuration: recovery mode and a
// maximum depth.
type CompileOptions struct {
	// EnableRecovery, when set, asks the parser to keep producing a
	// best-effort partial AST past the first syntax error instead of
	// aborting immediately. Unused by Parse/Compile today - recovery is a
	// hook for a caller building an editor/linter on top of this package.
	EnableRecovery bool
	// MaxDepth is stored with the options but not consulted by the parser:
	// recursive-descent depth is not bounded, whatever its value.
	MaxDepth int
}

// WithRecovery toggles EnableRecovery.
func WithRecovery(enable bool) CompileOption {
	return func(o *CompileOptions) { o.EnableRecovery = enable }
}

// WithMaxDepth sets MaxDepth, which the parser does not consult.
func WithMaxDepth(depth int) CompileOption {
	return func(o *CompileOptions) { o.MaxDepth = depth }
}

// Parse compiles query with default options. Equivalent to
// Compile(query) with no CompileOption applied.
func Parse(query string) (*ast.Expression, error) {
	return Compile(query)
}

// Compile lexes and parses query into a reusable *ast.Expression, applying
// opts in order. This is the primary entry point other packages call.
func Compile(query string, opts ...CompileOption) (*ast.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// NewParser creates a parser for the given source, applying any
// CompileOptions.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{MaxDepth: 100}
	for _, opt := range opts {
		opt(&options)
	}
	p := &Parser{
		lexer: NewLexer(input),
		arena: ast.NewNodeArena(),
		opts:  options,
	}
	p.advance()
	return p
}

// Parse consumes the token stream and returns the compiled Expression.
func (p *Parser) Parse() (*ast.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	if p.current.Type == TokenEOF {
		return nil, p.error(ast.ErrSyntaxError, "Empty expression")
	}
	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	if p.current.Type != TokenEOF {
		return nil, p.error(ast.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.describeCurrent()))
	}
	return ast.NewExpression(node, p.lexer.input, p.arena), nil
}

func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

func (p *Parser) describeCurrent() string {
	if p.current.Value != "" {
		return p.current.Value
	}
	return p.current.Type.String()
}

func (p *Parser) error(code ast.ErrorCode, message string) error {
	return ast.NewPositionedError(code, message, p.current.Position).WithToken(p.current.Value)
}

func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(ast.ErrExpectedToken, fmt.Sprintf("Expected %q but got %q", tt.String(), p.describeCurrent()))
	}
	p.advance()
	return nil
}

// precedence gives each infix/postfix operator its binding power. Dot,
// bracket, brace and paren are handled inside atom/postfix parsing instead
// of through this table. Wildcard (`*` prefix), descendant (`**`),
// parent (`%`), coalesce (`??`) and regex literals have no corresponding
// AST node in this module's grammar and are deliberately absent: they fall
// through to the default (zero) precedence and terminate expression
// parsing, surfacing as "unexpected token" at the call site.
var precedence = map[TokenType]int{
	TokenAssign:       10,
	TokenApply:        20,
	TokenOr:           25,
	TokenAnd:          30,
	TokenEqual:        40,
	TokenNotEqual:     40,
	TokenLess:         40,
	TokenLessEqual:    40,
	TokenGreater:      40,
	TokenGreaterEqual: 40,
	TokenIn:           40,
	TokenRange:        45,
	TokenPlus:         50,
	TokenMinus:        50,
	TokenConcat:       50,
	TokenMult:         60,
	TokenDiv:          60,
	TokenMod:          60,
	TokenCondition:    15,
	TokenSort:         70,
}

func (p *Parser) getPrecedence(tt TokenType) int {
	return precedence[tt]
}

// parseExpression is the Pratt loop: parse one primary (with its postfix
// `.`/`(`/`[`/`{` attachments already folded in), then keep consuming
// infix operators whose precedence exceeds rbp.
func (p *Parser) parseExpression(rbp int) (*ast.Node, error) {
	left, err := p.parsePrimaryWithPostfix()
	if err != nil {
		return nil, err
	}
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// parsePrimaryWithPostfix parses one atom, folds any postfix `(args)` /
// `[predicate]` / `{group}` directly onto it (no intervening dot), and
// then - only if a `.` follows - collects a run of further dot-separated
// steps into a single flat NodePath. A `.` immediately followed by `[`
// starts a NEW step whose atom happens to be an array-constructor literal
// (e.g. `[1,2,3].[$*$]`), not a predicate with no base; attachPostfix is
// only ever invoked from here, on the step atom, never speculatively
// across a dot boundary.
func (p *Parser) parsePrimaryWithPostfix() (*ast.Node, error) {
	first, err := p.parsePrefixAtom()
	if err != nil {
		return nil, err
	}
	first, err = p.attachPostfix(first)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenDot {
		if len(first.Predicates) == 0 && len(first.GroupBy) == 0 && !first.KeepArray {
			return first, nil
		}
		node := p.arena.Alloc(ast.NodePath, first.Position)
		node.Steps = []*ast.Node{first}
		node.KeepArray = first.KeepArray
		return node, nil
	}

	steps := []*ast.Node{first}
	pos := first.Position
	for p.current.Type == TokenDot {
		p.advance()
		step, err := p.parsePrefixAtom()
		if err != nil {
			return nil, err
		}
		step, err = p.attachPostfix(step)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	node := p.arena.Alloc(ast.NodePath, pos)
	node.Steps = steps
	for _, s := range steps {
		if s.KeepArray {
			node.KeepArray = true
		}
	}
	return node, nil
}

// attachPostfix folds zero or more `(args)`, `[predicate]` and `{group}`
// suffixes onto node in place, in the order they appear (`a[0](x)` calls
// the result of filtering `a` to index 0).
func (p *Parser) attachPostfix(node *ast.Node) (*ast.Node, error) {
	for {
		switch p.current.Type {
		case TokenParenOpen:
			fn, err := p.parseFunctionCallPostfix(node)
			if err != nil {
				return nil, err
			}
			node = fn
		case TokenBracketOpen:
			n2, err := p.parsePredicateBracket(node)
			if err != nil {
				return nil, err
			}
			node = n2
		case TokenBraceOpen:
			n2, err := p.parseGroupBrace(node)
			if err != nil {
				return nil, err
			}
			node = n2
		default:
			return node, nil
		}
	}
}

// parsePredicateBracket consumes `[...]` attached directly to node. An
// empty `[]` sets KeepArray (force array-shaped result) rather than adding
// a predicate; otherwise the bracket body is appended to node.Predicates.
func (p *Parser) parsePredicateBracket(node *ast.Node) (*ast.Node, error) {
	p.advance() // consume [
	if p.current.Type == TokenBracketClose {
		p.advance()
		node.KeepArray = true
		return node, nil
	}
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	node.Predicates = append(node.Predicates, expr)
	return node, nil
}

// parseGroupBrace consumes a `{k: v, ...}` group-by clause attached
// directly to node (as opposed to the same syntax in prefix position,
// which is a plain object constructor - see parseObjectLiteral).
func (p *Parser) parseGroupBrace(node *ast.Node) (*ast.Node, error) {
	pairs, err := p.parseObjectPairs()
	if err != nil {
		return nil, err
	}
	node.GroupBy = append(node.GroupBy, pairs...)
	return node, nil
}

// parseObjectPairs consumes `{ key: value, ... }`, shared by the plain
// object constructor and the group-by clause.
func (p *Parser) parseObjectPairs() ([]ast.ObjectPair, error) {
	p.advance() // consume {
	var pairs []ast.ObjectPair
	if p.current.Type == TokenBraceClose {
		p.advance()
		return pairs, nil
	}
	for {
		key, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.ObjectPair{Key: key, Value: val})
		if p.current.Type == TokenBraceClose {
			p.advance()
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

// parseFunctionCallPostfix consumes `(args)` attached directly to proc. A
// bare `?` in argument position marks a partial application placeholder:
// the call is flagged IsPartial (matching the proc/args/is_partial shape
// callers expect of a function node) but this module does not implement
// placeholder expansion, since nothing downstream constructs a partially
// applied function from it.
func (p *Parser) parseFunctionCallPostfix(proc *ast.Node) (*ast.Node, error) {
	pos := p.current.Position
	p.advance() // consume (
	node := p.arena.Alloc(ast.NodeFunc, pos)
	node.Proc = proc
	if p.current.Type == TokenParenClose {
		p.advance()
		return node, nil
	}
	for {
		if p.current.Type == TokenCondition {
			ph := p.arena.Alloc(ast.NodeName, p.current.Position)
			ph.Name = "?"
			node.Args = append(node.Args, ph)
			node.IsPartial = true
			p.advance()
		} else {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, arg)
		}
		if p.current.Type == TokenParenClose {
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
	p.advance() // consume )
	return node, nil
}

// parsePrefixAtom dispatches on the current token to build one atomic
// node: a literal, a name/variable reference, a parenthesized group, an
// array or object constructor, a lambda, or a unary minus. Anything else
// - wildcard `*`, descendant `**`, parent `%`, coalesce `??`, regex - has
// no node in this grammar and is a syntax error here.
func (p *Parser) parsePrefixAtom() (*ast.Node, error) {
	tok := p.current
	switch tok.Type {
	case TokenString:
		return p.parseStringLiteral()
	case TokenNumber:
		return p.parseNumberLiteral()
	case TokenBoolean:
		return p.parseBoolLiteral()
	case TokenNull:
		return p.parseNullLiteral()
	case TokenName, TokenNameEsc:
		if tok.Value == "function" || tok.Value == "λ" {
			return p.parseLambda()
		}
		return p.parseNameAtom()
	case TokenVariable:
		return p.parseVariableAtom()
	case TokenMinus:
		return p.parseUnaryMinus()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenBracketOpen:
		return p.parseArrayLiteral()
	case TokenBraceOpen:
		return p.parseObjectLiteral()
	case TokenAnd, TokenOr, TokenIn:
		// a keyword used where a field name is expected, e.g. `Account.in`
		return p.parseKeywordAsName()
	default:
		return nil, p.error(ast.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.describeCurrent()))
	}
}

func (p *Parser) parseStringLiteral() (*ast.Node, error) {
	tok := p.current
	unescaped, err := unescapeString(tok.Value)
	if err != nil {
		return nil, ast.NewPositionedError(ast.ErrUnsupportedEscape, err.Error(), tok.Position).WithToken(tok.Value)
	}
	node := p.arena.Alloc(ast.NodeString, tok.Position)
	node.Str = unescaped
	p.advance()
	return node, nil
}

func (p *Parser) parseNumberLiteral() (*ast.Node, error) {
	tok := p.current
	val, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, ast.NewPositionedError(ast.ErrSyntaxError, fmt.Sprintf("Invalid number literal: %s", tok.Value), tok.Position).WithToken(tok.Value)
	}
	node := p.arena.Alloc(ast.NodeNumber, tok.Position)
	node.Number = val
	p.advance()
	return node, nil
}

func (p *Parser) parseBoolLiteral() (*ast.Node, error) {
	node := p.arena.Alloc(ast.NodeBool, p.current.Position)
	node.Bool = p.current.Value == "true"
	p.advance()
	return node, nil
}

func (p *Parser) parseNullLiteral() (*ast.Node, error) {
	node := p.arena.Alloc(ast.NodeNull, p.current.Position)
	p.advance()
	return node, nil
}

func (p *Parser) parseNameAtom() (*ast.Node, error) {
	node := p.arena.Alloc(ast.NodeName, p.current.Position)
	node.Name = p.current.Value
	p.advance()
	return node, nil
}

func (p *Parser) parseKeywordAsName() (*ast.Node, error) {
	node := p.arena.Alloc(ast.NodeName, p.current.Position)
	node.Name = p.current.Value
	p.advance()
	return node, nil
}

func (p *Parser) parseVariableAtom() (*ast.Node, error) {
	node := p.arena.Alloc(ast.NodeVar, p.current.Position)
	node.Name = p.current.Value
	p.advance()
	return node, nil
}

// parseUnaryMinus binds tighter than any binary operator except postfix
// call/filter/group, so `-a.b` is `-(a.b)` and `-a+b` is `(-a)+b`.
func (p *Parser) parseUnaryMinus() (*ast.Node, error) {
	pos := p.current.Position
	p.advance()
	operand, err := p.parseExpression(precedence[TokenMult] + 10)
	if err != nil {
		return nil, err
	}
	node := p.arena.Alloc(ast.NodeUnary, pos)
	node.UOp = ast.UnaryMinus
	node.Expr = operand
	return node, nil
}

// parseGrouping consumes `(e1; e2; ...)`. An empty `()` becomes an empty
// NodeBlock, which evaluates to Undefined - the correct semantics for
// "nothing" since this module's AST has no dedicated undefined-literal
// node. A single expression that is itself an assignment (`:=`) is still
// wrapped in a block, so parentheses isolate its binding to a fresh scope
// even without a following `;`.
func (p *Parser) parseGrouping() (*ast.Node, error) {
	pos := p.current.Position
	p.advance() // consume (
	if p.current.Type == TokenParenClose {
		p.advance()
		return p.arena.Alloc(ast.NodeBlock, pos), nil
	}

	var exprs []*ast.Node
	for {
		e, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.current.Type != TokenSemicolon {
			break
		}
		p.advance()
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	if len(exprs) == 1 && !(exprs[0].Type == ast.NodeBinary && exprs[0].Op == ast.OpBind) {
		return exprs[0], nil
	}
	block := p.arena.Alloc(ast.NodeBlock, pos)
	block.Exprs = exprs
	return block, nil
}

// parseArrayLiteral consumes a `[...]` expression in prefix position (a
// literal array, as opposed to a `[...]` predicate attached to a
// preceding atom by attachPostfix). Always marks ConsArray, matching any
// array constructor literally written with brackets.
func (p *Parser) parseArrayLiteral() (*ast.Node, error) {
	pos := p.current.Position
	p.advance() // consume [
	node := p.arena.Alloc(ast.NodeUnary, pos)
	node.UOp = ast.UnaryArray
	node.ConsArray = true
	if p.current.Type == TokenBracketClose {
		p.advance()
		return node, nil
	}
	for {
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Exprs = append(node.Exprs, expr)
		if p.current.Type == TokenBracketClose {
			p.advance()
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// parseObjectLiteral consumes a `{...}` expression in prefix position (a
// plain object constructor, as opposed to a group-by clause attached to a
// preceding atom by attachPostfix).
func (p *Parser) parseObjectLiteral() (*ast.Node, error) {
	pos := p.current.Position
	pairs, err := p.parseObjectPairs()
	if err != nil {
		return nil, err
	}
	node := p.arena.Alloc(ast.NodeUnary, pos)
	node.UOp = ast.UnaryObject
	node.Pairs = pairs
	return node, nil
}

// parseLambda consumes `function($a, $b){ body }` (or the `λ` shorthand).
// An optional type signature `<...>` between the parameter list and the
// body is accepted for compatibility with expressions that carry one, but
// its contents are discarded: this module does not type-check calls
// against declared signatures.
func (p *Parser) parseLambda() (*ast.Node, error) {
	pos := p.current.Position
	p.advance() // consume 'function' / 'λ'
	node := p.arena.Alloc(ast.NodeLambda, pos)

	if err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}
	if p.current.Type != TokenParenClose {
		for {
			if p.current.Type != TokenVariable {
				return nil, p.error(ast.ErrSyntaxError, "Expected a parameter variable in function declaration")
			}
			node.Params = append(node.Params, p.current.Value)
			p.advance()
			if p.current.Type == TokenParenClose {
				break
			}
			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	if p.current.Type == TokenLess {
		if err := p.skipSignature(); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenBraceOpen); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Body = body
	if err := p.expect(TokenBraceClose); err != nil {
		return nil, err
	}
	return node, nil
}

// skipSignature consumes a `<...>` function signature without
// interpreting it, tracking nesting depth since signatures may themselves
// contain `<` and `>` (array/object type markers).
func (p *Parser) skipSignature() error {
	depth := 0
	for {
		switch p.current.Type {
		case TokenLess:
			depth++
		case TokenGreater:
			depth--
			if depth == 0 {
				p.advance()
				return nil
			}
		case TokenEOF, TokenError:
			return p.error(ast.ErrExpectedToken, "Expected '>' to close function signature")
		}
		p.advance()
	}
}

// parseSort consumes `^(term, ...)` attached to left, the sequence being
// ordered. Each term may be prefixed with `<` (ascending, the default) or
// `>` (descending). Evaluation of the resulting node is out of scope for
// this module (sort is recognized in the AST but its body is an external
// collaborator's concern); parsing it fully still lets round-tripping and
// static analysis over the AST see sort clauses.
func (p *Parser) parseSort(left *ast.Node) (*ast.Node, error) {
	pos := p.current.Position
	p.advance() // consume ^
	if err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}
	node := p.arena.Alloc(ast.NodeSort, pos)
	node.LHS = left
	for {
		descending := false
		switch p.current.Type {
		case TokenGreater:
			descending = true
			p.advance()
		case TokenLess:
			p.advance()
		}
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Sorts = append(node.Sorts, ast.SortSpec{Expr: expr, Descending: descending})
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return node, nil
}

// parseInfix dispatches the current infix operator token to build a
// binary/ternary/sort/bind node with left already parsed.
func (p *Parser) parseInfix(left *ast.Node) (*ast.Node, error) {
	switch p.current.Type {
	case TokenCondition:
		return p.parseConditional(left)
	case TokenAssign:
		return p.parseAssignment(left)
	case TokenSort:
		return p.parseSort(left)
	case TokenApply:
		return p.parseBinary(left, ast.OpApply)
	case TokenRange:
		return p.parseBinary(left, ast.OpRange)
	case TokenPlus:
		return p.parseBinary(left, ast.OpAdd)
	case TokenMinus:
		return p.parseBinary(left, ast.OpSubtract)
	case TokenMult:
		return p.parseBinary(left, ast.OpMultiply)
	case TokenDiv:
		return p.parseBinary(left, ast.OpDivide)
	case TokenMod:
		return p.parseBinary(left, ast.OpModulus)
	case TokenConcat:
		return p.parseBinary(left, ast.OpConcat)
	case TokenEqual:
		return p.parseBinary(left, ast.OpEqual)
	case TokenNotEqual:
		return p.parseBinary(left, ast.OpNotEqual)
	case TokenLess:
		return p.parseBinary(left, ast.OpLessThan)
	case TokenLessEqual:
		return p.parseBinary(left, ast.OpLessThanEqual)
	case TokenGreater:
		return p.parseBinary(left, ast.OpGreaterThan)
	case TokenGreaterEqual:
		return p.parseBinary(left, ast.OpGreaterThanEqual)
	case TokenAnd:
		return p.parseBinary(left, ast.OpAnd)
	case TokenOr:
		return p.parseBinary(left, ast.OpOr)
	case TokenIn:
		return p.parseBinary(left, ast.OpIn)
	default:
		return nil, p.error(ast.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.describeCurrent()))
	}
}

// parseBinary builds a left-associative NodeBinary: the right operand is
// parsed at this operator's own precedence, so a second occurrence of the
// same (or lower-precedence) operator is left for the outer loop rather
// than captured here.
func (p *Parser) parseBinary(left *ast.Node, op ast.BinaryOp) (*ast.Node, error) {
	tok := p.current
	prec := p.getPrecedence(tok.Type)
	p.advance()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	node := p.arena.Alloc(ast.NodeBinary, tok.Position)
	node.Op = op
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseConditional builds `cond ? truthy : falsy`, with an optional else
// branch.
func (p *Parser) parseConditional(cond *ast.Node) (*ast.Node, error) {
	pos := p.current.Position
	p.advance() // consume ?
	truthy, err := p.parseExpression(precedence[TokenCondition] - 1)
	if err != nil {
		return nil, err
	}
	node := p.arena.Alloc(ast.NodeTernary, pos)
	node.Cond = cond
	node.Truthy = truthy
	if p.current.Type == TokenColon {
		p.advance()
		falsy, err := p.parseExpression(precedence[TokenCondition] - 1)
		if err != nil {
			return nil, err
		}
		node.Falsy = falsy
	}
	return node, nil
}

// parseAssignment builds `$var := expr`. Right-associative, so chained
// bindings like `$a := $b := 1` assign right to left.
func (p *Parser) parseAssignment(left *ast.Node) (*ast.Node, error) {
	if left.Type != ast.NodeVar {
		return nil, p.error(ast.ErrSyntaxError, "Left-hand side of \":=\" must be a variable")
	}
	tok := p.current
	prec := p.getPrecedence(tok.Type)
	p.advance()
	right, err := p.parseExpression(prec - 1)
	if err != nil {
		return nil, err
	}
	node := p.arena.Alloc(ast.NodeBinary, tok.Position)
	node.Op = ast.OpBind
	node.LHS = left
	node.RHS = right
	return node, nil
}

// unescapeString processes JSON-style escape sequences (\n, \t, \uXXXX
// including surrogate pairs, ...) in a string literal's raw source text.
func unescapeString(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' {
			b.WriteRune(c)
			continue
		}
		i++
		if i >= len(runes) {
			return "", fmt.Errorf("unterminated escape sequence")
		}
		switch runes[i] {
		case '"':
			b.WriteRune('"')
		case '\'':
			b.WriteRune('\'')
		case '\\':
			b.WriteRune('\\')
		case '/':
			b.WriteRune('/')
		case 'b':
			b.WriteRune('\b')
		case 'f':
			b.WriteRune('\f')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		case 'u':
			r1, n, err := readHex4(runes, i+1)
			if err != nil {
				return "", err
			}
			i += n
			if utf16.IsSurrogate(rune(r1)) && i+2 < len(runes) && runes[i+1] == '\\' && runes[i+2] == 'u' {
				r2, n2, err := readHex4(runes, i+3)
				if err == nil {
					combined := utf16.DecodeRune(rune(r1), rune(r2))
					if combined != utf8Invalid {
						b.WriteRune(combined)
						i += n2 + 2
						continue
					}
				}
			}
			b.WriteRune(rune(r1))
		default:
			return "", fmt.Errorf("unsupported escape sequence: \\%c", runes[i])
		}
	}
	return b.String(), nil
}

const utf8Invalid = '�'

// readHex4 parses the 4 hex digits starting at runes[from], returning the
// decoded value and how many runes were consumed.
func readHex4(runes []rune, from int) (uint32, int, error) {
	if from+4 > len(runes) {
		return 0, 0, fmt.Errorf("invalid \\u escape sequence")
	}
	v, err := strconv.ParseUint(string(runes[from:from+4]), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid \\u escape sequence: %w", err)
	}
	return uint32(v), 4, nil
}
