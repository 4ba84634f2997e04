package evaluator

import (
	"math"

	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/frame"
	"github.com/sandrolain/jexpr/pkg/value"
)

const maxRangeSize = 10_000_000

// evaluateUnary handles unary minus and the two literal constructors
// (array, object); NodeUnary carries which via n.UOp.
func (e *Evaluator) evaluateUnary(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	switch n.UOp {
	case ast.UnaryMinus:
		v, err := e.evaluate(n.Expr, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		v = pool.Collapse(v)
		if pool.IsUndefined(v) {
			return value.Undefined, nil
		}
		if !pool.IsNumber(v) {
			return value.Undefined, ast.NewPositionedError(ast.ErrNegateNonNumeric, "operand of unary minus must be a number", n.Position)
		}
		return pool.Number(-pool.Num(v)), nil

	case ast.UnaryArray:
		return e.evaluateArrayConstructor(n, input, pool, fr)

	case ast.UnaryObject:
		return e.evaluateObjectConstructor(n.Pairs, input, pool, fr, n.Position)

	default:
		return value.Undefined, ast.NewPositionedError(ast.ErrSyntaxError, "unknown unary operator", n.Position)
	}
}

// evaluateArrayConstructor builds `[e1, e2, ...]`. An element that is
// itself a nested array-constructor literal is spliced in as a single
// element (preserving the nesting the user wrote); any other element goes
// through Append, which flattens a SEQUENCE it produces. The resulting
// array only carries the CONS flag (suppressing later flattening at a
// path-step boundary) when it has more than one declared element, or its
// single element is itself an explicit array/range literal — a plain
// `[expr]` used as a map-producing path step is expected to flatten, e.g.
// `[1,2,3].[$*$]` -> [1,4,9].
func (e *Evaluator) evaluateArrayConstructor(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	consArray := n.ConsArray && arrayLiteralIsCons(n.Exprs)
	flags := value.Flags(0)
	if consArray {
		flags = value.CONS
	}
	result := pool.Array(flags)
	for _, item := range n.Exprs {
		v, err := e.evaluate(item, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		if item.Type == ast.NodeUnary && item.UOp == ast.UnaryArray {
			pool.Push(result, v)
			continue
		}
		result = appendKeepingFlags(pool, result, v)
	}
	return result, nil
}

func arrayLiteralIsCons(exprs []*ast.Node) bool {
	if len(exprs) != 1 {
		return true
	}
	single := exprs[0]
	if single.Type == ast.NodeUnary && single.UOp == ast.UnaryArray {
		return true
	}
	if single.Type == ast.NodeBinary && single.Op == ast.OpRange {
		return true
	}
	return false
}

// appendKeepingFlags appends v's members onto result, preserving result's
// flags (Pool.Append always returns a fresh array, so the flags are
// restored after the call).
func appendKeepingFlags(pool *value.Pool, result, v value.Handle) value.Handle {
	flags := pool.Flags(result)
	merged := pool.Append(result, v)
	pool.SetFlags(merged, flags)
	return merged
}

// evaluateObjectConstructor builds `{k1: v1, k2: v2, ...}`. A key must
// evaluate to a string; a repeated key overwrites the earlier value but
// keeps its original position, matching Object.Set.
func (e *Evaluator) evaluateObjectConstructor(pairs []ast.ObjectPair, input value.Handle, pool *value.Pool, fr *frame.Frame, pos int) (value.Handle, error) {
	h := pool.Object()
	obj := pool.Obj(h)
	for _, pair := range pairs {
		kv, err := e.evaluate(pair.Key, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		kv = pool.Collapse(kv)
		if !pool.IsString(kv) {
			return value.Undefined, ast.NewPositionedError(ast.ErrGroupKeyNotString, "object constructor key must evaluate to a string", pos)
		}
		vv, err := e.evaluate(pair.Value, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		obj.Set(pool.Str(kv), pool.Collapse(vv))
	}
	return h, nil
}

// evaluateTernary evaluates `cond ? truthy : falsy`, where falsy may be
// nil (an "if" with no "else", yielding Undefined).
func (e *Evaluator) evaluateTernary(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	cond, err := e.evaluate(n.Cond, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	if pool.Truthy(pool.Collapse(cond)) {
		return e.evaluate(n.Truthy, input, pool, fr)
	}
	if n.Falsy == nil {
		return value.Undefined, nil
	}
	return e.evaluate(n.Falsy, input, pool, fr)
}

// evaluateBinary dispatches on n.Op. Bind (:=), the short-circuiting
// And/Or operators and Apply (~>) are handled before evaluating both sides
// eagerly; every other operator evaluates both operands first.
func (e *Evaluator) evaluateBinary(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	switch n.Op {
	case ast.OpBind:
		return e.evaluateBind(n, input, pool, fr)
	case ast.OpAnd:
		lhs, err := e.evaluate(n.LHS, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		if !pool.Truthy(pool.Collapse(lhs)) {
			return pool.Bool(false), nil
		}
		rhs, err := e.evaluate(n.RHS, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		return pool.Bool(pool.Truthy(pool.Collapse(rhs))), nil
	case ast.OpOr:
		lhs, err := e.evaluate(n.LHS, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		if pool.Truthy(pool.Collapse(lhs)) {
			return pool.Bool(true), nil
		}
		rhs, err := e.evaluate(n.RHS, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		return pool.Bool(pool.Truthy(pool.Collapse(rhs))), nil
	case ast.OpApply:
		return e.evaluateApply(n, input, pool, fr)
	}

	lhs, err := e.evaluate(n.LHS, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	rhs, err := e.evaluate(n.RHS, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	lhs, rhs = pool.Collapse(lhs), pool.Collapse(rhs)

	switch n.Op {
	case ast.OpAdd, ast.OpSubtract, ast.OpMultiply, ast.OpDivide, ast.OpModulus:
		return evaluateArith(pool, n, lhs, rhs)
	case ast.OpLessThan, ast.OpLessThanEqual, ast.OpGreaterThan, ast.OpGreaterThanEqual:
		return evaluateCompare(pool, n, lhs, rhs)
	case ast.OpEqual:
		if pool.IsUndefined(lhs) || pool.IsUndefined(rhs) {
			return pool.Bool(false), nil
		}
		return pool.Bool(valuesEqual(pool, lhs, rhs)), nil
	case ast.OpNotEqual:
		if pool.IsUndefined(lhs) || pool.IsUndefined(rhs) {
			return pool.Bool(false), nil
		}
		return pool.Bool(!valuesEqual(pool, lhs, rhs)), nil
	case ast.OpConcat:
		return pool.String(stringify(pool, lhs) + stringify(pool, rhs)), nil
	case ast.OpIn:
		return evaluateIn(pool, n, lhs, rhs)
	case ast.OpRange:
		return evaluateRange(pool, n, lhs, rhs)
	default:
		return value.Undefined, ast.NewPositionedError(ast.ErrSyntaxError, "unknown binary operator", n.Position)
	}
}

func (e *Evaluator) evaluateBind(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	if n.LHS.Type != ast.NodeVar {
		return value.Undefined, ast.NewPositionedError(ast.ErrSyntaxError, "left side of := must be a variable", n.Position)
	}
	v, err := e.evaluate(n.RHS, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	fr.Bind("$"+n.LHS.Name, v)
	return v, nil
}

func evaluateArith(pool *value.Pool, n *ast.Node, lhs, rhs value.Handle) (value.Handle, error) {
	if pool.IsUndefined(lhs) || pool.IsUndefined(rhs) {
		return value.Undefined, nil
	}
	if !pool.IsNumber(lhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrBinaryLHSNotNumber, "left side of "+n.Op.String()+" must be a number", n.Position)
	}
	if !pool.IsNumber(rhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrBinaryRHSNotNumber, "right side of "+n.Op.String()+" must be a number", n.Position)
	}
	a, b := pool.Num(lhs), pool.Num(rhs)
	var r float64
	switch n.Op {
	case ast.OpAdd:
		r = a + b
	case ast.OpSubtract:
		r = a - b
	case ast.OpMultiply:
		r = a * b
	case ast.OpDivide:
		r = a / b
	default: // OpModulus
		r = math.Mod(a, b)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return value.Undefined, ast.NewPositionedError(ast.ErrNumericOverflow, "number out of range", n.Position)
	}
	return pool.Number(r), nil
}

func evaluateCompare(pool *value.Pool, n *ast.Node, lhs, rhs value.Handle) (value.Handle, error) {
	if pool.IsUndefined(lhs) || pool.IsUndefined(rhs) {
		return value.Undefined, nil
	}
	if pool.IsNumber(lhs) && pool.IsNumber(rhs) {
		return pool.Bool(compareNumbers(n.Op, pool.Num(lhs), pool.Num(rhs))), nil
	}
	if pool.IsString(lhs) && pool.IsString(rhs) {
		return pool.Bool(compareStrings(n.Op, pool.Str(lhs), pool.Str(rhs))), nil
	}
	if !pool.IsNumber(lhs) && !pool.IsString(lhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrCompareNotOrderable, "left side of "+n.Op.String()+" is not orderable", n.Position)
	}
	if !pool.IsNumber(rhs) && !pool.IsString(rhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrCompareNotOrderable, "right side of "+n.Op.String()+" is not orderable", n.Position)
	}
	return value.Undefined, ast.NewPositionedError(ast.ErrCompareTypeMismatch, "cannot compare a string with a number", n.Position)
}

func compareNumbers(op ast.BinaryOp, a, b float64) bool {
	switch op {
	case ast.OpLessThan:
		return a < b
	case ast.OpLessThanEqual:
		return a <= b
	case ast.OpGreaterThan:
		return a > b
	default:
		return a >= b
	}
}

func compareStrings(op ast.BinaryOp, a, b string) bool {
	switch op {
	case ast.OpLessThan:
		return a < b
	case ast.OpLessThanEqual:
		return a <= b
	case ast.OpGreaterThan:
		return a > b
	default:
		return a >= b
	}
}

// valuesEqual compares two already-defined values. Callers (evaluateBinary)
// short-circuit to false before reaching here whenever either side is
// Undefined - JSONata equality never holds for Undefined, not even
// Undefined = Undefined.
func valuesEqual(pool *value.Pool, lhs, rhs value.Handle) bool {
	return pool.Equal(lhs, rhs)
}

func evaluateIn(pool *value.Pool, n *ast.Node, lhs, rhs value.Handle) (value.Handle, error) {
	if pool.IsUndefined(rhs) {
		return pool.Bool(false), nil
	}
	if !pool.IsArray(rhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrArgumentTypeMismatch, "right side of \"in\" must be an array", n.Position)
	}
	if pool.IsUndefined(lhs) {
		return pool.Bool(false), nil
	}
	for _, m := range pool.Members(rhs) {
		if pool.Equal(lhs, m) {
			return pool.Bool(true), nil
		}
	}
	return pool.Bool(false), nil
}

func evaluateRange(pool *value.Pool, n *ast.Node, lhs, rhs value.Handle) (value.Handle, error) {
	if pool.IsUndefined(lhs) || pool.IsUndefined(rhs) {
		return value.Undefined, nil
	}
	if !pool.IsNumber(lhs) || math.Trunc(pool.Num(lhs)) != pool.Num(lhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrRangeStartNotInteger, "range start must be an integer", n.Position)
	}
	if !pool.IsNumber(rhs) || math.Trunc(pool.Num(rhs)) != pool.Num(rhs) {
		return value.Undefined, ast.NewPositionedError(ast.ErrRangeEndNotInteger, "range end must be an integer", n.Position)
	}
	lo, hi := int64(pool.Num(lhs)), int64(pool.Num(rhs))
	if hi < lo {
		return pool.Array(value.SEQUENCE), nil
	}
	if hi-lo+1 > maxRangeSize {
		return value.Undefined, ast.NewPositionedError(ast.ErrRangeTooLarge, "range exceeds the maximum of 10,000,000 elements", n.Position)
	}
	result := pool.Array(value.SEQUENCE)
	for i := lo; i <= hi; i++ {
		pool.Push(result, pool.Number(float64(i)))
	}
	return result, nil
}
