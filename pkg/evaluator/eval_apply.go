package evaluator

import (
	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/frame"
	"github.com/sandrolain/jexpr/pkg/value"
)

// lambdaClosure is the concrete type stashed behind value.LambdaBody.Closure
// for a user-defined function: the AST body plus the frame in effect where
// the lambda literal was evaluated. Capturing the *defining* frame (not the
// *calling* one) is what gives JSONata lambdas lexical closures.
type lambdaClosure struct {
	node *ast.Node
	fr   *frame.Frame
}

// evaluateLambda turns a `function($a, $b){ ... }` literal into a function
// value. No work happens until it is applied.
func (e *Evaluator) evaluateLambda(n *ast.Node, pool *value.Pool, fr *frame.Frame) value.Handle {
	return pool.Function(&value.Function{
		Name:   n.LamName,
		Params: n.Params,
		Lambda: &value.LambdaBody{Closure: &lambdaClosure{node: n.Body, fr: fr}},
	})
}

// evaluateFunction evaluates `proc(args...)`: proc may be any expression
// that yields a function value (a bare name bound to a builtin, a
// variable holding a lambda, or an immediately-invoked lambda literal).
func (e *Evaluator) evaluateFunction(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	fnVal, err := e.evaluate(n.Proc, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	fnVal = pool.Collapse(fnVal)

	args := make([]value.Handle, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evaluate(a, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		args[i] = pool.Collapse(v)
	}
	return e.applyFunction(fnVal, args, pool)
}

// evaluateApply implements `lhs ~> rhs`: evaluate lhs, then call rhs as a
// function with lhs prepended as its first argument. When rhs is itself a
// call node (`x ~> f(a, b)`), lhs becomes f's first argument ahead of a
// and b; when rhs is a bare function reference (`x ~> f`), lhs becomes
// its sole argument.
func (e *Evaluator) evaluateApply(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	lhs, err := e.evaluate(n.LHS, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	lhs = pool.Collapse(lhs)

	if n.RHS.Type == ast.NodeFunc {
		fnVal, err := e.evaluate(n.RHS.Proc, input, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		fnVal = pool.Collapse(fnVal)
		if !pool.IsFunction(fnVal) {
			return value.Undefined, ast.NewPositionedError(ast.ErrChainRHSNotFunction, "right side of \"~>\" must be a function", n.Position)
		}
		args := make([]value.Handle, 0, len(n.RHS.Args)+1)
		args = append(args, lhs)
		for _, a := range n.RHS.Args {
			v, err := e.evaluate(a, input, pool, fr)
			if err != nil {
				return value.Undefined, err
			}
			args = append(args, pool.Collapse(v))
		}
		return e.applyFunction(fnVal, args, pool)
	}

	fnVal, err := e.evaluate(n.RHS, input, pool, fr)
	if err != nil {
		return value.Undefined, err
	}
	fnVal = pool.Collapse(fnVal)
	if !pool.IsFunction(fnVal) {
		return value.Undefined, ast.NewPositionedError(ast.ErrChainRHSNotFunction, "right side of \"~>\" must be a function", n.Position)
	}
	return e.applyFunction(fnVal, []value.Handle{lhs}, pool)
}

// applyFunction invokes fn (native or lambda) with args, the single choke
// point both direct calls and $-chaining (~>) and native higher-order
// builtins like $filter route through, mirroring the reference
// evaluator's apply_function.
func (e *Evaluator) applyFunction(fn value.Handle, args []value.Handle, pool *value.Pool) (value.Handle, error) {
	if !pool.IsFunction(fn) {
		return value.Undefined, ast.NewError(ast.ErrInvokeNonFunction, "attempted to invoke a non-function value")
	}
	f := pool.Fn(fn)
	full := make([]value.Handle, 0, len(f.Bound)+len(args))
	full = append(full, f.Bound...)
	full = append(full, args...)

	if f.Native != nil {
		cc := &value.CallContext{Pool: pool, Apply: e.applyClosure(pool)}
		return f.Native(cc, full)
	}

	closure := f.Lambda.Closure.(*lambdaClosure)
	callFrame := closure.fr.Child()
	for i, p := range f.Params {
		// A call with fewer arguments than declared parameters binds the
		// missing ones to Undefined rather than erroring, matching plain
		// out-of-range member access against the argument list.
		bound := value.Undefined
		if i < len(full) {
			bound = full[i]
		}
		callFrame.Bind("$"+p, bound)
	}
	if f.Name != "" {
		callFrame.Bind("$"+f.Name, fn)
	}
	var bodyInput value.Handle = value.Undefined
	if len(full) > 0 {
		bodyInput = full[0]
	}
	return e.evaluate(closure.node, bodyInput, pool, callFrame)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
