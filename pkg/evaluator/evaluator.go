// Package evaluator walks the AST produced by pkg/parser against a pooled
// input value, following the dispatch structure of the reference
// jsonata-rs evaluator (evaluate / evaluate_block / evaluate_var /
// evaluate_unary_op / evaluate_binary_op / evaluate_ternary /
// evaluate_path / evaluate_step / evaluate_filter / evaluate_function /
// apply_function) rather than the teacher's binary-recursive path walker,
// since the flattened Path AST this module's parser produces needs that
// shape of dispatch to stay correct.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/frame"
	"github.com/sandrolain/jexpr/pkg/value"
)

// EvalOptions configures an Evaluator. Constructed via functional options,
// the same pattern the teacher used for its own Evaluator.
type EvalOptions struct {
	logger *slog.Logger
}

// EvalOption mutates EvalOptions.
type EvalOption func(*EvalOptions)

// WithLogger overrides the evaluator's structured logger. The default logs
// to stderr at Warn level.
func WithLogger(l *slog.Logger) EvalOption {
	return func(o *EvalOptions) { o.logger = l }
}

// Evaluator runs compiled expressions against input data. It holds no
// per-query state, so one Evaluator is safe to reuse (and share across
// goroutines) for many calls to Eval.
type Evaluator struct {
	log *slog.Logger
}

// New creates an Evaluator with the given options applied over sane
// defaults.
func New(opts ...EvalOption) *Evaluator {
	o := &EvalOptions{logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))}
	for _, opt := range opts {
		opt(o)
	}
	return &Evaluator{log: o.logger}
}

// Eval evaluates an already-parsed Expression against input, returning a
// plain Go value (nil, bool, float64, string, []interface{},
// *value.OrderedMap) ready for json.Marshal. A query that matches nothing
// (JSONata "undefined") reports success with a nil result, the same
// convention JSON uses for null.
func (e *Evaluator) Eval(ctx context.Context, expr *ast.Expression, input interface{}) (interface{}, error) {
	return e.EvalWithBindings(ctx, expr, input, nil)
}

// EvalWithBindings is Eval plus extra top-level variable bindings (e.g.
// caller-supplied parameters), exposed for host integrations that want to
// inject values without embedding them in the query text.
func (e *Evaluator) EvalWithBindings(ctx context.Context, expr *ast.Expression, input interface{}, bindings map[string]interface{}) (interface{}, error) {
	pool := value.New()
	root := frame.New()
	registerBuiltins(pool, root, e.applyClosure(pool))

	inputHandle := pool.FromInterface(input)
	root.Bind("$", inputHandle)
	root.Bind("$$", inputHandle)

	for k, v := range bindings {
		root.Bind("$"+k, pool.FromInterface(v))
	}

	e.log.DebugContext(ctx, "evaluating expression", "source", expr.Source())

	result, err := e.evaluate(expr.Root(), inputHandle, pool, root)
	if err != nil {
		return nil, err
	}
	result = pool.Collapse(result)
	if pool.IsUndefined(result) {
		return nil, nil
	}
	return pool.ToInterface(result)
}

// applyClosure returns the function the builtins bind into
// value.CallContext.Apply, so a native function like $filter can invoke a
// JSONata function value without this package's functions.go importing
// evaluator.go's own types (both already live in this package, but the
// indirection keeps value.Function's Native signature independent of any
// particular evaluator implementation).
func (e *Evaluator) applyClosure(pool *value.Pool) func(fn value.Handle, args []value.Handle) (value.Handle, error) {
	return func(fn value.Handle, args []value.Handle) (value.Handle, error) {
		return e.applyFunction(fn, args, pool)
	}
}

// evaluate is the single dispatch point every other eval_*.go function
// recurses back through, mirroring the reference evaluator's central
// `evaluate` match statement.
func (e *Evaluator) evaluate(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	if n == nil {
		return value.Undefined, nil
	}
	switch n.Type {
	case ast.NodeNull:
		return pool.Null(), nil
	case ast.NodeBool:
		return pool.Bool(n.Bool), nil
	case ast.NodeString:
		return pool.String(n.Str), nil
	case ast.NodeNumber:
		return pool.Number(n.Number), nil
	case ast.NodeVar:
		return e.evaluateVar(n, input, fr), nil
	case ast.NodeName:
		return lookupField(pool, input, n.Name), nil
	case ast.NodeBlock:
		return e.evaluateBlock(n, input, pool, fr)
	case ast.NodeUnary:
		return e.evaluateUnary(n, input, pool, fr)
	case ast.NodeBinary:
		return e.evaluateBinary(n, input, pool, fr)
	case ast.NodeTernary:
		return e.evaluateTernary(n, input, pool, fr)
	case ast.NodePath:
		return e.evaluatePath(n, input, pool, fr)
	case ast.NodeLambda:
		return e.evaluateLambda(n, pool, fr), nil
	case ast.NodeFunc:
		return e.evaluateFunction(n, input, pool, fr)
	case ast.NodeSort:
		return value.Undefined, ast.NewPositionedError(ast.ErrInvokeNonFunction, "order-by is not implemented", n.Position)
	case ast.NodeFilter:
		return e.evaluate(n.Predicate, input, pool, fr)
	default:
		return value.Undefined, fmt.Errorf("evaluator: unhandled node type %q", n.Type)
	}
}

// evaluateVar resolves $, $$, and $name references. An empty Name denotes
// the context value $ and returns input directly; any other Name is looked
// up in the frame chain as "$"+Name.
func (e *Evaluator) evaluateVar(n *ast.Node, input value.Handle, fr *frame.Frame) value.Handle {
	if n.Name == "" {
		return input
	}
	if h, ok := fr.Lookup("$" + n.Name); ok {
		return h
	}
	return value.Undefined
}

// lookupField implements the `lookup` builtin the reference evaluator
// calls directly from path-step dispatch: on an object, the named member;
// on an array, the sequence of that member from every element that has
// it; otherwise Undefined.
func lookupField(pool *value.Pool, input value.Handle, name string) value.Handle {
	switch pool.Kind(input) {
	case value.KindObject:
		if h, ok := pool.Obj(input).Get(name); ok {
			return h
		}
		return value.Undefined
	case value.KindArray:
		result := pool.Array(value.SEQUENCE)
		for _, m := range pool.Members(input) {
			v := lookupField(pool, m, name)
			if pool.IsUndefined(v) {
				continue
			}
			result = pool.Append(result, v)
		}
		return result
	default:
		return value.Undefined
	}
}

// evaluateBlock runs each statement in a fresh child frame so `:=`
// bindings inside the block do not leak to sibling blocks, returning the
// last statement's value (or Undefined for an empty block).
func (e *Evaluator) evaluateBlock(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	child := fr.Child()
	var result value.Handle = value.Undefined
	for _, stmt := range n.Exprs {
		v, err := e.evaluate(stmt, input, pool, child)
		if err != nil {
			return value.Undefined, err
		}
		result = v
	}
	return result, nil
}
