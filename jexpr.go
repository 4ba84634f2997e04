// Package jexpr provides a Go implementation of a JSONata-style query and
// transformation language for JSON data.
//
// jexpr is designed around a pooled, handle-based value representation
// (pkg/value) so a single evaluation allocates far fewer heap objects than
// a tree of interface{} values would, and a flattened-path AST (pkg/ast)
// so `.`-chains evaluate without recursing back through a binary LHS/RHS
// node for every step.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := jexpr.Eval("$.name", data)
//
//	// Compile once, evaluate many times
//	expr, err := jexpr.Compile("$.items[price > 100]")
//	result1, _ := jexpr.New().Eval(ctx, expr, data1)
//	result2, _ := jexpr.New().Eval(ctx, expr, data2)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/jexpr/pkg/parser
//   - Evaluator: github.com/sandrolain/jexpr/pkg/evaluator
//   - AST: github.com/sandrolain/jexpr/pkg/ast
//   - Value pool: github.com/sandrolain/jexpr/pkg/value
package jexpr

import (
	"context"
	"fmt"
	"time"

	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/cache"
	"github.com/sandrolain/jexpr/pkg/evaluator"
	"github.com/sandrolain/jexpr/pkg/parser"
)

// Version returns the current version of this module.
func Version() string {
	return "v0.1.0-dev"
}

// Compile compiles a query for repeated evaluation. The compiled
// Expression is safe for concurrent use by multiple goroutines.
func Compile(query string, opts ...parser.CompileOption) (*ast.Expression, error) {
	return parser.Compile(query, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be
// compiled. It simplifies safe initialization of package-level variables.
func MustCompile(query string) *ast.Expression {
	expr, err := Compile(query)
	if err != nil {
		panic(fmt.Sprintf("jexpr: Compile(%q): %v", query, err))
	}
	return expr
}

// EvalOption is a re-export of evaluator.EvalOption so callers only need
// to import this top-level package.
type EvalOption = evaluator.EvalOption

// New creates an Evaluator. Re-exported so callers do not need to import
// pkg/evaluator directly for repeated evaluation of cached expressions.
func New(opts ...EvalOption) *evaluator.Evaluator {
	return evaluator.New(opts...)
}

// Eval is a convenience function that compiles and evaluates an
// expression in a single call. It passes a context with a 30-second
// deadline to Evaluator.Eval, which uses the context only for logging;
// evaluation is not interrupted when the deadline passes.
//
// For repeated evaluations of the same query string, compile once with
// Compile (or use an ExpressionCache) and call Evaluator.Eval directly.
func Eval(query string, data interface{}, opts ...EvalOption) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	expr, err := Compile(query)
	if err != nil {
		return nil, err
	}
	return evaluator.New(opts...).Eval(ctx, expr, data)
}

// ExpressionCache pairs pkg/cache's LRU with Compile, so repeated calls
// with the same query string skip re-parsing.
type ExpressionCache struct {
	c *cache.Cache
}

// NewExpressionCache creates an ExpressionCache with the given capacity
// (<=0 uses pkg/cache's default of 256 entries).
func NewExpressionCache(capacity int) *ExpressionCache {
	return &ExpressionCache{c: cache.New(capacity)}
}

// Compile returns the cached Expression for query, compiling and caching
// it on first use.
func (c *ExpressionCache) Compile(query string) (*ast.Expression, error) {
	return c.c.GetOrCompile(query, func() (*ast.Expression, error) {
		return Compile(query)
	})
}

// Eval compiles (or reuses a cached compile of) query and evaluates it
// against data.
func (c *ExpressionCache) Eval(ctx context.Context, query string, data interface{}, opts ...EvalOption) (interface{}, error) {
	expr, err := c.Compile(query)
	if err != nil {
		return nil, err
	}
	return evaluator.New(opts...).Eval(ctx, expr, data)
}
