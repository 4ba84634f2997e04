package evaluator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/frame"
	"github.com/sandrolain/jexpr/pkg/value"
)

// registerBuiltins binds the small set of native functions the evaluator
// calls directly (lookup, append, string, boolean, count, filter) plus a
// handful of everyday scalar/aggregate helpers, into root so every query
// can reach them as `$name(...)`. Regex, date/time, and the rest of
// JSONata's higher-order library are deliberately not implemented here;
// see DESIGN.md.
func registerBuiltins(pool *value.Pool, root *frame.Frame, applyFn func(fn value.Handle, args []value.Handle) (value.Handle, error)) {
	// bind registers a native function under "$name", wrapped so a call
	// supplying more than maxArgs arguments (the function's own declared
	// arity, context parameter included) raises T0410 instead of silently
	// ignoring the extras.
	bind := func(name string, maxArgs int, native func(c *value.CallContext, args []value.Handle) (value.Handle, error)) {
		wrapped := func(c *value.CallContext, args []value.Handle) (value.Handle, error) {
			if len(args) > maxArgs {
				return value.Undefined, ast.NewError(ast.ErrArgumentCountMismatch,
					"function \""+name+"\" expects at most "+itoa(maxArgs)+" argument(s), got "+itoa(len(args)))
			}
			return native(c, args)
		}
		h := pool.Function(&value.Function{Name: name, Native: wrapped})
		root.Bind("$"+name, h)
	}

	bind("lookup", 2, fnLookup)
	bind("append", 2, fnAppend)
	bind("string", 1, fnString)
	bind("boolean", 1, fnBoolean)
	bind("not", 1, fnNot)
	bind("count", 1, fnCount)
	bind("filter", 2, fnFilter)
	bind("substring", 3, fnSubstring)
	bind("lowercase", 1, fnLowercase)
	bind("uppercase", 1, fnUppercase)
	bind("abs", 1, fnAbs)
	bind("floor", 1, fnFloor)
	bind("ceil", 1, fnCeil)
	bind("max", 1, fnMax)
	bind("min", 1, fnMin)
	bind("sum", 1, fnSum)
}

func fnLookup(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 2 || !c.Pool.IsString(args[1]) {
		return value.Undefined, nil
	}
	return lookupField(c.Pool, args[0], c.Pool.Str(args[1])), nil
}

func fnAppend(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 2 {
		return value.Undefined, nil
	}
	return c.Pool.Append(args[0], args[1]), nil
}

func fnBoolean(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || c.Pool.IsUndefined(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.Bool(c.Pool.Truthy(args[0])), nil
}

func fnNot(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || c.Pool.IsUndefined(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.Bool(!c.Pool.Truthy(args[0])), nil
}

func fnCount(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 {
		return c.Pool.Number(0), nil
	}
	return c.Pool.Number(float64(c.Pool.Len(args[0]))), nil
}

// fnFilter implements $filter(array, predicate): predicate is called as
// predicate($value, $index, $array), trimmed to however many parameters a
// lambda actually declares so a single-argument `function($v){$v>1}` works
// without an arity mismatch.
func fnFilter(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 2 {
		return value.Undefined, nil
	}
	arr, fn := args[0], args[1]
	members := c.Pool.Members(arr)
	result := c.Pool.Array(value.SEQUENCE)
	nParams := 3
	if c.Pool.IsFunction(fn) {
		if f := c.Pool.Fn(fn); f != nil && f.Lambda != nil {
			nParams = len(f.Params)
		}
	}
	for i, item := range members {
		callArgs := []value.Handle{item, c.Pool.Number(float64(i)), arr}
		if nParams < 3 {
			callArgs = callArgs[:nParams]
		}
		v, err := c.Apply(fn, callArgs)
		if err != nil {
			return value.Undefined, err
		}
		if c.Pool.Truthy(c.Pool.Collapse(v)) {
			c.Pool.Push(result, item)
		}
	}
	return result, nil
}

func fnSubstring(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 2 || !c.Pool.IsString(args[0]) || !c.Pool.IsNumber(args[1]) {
		return value.Undefined, nil
	}
	runes := []rune(c.Pool.Str(args[0]))
	start := int(c.Pool.Num(args[1]))
	if start < 0 {
		start = len(runes) + start
		if start < 0 {
			start = 0
		}
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if len(args) >= 3 && c.Pool.IsNumber(args[2]) {
		l := int(c.Pool.Num(args[2]))
		if l < 0 {
			l = 0
		}
		if start+l < end {
			end = start + l
		}
	}
	return c.Pool.String(string(runes[start:end])), nil
}

func fnLowercase(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || !c.Pool.IsString(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.String(strings.ToLower(c.Pool.Str(args[0]))), nil
}

func fnUppercase(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || !c.Pool.IsString(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.String(strings.ToUpper(c.Pool.Str(args[0]))), nil
}

func fnAbs(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || !c.Pool.IsNumber(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.Number(math.Abs(c.Pool.Num(args[0]))), nil
}

func fnFloor(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || !c.Pool.IsNumber(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.Number(math.Floor(c.Pool.Num(args[0]))), nil
}

func fnCeil(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || !c.Pool.IsNumber(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.Number(math.Ceil(c.Pool.Num(args[0]))), nil
}

func fnMax(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	return numericAggregate(c, args, false)
}

func fnMin(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	return numericAggregate(c, args, true)
}

func numericAggregate(c *value.CallContext, args []value.Handle, wantMin bool) (value.Handle, error) {
	if len(args) < 1 || c.Pool.IsUndefined(args[0]) {
		return value.Undefined, nil
	}
	members := c.Pool.Members(args[0])
	if len(members) == 0 {
		return value.Undefined, nil
	}
	best := c.Pool.Num(members[0])
	for _, m := range members[1:] {
		n := c.Pool.Num(m)
		if (wantMin && n < best) || (!wantMin && n > best) {
			best = n
		}
	}
	return c.Pool.Number(best), nil
}

func fnSum(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || c.Pool.IsUndefined(args[0]) {
		return c.Pool.Number(0), nil
	}
	total := 0.0
	for _, m := range c.Pool.Members(args[0]) {
		total += c.Pool.Num(m)
	}
	return c.Pool.Number(total), nil
}

func fnString(c *value.CallContext, args []value.Handle) (value.Handle, error) {
	if len(args) < 1 || c.Pool.IsUndefined(args[0]) {
		return value.Undefined, nil
	}
	return c.Pool.String(stringify(c.Pool, args[0])), nil
}

// stringify renders h as JSONata's `$string` / `&` concatenation would:
// strings pass through unquoted, numbers use Go's shortest round-trip
// form, and everything else is JSON-encoded.
func stringify(pool *value.Pool, h value.Handle) string {
	switch pool.Kind(h) {
	case value.KindUndefined:
		return ""
	case value.KindString:
		return pool.Str(h)
	case value.KindNumber:
		return strconv.FormatFloat(pool.Num(h), 'g', -1, 64)
	case value.KindBool:
		return strconv.FormatBool(pool.BoolOf(h))
	case value.KindNull:
		return "null"
	default:
		iv, err := pool.ToInterface(h)
		if err != nil {
			return ""
		}
		b, err := json.Marshal(iv)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
