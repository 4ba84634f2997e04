package evaluator

import (
	"sort"

	"github.com/sandrolain/jexpr/pkg/ast"
	"github.com/sandrolain/jexpr/pkg/frame"
	"github.com/sandrolain/jexpr/pkg/value"
)

// evaluatePath walks a flattened Path's steps left to right, threading the
// running sequence as the "input" of the next step, then applies any
// trailing group-by on the path's last step. This replaces the teacher's
// recursive evalPath/evalDescendent pair (which walked a binary LHS/RHS
// chain) because this module's parser never produces that shape — every
// `.`-chain is flattened into one Path node up front.
func (e *Evaluator) evaluatePath(n *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	cur := input
	var lastStep *ast.Node
	for i, step := range n.Steps {
		last := i == len(n.Steps)-1
		lastStep = step

		var v value.Handle
		var err error
		if i == 0 && isConsArrayLiteral(step) {
			v, err = e.evaluate(step, cur, pool, fr)
		} else {
			v, err = e.evaluateStep(step, cur, pool, fr, last)
		}
		if err != nil {
			return value.Undefined, err
		}
		cur = v

		if len(step.Predicates) > 0 {
			cur, err = e.applyPredicates(step.Predicates, cur, pool, fr)
			if err != nil {
				return value.Undefined, err
			}
		}
	}
	if lastStep != nil && len(lastStep.GroupBy) > 0 {
		return e.evaluateGroup(lastStep.GroupBy, cur, pool, fr, lastStep.Position)
	}
	if (n.KeepArray || (lastStep != nil && lastStep.KeepArray)) && pool.IsArray(cur) {
		pool.AddFlags(cur, value.SINGLETON)
	}
	return cur, nil
}

func isConsArrayLiteral(n *ast.Node) bool {
	return n.Type == ast.NodeUnary && n.UOp == ast.UnaryArray && n.ConsArray
}

// evaluateStep evaluates step once per member of input, collecting the
// per-member results into a SEQUENCE and then flattening: a last step
// whose sole result is itself a plain (non-SEQUENCE) array is unwrapped
// outright, otherwise every non-CONS array member is spliced into the
// result in place of itself.
func (e *Evaluator) evaluateStep(step *ast.Node, input value.Handle, pool *value.Pool, fr *frame.Frame, last bool) (value.Handle, error) {
	result := pool.Array(value.SEQUENCE)
	for _, item := range pool.Members(input) {
		v, err := e.evaluate(step, item, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		if !pool.IsUndefined(v) {
			pool.Push(result, v)
		}
	}

	if last && pool.Len(result) == 1 {
		only := pool.Get(result, 0)
		if pool.IsArray(only) && pool.Flags(only)&value.SEQUENCE == 0 {
			return only, nil
		}
	}

	flat := pool.Array(value.SEQUENCE)
	for _, item := range pool.Members(result) {
		if pool.IsArray(item) && pool.Flags(item)&value.CONS == 0 {
			for _, m := range pool.Members(item) {
				pool.Push(flat, m)
			}
		} else {
			pool.Push(flat, item)
		}
	}
	return flat, nil
}

// applyPredicates narrows cur by each trailing `[predicate]` in turn. A
// predicate that evaluates to a number selects the element at that index
// (negative counts from the end); a predicate that evaluates to an array
// of numbers selects every one of those indices, in ascending order
// regardless of how they were listed (`a[[1..3,8,-1]]`); any other value
// is tested for truthiness. Each filter starts from the previous filter's
// surviving set, so `a[0][b > 1]` first picks index 0 of `a`, then tests
// `b > 1` against what remains.
func (e *Evaluator) applyPredicates(preds []*ast.Node, cur value.Handle, pool *value.Pool, fr *frame.Frame) (value.Handle, error) {
	for _, pred := range preds {
		members := pool.Members(cur)
		next := pool.Array(value.SEQUENCE)

		v, err := e.evaluate(pred, wholeArrayContext(pool, cur), pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		v = pool.Collapse(v)

		if pool.IsArray(v) && allNumbers(pool, v) {
			cur = selectByIndices(pool, members, v)
			continue
		}

		for i, m := range members {
			mv, err := e.evaluate(pred, m, pool, fr)
			if err != nil {
				return value.Undefined, err
			}
			mv = pool.Collapse(mv)
			keep := false
			if pool.IsNumber(mv) {
				idx := int(pool.Num(mv))
				if idx < 0 {
					idx += len(members)
				}
				keep = idx == i
			} else {
				keep = pool.Truthy(mv)
			}
			if keep {
				pool.Push(next, m)
			}
		}
		cur = next
	}
	return cur, nil
}

// wholeArrayContext picks the input a predicate is probed against once,
// up front, to see whether it yields a multi-index selector: for a
// non-empty array-valued cur that context is its first member, otherwise
// cur itself. A range literal like `[1..3,8,-1]` ignores its input
// entirely, so it evaluates the same whichever member is used.
func wholeArrayContext(pool *value.Pool, cur value.Handle) value.Handle {
	if pool.IsArray(cur) && pool.Len(cur) > 0 {
		return pool.Get(cur, 0)
	}
	return cur
}

func allNumbers(pool *value.Pool, arr value.Handle) bool {
	members := pool.Members(arr)
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !pool.IsNumber(m) {
			return false
		}
	}
	return true
}

// selectByIndices resolves each index in idxArr (negative counts from the
// end) against members, de-duplicates, sorts ascending so the result
// preserves original array order, and returns the surviving members.
func selectByIndices(pool *value.Pool, members []value.Handle, idxArr value.Handle) value.Handle {
	seen := make(map[int]bool)
	var indices []int
	for _, iv := range pool.Members(idxArr) {
		idx := int(pool.Num(iv))
		if idx < 0 {
			idx += len(members)
		}
		if idx < 0 || idx >= len(members) || seen[idx] {
			continue
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	result := pool.Array(value.SEQUENCE)
	for _, idx := range indices {
		pool.Push(result, members[idx])
	}
	return result
}

// groupEntry tracks which object-pair produced a group-by key, so a second
// pair producing the same key can be rejected as ambiguous (D1009).
type groupEntry struct {
	pairIndex int
	items     []value.Handle
	order     int
}

// evaluateGroup implements `path{k1: v1, k2: v2, ...}`: every object pair
// is evaluated once per member of cur (keyed off that member as context),
// grouping members that produce the same key string. The value expression
// for a key is then evaluated once against the full set of members that
// shared it (collapsed to a scalar when only one member matched), so
// aggregate expressions like `{Product: $sum(Price)}` see the whole group.
func (e *Evaluator) evaluateGroup(pairs []ast.ObjectPair, cur value.Handle, pool *value.Pool, fr *frame.Frame, pos int) (value.Handle, error) {
	groups := make(map[string]*groupEntry)
	var order []string

	members := pool.Members(cur)
	if len(members) == 0 {
		members = []value.Handle{value.Undefined}
	}

	for _, item := range members {
		for pi, pair := range pairs {
			kv, err := e.evaluate(pair.Key, item, pool, fr)
			if err != nil {
				return value.Undefined, err
			}
			kv = pool.Collapse(kv)
			if !pool.IsString(kv) {
				return value.Undefined, ast.NewPositionedError(ast.ErrGroupKeyNotString, "group-by key must evaluate to a string", pos)
			}
			key := pool.Str(kv)
			if g, ok := groups[key]; ok {
				if g.pairIndex != pi {
					return value.Undefined, ast.NewPositionedError(ast.ErrGroupDuplicateKey, "multiple group-by expressions produce the key \""+key+"\"", pos)
				}
				g.items = append(g.items, item)
			} else {
				groups[key] = &groupEntry{pairIndex: pi, items: []value.Handle{item}, order: len(order)}
				order = append(order, key)
			}
		}
	}

	h := pool.Object()
	obj := pool.Obj(h)
	for _, key := range order {
		g := groups[key]
		groupInput := pool.Array(value.SEQUENCE)
		for _, it := range g.items {
			pool.Push(groupInput, it)
		}
		groupInput = pool.Collapse(groupInput)
		v, err := e.evaluate(pairs[g.pairIndex].Value, groupInput, pool, fr)
		if err != nil {
			return value.Undefined, err
		}
		obj.Set(key, pool.Collapse(v))
	}
	return h, nil
}
