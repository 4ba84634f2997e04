// Package frame implements the lexical scope chain the evaluator threads
// through every recursive call: one Frame per block/lambda invocation,
// linked to its defining (not calling) parent, exactly like the teacher's
// EvalContext but carrying value.Handle bindings instead of interface{}.
package frame

import "github.com/sandrolain/jexpr/pkg/value"

// Frame is one lexical scope. Variable lookup walks from a Frame up
// through its parent chain, so a lambda's body sees the bindings visible
// where the lambda was *defined*, not where it is *called* — this is what
// makes closures work.
type Frame struct {
	parent   *Frame
	bindings map[string]value.Handle
}

// New creates a root frame with no parent.
func New() *Frame {
	return &Frame{bindings: make(map[string]value.Handle)}
}

// Child creates a new frame nested under f. Used on entry to a block or a
// lambda body so bindings made inside don't leak back out.
func (f *Frame) Child() *Frame {
	return &Frame{parent: f, bindings: make(map[string]value.Handle)}
}

// Bind sets name in this frame. A bind always creates or overwrites a
// binding local to f, even if an ancestor frame already bound the same
// name (shadowing, not mutation-through).
func (f *Frame) Bind(name string, h value.Handle) {
	f.bindings[name] = h
}

// Lookup searches f and its ancestors for name, returning (handle, true)
// on the first match found walking outward from f.
func (f *Frame) Lookup(name string) (value.Handle, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if h, ok := cur.bindings[name]; ok {
			return h, true
		}
	}
	return value.Undefined, false
}
