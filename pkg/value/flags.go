// Package value implements the pooled, arena-backed value model that the
// evaluator operates on: every intermediate result of evaluating a query is
// a Handle into a Pool rather than a freestanding Go value. This mirrors
// the bump-pointer arena the teacher used for AST nodes (pkg/ast.NodeArena),
// applied here to runtime data instead of compile-time syntax, and it is
// what lets sequence/array semantics be tracked precisely: a JSON array has
// exactly one shape, but a JSONata sequence produced by path navigation
// carries extra bookkeeping (SEQUENCE, SINGLETON, CONS, WRAPPED) that a bare
// []interface{} cannot represent.
package value

// Flags is a bitset describing why an array exists and how it should
// behave at sequence-collapse boundaries (see Pool.Collapse).
type Flags uint8

const (
	// SEQUENCE marks an array built by path navigation to hold the
	// (possibly multiple) results of stepping through a document. A
	// SEQUENCE is collapsed at expression boundaries: empty becomes
	// Undefined, a single element becomes that element (unless SINGLETON
	// is also set), otherwise it is returned as an array.
	SEQUENCE Flags = 1 << iota

	// SINGLETON forces a one-element SEQUENCE to stay an array instead of
	// collapsing to its lone member. Set on a path result when the source
	// query used a trailing `[]`.
	SINGLETON

	// CONS marks an array written as an explicit `[...]` constructor in
	// the query. It suppresses implicit flattening of that array's own
	// elements into an enclosing path-step sequence.
	CONS

	// WRAPPED marks an array created purely to hold a single non-array
	// value; it carries no flattening or collapsing semantics. No code in
	// this module sets it (Append wraps its operands with SEQUENCE).
	WRAPPED
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}
