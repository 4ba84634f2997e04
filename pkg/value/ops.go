package value

// WrapInArrayIfNeeded returns h unchanged if it is already an array;
// otherwise it allocates a new one-element array (flags, h) and returns
// that. Undefined wraps to an empty array rather than a one-element one,
// since "no value" should not become "an array holding no-value".
func (p *Pool) WrapInArrayIfNeeded(h Handle, flags Flags) Handle {
	if p.IsArray(h) {
		return h
	}
	if p.IsUndefined(h) {
		return p.Array(flags)
	}
	return p.ArrayOf(flags, h)
}

// Append implements JSONata's $append(arg1, arg2): concatenate two values
// as arrays, treating Undefined as the identity element. The result is a
// fresh array — arg1's own storage is never mutated in place, so the
// caller's original handle stays valid and unchanged.
func (p *Pool) Append(arg1, arg2 Handle) Handle {
	if p.IsUndefined(arg1) {
		return arg2
	}
	if p.IsUndefined(arg2) {
		return arg1
	}
	result := p.cloneArrayShallow(p.WrapInArrayIfNeeded(arg1, SEQUENCE))
	for _, m := range p.Members(p.WrapInArrayIfNeeded(arg2, 0)) {
		p.Push(result, m)
	}
	return result
}

// cloneArrayShallow allocates a new array node copying h's items and flags.
// h must already be an array handle.
func (p *Pool) cloneArrayShallow(h Handle) Handle {
	src := p.at(h)
	items := make([]Handle, len(src.items))
	copy(items, src.items)
	return p.alloc(node{kind: KindArray, items: items, flags: src.flags})
}

// Collapse applies the sequence-collapse rule at an expression boundary:
// an empty SEQUENCE becomes Undefined, a one-element SEQUENCE becomes that
// element unless SINGLETON is also set, and any other value (including a
// longer SEQUENCE, or any non-SEQUENCE array) passes through unchanged.
func (p *Pool) Collapse(h Handle) Handle {
	n := p.at(h)
	if n.kind != KindArray || n.flags&SEQUENCE == 0 {
		return h
	}
	if n.flags&SINGLETON != 0 {
		return h
	}
	switch len(n.items) {
	case 0:
		return Undefined
	case 1:
		return n.items[0]
	default:
		return h
	}
}

// Truthy implements JSONata's boolean-casting rules used by `and`/`or`,
// ternary conditions, and the `boolean()` builtin: Undefined/Null/empty
// string/zero/empty array/empty object are false; a non-empty array is
// true when at least one member is truthy; everything else is true.
func (p *Pool) Truthy(h Handle) bool {
	n := p.at(h)
	switch n.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return n.b
	case KindNumber:
		return n.num != 0
	case KindString:
		return len(n.str) > 0
	case KindArray:
		for _, m := range n.items {
			if p.Truthy(m) {
				return true
			}
		}
		return false
	case KindObject:
		return n.obj.Len() > 0
	case KindFunction:
		return false
	default:
		return false
	}
}

// Equal reports deep structural equality between h1 and h2, per JSONata's
// `=` operator: numbers compare by value, strings and bools by value,
// arrays element-wise in order, objects by key/value set regardless of
// key order, and Null only equals Null (not Undefined).
func (p *Pool) Equal(h1, h2 Handle) bool {
	n1, n2 := p.at(h1), p.at(h2)
	if n1.kind != n2.kind {
		// JSONata treats numerically-equal int/float uniformly since
		// numbers are always float64 here, so a kind mismatch is a real
		// type mismatch.
		return false
	}
	switch n1.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return n1.b == n2.b
	case KindNumber:
		return n1.num == n2.num
	case KindString:
		return n1.str == n2.str
	case KindArray:
		if len(n1.items) != len(n2.items) {
			return false
		}
		for i := range n1.items {
			if !p.Equal(n1.items[i], n2.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if n1.obj.Len() != n2.obj.Len() {
			return false
		}
		for _, k := range n1.obj.Keys() {
			v1, _ := n1.obj.Get(k)
			v2, ok := n2.obj.Get(k)
			if !ok || !p.Equal(v1, v2) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
