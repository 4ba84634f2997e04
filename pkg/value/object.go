package value

// Object is an insertion-ordered string-keyed map: JSONata objects must
// round-trip key order through $each/$keys/serialization, which a plain Go
// map cannot guarantee. A duplicate Set overwrites the existing slot's
// value but keeps its original position — "last write wins" on value, but
// not on position.
type Object struct {
	keys []string
	vals []Handle
	idx  map[string]int
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{idx: make(map[string]int)}
}

// Set inserts or overwrites key. Returns true if key already existed.
func (o *Object) Set(key string, val Handle) bool {
	if i, ok := o.idx[key]; ok {
		o.vals[i] = val
		return true
	}
	o.idx[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, val)
	return false
}

// Get looks up key, returning (Undefined, false) when absent.
func (o *Object) Get(key string) (Handle, bool) {
	i, ok := o.idx[key]
	if !ok {
		return Undefined, false
	}
	return o.vals[i], true
}

// Keys returns the object's keys in insertion order. The returned slice
// must not be mutated by the caller.
func (o *Object) Keys() []string { return o.keys }

// Values returns the object's values in the same order as Keys.
func (o *Object) Values() []Handle { return o.vals }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }
