package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is the Go-side projection of an Object: it implements
// json.Marshaler so that encoding/json (which otherwise sorts map keys
// alphabetically) serializes object members in the order the query
// produced them.
type OrderedMap struct {
	Keys   []string
	Values []interface{}
}

// MarshalJSON writes the map as a JSON object preserving Keys order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToInterface converts h into a plain Go value suitable for json.Marshal:
// nil for Null, the Go scalar types for Bool/Number/String, []interface{}
// for arrays (flattening the internal Handle indirection, not the
// sequence-flattening rule — that already happened via Collapse), and
// *OrderedMap for objects so key order survives serialization. Undefined
// has no JSON representation and is reported as an error; callers that can
// produce Undefined at the top level (a query that matches nothing) must
// check IsUndefined before calling ToInterface.
func (p *Pool) ToInterface(h Handle) (interface{}, error) {
	n := p.at(h)
	switch n.kind {
	case KindUndefined:
		return nil, fmt.Errorf("value: cannot serialize undefined")
	case KindNull:
		return nil, nil
	case KindBool:
		return n.b, nil
	case KindNumber:
		return n.num, nil
	case KindString:
		return n.str, nil
	case KindArray:
		out := make([]interface{}, len(n.items))
		for i, m := range n.items {
			v, err := p.ToInterface(m)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindObject:
		om := &OrderedMap{Keys: n.obj.Keys()}
		om.Values = make([]interface{}, n.obj.Len())
		for i, k := range n.obj.Keys() {
			v, _ := n.obj.Get(k)
			iv, err := p.ToInterface(v)
			if err != nil {
				return nil, err
			}
			om.Values[i] = iv
		}
		return om, nil
	case KindFunction:
		return nil, fmt.Errorf("value: cannot serialize a function value")
	default:
		return nil, fmt.Errorf("value: unknown kind %d", n.kind)
	}
}

// FromInterface converts a decoded-JSON Go value (as produced by
// encoding/json.Unmarshal into interface{}, or by a YAML decoder using the
// same conventions) into a pool handle. map[string]interface{} loses the
// source's original key order — encoding/json does not preserve it — so
// objects parsed from raw input are ordered however Go's map iteration
// (randomized) happens to produce; objects the query itself constructs via
// `{...}` keep exact insertion order because those go through Object.Set
// directly rather than through this path.
func (p *Pool) FromInterface(v interface{}) Handle {
	switch val := v.(type) {
	case nil:
		return p.Null()
	case bool:
		return p.Bool(val)
	case float64:
		return p.Number(val)
	case json.Number:
		f, _ := val.Float64()
		return p.Number(f)
	case int:
		return p.Number(float64(val))
	case string:
		return p.String(val)
	case []interface{}:
		h := p.Array(0)
		for _, item := range val {
			p.Push(h, p.FromInterface(item))
		}
		return h
	case map[string]interface{}:
		h := p.Object()
		obj := p.Obj(h)
		for k, vv := range val {
			obj.Set(k, p.FromInterface(vv))
		}
		return h
	case *OrderedMap:
		h := p.Object()
		obj := p.Obj(h)
		for i, k := range val.Keys {
			obj.Set(k, p.FromInterface(val.Values[i]))
		}
		return h
	default:
		return p.Null()
	}
}
