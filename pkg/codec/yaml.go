// Package codec converts between JSON-compatible Go values and YAML text,
// so a query's input or result can cross the process boundary in either
// format without the caller hand-rolling a JSON<->YAML bridge.
package codec

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// DecodeYAML parses raw YAML into a JSON-compatible interface{} tree
// (map[string]interface{}, []interface{}, string, float64, bool, nil) —
// the same shape encoding/json.Unmarshal produces, so the result feeds
// directly into jexpr.Eval.
func DecodeYAML(raw []byte) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("codec: decode yaml: %w", err)
	}
	return normalizeYAMLValue(v), nil
}

// EncodeYAML serializes a query result (or any JSON-compatible value)
// back to YAML text.
func EncodeYAML(v interface{}) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode yaml: %w", err)
	}
	return out, nil
}

// normalizeYAMLValue walks a decoded YAML tree converting
// map[interface{}]interface{} nodes (and any non-string map key) into
// map[string]interface{}, and integer scalars into float64, matching the
// shape the evaluator's value pool expects from encoding/json. goccy/go-yaml
// already decodes mappings as
// map[string]interface{} when keys are scalars, but nested sequences and
// interface{} wrapping still need a recursive pass.
func normalizeYAMLValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLValue(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLValue(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return t
	}
}
