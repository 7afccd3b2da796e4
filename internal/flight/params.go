package flight

import (
	"sort"

	"github.com/brunoga/deep"
)

// DefaultGroup receives gain updates whose group name is not in the schema.
const DefaultGroup = "Linear_PID"

// Params is the controller tuning table: named gain groups (maps of per-axis
// P/I/D vectors) next to scalar and vector limits. Values use the JSON
// representation: float64, []any and map[string]any.
type Params map[string]any

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return deep.MustCopy(p)
}

// Group returns the named gain group, or nil when name is absent or is a limit.
func (p Params) Group(name string) map[string]any {
	g, _ := p[name].(map[string]any)
	return g
}

// Merge applies a partial update. Fields of a known group are overwritten one
// by one, known limits are replaced, and unknown names are stored verbatim in
// DefaultGroup. Keys are never removed. It returns the update keys that could
// not be applied.
func (p Params) Merge(update map[string]any) (skipped []string) {
	names := make([]string, 0, len(update))
	for name := range update {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := Normalize(update[name])
		existing, known := p[name]
		if !known {
			def := p.Group(DefaultGroup)
			if def == nil {
				skipped = append(skipped, name)
				continue
			}
			def[name] = v
			continue
		}

		if group, isGroup := existing.(map[string]any); isGroup {
			fields, ok := v.(map[string]any)
			if !ok {
				skipped = append(skipped, name)
				continue
			}
			for field, fv := range fields {
				group[field] = fv
			}
			continue
		}

		// limits stay leaf values
		if _, ok := v.(map[string]any); ok {
			skipped = append(skipped, name)
			continue
		}
		p[name] = v
	}
	return skipped
}

// Normalize converts a decoded YAML or JSON value so that all numbers are
// float64 and all maps are map[string]any.
func Normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case Params:
		return Params(Normalize(map[string]any(t)).(map[string]any))
	default:
		return v
	}
}

// Floats reads a numeric vector such as a P/I/D entry. ok is false when v is
// not a list of numbers.
func Floats(v any) (vals []float64, ok bool) {
	list, isList := v.([]any)
	if !isList {
		return nil, false
	}
	vals = make([]float64, len(list))
	for i, e := range list {
		f, isNum := e.(float64)
		if !isNum {
			return nil, false
		}
		vals[i] = f
	}
	return vals, true
}
