package domain

import "maps"

// cloneValue deep-copies the JSON-like values carried in args and context maps.
// Scalars are returned as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}

// cloneMap deep-copies a context/args map. A nil map stays nil.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneMap exposes the deep copy used for context maps to other packages.
func CloneMap(m map[string]any) map[string]any {
	return cloneMap(m)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
