package kernel

import (
	"encoding/json"
	"math"
	"strconv"
)

// Args come from the extractor as []any of float64, from Go callers as
// typed slices, or from decoded JSON. Numeric strings are accepted.

func floatArg(args map[string]any, key string, def float64) float64 {
	if v, ok := toFloat(args[key]); ok {
		return v
	}
	return def
}

func hasArg(args map[string]any, key string) bool {
	v, ok := args[key]
	return ok && v != nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// floatsArg returns the numeric elements of a list argument. ok is false
// when the argument is missing or not a list.
func floatsArg(args map[string]any, key string) (values []float64, ok bool) {
	switch list := args[key].(type) {
	case []float64:
		return append([]float64(nil), list...), true
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, 0, len(list))
		for _, e := range list {
			if f, isNum := toFloat(e); isNum {
				out = append(out, f)
			}
		}
		return out, true
	}
	return nil, false
}

// rowsArg returns a list argument whose elements are objects.
func rowsArg(args map[string]any, key string) []map[string]any {
	switch list := args[key].(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, e := range list {
			if row, ok := e.(map[string]any); ok {
				out = append(out, row)
			}
		}
		return out
	}
	return nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
