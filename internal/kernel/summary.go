package kernel

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
)

// Data summary operations.
const (
	OpPivot        = "pivot"
	OpSummary      = "summary"
	OpMissing      = "missing"
	OpDistribution = "distribution"
)

const dataSummarySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"operation": {"type": "string"},
		"data": {"type": "array", "minItems": 1},
		"values": {"type": "array", "minItems": 1, "items": {"type": "number"}},
		"columns": {"type": "array", "items": {"type": "string"}},
		"group_by": {"type": "string"},
		"value_column": {"type": "string"},
		"agg_func": {"enum": ["sum", "mean", "count", "min", "max"]},
		"bins": {"type": "integer", "minimum": 1, "maximum": 1000}
	},
	"anyOf": [
		{"required": ["data"]},
		{"required": ["values"]}
	]
}`

const defaultBins = 10

// DataSummary aggregates tabular rows (list of objects) and numeric series.
type DataSummary struct {
	base
}

// NewDataSummary returns the data_summary_v1 kernel.
func NewDataSummary(c clock.Clock) *DataSummary {
	return &DataSummary{base: newBase(constants.KernelDataSummary, "1.0.0", constants.DeterminismD1, dataSummarySchema, c)}
}

// Execute dispatches on args["operation"]. Operations of other kernels
// are ignored: rows default to a column summary and numbers to a
// distribution.
func (k *DataSummary) Execute(_ context.Context, in domain.KernelInput) domain.KernelOutput {
	if err := k.ValidateArgs(in.Args); err != nil {
		return k.invalid(in, err)
	}
	op := stringArg(in.Args, "operation")
	switch op {
	case OpPivot, OpSummary, OpMissing, OpDistribution:
	default:
		op = OpDistribution
		if len(rowsArg(in.Args, "data")) > 0 {
			op = OpSummary
		}
	}

	switch op {
	case OpPivot:
		return k.pivot(in)
	case OpSummary:
		return k.summary(in)
	case OpMissing:
		return k.missing(in)
	default:
		return k.distribution(in)
	}
}

func (k *DataSummary) pivot(in domain.KernelInput) domain.KernelOutput {
	rows := rowsArg(in.Args, "data")
	groupBy := stringArg(in.Args, "group_by")
	valueCol := stringArg(in.Args, "value_column")
	agg := stringArg(in.Args, "agg_func")
	if agg == "" {
		agg = "sum"
	}
	if len(rows) == 0 {
		return k.fail(in, "data cannot be empty")
	}
	if groupBy == "" || valueCol == "" {
		return k.fail(in, "group_by and value_column are required")
	}

	groups := map[string][]float64{}
	for _, row := range rows {
		key, hasKey := row[groupBy]
		v, isNum := toFloat(row[valueCol])
		if !hasKey || key == nil || !isNum {
			continue
		}
		name := fmt.Sprint(key)
		groups[name] = append(groups[name], v)
	}

	out := make(map[string]any, len(groups))
	for key, values := range groups {
		out[key] = aggregate(agg, values)
	}
	return k.ok(in, map[string]any{
		"pivot":        out,
		"group_by":     groupBy,
		"value_column": valueCol,
		"agg_func":     agg,
		"num_groups":   len(out),
	})
}

func aggregate(fn string, values []float64) any {
	switch fn {
	case "mean":
		return round(mean(values), 4)
	case "count":
		return len(values)
	case "min":
		return slices.Min(values)
	case "max":
		return slices.Max(values)
	default:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	}
}

func (k *DataSummary) summary(in domain.KernelInput) domain.KernelOutput {
	rows := rowsArg(in.Args, "data")
	if len(rows) == 0 {
		return k.fail(in, "data must be a non-empty list of rows")
	}

	var columns []string
	if list, ok := in.Args["columns"].([]any); ok {
		for _, c := range list {
			if s, isStr := c.(string); isStr {
				columns = append(columns, s)
			}
		}
	} else if list, ok := in.Args["columns"].([]string); ok {
		columns = list
	}
	if len(columns) == 0 {
		columns = columnNames(rows)
	}

	summaries := make(map[string]any, len(columns))
	for _, col := range columns {
		summaries[col] = summarizeColumn(rows, col)
	}
	return k.ok(in, map[string]any{
		"summaries":        summaries,
		"total_rows":       len(rows),
		"columns_analyzed": len(summaries),
	})
}

func summarizeColumn(rows []map[string]any, col string) map[string]any {
	var numeric []float64
	var present []any
	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		present = append(present, v)
		if _, isStr := v.(string); isStr {
			continue
		}
		if f, isNum := toFloat(v); isNum {
			numeric = append(numeric, f)
		}
	}

	if len(numeric) > 0 {
		sorted := slices.Clone(numeric)
		sort.Float64s(sorted)
		m := mean(numeric)
		return map[string]any{
			"type":   "numeric",
			"count":  len(numeric),
			"mean":   round(m, 4),
			"median": round(median(sorted), 4),
			"std":    round(math.Sqrt(sampleVariance(numeric, m)), 4),
			"min":    sorted[0],
			"max":    sorted[len(sorted)-1],
		}
	}

	counts := map[string]int{}
	for _, v := range present {
		counts[fmt.Sprint(v)]++
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	top := map[string]int{}
	for _, key := range keys[:min(5, len(keys))] {
		top[key] = counts[key]
	}
	return map[string]any{
		"type":       "categorical",
		"count":      len(present),
		"unique":     len(counts),
		"top_values": top,
	}
}

func columnNames(rows []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (k *DataSummary) missing(in domain.KernelInput) domain.KernelOutput {
	rows := rowsArg(in.Args, "data")
	if len(rows) == 0 {
		return k.fail(in, "data must be a non-empty list of rows")
	}

	columns := columnNames(rows)
	report := make(map[string]any, len(columns))
	totalMissing := 0
	for _, col := range columns {
		count := 0
		for _, row := range rows {
			if v, ok := row[col]; !ok || v == nil {
				count++
			}
		}
		totalMissing += count
		report[col] = map[string]any{
			"missing_count": count,
			"missing_pct":   round(float64(count)/float64(len(rows))*100, 2),
			"present_count": len(rows) - count,
		}
	}

	completeness := 100.0
	if cells := len(rows) * len(columns); cells > 0 {
		completeness = round((1-float64(totalMissing)/float64(cells))*100, 2)
	}
	return k.ok(in, map[string]any{
		"missing_by_column": report,
		"total_rows":        len(rows),
		"total_columns":     len(columns),
		"total_missing":     totalMissing,
		"completeness_pct":  completeness,
	})
}

func (k *DataSummary) distribution(in domain.KernelInput) domain.KernelOutput {
	values, ok := floatsArg(in.Args, "values")
	if !ok {
		values, _ = floatsArg(in.Args, "data")
	}
	if len(values) == 0 {
		return k.fail(in, "no numeric values found")
	}
	bins := int(floatArg(in.Args, "bins", defaultBins))
	if bins < 1 {
		bins = defaultBins
	}

	n := len(values)
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	m := mean(values)
	std := math.Sqrt(sampleVariance(values, m))

	var skew, kurt float64
	if std > 0 && n > 2 {
		for _, v := range values {
			skew += math.Pow(v-m, 3)
		}
		skew /= float64(n) * math.Pow(std, 3)
	}
	if std > 0 && n > 3 {
		for _, v := range values {
			kurt += math.Pow(v-m, 4)
		}
		kurt = kurt/(float64(n)*math.Pow(std, 4)) - 3
	}

	lo, hi := sorted[0], sorted[n-1]
	var histogram []map[string]any
	if lo == hi {
		histogram = []map[string]any{{"bin_start": lo, "bin_end": hi, "count": n}}
	} else {
		width := (hi - lo) / float64(bins)
		histogram = make([]map[string]any, 0, bins)
		for i := range bins {
			start := lo + float64(i)*width
			end := lo + float64(i+1)*width
			last := i == bins-1
			count := 0
			for _, v := range values {
				if (v >= start && v < end) || (last && v == hi) {
					count++
				}
			}
			histogram = append(histogram, map[string]any{
				"bin_start": round(start, 4),
				"bin_end":   round(end, 4),
				"count":     count,
			})
		}
	}

	return k.ok(in, map[string]any{
		"n":         n,
		"mean":      round(m, 4),
		"median":    round(median(sorted), 4),
		"std":       round(std, 4),
		"min":       lo,
		"max":       hi,
		"skewness":  round(skew, 4),
		"kurtosis":  round(kurt, 4),
		"histogram": histogram,
	})
}
