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

// Statistics operations.
const (
	OpDescriptive = "descriptive"
	OpSampleSize  = "sample_size"
	OpTTest       = "t_test"
	OpRegression  = "regression"
)

const statisticsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"operation": {"enum": ["descriptive", "sample_size", "t_test", "regression"]},
		"data": {"type": "array", "items": {"type": "number"}},
		"x": {"type": "array", "items": {"type": "number"}},
		"y": {"type": "array", "items": {"type": "number"}},
		"group1": {"type": "array", "items": {"type": "number"}},
		"group2": {"type": "array", "items": {"type": "number"}},
		"effect_size": {"type": "number", "exclusiveMinimum": 0},
		"alpha": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
		"power": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
		"ratio": {"type": "number", "exclusiveMinimum": 0}
	},
	"anyOf": [
		{"required": ["operation"]},
		{"required": ["data"]},
		{"required": ["effect_size"]},
		{"required": ["power"]},
		{"required": ["group1", "group2"]},
		{"required": ["x", "y"]}
	]
}`

// tCritical05 holds two-tailed critical t values at alpha 0.05 by degrees
// of freedom. Intermediate values are interpolated linearly.
//
//nolint:gochecknoglobals // Read-only lookup table
var tCritical05 = map[int]float64{
	1: 12.706, 2: 4.303, 3: 3.182, 4: 2.776, 5: 2.571, 6: 2.447, 7: 2.365,
	8: 2.306, 9: 2.262, 10: 2.228, 15: 2.131, 20: 2.086, 25: 2.060, 30: 2.042,
	40: 2.021, 50: 2.009, 60: 2.000, 80: 1.990, 100: 1.984, 120: 1.980,
}

// Statistics computes descriptive statistics, required sample sizes, Welch
// two-sample t-tests and simple linear regressions.
type Statistics struct {
	base
}

// NewStatistics returns the statistics_v1 kernel.
func NewStatistics(c clock.Clock) *Statistics {
	return &Statistics{base: newBase(constants.KernelStatistics, "1.0.0", constants.DeterminismD1, statisticsSchema, c)}
}

// Execute dispatches on args["operation"], inferring it from the args
// when absent.
func (k *Statistics) Execute(_ context.Context, in domain.KernelInput) domain.KernelOutput {
	if err := k.ValidateArgs(in.Args); err != nil {
		return k.invalid(in, err)
	}
	switch op := inferOperation(in.Args); op {
	case OpSampleSize:
		return k.sampleSize(in)
	case OpTTest:
		return k.tTest(in)
	case OpDescriptive:
		return k.descriptive(in)
	case OpRegression:
		return k.regression(in)
	default:
		return k.fail(in, "unknown operation: %q", op)
	}
}

func inferOperation(args map[string]any) string {
	if op := stringArg(args, "operation"); op != "" {
		return op
	}
	switch {
	case hasArg(args, "effect_size") || hasArg(args, "power"):
		return OpSampleSize
	case hasArg(args, "group1") && hasArg(args, "group2"):
		return OpTTest
	case hasArg(args, "data"):
		return OpDescriptive
	case hasArg(args, "x") && hasArg(args, "y"):
		return OpRegression
	}
	return ""
}

func (k *Statistics) sampleSize(in domain.KernelInput) domain.KernelOutput {
	effect := floatArg(in.Args, "effect_size", 0.5)
	alpha := floatArg(in.Args, "alpha", 0.05)
	power := floatArg(in.Args, "power", 0.80)
	ratio := floatArg(in.Args, "ratio", 1.0)

	zAlpha := normalQuantile(1 - alpha/2)
	zBeta := normalQuantile(power)
	perGroup := 2 * math.Pow(zAlpha+zBeta, 2) / (effect * effect)

	n1 := int(math.Ceil(perGroup))
	n2 := int(math.Ceil(perGroup * ratio))
	return k.ok(in, map[string]any{
		"n1":          n1,
		"n2":          n2,
		"total_n":     n1 + n2,
		"effect_size": effect,
		"alpha":       alpha,
		"power":       power,
		"formula":     "n = 2 * ((z_alpha + z_beta) / effect_size)^2",
	})
}

func (k *Statistics) tTest(in domain.KernelInput) domain.KernelOutput {
	g1, ok1 := floatsArg(in.Args, "group1")
	g2, ok2 := floatsArg(in.Args, "group2")
	if !ok1 || !ok2 {
		g1, _ = floatsArg(in.Args, "x")
		g2, _ = floatsArg(in.Args, "y")
	}
	alpha := floatArg(in.Args, "alpha", 0.05)

	if len(g1) < 2 || len(g2) < 2 {
		return k.fail(in, "each group must have at least 2 values")
	}

	n1, n2 := float64(len(g1)), float64(len(g2))
	m1, m2 := mean(g1), mean(g2)
	v1, v2 := sampleVariance(g1, m1), sampleVariance(g2, m2)

	se := math.Sqrt(v1/n1 + v2/n2)
	if se == 0 {
		return k.fail(in, "standard error is zero (no variance in data)")
	}
	t := (m1 - m2) / se

	// Welch-Satterthwaite
	df := n1 + n2 - 2
	if den := math.Pow(v1/n1, 2)/(n1-1) + math.Pow(v2/n2, 2)/(n2-1); den > 0 {
		df = math.Pow(v1/n1+v2/n2, 2) / den
	}

	crit := tCritical(int(df), alpha)
	significant := math.Abs(t) > crit
	decision := "Fail to reject H0"
	if significant {
		decision = "Reject H0"
	}
	return k.ok(in, map[string]any{
		"t_statistic":        round(t, 4),
		"degrees_of_freedom": round(df, 2),
		"t_critical":         round(crit, 4),
		"alpha":              alpha,
		"significant":        significant,
		"decision":           decision,
		"mean_group1":        round(m1, 4),
		"mean_group2":        round(m2, 4),
		"mean_difference":    round(m1-m2, 4),
	})
}

func (k *Statistics) descriptive(in domain.KernelInput) domain.KernelOutput {
	data, _ := floatsArg(in.Args, "data")
	if len(data) == 0 {
		return k.fail(in, "data cannot be empty")
	}

	n := len(data)
	sorted := slices.Clone(data)
	sort.Float64s(sorted)

	m := mean(data)
	variance := sampleVariance(data, m)

	q1, q3 := sorted[0], sorted[n-1]
	if n > 4 {
		q1, q3 = sorted[n/4], sorted[3*n/4]
	}
	return k.ok(in, map[string]any{
		"n":        n,
		"mean":     round(m, 4),
		"median":   round(median(sorted), 4),
		"std":      round(math.Sqrt(variance), 4),
		"variance": round(variance, 4),
		"min":      sorted[0],
		"max":      sorted[n-1],
		"range":    sorted[n-1] - sorted[0],
		"q1":       q1,
		"q3":       q3,
		"iqr":      q3 - q1,
	})
}

func (k *Statistics) regression(in domain.KernelInput) domain.KernelOutput {
	x, _ := floatsArg(in.Args, "x")
	y, _ := floatsArg(in.Args, "y")
	if len(x) != len(y) {
		return k.fail(in, "x and y must have same length (%d vs %d)", len(x), len(y))
	}
	if len(x) < 2 {
		return k.fail(in, "need at least 2 data points")
	}

	mx, my := mean(x), mean(y)
	var sxy, sxx float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	if sxx == 0 {
		return k.fail(in, "no variance in x (cannot fit line)")
	}
	slope := sxy / sxx
	intercept := my - slope*mx

	var ssRes, ssTot float64
	for i := range x {
		pred := slope*x[i] + intercept
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - my) * (y[i] - my)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	r := math.Sqrt(r2)
	if slope < 0 {
		r = -r
	}
	return k.ok(in, map[string]any{
		"slope":       round(slope, 4),
		"intercept":   round(intercept, 4),
		"r_squared":   round(r2, 4),
		"correlation": round(r, 4),
		"equation":    fmt.Sprintf("y = %v * x + %v", round(slope, 4), round(intercept, 4)),
		"n":           len(x),
	})
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// sampleVariance uses the n-1 denominator; a single value has variance 0.
func sampleVariance(v []float64, m float64) float64 {
	if len(v) < 2 {
		return 0
	}
	var ss float64
	for _, x := range v {
		ss += (x - m) * (x - m)
	}
	return ss / float64(len(v)-1)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// normalQuantile is the inverse standard normal CDF.
func normalQuantile(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

func tCritical(df int, alpha float64) float64 {
	if math.Abs(alpha-0.05) > 1e-9 {
		return normalQuantile(1 - alpha/2)
	}
	if v, ok := tCritical05[df]; ok {
		return v
	}
	keys := make([]int, 0, len(tCritical05))
	for k := range tCritical05 {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for i, hi := range keys {
		if hi <= df {
			continue
		}
		if i == 0 {
			return tCritical05[hi]
		}
		lo := keys[i-1]
		tl, th := tCritical05[lo], tCritical05[hi]
		return tl + (th-tl)*float64(df-lo)/float64(hi-lo)
	}
	return normalQuantile(1 - alpha/2)
}
