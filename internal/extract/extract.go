// Package extract is the rule-based parameter extraction pass that fills a
// TaskSpec's args from the request text. It is pure and deterministic.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mrz1836/structure/internal/policy"
	"github.com/mrz1836/structure/internal/units"
)

// Extractor pulls kernel arguments out of free text.
type Extractor struct {
	policy     *policy.Policy
	conversion *regexp.Regexp
	reverse    *regexp.Regexp
	constants  []constantMatcher
}

type constantMatcher struct {
	name string
	re   *regexp.Regexp
}

//nolint:gochecknoglobals // Compiled once
var (
	listPattern       = regexp.MustCompile(`\[([^\]]*)\]`)
	dataPattern       = regexp.MustCompile(`(?i)\b(?:data|values|numbers|dataset|observations)\s*(?:of|:|=)?\s*(-?\d+(?:\.\d+)?(?:\s*,\s*-?\d+(?:\.\d+)?)+)`)
	analysisPattern   = regexp.MustCompile(`(?i)\b(?:mean|median|average|avg|statistics|stats|summarize|summarise|summary|analyze|analyse|describe|variance|standard deviation)\b[^\d\-\[\n]{0,24}?(-?\d+(?:\.\d+)?(?:\s*,\s*-?\d+(?:\.\d+)?)+)`)
	numberPattern     = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	sampleSizePattern = regexp.MustCompile(`(?i)\b(?:sample size(?: of| is| =|:)?|n\s*=)\s*(\d+)\b|\b(\d+)\s+(?:participants|subjects|respondents|patients|volunteers)\b`)
	effectPattern     = regexp.MustCompile(`(?i)\beffect size(?: of| =|:)?\s*(\d*\.?\d+)`)
	alphaPattern      = regexp.MustCompile(`(?i)\b(?:alpha|significance level)(?: of| =|:)?\s*(\d*\.?\d+)`)
	powerPattern      = regexp.MustCompile(`(?i)\bpower(?: of| =|:)?\s*(\d*\.?\d+)`)
	pathPattern       = regexp.MustCompile(`(?i)\b(?:to|into|as)\s+(\S+\.[a-z0-9]{1,5}|\S*/\S+)`)
)

// constantNames maps phrases to constants kernel names. Longer phrases
// are matched first.
//
//nolint:gochecknoglobals // Read-only lookup table
var constantNames = map[string]string{
	"standard gravity":            "g",
	"acceleration due to gravity": "g",
	"gravity":                     "g",
	"pi":                          "pi",
	"speed of light":              "c",
	"avogadro":                    "avogadro",
	"boltzmann":                   "boltzmann",
	"gas constant":                "gas_constant",
	"planck":                      "planck",
	"density of water":            "water_density",
	"water density":               "water_density",
	"specific weight of water":    "water_specific_weight",
	"water's specific weight":     "water_specific_weight",
	"specific weight":             "water_specific_weight",
	"atmospheric pressure":        "atm",
	"euler":                       "e",
}

// New returns an Extractor. A nil policy uses the built-in tables.
func New(p *policy.Policy) *Extractor {
	if p == nil {
		p = policy.Default()
	}
	unit := unitAlternation(p)
	return &Extractor{
		policy: p,
		conversion: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*` + unit +
			`\s*(?:\b(?:to|in|into)\b|=\s*\??)\s*` + unit + `(?:$|[^\p{L}\p{N}_])`),
		reverse: regexp.MustCompile(`(?i)\b` + unit + `\s+(?:are\s+)?in\s+(\d+(?:\.\d+)?)\s*` +
			unit + `(?:$|[^\p{L}\p{N}_])`),
		constants: compileConstants(),
	}
}

// Extract returns the arguments found in text. Keys are only present when a
// value was found.
func (e *Extractor) Extract(text string) map[string]any {
	args := map[string]any{}

	lists := listPattern.FindAllStringSubmatch(text, -1)
	switch {
	case len(lists) >= 2:
		args["x"] = parseNumbers(lists[0][1])
		args["y"] = parseNumbers(lists[1][1])
	case len(lists) == 1:
		args["data"] = parseNumbers(lists[0][1])
	default:
		if m := dataPattern.FindStringSubmatch(text); m != nil {
			args["data"] = parseNumbers(m[1])
		} else if m := analysisPattern.FindStringSubmatch(text); m != nil {
			args["data"] = parseNumbers(m[1])
		}
	}

	if m := sampleSizePattern.FindStringSubmatch(text); m != nil {
		n := m[1]
		if n == "" {
			n = m[2]
		}
		if v, err := strconv.Atoi(n); err == nil {
			args["sample_size"] = float64(v)
		}
	}
	setFloat(args, "effect_size", effectPattern, text)
	setFloat(args, "alpha", alphaPattern, text)
	setFloat(args, "power", powerPattern, text)

	if op := operation(text, args); op != "" {
		args["operation"] = op
	}

	if m := e.conversion.FindStringSubmatch(text); m != nil {
		e.setConversion(args, m[1], m[2], m[3])
	} else if m := e.reverse.FindStringSubmatch(text); m != nil {
		e.setConversion(args, m[2], m[3], m[1])
	}

	if name := e.constantName(text); name != "" {
		args["name"] = name
	}

	if e.policy.MentionsWrite(text) {
		if m := pathPattern.FindStringSubmatch(text); m != nil {
			args["path"] = strings.TrimRight(m[1], ".,;:!?")
		}
	}
	return args
}

func (e *Extractor) setConversion(args map[string]any, value, from, to string) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}
	args["value"] = v
	args["from_unit"] = e.unitArg(from)
	args["to_unit"] = e.unitArg(to)
}

// unitArg returns the UCUM code for raw, or raw itself when the unit is
// ambiguous or unknown so the clarify resolver can rewrite it later.
func (e *Extractor) unitArg(raw string) string {
	if u, ok := units.Lookup(raw); ok {
		return u.Code
	}
	if entry, ok := e.policy.AmbiguousUnit(raw); ok {
		return entry.Unit
	}
	return raw
}

func operation(text string, args map[string]any) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "regression") || strings.Contains(lower, "correlation"):
		return "regression"
	case strings.Contains(lower, "t-test") || strings.Contains(lower, "t test") ||
		(args["x"] != nil && strings.Contains(lower, "compare")):
		return "t_test"
	case strings.Contains(lower, "sample size") && args["effect_size"] != nil:
		return "sample_size"
	case strings.Contains(lower, "power analysis"):
		return "sample_size"
	case args["data"] != nil:
		return "descriptive"
	}
	return ""
}

func (e *Extractor) constantName(text string) string {
	folded := policy.Normalize(text)
	for _, c := range e.constants {
		if c.re.MatchString(folded) {
			return c.name
		}
	}
	return ""
}

// compileConstants orders phrases longest first so "standard gravity" wins
// over "gravity".
func compileConstants() []constantMatcher {
	phrases := make([]string, 0, len(constantNames))
	for p := range constantNames {
		phrases = append(phrases, p)
	}
	sortLongestFirst(phrases)

	out := make([]constantMatcher, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, constantMatcher{
			name: constantNames[p],
			re:   regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(p) + `(?:$|[^\p{L}\p{N}_])`),
		})
	}
	return out
}

func sortLongestFirst(s []string) {
	sort.Slice(s, func(i, j int) bool {
		if len(s[i]) != len(s[j]) {
			return len(s[i]) > len(s[j])
		}
		return s[i] < s[j]
	})
}

func setFloat(args map[string]any, key string, re *regexp.Regexp, text string) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return
	}
	if v, err := strconv.ParseFloat(m[1], 64); err == nil {
		args[key] = v
	}
}

func parseNumbers(s string) []any {
	out := []any{}
	for _, n := range numberPattern.FindAllString(s, -1) {
		if v, err := strconv.ParseFloat(n, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// unitAlternation returns a capturing group over every unit spelling,
// longest first, with an optional plural "s".
func unitAlternation(p *policy.Policy) string {
	alts := units.Aliases()
	alts = append(alts, units.Codes()...)
	for _, u := range p.Tables().AmbiguousUnits {
		alts = append(alts, u.Unit)
		alts = append(alts, u.Aliases...)
	}
	sortLongestFirst(alts)
	quoted := make([]string, len(alts))
	for i, a := range alts {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(a), " ", `\s+`)
	}
	return `(` + strings.Join(quoted, "|") + `)s?`
}
