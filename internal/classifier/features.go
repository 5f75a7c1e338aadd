package classifier

import (
	"regexp"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/policy"
	"github.com/mrz1836/structure/internal/units"
)

// UnitToken is one unit mention found in the input.
type UnitToken struct {
	Raw       string
	Code      string // UCUM code, empty when ambiguous
	Dimension string
	Value     *float64
	Ambiguous bool
}

// RouteScore is the keyword score of one routing target.
type RouteScore struct {
	Domain    constants.Domain
	Subdomain string
	Score     int
}

// Features are the deterministic signals extracted from raw input.
type Features struct {
	Units          []UnitToken
	AmbiguousUnits []policy.UnitHit
	AmbiguousTerms []policy.TermHit
	HasEquations   bool
	NumericDensity float64
	Scores         []RouteScore // declaration order, zero scores omitted
	FileTargets    []string
	WritesFiles    bool
}

//nolint:gochecknoglobals // Compiled once
var (
	equationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`=`),
		regexp.MustCompile(`\$[^$]+\$`),
		regexp.MustCompile(`\\\[.*\\\]`),
		regexp.MustCompile(`[∫∑∏∂∇]`),
		regexp.MustCompile(`\bd/d[a-z]\b`),
	}
	numberPattern = regexp.MustCompile(`\b\d+\.?\d*\b`)
)

// ExtractFeatures computes the classification signals for text.
func (c *Classifier) ExtractFeatures(text string) Features {
	f := Features{
		AmbiguousUnits: c.policy.MatchAmbiguousUnits(text),
		AmbiguousTerms: c.policy.ScanTerms(text),
	}

	for _, m := range c.unitRe.FindAllStringSubmatch(text, -1) {
		tok := UnitToken{Raw: m[2], Value: parseNumber(m[1])}
		if u, ok := units.Lookup(m[2]); ok {
			tok.Code, tok.Dimension = u.Code, u.Dimension
		} else if _, amb := c.policy.AmbiguousUnit(m[2]); amb {
			tok.Ambiguous = true
		} else {
			continue
		}
		f.Units = append(f.Units, tok)
	}

	for _, re := range equationPatterns {
		if re.MatchString(text) {
			f.HasEquations = true
			break
		}
	}

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	f.NumericDensity = float64(len(numberPattern.FindAllString(text, -1))) / float64(words)

	folded := policy.Normalize(text)
	for _, r := range c.routes {
		score := 0
		for _, re := range r.patterns {
			if re.MatchString(folded) {
				score++
			}
		}
		if score > 0 {
			f.Scores = append(f.Scores, RouteScore{Domain: r.domain, Subdomain: r.subdomain, Score: score})
		}
	}

	f.FileTargets = policy.FileTargets(text)
	f.WritesFiles = len(f.FileTargets) > 0 && c.policy.MentionsWrite(text)
	return f
}

// NeedsUnits reports whether any unit, ambiguous or not, was mentioned.
func (f Features) NeedsUnits() bool {
	return len(f.Units) > 0 || len(f.AmbiguousUnits) > 0
}

// BestRoute returns the highest scoring route; the earliest declared wins ties.
func (f Features) BestRoute() (RouteScore, bool) {
	var best RouteScore
	found := false
	for _, s := range f.Scores {
		if !found || s.Score > best.Score {
			best, found = s, true
		}
	}
	return best, found
}

// TermNames returns the policy terms behind each ambiguous term hit.
func (f Features) TermNames() []string {
	out := make([]string, 0, len(f.AmbiguousTerms))
	for _, h := range f.AmbiguousTerms {
		out = append(out, h.Term)
	}
	return out
}

// Quantities converts unit tokens into spec quantity references.
func (f Features) Quantities() []domain.QuantityRef {
	out := make([]domain.QuantityRef, 0, len(f.Units))
	for _, u := range f.Units {
		id := u.Dimension
		if u.Ambiguous {
			id = "ambiguous"
		}
		out = append(out, domain.QuantityRef{
			QuantityID: id,
			Value:      u.Value,
			UnitUCUM:   u.Code,
			UnitRaw:    u.Raw,
		})
	}
	return out
}
