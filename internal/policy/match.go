package policy

import (
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
)

// TermKind distinguishes the two kinds of ambiguous term.
type TermKind string

// Term kinds.
const (
	KindDisallowed TermKind = "disallowed"
	KindCollision  TermKind = "collision"
)

// TermHit is one ambiguous term found in text.
type TermHit struct {
	Kind      TermKind
	Term      string // policy term, not the matched surface text
	Field     string // required clarification field
	Question  string
	Canonical string // quantity id for collisions
	Options   []domain.ClarifyOption
	Start     int
	End       int
}

// ReasonCode returns the gate reason code for the hit.
func (h TermHit) ReasonCode() string {
	if h.Kind == KindCollision {
		return constants.ReasonTermCollision
	}
	return constants.ReasonDisallowedTerm
}

// UnitHit is one ambiguous unit found in text.
type UnitHit struct {
	Unit     string
	Matched  string
	Action   constants.Decision
	Question string
	Options  []domain.ClarifyOption
	Field    string
}

// ScanTerms returns the ambiguous terms in text that are not resolved by a
// disambiguator, ordered by position. A hit nested inside a longer hit is
// dropped, so "specific weight" does not also report "weight".
func (p *Policy) ScanTerms(text string) []TermHit {
	folded := Normalize(text)
	var hits []TermHit
	for _, m := range p.terms {
		if m.kind == KindDisallowed && containsAny(folded, m.disambiguators) {
			continue
		}
		for _, loc := range m.re.FindAllStringSubmatchIndex(folded, -1) {
			hits = append(hits, TermHit{
				Kind:      m.kind,
				Term:      m.term,
				Field:     m.field,
				Question:  m.question,
				Canonical: m.canonical,
				Options:   m.options,
				Start:     loc[2],
				End:       loc[3],
			})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Start != hits[j].Start {
			return hits[i].Start < hits[j].Start
		}
		return hits[i].End-hits[i].Start > hits[j].End-hits[j].Start
	})

	out := make([]TermHit, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	lastEnd := -1
	for _, h := range hits {
		if h.Start < lastEnd {
			continue
		}
		lastEnd = h.End
		if _, dup := seen[h.Field]; dup {
			continue
		}
		seen[h.Field] = struct{}{}
		out = append(out, h)
	}
	return out
}

// MatchAmbiguousUnits returns one hit per ambiguous unit entry present in text.
func (p *Policy) MatchAmbiguousUnits(text string) []UnitHit {
	folded := Normalize(text)
	var out []UnitHit
	for _, m := range p.units {
		loc := m.re.FindStringSubmatchIndex(folded)
		if loc == nil {
			continue
		}
		out = append(out, UnitHit{
			Unit:     m.entry.Unit,
			Matched:  folded[loc[2]:loc[3]],
			Action:   m.entry.Action,
			Question: m.entry.Question,
			Options:  m.entry.Options,
			Field:    fieldName(m.entry.Unit) + "_unit_clarification",
		})
	}
	return out
}

// AmbiguousUnit returns the policy entry for a unit or one of its aliases.
func (p *Policy) AmbiguousUnit(raw string) (AmbiguousUnit, bool) {
	folded := Normalize(strings.TrimSpace(raw))
	folded = strings.TrimSuffix(folded, "s")
	for _, u := range p.tables.AmbiguousUnits {
		if Normalize(u.Unit) == folded {
			return u, true
		}
		for _, a := range u.Aliases {
			if Normalize(a) == folded {
				return u, true
			}
		}
	}
	return AmbiguousUnit{}, false
}

// UnitField returns the clarification field used for an ambiguous unit.
func UnitField(unit string) string {
	return fieldName(unit) + "_unit_clarification"
}

// MentionsHumanSubjects reports whether text refers to human participants.
func (p *Policy) MentionsHumanSubjects(text string) bool {
	return anyMatch(p.humans, Normalize(text))
}

// MentionsEthics reports whether text references ethics review or consent.
func (p *Policy) MentionsEthics(text string) bool {
	return anyMatch(p.ethics, Normalize(text))
}

// RiskIndicators returns the risk indicators present in text.
func (p *Policy) RiskIndicators(text string) []string {
	folded := Normalize(text)
	var out []string
	for i, re := range p.risks {
		if re.MatchString(folded) {
			out = append(out, p.tables.ExperimentSafety.RiskIndicators[i])
		}
	}
	return out
}

// MentionsWrite reports whether text asks for a file to be written.
func (p *Policy) MentionsWrite(text string) bool {
	return anyMatch(p.writeVerbs, Normalize(text))
}

// DeniedPath reports whether target matches a deny pattern, either as a full
// path or by base name.
func (p *Policy) DeniedPath(target string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}
	base := path.Base(strings.ReplaceAll(target, "\\", "/"))
	for _, pattern := range p.tables.FileWrite.DenyPatterns {
		if ok, _ := path.Match(pattern, target); ok {
			return pattern, true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return pattern, true
		}
		if strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/*") &&
			strings.HasPrefix(target, strings.TrimSuffix(pattern, "*")) {
			return pattern, true
		}
	}
	return "", false
}

// SecretTokens returns the secret-bearing tokens in text. Tokens are split on
// anything that is not a letter or digit, so "API_KEY" yields "key".
func (p *Policy) SecretTokens(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		candidates := []string{tok, strings.TrimSuffix(tok, "s")}
		for _, c := range candidates {
			if _, ok := p.secrets[c]; !ok {
				continue
			}
			if _, dup := seen[c]; dup {
				break
			}
			seen[c] = struct{}{}
			out = append(out, c)
			break
		}
	}
	return out
}

// FileTargets extracts path-like tokens from text (anything containing a
// slash or a dot followed by letters, or a leading dot).
func FileTargets(text string) []string {
	var out []string
	for _, f := range strings.Fields(text) {
		f = strings.Trim(f, "\"'`,;:()[]{}")
		if f == "" || strings.HasSuffix(f, ".") {
			f = strings.TrimSuffix(f, ".")
			if f == "" {
				continue
			}
		}
		if strings.ContainsAny(f, "/\\") || strings.HasPrefix(f, ".") || looksLikeFileName(f) {
			out = append(out, f)
		}
	}
	return out
}

func looksLikeFileName(s string) bool {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return false
	}
	for _, r := range s[i+1:] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s)-i-1 <= 5
}

func containsAny(text string, subs []string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(text, s) {
			return true
		}
	}
	return false
}
