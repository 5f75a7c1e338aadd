package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Policy is a compiled, immutable set of tables.
type Policy struct {
	tables     Tables
	units      []unitMatcher
	terms      []termMatcher
	humans     []*regexp.Regexp
	ethics     []*regexp.Regexp
	risks      []*regexp.Regexp
	writeVerbs []*regexp.Regexp
	secrets    map[string]struct{}
}

type unitMatcher struct {
	entry AmbiguousUnit
	re    *regexp.Regexp
}

type termMatcher struct {
	kind           TermKind
	term           string
	field          string
	question       string
	disambiguators []string
	canonical      string
	options        []domain.ClarifyOption
	re             *regexp.Regexp
}

// New validates and compiles t.
func New(t Tables) (*Policy, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	p := &Policy{tables: t, secrets: make(map[string]struct{}, len(t.FileWrite.SecretTokens))}

	for _, u := range t.AmbiguousUnits {
		p.units = append(p.units, unitMatcher{entry: u, re: wordPattern(append([]string{u.Unit}, u.Aliases...)...)})
	}
	for _, d := range t.DisallowedTerms {
		p.terms = append(p.terms, termMatcher{
			kind:           KindDisallowed,
			term:           d.Term,
			field:          fieldName(d.Term) + "_clarification",
			question:       d.Question,
			disambiguators: foldAll(d.Disambiguators),
			options:        d.Options,
			re:             wordPattern(d.Term),
		})
	}
	for _, q := range t.Quantities {
		if len(q.CollidesWith) == 0 {
			continue
		}
		for _, alias := range q.Aliases {
			p.terms = append(p.terms, termMatcher{
				kind:      KindCollision,
				term:      alias,
				field:     fieldName(alias) + "_disambiguation",
				question:  q.Hint,
				canonical: q.ID,
				options:   q.Options,
				re:        wordPattern(alias),
			})
		}
	}
	p.humans = wordPatterns(t.ExperimentSafety.HumanSubjectKeywords)
	p.ethics = wordPatterns(t.ExperimentSafety.EthicsKeywords)
	p.risks = wordPatterns(t.ExperimentSafety.RiskIndicators)
	p.writeVerbs = wordPatterns(t.FileWrite.WriteVerbs)
	for _, s := range t.FileWrite.SecretTokens {
		p.secrets[Normalize(s)] = struct{}{}
	}
	return p, nil
}

// MustNew is New that panics on invalid tables. Used for the built-in defaults.
func MustNew(t Tables) *Policy {
	p, err := New(t)
	if err != nil {
		panic(err)
	}
	return p
}

// Default returns the compiled built-in policy.
func Default() *Policy {
	return MustNew(DefaultTables())
}

// LoadFile reads a YAML policy file. Sections present in the file replace
// the corresponding default sections; absent sections keep their defaults.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file '%s': %w", path, err)
	}
	t := DefaultTables()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse policy file '%s': %w", path, err)
	}
	p, err := New(t)
	if err != nil {
		return nil, fmt.Errorf("policy file '%s': %w", path, err)
	}
	return p, nil
}

// Validate checks that the tables are internally consistent.
func Validate(t Tables) error {
	for i, u := range t.AmbiguousUnits {
		if strings.TrimSpace(u.Unit) == "" {
			return fmt.Errorf("%w: ambiguous_units[%d].unit %w", structerrors.ErrInvalidPolicy, i, structerrors.ErrEmptyValue)
		}
		switch u.Action {
		case constants.DecisionClarify, constants.DecisionWarn, constants.DecisionReject:
		default:
			return fmt.Errorf("%w: ambiguous unit %q has unsupported action %q", structerrors.ErrInvalidPolicy, u.Unit, u.Action)
		}
	}
	for i, d := range t.DisallowedTerms {
		if strings.TrimSpace(d.Term) == "" {
			return fmt.Errorf("%w: disallowed_terms[%d].term %w", structerrors.ErrInvalidPolicy, i, structerrors.ErrEmptyValue)
		}
	}
	for i, q := range t.Quantities {
		if q.ID == "" || len(q.Aliases) == 0 {
			return fmt.Errorf("%w: quantities[%d] needs an id and at least one alias", structerrors.ErrInvalidPolicy, i)
		}
	}
	if t.ExperimentSafety.MinSampleSize < 0 {
		return fmt.Errorf("%w: min_sample_size must be >= 0", structerrors.ErrInvalidPolicy)
	}
	for _, pattern := range t.FileWrite.DenyPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: bad deny pattern %q: %w", structerrors.ErrInvalidPolicy, pattern, err)
		}
	}
	return nil
}

// Version returns the table version.
func (p *Policy) Version() string { return p.tables.Version }

// Tables returns the source tables.
func (p *Policy) Tables() Tables { return p.tables }

// ExperimentSafety returns the experiment thresholds.
func (p *Policy) ExperimentSafety() ExperimentSafety { return p.tables.ExperimentSafety }

// Normalize applies NFKC normalization and Unicode case folding so that
// matching is insensitive to case and to compatibility forms (e.g. "ｌｂ").
func Normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, Normalize(s))
	}
	return out
}

// fieldName turns a term into a required-field stem: "specific weight" -> "specific_weight".
func fieldName(term string) string {
	return strings.Join(strings.Fields(Normalize(term)), "_")
}

// wordPattern matches any of terms as whole words, with an optional plural
// "s", against normalized text. Group 1 spans the match.
func wordPattern(terms ...string) *regexp.Regexp {
	alts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts := strings.Fields(Normalize(t))
		for i, part := range parts {
			parts[i] = regexp.QuoteMeta(part)
		}
		alts = append(alts, strings.Join(parts, `\s+`))
	}
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])((?:` + strings.Join(alts, "|") + `)s?)(?:$|[^\p{L}\p{N}_])`)
}

func wordPatterns(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		out = append(out, wordPattern(t))
	}
	return out
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
