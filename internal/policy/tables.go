// Package policy provides the read-only, versioned tables consumed by the
// classifier and the gate pipeline: the ambiguous-unit policy, disallowed
// terms, the quantity collision registry, experiment safety thresholds and
// the file-write denylist.
//
// Tables ship with built-in defaults and may be replaced section by section
// from a YAML file. A compiled Policy is never mutated after construction and
// is safe for concurrent use.
package policy

import (
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
)

// Tables is the serializable form of the policy.
type Tables struct {
	Version          string           `yaml:"version"           json:"version"`
	AmbiguousUnits   []AmbiguousUnit  `yaml:"ambiguous_units"   json:"ambiguous_units"`
	DisallowedTerms  []DisallowedTerm `yaml:"disallowed_terms"  json:"disallowed_terms"`
	Quantities       []Quantity       `yaml:"quantities"        json:"quantities"`
	ExperimentSafety ExperimentSafety `yaml:"experiment_safety" json:"experiment_safety"`
	FileWrite        FileWrite        `yaml:"file_write"        json:"file_write"`
}

// AmbiguousUnit is a unit token that cannot be converted without clarification.
type AmbiguousUnit struct {
	Unit     string                 `yaml:"unit"     json:"unit"`
	Aliases  []string               `yaml:"aliases"  json:"aliases,omitempty"`
	Action   constants.Decision     `yaml:"action"   json:"action"`
	Question string                 `yaml:"question" json:"question"`
	Options  []domain.ClarifyOption `yaml:"options"  json:"options,omitempty"`
}

// DisallowedTerm is a term that needs a disambiguator before it can be used.
type DisallowedTerm struct {
	Term           string                 `yaml:"term"           json:"term"`
	Question       string                 `yaml:"question"       json:"question,omitempty"`
	Disambiguators []string               `yaml:"disambiguators" json:"disambiguators,omitempty"`
	Options        []domain.ClarifyOption `yaml:"options"        json:"options,omitempty"`
}

// Quantity is a registry entry. Aliases that collide with other canonical
// quantities trigger TERM_COLLISION.
type Quantity struct {
	ID           string                 `yaml:"id"            json:"id"`
	Aliases      []string               `yaml:"aliases"       json:"aliases"`
	CollidesWith []string               `yaml:"collides_with" json:"collides_with,omitempty"`
	Hint         string                 `yaml:"hint"          json:"hint,omitempty"`
	Options      []domain.ClarifyOption `yaml:"options"       json:"options,omitempty"`
}

// ExperimentSafety holds thresholds for experiment and survey designs.
type ExperimentSafety struct {
	MinSampleSize        int      `yaml:"min_sample_size"        json:"min_sample_size"`
	RequireIRB           bool     `yaml:"require_irb"            json:"require_irb"`
	HumanSubjectKeywords []string `yaml:"human_subject_keywords" json:"human_subject_keywords"`
	EthicsKeywords       []string `yaml:"ethics_keywords"        json:"ethics_keywords"`
	RiskIndicators       []string `yaml:"risk_indicators"        json:"risk_indicators"`
}

// FileWrite lists file targets and terms a request may not write or expose.
type FileWrite struct {
	DenyPatterns []string `yaml:"deny_patterns" json:"deny_patterns"`
	SecretTokens []string `yaml:"secret_tokens" json:"secret_tokens"`
	WriteVerbs   []string `yaml:"write_verbs"   json:"write_verbs"`
}

// DefaultTables returns the built-in policy.
func DefaultTables() Tables {
	return Tables{
		Version: "2026.1",
		AmbiguousUnits: []AmbiguousUnit{
			{
				Unit:     "lb",
				Aliases:  []string{"pound"},
				Action:   constants.DecisionClarify,
				Question: "'lb' can mean mass or force. Which do you mean?",
				Options: []domain.ClarifyOption{
					{OptionID: "lbm", Label: "Pound-mass (lbm)", Description: "Unit of mass", CanonicalValue: "[lb_av]", UnitUCUM: "[lb_av]"},
					{OptionID: "lbf", Label: "Pound-force (lbf)", Description: "Unit of force", CanonicalValue: "[lbf_av]", UnitUCUM: "[lbf_av]"},
				},
			},
			{
				Unit:     "ton",
				Action:   constants.DecisionClarify,
				Question: "'ton' can mean a metric tonne, a short ton or a long ton. Which do you mean?",
				Options: []domain.ClarifyOption{
					{OptionID: "tonne", Label: "Metric tonne (1000 kg)", CanonicalValue: "t", UnitUCUM: "t"},
					{OptionID: "short_ton", Label: "Short ton (2000 lbm)", CanonicalValue: "[ston_av]", UnitUCUM: "[ston_av]"},
					{OptionID: "long_ton", Label: "Long ton (2240 lbm)", CanonicalValue: "[lton_av]", UnitUCUM: "[lton_av]"},
				},
			},
		},
		DisallowedTerms: []DisallowedTerm{
			{Term: "gamma", Disambiguators: []string{"heat capacity ratio", "shear strain", "gamma ray", "weight density"}},
			{Term: "unit weight"},
			{
				Term:           "sample",
				Question:       "What type of sample are you referring to?",
				Disambiguators: []string{"sample size", "random sample", "blood", "tissue", "specimen", "dataset", "subset"},
			},
			{
				Term:           "power",
				Question:       "Are you referring to statistical power or another type?",
				Disambiguators: []string{"effect size", "sample size", "hypothesis", "statistical", "watt", "voltage", "circuit"},
			},
			{
				Term:           "significance",
				Question:       "Do you mean statistical significance (p-value) or practical significance?",
				Disambiguators: []string{"statistical significance", "p-value", "practical significance", "alpha"},
			},
			{
				Term:           "effect",
				Question:       "What type of effect are you measuring?",
				Disambiguators: []string{"effect size", "cohen", "treatment effect", "side effect", "adverse"},
			},
			{
				Term:           "control",
				Question:       "Are you referring to a control group or a control variable?",
				Disambiguators: []string{"control group", "control condition", "control variable", "placebo", "access control"},
			},
			{
				Term:           "bias",
				Question:       "What type of bias are you concerned about?",
				Disambiguators: []string{"sampling bias", "selection bias", "cognitive bias", "model bias"},
			},
		},
		Quantities: []Quantity{
			{
				ID:           "specific_weight",
				Aliases:      []string{"specific weight"},
				CollidesWith: []string{"weight_density", "specific_gravity"},
				Hint:         "It can mean weight density (γ = ρg, N/m³) or specific gravity (dimensionless).",
				Options: []domain.ClarifyOption{
					{OptionID: "weight_density", Label: "Weight Density (γ)", Description: "Force per unit volume, γ = ρg (N/m³)", CanonicalValue: "weight_density", UnitUCUM: "N/m3"},
					{OptionID: "specific_gravity", Label: "Specific Gravity", Description: "Ratio of density to water density (dimensionless)", CanonicalValue: "specific_gravity", UnitUCUM: "1"},
				},
			},
			{
				ID:           "weight",
				Aliases:      []string{"weight"},
				CollidesWith: []string{"weight_force", "mass"},
				Hint:         "Do you mean force (W = mg) or mass?",
				Options: []domain.ClarifyOption{
					{OptionID: "force", Label: "Weight as Force", Description: "W = mg, measured in Newtons or lbf", CanonicalValue: "weight_force", UnitUCUM: "N"},
					{OptionID: "mass", Label: "Mass", Description: "Amount of matter, measured in kg or lbm", CanonicalValue: "mass", UnitUCUM: "kg"},
				},
			},
			{
				ID:           "response_rate",
				Aliases:      []string{"response rate"},
				CollidesWith: []string{"survey_completion_rate", "response_latency"},
				Hint:         "Is this a survey response rate or a system response time?",
			},
			{ID: "density", Aliases: []string{"density", "mass density"}},
			{ID: "surface_tension", Aliases: []string{"surface tension"}},
		},
		ExperimentSafety: ExperimentSafety{
			MinSampleSize: constants.MinSampleSize,
			RequireIRB:    true,
			HumanSubjectKeywords: []string{
				"participant", "subject", "volunteer", "patient", "respondent",
				"human", "people", "interview", "questionnaire",
			},
			EthicsKeywords: []string{"irb", "ethics", "ethical", "consent", "informed consent"},
			RiskIndicators: []string{"invasive", "medical", "drug", "clinical trial", "therapeutic", "diagnosis"},
		},
		FileWrite: FileWrite{
			DenyPatterns: []string{".env", ".env.*", "*.pem", "*.key", "*.p12", "id_rsa*", "id_ed25519*", "/etc/*", "credentials*"},
			SecretTokens: []string{"secret", "key", "password", "passwd", "token", "credential", "credentials"},
			WriteVerbs:   []string{"write", "save", "store", "overwrite", "create", "dump", "export", "append"},
		},
	}
}
