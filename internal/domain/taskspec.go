package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// QuantityRef references a physical quantity mentioned in the request.
type QuantityRef struct {
	// QuantityID is the dimension of the quantity (mass, length, force, ...).
	QuantityID string `json:"quantity_id"`

	// Value is the numeric magnitude, if one preceded the unit.
	Value *float64 `json:"value,omitempty"`

	// UnitUCUM is the canonical UCUM code, empty for ambiguous units.
	UnitUCUM string `json:"unit_ucum,omitempty"`

	// UnitRaw is the unit exactly as the user wrote it.
	UnitRaw string `json:"unit_raw"`
}

// TaskSpecParams carries the fields used to construct a TaskSpec.
type TaskSpecParams struct {
	RequestID       string
	Domain          constants.Domain
	Subdomain       string
	RiskLevel       constants.RiskLevel
	NeedsUnits      bool
	HasEquations    bool
	Quantities      []QuantityRef
	RequiredGates   []string
	SelectedKernels []string
	Args            map[string]any
	UserInput       string
	Confidence      float64
	Clarifications  map[string]string
}

// TaskSpec is the canonical, immutable description of one unit of work.
// Fields are unexported and every accessor returns a copy; enrichment goes
// through the With* methods, which return new values.
type TaskSpec struct {
	requestID       string
	domain          constants.Domain
	subdomain       string
	riskLevel       constants.RiskLevel
	needsUnits      bool
	hasEquations    bool
	quantities      []QuantityRef
	requiredGates   []string
	selectedKernels []string
	args            map[string]any
	userInput       string
	confidence      float64
	clarifications  map[string]string
}

// NewTaskSpec validates p and returns the spec.
// An empty user input is allowed; the schema gate rejects it later.
func NewTaskSpec(p TaskSpecParams) (TaskSpec, error) {
	if !p.Domain.Valid() {
		return TaskSpec{}, fmt.Errorf("%w: unknown domain %q", structerrors.ErrInvalidSpec, p.Domain)
	}
	if p.RiskLevel == "" {
		p.RiskLevel = constants.RiskLow
	}
	if !p.RiskLevel.Valid() {
		return TaskSpec{}, fmt.Errorf("%w: unknown risk level %q", structerrors.ErrInvalidSpec, p.RiskLevel)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return TaskSpec{}, fmt.Errorf("%w: confidence %v outside [0,1]", structerrors.ErrInvalidSpec, p.Confidence)
	}
	for _, id := range p.RequiredGates {
		if strings.TrimSpace(id) == "" {
			return TaskSpec{}, fmt.Errorf("%w: empty gate id", structerrors.ErrInvalidSpec)
		}
	}
	for _, id := range p.SelectedKernels {
		if strings.TrimSpace(id) == "" {
			return TaskSpec{}, fmt.Errorf("%w: empty kernel id", structerrors.ErrInvalidSpec)
		}
	}

	quantities := make([]QuantityRef, len(p.Quantities))
	copy(quantities, p.Quantities)

	args := cloneMap(p.Args)
	if args == nil {
		args = map[string]any{}
	}

	return TaskSpec{
		requestID:       p.RequestID,
		domain:          p.Domain,
		subdomain:       p.Subdomain,
		riskLevel:       p.RiskLevel,
		needsUnits:      p.NeedsUnits,
		hasEquations:    p.HasEquations,
		quantities:      quantities,
		requiredGates:   nonNil(p.RequiredGates),
		selectedKernels: nonNil(p.SelectedKernels),
		args:            args,
		userInput:       p.UserInput,
		confidence:      p.Confidence,
		clarifications:  maps.Clone(p.Clarifications),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return cloneStrings(s)
}

// RequestID returns the originating request id.
func (s TaskSpec) RequestID() string { return s.requestID }

// Domain returns the routing domain.
func (s TaskSpec) Domain() constants.Domain { return s.domain }

// Subdomain returns the subdomain (empty when none).
func (s TaskSpec) Subdomain() string { return s.subdomain }

// QualifiedDomain returns "domain.subdomain", or just the domain.
func (s TaskSpec) QualifiedDomain() string {
	if s.subdomain == "" {
		return s.domain.String()
	}
	return s.domain.String() + "." + s.subdomain
}

// RiskLevel returns the ambiguity risk grade.
func (s TaskSpec) RiskLevel() constants.RiskLevel { return s.riskLevel }

// NeedsUnits reports whether any unit token was found.
func (s TaskSpec) NeedsUnits() bool { return s.needsUnits }

// HasEquations reports whether equation indicators were found.
func (s TaskSpec) HasEquations() bool { return s.hasEquations }

// Quantities returns a copy of the referenced quantities.
func (s TaskSpec) Quantities() []QuantityRef {
	out := make([]QuantityRef, len(s.quantities))
	copy(out, s.quantities)
	return out
}

// RequiredGates returns the ordered gate ids.
func (s TaskSpec) RequiredGates() []string { return cloneStrings(s.requiredGates) }

// SelectedKernels returns the ordered kernel ids. The first one is dispatched.
func (s TaskSpec) SelectedKernels() []string { return cloneStrings(s.selectedKernels) }

// Args returns a deep copy of the kernel arguments.
func (s TaskSpec) Args() map[string]any { return cloneMap(s.args) }

// UserInput returns the raw request text.
func (s TaskSpec) UserInput() string { return s.userInput }

// Confidence returns the classification confidence.
func (s TaskSpec) Confidence() float64 { return s.confidence }

// Clarifications returns a copy of the resolved clarification answers.
func (s TaskSpec) Clarifications() map[string]string { return maps.Clone(s.clarifications) }

// Clarification returns the resolved answer for a required field, or "".
func (s TaskSpec) Clarification(field string) string { return s.clarifications[field] }

// WithArgs returns a new spec whose args are the current args overlaid by extra.
func (s TaskSpec) WithArgs(extra map[string]any) TaskSpec {
	next := s.clone()
	for k, v := range extra {
		next.args[k] = cloneValue(v)
	}
	return next
}

// WithClarifications returns a new spec with the given answers merged in.
func (s TaskSpec) WithClarifications(answers map[string]string) TaskSpec {
	next := s.clone()
	if len(answers) == 0 {
		return next
	}
	if next.clarifications == nil {
		next.clarifications = make(map[string]string, len(answers))
	}
	maps.Copy(next.clarifications, answers)
	return next
}

func (s TaskSpec) clone() TaskSpec {
	next := s
	next.quantities = s.Quantities()
	next.requiredGates = cloneStrings(s.requiredGates)
	next.selectedKernels = cloneStrings(s.selectedKernels)
	next.args = cloneMap(s.args)
	if next.args == nil {
		next.args = map[string]any{}
	}
	next.clarifications = maps.Clone(s.clarifications)
	return next
}

// Equivalent reports whether two specs match on every field except the
// request id. Identical inputs must always produce equivalent specs.
func (s TaskSpec) Equivalent(other TaskSpec) bool {
	a, b := s.toJSON(), other.toJSON()
	a.RequestID, b.RequestID = "", ""
	return reflect.DeepEqual(a, b)
}

// taskSpecJSON is the wire form of TaskSpec.
type taskSpecJSON struct {
	RequestID       string              `json:"request_id"`
	SpecVersion     string              `json:"spec_version"`
	Domain          constants.Domain    `json:"domain"`
	Subdomain       string              `json:"subdomain,omitempty"`
	RiskLevel       constants.RiskLevel `json:"risk_level"`
	NeedsUnits      bool                `json:"needs_units"`
	HasEquations    bool                `json:"has_equations"`
	Quantities      []QuantityRef       `json:"quantities"`
	RequiredGates   []string            `json:"required_gates"`
	SelectedKernels []string            `json:"selected_kernels"`
	Args            map[string]any      `json:"args"`
	UserInput       string              `json:"user_input"`
	Confidence      float64             `json:"confidence"`
	Clarifications  map[string]string   `json:"clarifications,omitempty"`
}

func (s TaskSpec) toJSON() taskSpecJSON {
	return taskSpecJSON{
		RequestID:       s.requestID,
		SpecVersion:     constants.SpecVersion,
		Domain:          s.domain,
		Subdomain:       s.subdomain,
		RiskLevel:       s.riskLevel,
		NeedsUnits:      s.needsUnits,
		HasEquations:    s.hasEquations,
		Quantities:      s.Quantities(),
		RequiredGates:   nonNil(s.requiredGates),
		SelectedKernels: nonNil(s.selectedKernels),
		Args:            s.Args(),
		UserInput:       s.userInput,
		Confidence:      s.confidence,
		Clarifications:  s.Clarifications(),
	}
}

// MarshalJSON implements json.Marshaler.
func (s TaskSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}

// UnmarshalJSON implements json.Unmarshaler. The decoded spec is validated
// like one built through NewTaskSpec.
func (s *TaskSpec) UnmarshalJSON(data []byte) error {
	var raw taskSpecJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	spec, err := NewTaskSpec(TaskSpecParams{
		RequestID:       raw.RequestID,
		Domain:          raw.Domain,
		Subdomain:       raw.Subdomain,
		RiskLevel:       raw.RiskLevel,
		NeedsUnits:      raw.NeedsUnits,
		HasEquations:    raw.HasEquations,
		Quantities:      raw.Quantities,
		RequiredGates:   raw.RequiredGates,
		SelectedKernels: raw.SelectedKernels,
		Args:            raw.Args,
		UserInput:       raw.UserInput,
		Confidence:      raw.Confidence,
		Clarifications:  raw.Clarifications,
	})
	if err != nil {
		return err
	}
	*s = spec
	return nil
}
