package constants

// Decision is the fixed outcome set of a gate evaluation.
type Decision string

// Gate decision constants.
const (
	DecisionAccept   Decision = "ACCEPT"
	DecisionClarify  Decision = "CLARIFY"
	DecisionReject   Decision = "REJECT"
	DecisionEscalate Decision = "ESCALATE"
	DecisionWarn     Decision = "WARN"
	DecisionFallback Decision = "FALLBACK"
)

// String returns the string representation of the Decision.
func (d Decision) String() string {
	return string(d)
}

// IsBlocking reports whether the decision halts forward progress.
func (d Decision) IsBlocking() bool {
	switch d {
	case DecisionClarify, DecisionReject, DecisionEscalate:
		return true
	case DecisionAccept, DecisionWarn, DecisionFallback:
		return false
	}
	return false
}

// RiskLevel grades how many ambiguous terms a request carries.
type RiskLevel string

// Risk level constants.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// String returns the string representation of the RiskLevel.
func (r RiskLevel) String() string {
	return string(r)
}

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Determinism is the reproducibility guarantee requested from a kernel.
type Determinism string

// Determinism levels.
const (
	// DeterminismD1 requires bit-identical output for identical input.
	DeterminismD1 Determinism = "D1"
	// DeterminismD2 allows floating point variance within tolerance.
	DeterminismD2 Determinism = "D2"
	// DeterminismNone makes no guarantee.
	DeterminismNone Determinism = "NONE"
)

// String returns the string representation of the Determinism.
func (d Determinism) String() string {
	return string(d)
}

// Valid reports whether d is a known determinism level.
func (d Determinism) Valid() bool {
	return d == DeterminismD1 || d == DeterminismD2 || d == DeterminismNone
}

// ErrorKind categorizes a step failure.
type ErrorKind string

// Error kinds, one per failure category.
const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindAmbiguity     ErrorKind = "ambiguity"
	ErrorKindCompliance    ErrorKind = "compliance_violation"
	ErrorKindPolicy        ErrorKind = "policy_rejection"
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindExecution     ErrorKind = "execution_failure"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindUnhandled     ErrorKind = "unhandled"
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// ClarifyType is the kind of clarification being requested.
type ClarifyType string

// Clarify type constants.
const (
	ClarifyTermDisambiguation      ClarifyType = "term_disambiguation"
	ClarifyUnitSpecification       ClarifyType = "unit_specification"
	ClarifyMissingParameter        ClarifyType = "missing_parameter"
	ClarifyDomainSelection         ClarifyType = "domain_selection"
	ClarifyConstraintClarification ClarifyType = "constraint_clarification"
)

// String returns the string representation of the ClarifyType.
func (c ClarifyType) String() string {
	return string(c)
}
