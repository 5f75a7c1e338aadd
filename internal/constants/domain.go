package constants

// Domain is the top-level routing category of a task.
type Domain string

// Domain constants.
const (
	DomainPhysics    Domain = "physics"
	DomainChemistry  Domain = "chemistry"
	DomainMath       Domain = "math"
	DomainCode       Domain = "code"
	DomainGeneral    Domain = "general"
	DomainExperiment Domain = "experiment"
	DomainSurvey     Domain = "survey"
	DomainProject    Domain = "project"
	DomainOperations Domain = "operations"
	DomainAnalysis   Domain = "analysis"
)

// String returns the string representation of the Domain.
func (d Domain) String() string {
	return string(d)
}

// Valid reports whether d is one of the fixed domains.
func (d Domain) Valid() bool {
	switch d {
	case DomainPhysics, DomainChemistry, DomainMath, DomainCode, DomainGeneral,
		DomainExperiment, DomainSurvey, DomainProject, DomainOperations, DomainAnalysis:
		return true
	}
	return false
}

// AllDomains returns every domain in declaration order.
func AllDomains() []Domain {
	return []Domain{
		DomainPhysics, DomainChemistry, DomainMath, DomainCode, DomainGeneral,
		DomainExperiment, DomainSurvey, DomainProject, DomainOperations, DomainAnalysis,
	}
}

// Gate identifiers. These are part of the wire/config contract.
const (
	GateSchema           = "schema_gate"
	GateUnitConsistency  = "unit_consistency_gate"
	GateAmbiguity        = "ambiguity_gate"
	GateBounds           = "bounds_gate"
	GateExperimentSafety = "experiment_safety_gate"
	GateFileWrite        = "file_write_gate"
)

// Kernel identifiers.
const (
	KernelUnitConverter = "unit_converter_v1"
	KernelStatistics    = "statistics_v1"
	KernelDataSummary   = "data_summary_v1"
	KernelConstants     = "constants_v1"
)

// Reason codes emitted by gates.
const (
	ReasonSchemaInvalid       = "SCHEMA_INVALID"
	ReasonUnitAmbiguous       = "UNIT_AMBIGUOUS"
	ReasonDisallowedTerm      = "DISALLOWED_TERM"
	ReasonTermCollision       = "TERM_COLLISION"
	ReasonIRBApprovalRequired = "IRB_APPROVAL_REQUIRED"
	ReasonHighRiskStudy       = "HIGH_RISK_STUDY"
	ReasonSampleSizeBelowMin  = "SAMPLE_SIZE_BELOW_MINIMUM"
	ReasonFileWriteDenied     = "FILE_WRITE_DENIED"
	ReasonSecretExposure      = "SECRET_EXPOSURE"
	ReasonClarified           = "CLARIFIED"
	ReasonOutOfEnvelope       = "OUT_OF_ENVELOPE"
	ReasonIRBDeclined         = "IRB_APPROVAL_DECLINED"
)

// Session history event types.
const (
	HistoryStepComplete        = "step_complete"
	HistoryStepFailed          = "step_failed"
	HistoryStepBlocked         = "step_blocked"
	HistoryClarificationAnswer = "clarification_answer"
	HistoryClarificationChain  = "clarification_resolved"
	HistoryWorkflowStarted     = "workflow_started"
	HistoryTaskSubmitted       = "task_submitted"
)

// Audit actions.
const (
	AuditActionStepExecution        = "step_execution"
	AuditActionStepExecutionAttempt = "step_execution_attempt"
	AuditActionTaskSubmission       = "task_submission"
	AuditActionClarification        = "clarification_resolution"
	AuditPolicyAccessControl        = "access_control"
	AuditPolicyRateLimit            = "rate_limit"
)
