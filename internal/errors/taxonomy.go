package errors

// ClassifyDecision maps a blocking gate outcome to its taxonomy sentinel.
// It takes the raw decision string so this package stays free of internal
// imports. Non-blocking decisions return nil.
func ClassifyDecision(decision string, gateID string) error {
	switch decision {
	case "CLARIFY":
		return ErrAmbiguity
	case "ESCALATE":
		return ErrComplianceViolation
	case "REJECT":
		if gateID == "schema_gate" {
			return ErrValidation
		}
		return ErrPolicyRejection
	}
	return nil
}
