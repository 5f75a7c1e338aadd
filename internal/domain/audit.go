package domain

import (
	"time"

	"github.com/mrz1836/structure/internal/constants"
)

// AuditRecord is an append-only audit event. Never mutated after emission.
//
// Example JSON line:
//
//	{"event_id":"...","timestamp":"...","actor_id":"alice","action":"step_execution",
//	 "resource_id":"step_0_ab12cd","status":"SUCCESS","details":{"kernel":"statistics_v1"},
//	 "gates_passed":["schema_gate"],"policy_violations":[]}
type AuditRecord struct {
	EventID          string                `json:"event_id"`
	Timestamp        time.Time             `json:"timestamp"`
	ActorID          string                `json:"actor_id"`
	Action           string                `json:"action"`
	ResourceID       string                `json:"resource_id,omitempty"`
	Status           constants.AuditStatus `json:"status"`
	Details          map[string]any        `json:"details"`
	GatesPassed      []string              `json:"gates_passed"`
	PolicyViolations []string              `json:"policy_violations"`
}
