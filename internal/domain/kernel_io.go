package domain

import (
	"time"

	"github.com/mrz1836/structure/internal/constants"
)

// KernelInput is the envelope every kernel invocation receives.
type KernelInput struct {
	KernelID    string                `json:"kernel_id"`
	Version     string                `json:"version,omitempty"`
	Args        map[string]any        `json:"args"`
	RequestID   string                `json:"request_id"`
	SpecVersion string                `json:"spec_version"`
	TimeoutMS   int                   `json:"timeout_ms,omitempty"`
	Determinism constants.Determinism `json:"determinism_required"`
}

// Provenance identifies which kernel produced an output and when.
type Provenance struct {
	KernelID      string                `json:"kernel_id"`
	KernelVersion string                `json:"kernel_version"`
	Determinism   constants.Determinism `json:"determinism"`
	Timestamp     time.Time             `json:"timestamp"`
}

// KernelOutput is the envelope every kernel returns.
type KernelOutput struct {
	KernelID   string     `json:"kernel_id"`
	Version    string     `json:"version"`
	RequestID  string     `json:"request_id"`
	Success    bool       `json:"success"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	Provenance Provenance `json:"provenance"`
	Warnings   []string   `json:"warnings"`
}
