package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
)

// FakeKernel is a configurable kernel. The zero value succeeds with a nil
// result.
type FakeKernel struct {
	KernelID string
	Result   any
	// FailWith makes Execute report success=false with this message.
	FailWith string
	// ArgsErr is returned by ValidateArgs.
	ArgsErr error
	// Delay makes Execute wait, honoring context cancellation.
	Delay time.Duration
	// PanicWith makes Execute panic with this value.
	PanicWith any

	mu    sync.Mutex
	calls []domain.KernelInput
}

// ID returns the kernel id.
func (k *FakeKernel) ID() string { return k.KernelID }

// Version returns a fixed version.
func (k *FakeKernel) Version() string { return "0.0.0-test" }

// Determinism returns D1.
func (k *FakeKernel) Determinism() constants.Determinism { return constants.DeterminismD1 }

// ValidateArgs returns ArgsErr.
func (k *FakeKernel) ValidateArgs(map[string]any) error { return k.ArgsErr }

// Execute records the call and returns the configured outcome.
func (k *FakeKernel) Execute(ctx context.Context, in domain.KernelInput) domain.KernelOutput {
	k.mu.Lock()
	k.calls = append(k.calls, in)
	k.mu.Unlock()

	if k.PanicWith != nil {
		panic(k.PanicWith)
	}

	out := domain.KernelOutput{
		KernelID:  k.KernelID,
		Version:   k.Version(),
		RequestID: in.RequestID,
		Warnings:  []string{},
		Provenance: domain.Provenance{
			KernelID:      k.KernelID,
			KernelVersion: k.Version(),
			Determinism:   constants.DeterminismD1,
		},
	}
	if k.Delay > 0 {
		select {
		case <-time.After(k.Delay):
		case <-ctx.Done():
			out.Error = ctx.Err().Error()
			return out
		}
	}
	if k.FailWith != "" {
		out.Error = k.FailWith
		return out
	}
	out.Success = true
	out.Result = k.Result
	return out
}

// Calls returns the inputs Execute received.
func (k *FakeKernel) Calls() []domain.KernelInput {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]domain.KernelInput(nil), k.calls...)
}

// FakeChecker is a compliance checker with explicit denials.
type FakeChecker struct {
	mu          sync.Mutex
	denied      map[string]bool // actor|resource
	rateLimited map[string]bool
	Export      constants.Decision
}

// NewFakeChecker allows everything.
func NewFakeChecker() *FakeChecker {
	return &FakeChecker{
		denied:      map[string]bool{},
		rateLimited: map[string]bool{},
		Export:      constants.DecisionAccept,
	}
}

// Deny makes CheckAccess fail for actor on resource. An empty resource
// denies every resource.
func (c *FakeChecker) Deny(actor, resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denied[actor+"|"+resource] = true
}

// Limit makes CheckRateLimit fail for userID.
func (c *FakeChecker) Limit(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateLimited[userID] = true
}

// CheckAccess implements compliance.Checker.
func (c *FakeChecker) CheckAccess(_ context.Context, actorID, resourceID, _ string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.denied[actorID+"|"+resourceID] && !c.denied[actorID+"|"]
}

// CheckRateLimit implements compliance.Checker.
func (c *FakeChecker) CheckRateLimit(_ context.Context, userID, _ string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.rateLimited[userID]
}

// CheckDataExport implements compliance.Checker.
func (c *FakeChecker) CheckDataExport(string, string) constants.Decision {
	return c.Export
}

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

// Now returns T.
func (c FixedClock) Now() time.Time { return c.T }
