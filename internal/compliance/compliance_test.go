package compliance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/structure/internal/constants"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckAccess(t *testing.T) {
	c := NewPolicyChecker(WithDenyRules(
		DenyRule{Actor: "intern*", Resource: "step_*", Action: ActionExecute},
		DenyRule{Resource: "wf_locked"},
	))
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    string
		resource string
		action   string
		expected bool
	}{
		{"admin bypasses everything", "admin_alice", "sensitive_step", ActionExecute, true},
		{"admin bypasses deny rules", "admin", "wf_locked", ActionWrite, true},
		{"read sensitive", "bob", "sensitive_data", ActionRead, true},
		{"execute sensitive", "bob", "sensitive_data", ActionExecute, false},
		{"ordinary execute", "bob", "step_1_abcdef", ActionExecute, true},
		{"deny rule by actor glob", "intern_carol", "step_1_abcdef", ActionExecute, false},
		{"deny rule other action", "intern_carol", "step_1_abcdef", ActionRead, true},
		{"deny rule any actor", "bob", "wf_locked", ActionRead, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.CheckAccess(ctx, tc.actor, tc.resource, tc.action))
		})
	}
}

func TestCheckRateLimit(t *testing.T) {
	clk := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewPolicyChecker(
		WithRateLimits(map[string]int{constants.RoleDefault: 3, "blocked": 0}),
		WithClock(clk),
	)
	ctx := context.Background()

	for i := range 3 {
		assert.True(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault), "request %d", i)
	}
	assert.False(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault))

	// Buckets are per user.
	assert.True(t, c.CheckRateLimit(ctx, "carol", constants.RoleDefault))

	// Three per hour refills one token roughly every twenty minutes.
	clk.Advance(21 * time.Minute)
	assert.True(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault))
	assert.False(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault))

	// Unknown roles fall back to the default limit.
	for range 3 {
		assert.True(t, c.CheckRateLimit(ctx, "dave", "guest"))
	}
	assert.False(t, c.CheckRateLimit(ctx, "dave", "guest"))

	assert.False(t, c.CheckRateLimit(ctx, "eve", "blocked"))
}

func TestCheckRateLimit_Burst(t *testing.T) {
	clk := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewPolicyChecker(WithBurst(2), WithClock(clk))
	ctx := context.Background()

	assert.True(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault))
	assert.True(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault))
	assert.False(t, c.CheckRateLimit(ctx, "bob", constants.RoleDefault))

	// Admins get ten times the default refill rate.
	assert.True(t, c.CheckRateLimit(ctx, "admin_alice", constants.RoleAdmin))
}

func TestCheckDataExport(t *testing.T) {
	c := NewPolicyChecker()

	assert.Equal(t, constants.DecisionReject, c.CheckDataExport("pii", "public"))
	assert.Equal(t, constants.DecisionEscalate, c.CheckDataExport("confidential", "external"))
	assert.Equal(t, constants.DecisionAccept, c.CheckDataExport("aggregate", "public"))
	assert.Equal(t, constants.DecisionAccept, c.CheckDataExport("pii", "local"))
}
