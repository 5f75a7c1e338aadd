// Package compliance decides whether an actor may act on a resource, how
// often a user may submit requests, and where data may be exported.
//
// Import rules:
//   - CAN import: internal/clock, internal/constants, std lib
//   - MUST NOT import: internal/orchestrator, internal/service, internal/cli
package compliance

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
)

// Actions passed to CheckAccess.
const (
	ActionRead    = "read"
	ActionWrite   = "write"
	ActionExecute = "execute"
	ActionDelete  = "delete"
)

// Checker is the compliance collaborator consulted by the orchestrator and
// the service surface.
type Checker interface {
	CheckAccess(ctx context.Context, actorID, resourceID, action string) bool
	CheckRateLimit(ctx context.Context, userID, role string) bool
	CheckDataExport(dataType, destination string) constants.Decision
}

// DenyRule blocks matching (actor, resource, action) triples. Fields are
// path.Match patterns; an empty field matches anything.
type DenyRule struct {
	Actor    string `mapstructure:"actor" yaml:"actor"`
	Resource string `mapstructure:"resource" yaml:"resource"`
	Action   string `mapstructure:"action" yaml:"action"`
}

func (r DenyRule) matches(actor, resource, action string) bool {
	return matchField(r.Actor, actor) && matchField(r.Resource, resource) && matchField(r.Action, action)
}

func matchField(pattern, value string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, value)
	return err == nil && ok
}

// PolicyChecker is the built-in Checker.
//
// Access: actors whose id starts with "admin" may do anything; everyone
// else is read-only on resources containing "sensitive"; deny rules apply
// to non-admins on top of that.
//
// Rate limits: each user gets a token bucket refilled at the role's hourly
// limit. The bucket starts full, so a new user can spend the whole hourly
// allowance at once.
type PolicyChecker struct {
	mu       sync.Mutex
	limits   map[string]int
	burst    int
	deny     []DenyRule
	clock    clock.Clock
	limiters map[string]*rate.Limiter
}

// Option configures a PolicyChecker.
type Option func(*PolicyChecker)

// WithRateLimits sets requests per hour by role. Roles missing from the map
// use the "default" entry.
func WithRateLimits(limits map[string]int) Option {
	return func(c *PolicyChecker) {
		for role, n := range limits {
			c.limits[role] = n
		}
	}
}

// WithBurst caps the bucket size. Zero keeps the hourly limit as the burst.
func WithBurst(burst int) Option {
	return func(c *PolicyChecker) {
		c.burst = burst
	}
}

// WithDenyRules adds explicit deny rules.
func WithDenyRules(rules ...DenyRule) Option {
	return func(c *PolicyChecker) {
		c.deny = append(c.deny, rules...)
	}
}

// WithClock sets the clock used for token refills.
func WithClock(cl clock.Clock) Option {
	return func(c *PolicyChecker) {
		c.clock = cl
	}
}

// NewPolicyChecker returns a checker with the default role limits.
func NewPolicyChecker(opts ...Option) *PolicyChecker {
	c := &PolicyChecker{
		limits: map[string]int{
			constants.RoleDefault: constants.DefaultRateLimitPerHour,
			constants.RoleAdmin:   constants.AdminRateLimitPerHour,
		},
		clock:    clock.RealClock{},
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAccess reports whether actorID may perform action on resourceID.
func (c *PolicyChecker) CheckAccess(_ context.Context, actorID, resourceID, action string) bool {
	if strings.HasPrefix(actorID, "admin") {
		return true
	}
	if strings.Contains(resourceID, "sensitive") && action != ActionRead {
		return false
	}
	for _, r := range c.deny {
		if r.matches(actorID, resourceID, action) {
			return false
		}
	}
	return true
}

// CheckRateLimit consumes one request from userID's bucket. It returns
// false when the bucket is empty. A non-positive limit blocks the role.
func (c *PolicyChecker) CheckRateLimit(_ context.Context, userID, role string) bool {
	limit, ok := c.limits[role]
	if !ok {
		limit = c.limits[constants.RoleDefault]
	}
	if limit <= 0 {
		return false
	}

	c.mu.Lock()
	key := role + "/" + userID
	lim, exists := c.limiters[key]
	if !exists {
		burst := limit
		if c.burst > 0 && c.burst < limit {
			burst = c.burst
		}
		lim = rate.NewLimiter(rate.Every(time.Hour/time.Duration(limit)), burst)
		c.limiters[key] = lim
	}
	c.mu.Unlock()

	return lim.AllowN(c.clock.Now(), 1)
}

// CheckDataExport grades an export of dataType to destination.
func (c *PolicyChecker) CheckDataExport(dataType, destination string) constants.Decision {
	switch {
	case dataType == "pii" && destination == "public":
		return constants.DecisionReject
	case dataType == "confidential" && destination == "external":
		return constants.DecisionEscalate
	}
	return constants.DecisionAccept
}

var _ Checker = (*PolicyChecker)(nil)
