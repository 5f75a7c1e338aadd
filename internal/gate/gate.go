// Package gate implements the validation gates that stand between a
// classified TaskSpec and kernel execution.
//
// A gate is a pure function of a spec and the read-only policy tables. The
// Runner evaluates exactly the gates a spec names, in order, without
// short-circuiting, so callers always see the full set of issues.
package gate

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Gate evaluates one spec and returns a fresh decision.
type Gate interface {
	ID() string
	Evaluate(spec domain.TaskSpec) domain.GateDecision
}

// Func adapts a plain function to the Gate interface.
type Func struct {
	id string
	fn func(domain.TaskSpec) domain.GateDecision
}

// NewFunc returns a Gate backed by fn.
func NewFunc(id string, fn func(domain.TaskSpec) domain.GateDecision) *Func {
	return &Func{id: id, fn: fn}
}

// ID returns the gate identifier.
func (f *Func) ID() string { return f.id }

// Evaluate calls the wrapped function.
func (f *Func) Evaluate(spec domain.TaskSpec) domain.GateDecision { return f.fn(spec) }

// Registry provides thread-safe lookup of gates by identifier.
type Registry struct {
	mu    sync.RWMutex
	gates map[string]Gate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{gates: make(map[string]Gate)}
}

// Register adds a gate. Identifiers are unique.
func (r *Registry) Register(g Gate) error {
	if g == nil || strings.TrimSpace(g.ID()) == "" {
		return fmt.Errorf("%w: gate id", structerrors.ErrEmptyValue)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.gates[g.ID()]; exists {
		return fmt.Errorf("%w: %s", structerrors.ErrGateExists, g.ID())
	}
	r.gates[g.ID()] = g
	return nil
}

// Get returns the gate registered under id.
func (r *Registry) Get(id string) (Gate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", structerrors.ErrGateNotFound, id)
	}
	return g, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.gates[id]
	return ok
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.gates))
	for id := range r.gates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks that every id is registered. Used at startup so a renamed
// or missing gate fails fast instead of at call time.
func (r *Registry) Validate(ids ...string) error {
	var missing []string
	for _, id := range ids {
		if !r.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", structerrors.ErrGateNotFound, strings.Join(missing, ", "))
	}
	return nil
}
