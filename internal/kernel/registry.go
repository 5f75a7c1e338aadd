package kernel

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mrz1836/structure/internal/clock"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Registry provides thread-safe lookup of kernels by identifier.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]Kernel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

// NewDefaultRegistry returns a registry holding the builtin kernels.
// A nil clock uses the system clock for provenance timestamps.
func NewDefaultRegistry(c clock.Clock) *Registry {
	r := NewRegistry()
	for _, k := range []Kernel{
		NewUnitConverter(c),
		NewStatistics(c),
		NewDataSummary(c),
		NewConstants(c),
	} {
		// Builtin ids are distinct constants.
		_ = r.Register(k)
	}
	return r
}

// Register adds a kernel. Identifiers are unique.
func (r *Registry) Register(k Kernel) error {
	if k == nil || strings.TrimSpace(k.ID()) == "" {
		return fmt.Errorf("%w: kernel id", structerrors.ErrEmptyValue)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kernels[k.ID()]; exists {
		return fmt.Errorf("%w: %s", structerrors.ErrKernelExists, k.ID())
	}
	r.kernels[k.ID()] = k
	return nil
}

// Get returns the kernel registered under id.
func (r *Registry) Get(id string) (Kernel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kernels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", structerrors.ErrKernelNotFound, id)
	}
	return k, nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.kernels))
	for id := range r.kernels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the registered kernels ordered by id.
func (r *Registry) List() []Kernel {
	ids := r.IDs()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Kernel, 0, len(ids))
	for _, id := range ids {
		if k, ok := r.kernels[id]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Validate checks that every id is registered.
func (r *Registry) Validate(ids ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := r.kernels[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", structerrors.ErrKernelNotFound, strings.Join(missing, ", "))
	}
	return nil
}
