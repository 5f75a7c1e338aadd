package store

import (
	"context"
	"slices"
	"sync"

	structerrors "github.com/mrz1836/structure/internal/errors"
)

// MemoryBackend keeps records in process memory. State does not survive a
// restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[Kind]map[string][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[Kind]map[string][]byte)}
}

// Load implements Backend.
func (m *MemoryBackend) Load(ctx context.Context, kind Kind, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[kind][id]
	if !ok {
		return nil, structerrors.ErrRecordNotFound
	}
	return slices.Clone(data), nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[kind] == nil {
		m.records[kind] = make(map[string][]byte)
	}
	m.records[kind][id] = slices.Clone(data)
	return nil
}

// Remove implements Backend.
func (m *MemoryBackend) Remove(ctx context.Context, kind Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[kind], id)
	return nil
}

// Keys implements Backend.
func (m *MemoryBackend) Keys(ctx context.Context, kind Kind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.records[kind]))
	for id := range m.records[kind] {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
