// Package store persists sessions and workflows.
//
// Typed stores (Sessions, Workflows) encode entities as JSON and delegate
// raw bytes to a Backend: MemoryBackend, FileBackend or RedisBackend. Every
// Get decodes a fresh value, so callers never share state with the backend.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors, internal/flock
//   - MUST NOT import: internal/orchestrator, internal/service, internal/cli
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Kind names a collection inside a backend.
type Kind string

// Collections.
const (
	KindSession  Kind = constants.SessionsDir
	KindWorkflow Kind = constants.WorkflowsDir
)

// validIDRegex keeps ids usable as file names and redis key segments.
var validIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidateID rejects ids that cannot be used as storage keys.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id %w", structerrors.ErrEmptyValue)
	}
	if !validIDRegex.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", structerrors.ErrInvalidID, id)
	}
	return nil
}

// Backend stores opaque records by kind and id.
// Load returns structerrors.ErrRecordNotFound for a missing record.
type Backend interface {
	Load(ctx context.Context, kind Kind, id string) ([]byte, error)
	Save(ctx context.Context, kind Kind, id string, data []byte) error
	Remove(ctx context.Context, kind Kind, id string) error
	Keys(ctx context.Context, kind Kind) ([]string, error)
	Close() error
}

// SessionStore loads and saves sessions by id.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// WorkflowStore loads and saves workflows by id.
type WorkflowStore interface {
	Get(ctx context.Context, id string) (*domain.Workflow, error)
	Put(ctx context.Context, workflow *domain.Workflow) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// Sessions is the SessionStore over a Backend.
type Sessions struct {
	backend Backend
}

// NewSessionStore returns a SessionStore backed by b.
func NewSessionStore(b Backend) *Sessions {
	return &Sessions{backend: b}
}

// Get returns the session or ErrSessionNotFound.
func (s *Sessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := get(ctx, s.backend, KindSession, id, &session, structerrors.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return &session, nil
}

// Put saves the session.
func (s *Sessions) Put(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return fmt.Errorf("failed to save session: session %w", structerrors.ErrEmptyValue)
	}
	return put(ctx, s.backend, KindSession, session.ID, session)
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.backend, KindSession, id)
}

// List returns the stored session ids, sorted.
func (s *Sessions) List(ctx context.Context) ([]string, error) {
	return s.backend.Keys(ctx, KindSession)
}

// Workflows is the WorkflowStore over a Backend.
type Workflows struct {
	backend Backend
}

// NewWorkflowStore returns a WorkflowStore backed by b.
func NewWorkflowStore(b Backend) *Workflows {
	return &Workflows{backend: b}
}

// Get returns the workflow or ErrWorkflowNotFound.
func (s *Workflows) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	var wf domain.Workflow
	if err := get(ctx, s.backend, KindWorkflow, id, &wf, structerrors.ErrWorkflowNotFound); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Put saves the workflow.
func (s *Workflows) Put(ctx context.Context, wf *domain.Workflow) error {
	if wf == nil {
		return fmt.Errorf("failed to save workflow: workflow %w", structerrors.ErrEmptyValue)
	}
	return put(ctx, s.backend, KindWorkflow, wf.ID, wf)
}

// Delete removes the workflow. Deleting a missing workflow is not an error.
func (s *Workflows) Delete(ctx context.Context, id string) error {
	return remove(ctx, s.backend, KindWorkflow, id)
}

// List returns the stored workflow ids, sorted.
func (s *Workflows) List(ctx context.Context) ([]string, error) {
	return s.backend.Keys(ctx, KindWorkflow)
}

func get(ctx context.Context, b Backend, kind Kind, id string, v any, notFound error) error {
	if err := ValidateID(id); err != nil {
		return fmt.Errorf("failed to load %s: %w", kind, err)
	}
	data, err := b.Load(ctx, kind, id)
	if errors.Is(err, structerrors.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s '%s': %w", kind, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s '%s': corrupted state: %w", kind, id, err)
	}
	return nil
}

func put(ctx context.Context, b Backend, kind Kind, id string, v any) error {
	if err := ValidateID(id); err != nil {
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s '%s': %w", kind, id, err)
	}
	if err := b.Save(ctx, kind, id, data); err != nil {
		return fmt.Errorf("failed to save %s '%s': %w", kind, id, err)
	}
	return nil
}

func remove(ctx context.Context, b Backend, kind Kind, id string) error {
	if err := ValidateID(id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if err := b.Remove(ctx, kind, id); err != nil {
		return fmt.Errorf("failed to delete %s '%s': %w", kind, id, err)
	}
	return nil
}

var (
	_ SessionStore  = (*Sessions)(nil)
	_ WorkflowStore = (*Workflows)(nil)
)
