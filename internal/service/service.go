// Package service is the read and submit surface over the orchestrator:
// it owns session and workflow persistence, per-session locking, rate
// limiting and input validation.
//
// Import rules:
//   - CAN import: internal/audit, internal/clock, internal/compliance,
//     internal/constants, internal/domain, internal/errors, internal/gate,
//     internal/orchestrator, internal/store, internal/workflow, std lib
//   - MUST NOT import: internal/cli, internal/config
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/audit"
	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/compliance"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/gate"
	"github.com/mrz1836/structure/internal/orchestrator"
	"github.com/mrz1836/structure/internal/store"
	"github.com/mrz1836/structure/internal/workflow"
)

// Deps are the collaborators a Service is built from. All are required
// except Sink.
type Deps struct {
	Builder      *workflow.Builder
	Orchestrator *orchestrator.Orchestrator
	Gates        *gate.Runner
	Checker      compliance.Checker
	Sessions     store.SessionStore
	Workflows    store.WorkflowStore
	Sink         audit.Sink
}

func (d Deps) validate() error {
	switch {
	case d.Builder == nil:
		return fmt.Errorf("%w: service needs a workflow builder", structerrors.ErrConfiguration)
	case d.Orchestrator == nil:
		return fmt.Errorf("%w: service needs an orchestrator", structerrors.ErrConfiguration)
	case d.Gates == nil:
		return fmt.Errorf("%w: service needs a gate runner", structerrors.ErrConfiguration)
	case d.Checker == nil:
		return fmt.Errorf("%w: service needs a compliance checker", structerrors.ErrConfiguration)
	case d.Sessions == nil || d.Workflows == nil:
		return fmt.Errorf("%w: service needs session and workflow stores", structerrors.ErrConfiguration)
	}
	return nil
}

// Service handles task submissions and clarification answers.
type Service struct {
	builder   *workflow.Builder
	orch      *orchestrator.Orchestrator
	gates     *gate.Runner
	checker   compliance.Checker
	sessions  store.SessionStore
	workflows store.WorkflowStore
	audit     *audit.Recorder
	locker    *store.KeyedLocker
	clock     clock.Clock
	logger    zerolog.Logger
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLocker replaces the default per-session locker.
func WithLocker(l *store.KeyedLocker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithClock sets the clock used for session timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDSource replaces uuid generation for session and request ids.
func WithIDSource(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a Service.
func New(deps Deps, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	s := &Service{
		builder:   deps.Builder,
		orch:      deps.Orchestrator,
		gates:     deps.Gates,
		checker:   deps.Checker,
		sessions:  deps.Sessions,
		workflows: deps.Workflows,
		locker:    store.NewKeyedLocker(0),
		clock:     clock.RealClock{},
		logger:    logger,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = audit.NewRecorder(deps.Sink, s.clock)
	return s, nil
}

// GetSession returns a copy of the stored session.
func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if err := checkSessionID(id); err != nil {
		return nil, err
	}
	return s.sessions.Get(ctx, id)
}

func checkSessionID(id string) error {
	if err := store.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %w", structerrors.ErrSessionNotFound, err)
	}
	return nil
}

// GetWorkflow returns a copy of the stored workflow.
func (s *Service) GetWorkflow(ctx context.Context, id string) (*domain.Workflow, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", structerrors.ErrWorkflowNotFound, err)
	}
	return s.workflows.Get(ctx, id)
}

// withSession runs fn while holding the session's lock, then saves the
// session. The session is saved even when fn fails so history and answers
// recorded before the failure are kept.
func (s *Service) withSession(ctx context.Context, id string, load bool, userID string, fn func(*domain.Session) error) (*domain.Session, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	defer unlock()

	var session *domain.Session
	if load {
		if session, err = s.sessions.Get(ctx, id); err != nil {
			return nil, err
		}
	} else {
		session = domain.NewSession(id, userID, s.clock.Now().UTC())
	}

	runErr := fn(session)

	if err := s.sessions.Put(context.WithoutCancel(ctx), session); err != nil {
		return session, fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return session, runErr
}
