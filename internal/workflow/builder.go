// Package workflow decomposes a natural-language request into a Workflow of
// dependent steps, each carrying its own classified TaskSpec.
//
// Import rules:
//   - CAN import: internal/classifier, internal/extract, internal/clock,
//     internal/constants, internal/domain, std lib
//   - MUST NOT import: internal/orchestrator, internal/service, internal/cli
package workflow

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/classifier"
	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/extract"
)

//nolint:gochecknoglobals // Compiled once
var (
	numberedPattern = regexp.MustCompile(`\s*\d+\.\s+`)
	sequencePattern = regexp.MustCompile(`(?i)[,;.]\s+(?:then|next|after that|finally)\s+`)
)

// Builder turns a TaskRequest into a Workflow.
type Builder struct {
	classifier *classifier.Classifier
	extractor  *extract.Extractor
	clock      clock.Clock
	logger     zerolog.Logger
	newID      func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the clock used for creation timestamps.
func WithClock(c clock.Clock) Option {
	return func(b *Builder) {
		b.clock = c
	}
}

// WithIDSource replaces the random hex source used for workflow and step ids.
// Tests use it to get stable ids.
func WithIDSource(fn func() string) Option {
	return func(b *Builder) {
		b.newID = fn
	}
}

// NewBuilder creates a Builder. A nil extractor disables argument extraction.
func NewBuilder(c *classifier.Classifier, e *extract.Extractor, logger zerolog.Logger, opts ...Option) *Builder {
	b := &Builder{
		classifier: c,
		extractor:  e,
		clock:      clock.RealClock{},
		logger:     logger,
		newID:      randomHex,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build decomposes req and classifies every segment. A segment that cannot
// be classified still becomes a step, with a nil spec; the orchestrator
// fails that step when it is reached.
//
// The domain hint applies only when the request is a single step. In a
// multi-step request each segment routes on its own text.
func (b *Builder) Build(ctx context.Context, req domain.TaskRequest) *domain.Workflow {
	segments := Decompose(req.UserInput)
	now := b.clock.Now().UTC()

	wf := domain.NewWorkflow("wf_"+b.hex(8), Name(req.UserInput), req.Context, now)

	hint := ""
	if len(segments) == 1 {
		hint = req.DomainHint
	}

	previous := ""
	for i, text := range segments {
		stepID := "step_" + strconv.Itoa(i+1) + "_" + b.hex(6)
		step := &domain.WorkflowStep{
			ID:          stepID,
			Description: text,
			Spec:        b.specFor(ctx, stepID, text, hint, req.Context),
			Status:      constants.StepStatusPending,
			DependsOn:   []string{},
			CreatedAt:   now,
		}
		if previous != "" {
			step.DependsOn = []string{previous}
		}
		if err := wf.AddStep(step); err != nil {
			// Ids are generated here and dependencies always point backwards,
			// so this only happens with a broken id source.
			b.logger.Error().Err(err).Str("workflow_id", wf.ID).Str("step_id", stepID).Msg("failed to add step")
			continue
		}
		previous = stepID
	}

	b.logger.Debug().
		Str("workflow_id", wf.ID).
		Int("steps", len(wf.Steps)).
		Msg("workflow built")
	return wf
}

func (b *Builder) specFor(ctx context.Context, stepID, text, hint string, reqCtx map[string]any) *domain.TaskSpec {
	spec, err := b.classifier.Classify(domain.TaskRequest{
		RequestID:  stepID,
		UserInput:  text,
		DomainHint: hint,
		Context:    reqCtx,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("step_id", stepID).Msg("step left without spec")
		return nil
	}
	if b.extractor != nil {
		if args := b.extractor.Extract(text); len(args) > 0 {
			spec = spec.WithArgs(args)
		}
	}
	return &spec
}

func (b *Builder) hex(n int) string {
	id := b.newID()
	if len(id) > n {
		return id[:n]
	}
	return id
}

// Decompose splits text into step descriptions. A numbered list wins over
// sequencing keywords; anything else is a single step.
func Decompose(text string) []string {
	text = strings.TrimSpace(text)

	if parts := nonEmpty(numberedPattern.Split(text, -1)); len(parts) > 1 {
		return parts
	}
	if parts := sequencePattern.Split(text, -1); len(parts) > 1 {
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{text}
}

// Name returns the display name of a workflow built from input.
func Name(input string) string {
	r := []rune(input)
	if len(r) > constants.WorkflowNameMaxInput {
		r = r[:constants.WorkflowNameMaxInput]
	}
	return "Workflow for: " + string(r) + "..."
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
