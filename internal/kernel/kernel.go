// Package kernel holds the deterministic compute units a workflow step
// dispatches to once its gates pass.
//
// A kernel is a pure function of its input envelope. Arguments are checked
// against a JSON Schema before execution, and every output carries
// provenance naming the kernel, its version and its determinism level.
//
// Import rules:
//   - CAN import: internal/clock, internal/constants, internal/domain,
//     internal/errors, internal/units, std lib
//   - MUST NOT import: internal/orchestrator, internal/gate, internal/cli
package kernel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Kernel is a deterministic compute unit.
type Kernel interface {
	ID() string
	Version() string
	Determinism() constants.Determinism

	// ValidateArgs returns an *ArgsError listing every problem, or nil.
	ValidateArgs(args map[string]any) error

	// Execute runs the kernel. Business failures are reported through
	// KernelOutput.Success, never as a panic.
	Execute(ctx context.Context, in domain.KernelInput) domain.KernelOutput
}

// ArgsError lists the schema violations of a kernel's arguments.
type ArgsError struct {
	KernelID string
	Problems []string
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("%s: %s: %s", structerrors.ErrInvalidArgs, e.KernelID, strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match ErrInvalidArgs.
func (e *ArgsError) Unwrap() error {
	return structerrors.ErrInvalidArgs
}

// base carries the identity shared by the builtin kernels and builds their
// output envelopes.
type base struct {
	id          string
	version     string
	determinism constants.Determinism
	schema      *gojsonschema.Schema
	clock       clock.Clock
}

func newBase(id, version string, det constants.Determinism, schemaJSON string, c clock.Clock) base {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		// Schemas are compile-time literals.
		panic(fmt.Sprintf("kernel %s: invalid args schema: %v", id, err))
	}
	if c == nil {
		c = clock.RealClock{}
	}
	return base{id: id, version: version, determinism: det, schema: schema, clock: c}
}

func (b base) ID() string                         { return b.id }
func (b base) Version() string                    { return b.version }
func (b base) Determinism() constants.Determinism { return b.determinism }

// ValidateArgs checks args against the kernel's JSON Schema.
func (b base) ValidateArgs(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	result, err := b.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ArgsError{KernelID: b.id, Problems: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return &ArgsError{KernelID: b.id, Problems: problems}
}

func (b base) provenance() domain.Provenance {
	return domain.Provenance{
		KernelID:      b.id,
		KernelVersion: b.version,
		Determinism:   b.determinism,
		Timestamp:     b.clock.Now().UTC(),
	}
}

func (b base) ok(in domain.KernelInput, result any, warnings ...string) domain.KernelOutput {
	return domain.KernelOutput{
		KernelID:   b.id,
		Version:    b.version,
		RequestID:  in.RequestID,
		Success:    true,
		Result:     result,
		Provenance: b.provenance(),
		Warnings:   nonNil(warnings),
	}
}

func (b base) fail(in domain.KernelInput, format string, args ...any) domain.KernelOutput {
	return domain.KernelOutput{
		KernelID:   b.id,
		Version:    b.version,
		RequestID:  in.RequestID,
		Success:    false,
		Error:      fmt.Sprintf(format, args...),
		Provenance: b.provenance(),
		Warnings:   []string{},
	}
}

// invalid turns a validation error into a failed output.
func (b base) invalid(in domain.KernelInput, err error) domain.KernelOutput {
	return b.fail(in, "%v", err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
