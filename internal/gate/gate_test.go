package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	g := NewFunc("custom_gate", func(domain.TaskSpec) domain.GateDecision { return domain.Accept("custom_gate") })

	require.NoError(t, r.Register(g))
	require.ErrorIs(t, r.Register(g), structerrors.ErrGateExists)
	require.ErrorIs(t, r.Register(NewFunc(" ", nil)), structerrors.ErrEmptyValue)
	require.ErrorIs(t, r.Register(nil), structerrors.ErrEmptyValue)

	got, err := r.Get("custom_gate")
	require.NoError(t, err)
	assert.Equal(t, "custom_gate", got.ID())

	_, err = r.Get("missing")
	require.ErrorIs(t, err, structerrors.ErrGateNotFound)

	assert.True(t, r.Has("custom_gate"))
	assert.False(t, r.Has("missing"))
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(nil)
	assert.Equal(t, []string{
		constants.GateAmbiguity,
		constants.GateBounds,
		constants.GateExperimentSafety,
		constants.GateFileWrite,
		constants.GateSchema,
		constants.GateUnitConsistency,
	}, r.IDs())

	require.NoError(t, r.Validate(constants.GateSchema, constants.GateBounds))
	err := r.Validate(constants.GateSchema, "nope", "also_nope")
	require.ErrorIs(t, err, structerrors.ErrGateNotFound)
	assert.Contains(t, err.Error(), "nope, also_nope")
}
