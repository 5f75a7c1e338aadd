package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	structerrors "github.com/mrz1836/structure/internal/errors"
)

func TestGlobalFlags_Defaults(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, OutputText, flags.Output)
	assert.False(t, flags.Verbose)
	assert.False(t, flags.Quiet)
	assert.Empty(t, flags.Config)
}

func TestAddGlobalFlags_ParsesCorrectly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		expect GlobalFlags
	}{
		{
			name:   "long forms",
			args:   []string{"--output", "json", "--verbose", "--config", "cfg.yaml"},
			expect: GlobalFlags{Output: OutputJSON, Verbose: true, Config: "cfg.yaml"},
		},
		{
			name:   "short forms",
			args:   []string{"-o", "json", "-q", "-c", "cfg.yaml"},
			expect: GlobalFlags{Output: OutputJSON, Quiet: true, Config: "cfg.yaml"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flags := &GlobalFlags{}
			cmd := &cobra.Command{Use: "test"}
			AddGlobalFlags(cmd, flags)
			require.NoError(t, cmd.ParseFlags(tc.args))
			assert.Equal(t, tc.expect, *flags)
		})
	}
}

func TestBindGlobalFlags(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	require.NoError(t, BindGlobalFlags(v, cmd))
	require.NoError(t, cmd.PersistentFlags().Set("output", "json"))
	require.NoError(t, cmd.PersistentFlags().Set("config", "x.yaml"))

	assert.Equal(t, "json", v.GetString("output"))

	applyBoundFlags(v, flags)
	assert.Equal(t, OutputJSON, flags.Output)
	assert.Equal(t, "x.yaml", flags.Config)
}

func TestBindGlobalFlags_Environment(t *testing.T) {
	t.Setenv("STRUCTURE_OUTPUT", "json")

	flags := &GlobalFlags{}
	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(nil))
	require.NoError(t, BindGlobalFlags(v, cmd))

	applyBoundFlags(v, flags)
	assert.Equal(t, OutputJSON, flags.Output)
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   string
		expected bool
	}{
		{"text is valid", OutputText, true},
		{"json is valid", OutputJSON, true},
		{"xml is invalid", "xml", false},
		{"empty is invalid", "", false},
		{"uppercase JSON is invalid", "JSON", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, IsValidOutputFormat(tc.format))
		})
	}
	assert.ElementsMatch(t, []string{OutputText, OutputJSON}, ValidOutputFormats())
}

//nolint:err113 // Test cases intentionally use dynamic errors to simulate Cobra error messages
func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"nil error returns success", nil, ExitSuccess},
		{"invalid output format", structerrors.ErrInvalidOutputFormat, ExitInvalidInput},
		{"wrapped invalid output format", fmt.Errorf("validation failed: %w", structerrors.ErrInvalidOutputFormat), ExitInvalidInput},
		{"invalid task input", fmt.Errorf("%w: user_input is required", structerrors.ErrInvalidInput), ExitInvalidInput},
		{"invalid answer", structerrors.ErrInvalidAnswer, ExitInvalidInput},
		{"invalid id", fmt.Errorf("%w: %w", structerrors.ErrSessionNotFound, structerrors.ErrInvalidID), ExitInvalidInput},
		{"unknown flag", stderrors.New("unknown flag: --foo"), ExitInvalidInput},
		{"mutually exclusive flags", stderrors.New("if any flags in the group [verbose quiet] are set none of the others can be"), ExitInvalidInput},
		{"wrong arg count", stderrors.New("accepts 1 arg(s), received 0"), ExitInvalidInput},
		{"missing args", stderrors.New("requires at least 1 arg(s), only received 0"), ExitInvalidInput},
		{"unknown command", stderrors.New(`unknown command "foo"`), ExitInvalidInput},
		{"session not found", structerrors.ErrSessionNotFound, ExitError},
		{"rate limited", structerrors.ErrRateLimited, ExitError},
		{"invariance violation", structerrors.ErrInvarianceViolation, ExitError},
		{"generic error", stderrors.New("something went wrong"), ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expectedCode, ExitCodeForError(tc.err))
		})
	}
}
