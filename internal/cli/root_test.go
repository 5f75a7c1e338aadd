package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	structerrors "github.com/mrz1836/structure/internal/errors"
)

func TestRootCmd_Help(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Structure")
	for _, want := range []string{"--output", "--verbose", "--quiet", "--config", "--version"} {
		assert.Contains(t, output, want)
	}
	for _, sub := range []string{"classify", "submit", "answer", "session", "kernels", "gates", "check-invariance"} {
		assert.Contains(t, output, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		info           BuildInfo
		expectContains []string
	}{
		{
			name:           "full version info",
			info:           BuildInfo{Version: "1.0.0", Commit: "abc1234", Date: "2026-01-01"},
			expectContains: []string{"1.0.0", "abc1234", "2026-01-01"},
		},
		{
			name:           "default dev version",
			info:           BuildInfo{},
			expectContains: []string{"dev", "none", "unknown"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd := newRootCmd(&GlobalFlags{}, tc.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"--version"})

			require.NoError(t, cmd.Execute())
			for _, expected := range tc.expectContains {
				assert.Contains(t, buf.String(), expected)
			}
		})
	}
}

func TestRootCmd_OutputFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		args          []string
		expectedValue string
		expectError   bool
	}{
		{name: "text output", args: []string{"--output", "text"}, expectedValue: OutputText},
		{name: "json output", args: []string{"--output", "json"}, expectedValue: OutputJSON},
		{name: "shorthand output", args: []string{"-o", "json"}, expectedValue: OutputJSON},
		{name: "invalid output format", args: []string{"--output", "xml"}, expectError: true},
		{name: "empty output format", args: []string{"--output", ""}, expectError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			st := &state{flags: &GlobalFlags{}, logOutput: io.Discard}
			cmd := newRootCmdWithState(st, BuildInfo{})
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(append([]string{"--config", env.configPath}, tc.args...))

			err := cmd.Execute()
			if tc.expectError {
				require.ErrorIs(t, err, structerrors.ErrInvalidOutputFormat)
				assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, st.flags.Output)
		})
	}
}

func TestRootCmd_VerboseQuietMutuallyExclusive(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--verbose", "--quiet"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
	assert.Contains(t, err.Error(), "quiet")
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_LoadsExplicitConfig(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	st := &state{flags: &GlobalFlags{}, logOutput: io.Discard}
	cmd := newRootCmdWithState(st, BuildInfo{})
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--config", env.configPath, "-v"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, st.cfg)
	assert.True(t, st.flags.Verbose)
	assert.True(t, st.cfg.Metrics.Enabled)
	assert.Equal(t, env.auditPath, st.cfg.Audit.Path)
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	t.Parallel()

	st := &state{flags: &GlobalFlags{}, logOutput: io.Discard}
	cmd := newRootCmdWithState(st, BuildInfo{})
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--config", "/does/not/exist.yaml", "gates"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/does/not/exist.yaml")
}

func TestRootCmd_SilencesUsageOnError(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--output", "invalid"})

	require.Error(t, cmd.Execute())
	assert.NotContains(t, buf.String(), "Usage:")
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		info     BuildInfo
		expected string
	}{
		{
			name:     "all fields set",
			info:     BuildInfo{Version: "1.0.0", Commit: "abc123", Date: "2026-01-01"},
			expected: "1.0.0 (commit: abc123, built: 2026-01-01)",
		},
		{
			name:     "empty info uses defaults",
			info:     BuildInfo{},
			expected: "dev (commit: none, built: unknown)",
		},
		{
			name:     "partial info fills defaults",
			info:     BuildInfo{Version: "2.0.0"},
			expected: "2.0.0 (commit: none, built: unknown)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, formatVersion(tc.info))
		})
	}
}
