package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv is a config file plus the directories it points at.
type testEnv struct {
	dir        string
	configPath string
	auditPath  string
	metrics    string
}

// newTestEnv writes a config that keeps every file under a temp dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		auditPath:  filepath.Join(dir, "logs", "audit.jsonl"),
		metrics:    filepath.Join(dir, "structure.prom"),
	}
	cfg := fmt.Sprintf(`store:
  backend: file
  dir: %s
audit:
  enabled: true
  path: %s
metrics:
  enabled: true
  textfile: %s
`, filepath.Join(dir, "state"), env.auditPath, env.metrics)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	return env
}

// run executes the root command with the env's config and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	st := &state{flags: &GlobalFlags{}, logOutput: io.Discard}
	cmd := newRootCmdWithState(st, BuildInfo{})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

// runJSON executes with --output json and decodes the result.
func (e *testEnv) runJSON(t *testing.T, out any, args ...string) error {
	t.Helper()
	stdout, err := e.run(t, append([]string{"-o", "json"}, args...)...)
	if stdout != "" {
		require.NoError(t, json.Unmarshal([]byte(stdout), out), stdout)
	}
	return err
}
