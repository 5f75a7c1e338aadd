package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/errors"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config files are picked up.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home, work = t.TempDir(), t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)
	return home, work
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err, "Load should not fail when no config file exists")

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home, work := isolate(t)
	writeFile(t, filepath.Join(home, constants.StructureHome, "config.yaml"), `
store:
  backend: memory
orchestrator:
  kernel_timeout: 10s
  determinism: D2
`)
	writeFile(t, filepath.Join(work, constants.ProjectConfigDir, "config.yaml"), `
orchestrator:
  kernel_timeout: 5s
`)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend, "global value survives")
	assert.Equal(t, "D2", cfg.Orchestrator.Determinism, "nested keys merge")
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.KernelTimeout, "project wins")
}

func TestLoad_EnvVarOverridesConfigFile(t *testing.T) {
	_, work := isolate(t)
	writeFile(t, filepath.Join(work, constants.ProjectConfigDir, "config.yaml"), `
store:
  backend: memory
`)
	t.Setenv("STRUCTURE_STORE_BACKEND", "redis")
	t.Setenv("STRUCTURE_STORE_REDIS_ADDR", "localhost:6379")
	t.Setenv("STRUCTURE_ORCHESTRATOR_LOCK_TIMEOUT", "2s")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.LockTimeout)
}

func TestLoad_InvalidProjectConfig(t *testing.T) {
	_, work := isolate(t)
	writeFile(t, filepath.Join(work, constants.ProjectConfigDir, "config.yaml"), "store: [")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read project config file")
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, `
compliance:
  rate_limits:
    analyst: 5
  burst: 2
  deny:
    - actor: "guest*"
      action: execute
metrics:
  enabled: true
  textfile: /tmp/structure.prom
audit:
  enabled: false
`)

	cfg, err := LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Compliance.RateLimits["analyst"])
	assert.Equal(t, 2, cfg.Compliance.Burst)
	require.Len(t, cfg.Compliance.Deny, 1)
	assert.Equal(t, DenyRule{Actor: "guest*", Action: "execute"}, cfg.Compliance.Deny[0])
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/tmp/structure.prom", cfg.Metrics.Textfile)
	assert.False(t, cfg.Audit.Enabled)

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFromPaths(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.yaml")
	project := filepath.Join(dir, "project.yaml")
	writeFile(t, global, `
store:
  redis:
    prefix: team
    ttl: 1h
`)
	writeFile(t, project, `
store:
  redis:
    ttl: 30m
`)

	cfg, err := LoadFromPaths(context.Background(), project, global)
	require.NoError(t, err)
	assert.Equal(t, "team", cfg.Store.Redis.Prefix)
	assert.Equal(t, 30*time.Minute, cfg.Store.Redis.TTL)

	t.Run("missing files are skipped", func(t *testing.T) {
		cfg, err := LoadFromPaths(context.Background(), filepath.Join(dir, "nope.yaml"), "")
		require.NoError(t, err)
		assert.Equal(t, BackendFile, cfg.Store.Backend)
	})

	t.Run("validation failure", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		writeFile(t, bad, "orchestrator:\n  determinism: D9\n")
		_, err := LoadFromPaths(context.Background(), bad, "")
		require.ErrorIs(t, err, errors.ErrConfigInvalidOrchestrator)
	})
}

func TestLoadWithOverrides(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithOverrides(context.Background(), &Config{
		Store:        StoreConfig{Backend: BackendMemory},
		Orchestrator: OrchestratorConfig{KernelTimeout: time.Second},
		Compliance:   ComplianceConfig{RateLimits: map[string]int{"analyst": 7}},
	})
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, time.Second, cfg.Orchestrator.KernelTimeout)
	assert.Equal(t, constants.DefaultLockTimeout, cfg.Orchestrator.LockTimeout, "zero values are not applied")
	assert.Equal(t, 7, cfg.Compliance.RateLimits["analyst"])
	assert.Equal(t, constants.DefaultRateLimitPerHour, cfg.Compliance.RateLimits[constants.RoleDefault])

	t.Run("nil overrides", func(t *testing.T) {
		cfg, err := LoadWithOverrides(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("invalid override", func(t *testing.T) {
		_, err := LoadWithOverrides(context.Background(), &Config{Store: StoreConfig{Backend: "s3"}})
		require.ErrorIs(t, err, errors.ErrConfigInvalidStore)
	})
}
