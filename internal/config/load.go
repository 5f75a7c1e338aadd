package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/errors"
)

// newViperInstance creates a new Viper instance with the STRUCTURE_ env
// prefix, key replacer and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STRUCTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(ctx context.Context, v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("store.backend", cfg.Store.Backend).
		Dur("orchestrator.kernel_timeout", cfg.Orchestrator.KernelTimeout).
		Str("orchestrator.determinism", cfg.Orchestrator.Determinism).
		Bool("metrics.enabled", cfg.Metrics.Enabled).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (STRUCTURE_* prefix)
//  2. Project config (.structure/config.yaml)
//  3. Global config (~/.structure/config.yaml)
//  4. Built-in defaults
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}
	return unmarshalAndValidate(ctx, v)
}

// LoadFile reads one explicit config file over the defaults. It backs the
// --config flag, which replaces the global/project lookup.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	v := newViperInstance()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}
	return unmarshalAndValidate(ctx, v)
}

// loadGlobalConfig attempts to load the global config file (~/.structure/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, constants.GlobalConfigName)
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}

	return globalConfigPath, true
}

// loadProjectConfig attempts to load the project config file (.structure/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
//
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(ctx, v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.redis.addr", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL.String())

	v.SetDefault("policy.path", "")

	v.SetDefault("orchestrator.kernel_timeout", d.Orchestrator.KernelTimeout.String())
	v.SetDefault("orchestrator.determinism", d.Orchestrator.Determinism)
	v.SetDefault("orchestrator.audit_execution_failures", d.Orchestrator.AuditExecutionFailures)
	v.SetDefault("orchestrator.lock_timeout", d.Orchestrator.LockTimeout.String())

	v.SetDefault("compliance.rate_limits", d.Compliance.RateLimits)
	v.SetDefault("compliance.burst", d.Compliance.Burst)

	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.path", "")
	v.SetDefault("audit.max_size_mb", d.Audit.MaxSizeMB)
	v.SetDefault("audit.max_backups", d.Audit.MaxBackups)
	v.SetDefault("audit.max_age_days", d.Audit.MaxAgeDays)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.textfile", "")
}

// applyOverrides merges non-zero override values into the config.
//
// IMPORTANT: Boolean fields cannot be overridden to false here because the
// zero value is indistinguishable from "not set". CLI implementations
// should handle boolean flags with cmd.Flags().Changed.
func applyOverrides(cfg, overrides *Config) {
	applyStoreOverrides(cfg, overrides)

	if overrides.Policy.Path != "" {
		cfg.Policy.Path = overrides.Policy.Path
	}

	if overrides.Orchestrator.KernelTimeout != 0 {
		cfg.Orchestrator.KernelTimeout = overrides.Orchestrator.KernelTimeout
	}
	if overrides.Orchestrator.Determinism != "" {
		cfg.Orchestrator.Determinism = overrides.Orchestrator.Determinism
	}
	if overrides.Orchestrator.LockTimeout != 0 {
		cfg.Orchestrator.LockTimeout = overrides.Orchestrator.LockTimeout
	}

	for role, n := range overrides.Compliance.RateLimits {
		if cfg.Compliance.RateLimits == nil {
			cfg.Compliance.RateLimits = make(map[string]int, len(overrides.Compliance.RateLimits))
		}
		cfg.Compliance.RateLimits[role] = n
	}

	if overrides.Audit.Path != "" {
		cfg.Audit.Path = overrides.Audit.Path
	}
	if overrides.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = overrides.Metrics.Textfile
	}
}

// applyStoreOverrides applies store-related overrides to the config.
func applyStoreOverrides(cfg, overrides *Config) {
	if overrides.Store.Backend != "" {
		cfg.Store.Backend = overrides.Store.Backend
	}
	if overrides.Store.Dir != "" {
		cfg.Store.Dir = overrides.Store.Dir
	}
	if overrides.Store.Redis.Addr != "" {
		cfg.Store.Redis.Addr = overrides.Store.Redis.Addr
	}
	if overrides.Store.Redis.Prefix != "" {
		cfg.Store.Redis.Prefix = overrides.Store.Redis.Prefix
	}
	if overrides.Store.Redis.TTL != 0 {
		cfg.Store.Redis.TTL = overrides.Store.Redis.TTL
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
