package config

import (
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - store.backend must be memory, file or redis
//   - store.redis.addr is required for the redis backend
//   - orchestrator timeouts must be positive
//   - orchestrator.determinism must be D1, D2 or NONE
//   - rate limits and burst must not be negative
//   - audit rotation settings must not be negative
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if err := validateStoreConfig(&cfg.Store); err != nil {
		return err
	}
	if err := validateOrchestratorConfig(&cfg.Orchestrator); err != nil {
		return err
	}
	if err := validateComplianceConfig(&cfg.Compliance); err != nil {
		return err
	}
	return validateAuditConfig(&cfg.Audit)
}

func validateStoreConfig(cfg *StoreConfig) error {
	switch cfg.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.Wrap(errors.ErrConfigInvalidStore,
				"store.redis.addr is required for the redis backend")
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidStore,
			"store.backend must be memory, file or redis, got %q", cfg.Backend)
	}
	if cfg.Redis.TTL < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidStore,
			"store.redis.ttl cannot be negative, got %s", cfg.Redis.TTL)
	}
	if cfg.Redis.DB < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidStore,
			"store.redis.db cannot be negative, got %d", cfg.Redis.DB)
	}
	return nil
}

func validateOrchestratorConfig(cfg *OrchestratorConfig) error {
	if cfg.KernelTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.kernel_timeout must be positive, got %s", cfg.KernelTimeout)
	}
	if cfg.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.lock_timeout must be positive, got %s", cfg.LockTimeout)
	}
	if !constants.Determinism(cfg.Determinism).Valid() {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.determinism must be D1, D2 or NONE, got %q", cfg.Determinism)
	}
	return nil
}

func validateComplianceConfig(cfg *ComplianceConfig) error {
	for role, n := range cfg.RateLimits {
		if n < 0 {
			return errors.Wrapf(errors.ErrConfigInvalidCompliance,
				"compliance.rate_limits.%s cannot be negative, got %d", role, n)
		}
	}
	if cfg.Burst < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidCompliance,
			"compliance.burst cannot be negative, got %d", cfg.Burst)
	}
	return nil
}

func validateAuditConfig(cfg *AuditConfig) error {
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return errors.Wrap(errors.ErrConfigInvalidAudit,
			"audit.max_size_mb, audit.max_backups and audit.max_age_days cannot be negative")
	}
	return nil
}
