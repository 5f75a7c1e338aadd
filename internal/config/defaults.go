package config

import (
	"github.com/mrz1836/structure/internal/constants"
)

// DefaultConfig returns a new Config with the built-in default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			// File storage keeps sessions across CLI invocations.
			Backend: BackendFile,
			Redis: RedisConfig{
				Prefix: "structure",
				TTL:    constants.DefaultRedisTTL,
			},
		},
		Orchestrator: OrchestratorConfig{
			KernelTimeout:          constants.DefaultKernelTimeout,
			Determinism:            constants.DeterminismD1.String(),
			AuditExecutionFailures: true,
			LockTimeout:            constants.DefaultLockTimeout,
		},
		Compliance: ComplianceConfig{
			RateLimits: map[string]int{
				constants.RoleDefault: constants.DefaultRateLimitPerHour,
				constants.RoleAdmin:   constants.AdminRateLimitPerHour,
			},
		},
		Audit: AuditConfig{
			Enabled:    true,
			MaxSizeMB:  constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAgeDays: constants.LogMaxAgeDays,
		},
		Metrics: MetricsConfig{
			Namespace: "structure",
		},
	}
}
