// Package config provides configuration management for structure with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (STRUCTURE_* prefix)
//  3. Project config (.structure/config.yaml)
//  4. Global config (~/.structure/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the root configuration structure for structure.
type Config struct {
	// Store selects where sessions and workflows are persisted.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Policy points at an optional policy table file.
	Policy PolicyConfig `yaml:"policy" mapstructure:"policy"`

	// Orchestrator contains step execution settings.
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`

	// Compliance contains rate limits and access deny rules.
	Compliance ComplianceConfig `yaml:"compliance" mapstructure:"compliance"`

	// Audit contains settings for the JSON-lines audit log.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is one of memory, file or redis.
	// Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Dir is the root of the file backend. Empty means ~/.structure.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	// Prefix namespaces every key. Default: "structure"
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// TTL is the lifetime of a stored record. Default: 24h
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// PolicyConfig points at a YAML file replacing the built-in policy tables.
type PolicyConfig struct {
	// Path is empty to use the built-in tables.
	Path string `yaml:"path" mapstructure:"path"`
}

// OrchestratorConfig contains step execution settings.
type OrchestratorConfig struct {
	// KernelTimeout bounds one kernel invocation.
	// Default: 30s
	KernelTimeout time.Duration `yaml:"kernel_timeout" mapstructure:"kernel_timeout"`

	// Determinism is requested from every kernel: D1, D2 or NONE.
	// Default: "D1"
	Determinism string `yaml:"determinism" mapstructure:"determinism"`

	// AuditExecutionFailures emits FAILURE audit records for failed steps.
	// Default: true
	AuditExecutionFailures bool `yaml:"audit_execution_failures" mapstructure:"audit_execution_failures"`

	// LockTimeout bounds the wait for a busy session.
	// Default: 5s
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// ComplianceConfig contains rate limits and deny rules.
type ComplianceConfig struct {
	// RateLimits maps role to requests per hour. Roles missing from the
	// map use the "default" entry.
	// Default: {"default": 100, "admin": 1000}
	RateLimits map[string]int `yaml:"rate_limits" mapstructure:"rate_limits"`

	// Burst caps the number of requests allowed at once. Zero means the
	// hourly limit.
	Burst int `yaml:"burst" mapstructure:"burst"`

	// Deny lists (actor, resource, action) glob patterns that are refused.
	Deny []DenyRule `yaml:"deny" mapstructure:"deny"`
}

// DenyRule blocks matching (actor, resource, action) triples.
type DenyRule struct {
	Actor    string `yaml:"actor" mapstructure:"actor"`
	Resource string `yaml:"resource" mapstructure:"resource"`
	Action   string `yaml:"action" mapstructure:"action"`
}

// AuditConfig contains settings for the audit log.
type AuditConfig struct {
	// Enabled turns the file sink on.
	// Default: true
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path of the audit log. Empty means ~/.structure/logs/audit.jsonl.
	Path string `yaml:"path" mapstructure:"path"`

	MaxSizeMB  int `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Namespace prefixes every metric name. Default: "structure"
	Namespace string `yaml:"namespace" mapstructure:"namespace"`

	// Textfile, when set, receives the metrics in the text exposition
	// format after every command, for the node_exporter textfile collector.
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}
