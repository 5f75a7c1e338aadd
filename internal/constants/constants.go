// Package constants provides centralized constant values used throughout structure.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used for organizing data.
const (
	// StructureHome is the hidden directory name where structure stores its data.
	// This directory is created in the user's home directory.
	StructureHome = ".structure"

	// SessionsDir is the directory name where session state is stored.
	SessionsDir = "sessions"

	// WorkflowsDir is the directory name where workflow state is stored.
	WorkflowsDir = "workflows"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Timeouts.
const (
	// DefaultKernelTimeout bounds a single kernel invocation when the
	// request carries no timeout hint.
	DefaultKernelTimeout = 30 * time.Second

	// DefaultLockTimeout bounds how long a request waits for the per-session lock.
	DefaultLockTimeout = 5 * time.Second

	// LockRetryInterval is the polling interval used while waiting for a file lock.
	LockRetryInterval = 50 * time.Millisecond

	// DefaultRedisTTL is how long session and workflow state lives in redis.
	DefaultRedisTTL = 24 * time.Hour
)

// Log rotation settings.
const (
	// LogMaxSizeMB is the maximum size in megabytes before a log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of old log files to retain.
	LogMaxBackups = 5

	// LogMaxAgeDays is the maximum number of days to retain old log files.
	LogMaxAgeDays = 30

	// LogCompress determines if rotated log files should be compressed.
	LogCompress = true
)

// Compliance defaults.
const (
	// DefaultRateLimitPerHour applies to roles without an explicit limit.
	DefaultRateLimitPerHour = 100

	// AdminRateLimitPerHour applies to the admin role.
	AdminRateLimitPerHour = 1000

	// RoleDefault is the role used when the caller does not supply one.
	RoleDefault = "default"

	// RoleAdmin is the privileged role.
	RoleAdmin = "admin"

	// DefaultUserID identifies anonymous CLI callers.
	DefaultUserID = "default_user"
)

// Classification constants.
const (
	// HintConfidence is the confidence assigned when the caller supplied a domain hint.
	HintConfidence = 1.0

	// KeywordConfidence is the fixed heuristic confidence for keyword routing.
	KeywordConfidence = 0.8

	// SpecVersion is the version of the TaskSpec/KernelInput envelope.
	SpecVersion = "1.0"

	// WorkflowNameMaxInput is how many characters of the request make up a workflow name.
	WorkflowNameMaxInput = 50

	// ResultSummaryMaxLen bounds the result summary stored in session history.
	ResultSummaryMaxLen = 100

	// AnswerKeyPrefix prefixes clarification answers merged into session context.
	AnswerKeyPrefix = "answer_"

	// MinSampleSize is the default minimum sample size for experiment designs.
	MinSampleSize = 10
)
