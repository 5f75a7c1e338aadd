package constants

// Log and state file names.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.structure/logs/structure.log
	CLILogFileName = "structure.log"

	// AuditLogFileName is the append-only JSON-lines audit trail.
	AuditLogFileName = "audit.jsonl"

	// StateFileExt is the extension used for persisted session/workflow files.
	StateFileExt = ".json"

	// LockFileExt is the extension of the lock file next to a state file.
	LockFileExt = ".lock"
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global configuration file,
	// located in the structure home directory.
	GlobalConfigName = "config.yaml"

	// ProjectConfigDir is the project-local configuration directory.
	ProjectConfigDir = ".structure"
)
