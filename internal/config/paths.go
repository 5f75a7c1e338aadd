package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/errors"
)

// GlobalConfigDir returns the path to the global structure directory.
// This is typically ~/.structure on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.StructureHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
func ProjectConfigDir() string {
	return constants.ProjectConfigDir
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.GlobalConfigName)
}

// LogPath returns the configured audit log path, defaulting to
// ~/.structure/logs/audit.jsonl.
func (c AuditConfig) LogPath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir, constants.AuditLogFileName), nil
}
