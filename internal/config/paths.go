// Package config provides configuration management for alloc-admin.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "alloc-admin"

// ConfigDirectory returns the directory holding config.ini.
//
// Locations:
//   - Windows: %APPDATA%\alloc-admin
//   - Unix: ~/.config/alloc-admin
func ConfigDirectory() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName)
}

// DefaultConfigPath returns the default path for config.ini.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), "config.ini")
}

// LogDirectory returns the directory for rotated log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\alloc-admin\logs
//   - Unix: ~/.config/alloc-admin/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appDirName, "logs")
		}
	}
	return filepath.Join(ConfigDirectory(), "logs")
}

// EnsureLogDirectory creates the log directory if it doesn't exist.
// Uses 0700 permissions to restrict log access to owner only.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}
