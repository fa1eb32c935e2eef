package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global configuration directory (~/.todochat).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".todochat"), nil
}

// GetDataDir returns the directory for session data and crash logs.
// Resolution order (first match wins):
// 1. Explicit config via "session.dir" (Viper/env/flag)
// 2. XDG_DATA_HOME/todochat (if XDG_DATA_HOME is set)
// 3. Global fallback: ~/.todochat/data
func GetDataDir() string {
	if dir := viper.GetString("session.dir"); dir != "" {
		return dir
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "todochat")
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./.todochat"
	}
	return filepath.Join(dir, "data")
}

// GetCrashLogDir returns where crash logs are written.
func GetCrashLogDir() string {
	return filepath.Join(GetDataDir(), "crashes")
}
