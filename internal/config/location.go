package config

import (
	"os"
	"path/filepath"
)

// EnvConfigPath names the environment variable that overrides the config
// file location.
const EnvConfigPath = "UIBRIDGE_CONFIG"

// GetConfigPath returns the configuration file path. It first checks
// UIBRIDGE_CONFIG, then falls back to ~/.uibridge/config.toml.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".uibridge", "config.toml"), nil
}
