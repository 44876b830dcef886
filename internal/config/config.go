// Package config loads uibridge settings from an optional TOML file,
// built-in defaults and UIBRIDGE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the bridge host settings.
type Config struct {
	Debug   bool
	Bundle  BundleConfig
	Dev     DevConfig
	Runtime RuntimeConfig
	Log     LogConfig
}

// BundleConfig selects the bundle the host runs.
type BundleConfig struct {
	// File is an explicit bundle path. It wins over Asset.
	File  string
	Asset string
	// MainModule is the entry module name requested from the dev server.
	MainModule string `mapstructure:"main_module"`
}

// DevConfig holds debug-only settings.
type DevConfig struct {
	// Server is the dev server base URL, e.g. http://localhost:8081.
	Server string
}

// RuntimeConfig tunes the scripting runtime.
type RuntimeConfig struct {
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level string
}

// Defaults for keys not set anywhere else.
const (
	DefaultAsset       = "index.bundle.js"
	DefaultMainModule  = "index"
	DefaultSyncTimeout = 5 * time.Second
	DefaultLogLevel    = "info"
)

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("debug", false)
	v.SetDefault("bundle.file", "")
	v.SetDefault("bundle.asset", DefaultAsset)
	v.SetDefault("bundle.main_module", DefaultMainModule)
	v.SetDefault("dev.server", "")
	v.SetDefault("runtime.sync_timeout", DefaultSyncTimeout)
	v.SetDefault("log.level", DefaultLogLevel)

	v.SetConfigType("toml")
	v.SetEnvPrefix("UIBRIDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration from path and the environment. An empty path
// uses GetConfigPath. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return Config{}, fmt.Errorf("config: locate file: %w", err)
		}
		path = p
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return c, nil
}

// Default returns the configuration with only defaults and environment
// overrides applied.
func Default() (Config, error) {
	var c Config
	if err := newViper().Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return c, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist)
}
