// Package config loads foldr settings from an optional YAML file and
// FOLDR_* environment variables.
//
// Precedence, highest first: command-line flags (applied by the CLI),
// environment variables, the config file, Default().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. FOLDR_LOG_LEVEL.
const EnvPrefix = "FOLDR"

// Config represents the complete foldr configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Harness HarnessConfig `mapstructure:"harness"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig controls the stderr log handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// EngineConfig controls program execution.
type EngineConfig struct {
	// MaxSteps rejects programs with more steps. 0 disables the limit.
	MaxSteps int `mapstructure:"max_steps"`
}

// HarnessConfig controls fixture runs.
type HarnessConfig struct {
	// Parallelism is the number of fixtures executed at once.
	Parallelism int `mapstructure:"parallelism"`
	// MaxAttempts bounds the validate-and-repair loop.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// StoreConfig locates the run log.
type StoreConfig struct {
	// Path is the SQLite file. Empty disables recording.
	Path string `mapstructure:"path"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	// File receives the text exposition after each command. Empty disables export.
	File string `mapstructure:"file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			MaxSteps: 0,
		},
		Harness: HarnessConfig{
			Parallelism: 4,
			MaxAttempts: 3,
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// are honored for keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("engine.max_steps", d.Engine.MaxSteps)
	v.SetDefault("harness.parallelism", d.Harness.Parallelism)
	v.SetDefault("harness.max_attempts", d.Harness.MaxAttempts)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("metrics.file", d.Metrics.File)
}

// Load reads configuration and validates it.
//
// When path is empty the default file (ConfigFile()) is read if it exists;
// a missing default file is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = ConfigFile()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// ConfigDir returns the directory holding the user's config file.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "foldr")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".foldr"
	}
	return filepath.Join(home, ".config", "foldr")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
