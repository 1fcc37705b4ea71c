// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings read from the config file.
type Config struct {
	// File is the shared task list path.
	File string `yaml:"file"`
	// Interval is the sync polling interval.
	Interval Duration `yaml:"interval"`
}

// Duration wraps time.Duration so yaml values like "500ms" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		File:     filepath.Join(home, ".local", "share", "tydo", "todos.json"),
		Interval: Duration(500 * time.Millisecond),
	}
}

// DefaultPath returns the config file location, honoring TYDO_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("TYDO_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tydo", "config.yaml")
}

// Load reads the config file at DefaultPath. A missing file yields the
// defaults; an unreadable one yields the defaults plus the error so the
// caller can warn and continue.
func Load() (Config, error) {
	return LoadFile(DefaultPath())
}

// LoadFile reads a config file, filling unset values with defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}

	cfg.File = ExpandPath(cfg.File)
	if cfg.File == "" {
		cfg.File = Default().File
	}
	if cfg.Interval <= 0 {
		cfg.Interval = Default().Interval
	}
	return cfg, nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
