// Package config loads runtime configuration for the helmet detection workflow.
//
// Values are resolved in three phases: defaults, an optional TOML file with an
// optional per-environment overlay, and environment variable overrides,
// followed by validation. Each section
// finalizes itself so sections can be tested in isolation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "helmet-mcp.toml"
	// OverlayConfigPattern names the overlay merged over the base file when
	// HELMET_MCP_ENV is set, e.g. helmet-mcp.staging.toml.
	OverlayConfigPattern = "helmet-mcp.%s.toml"

	EnvConfigPath = "HELMET_MCP_CONFIG"
	EnvEnv        = "HELMET_MCP_ENV"
	EnvLogLevel   = "HELMET_MCP_LOG_LEVEL"
)

// Config is the root configuration.
type Config struct {
	Detection DetectionConfig `toml:"detection"`
	Preview   PreviewConfig   `toml:"preview"`
	Log       LogConfig       `toml:"log"`
}

// Load reads the config file named by HELMET_MCP_CONFIG (or the default file
// if it exists) and finalizes all sections. Without a file, defaults and
// environment variables provide every value.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	return LoadFile(path)
}

// LoadFile reads the given TOML file, merges the environment overlay found
// next to it (if any) and finalizes the result. An empty path skips the base
// file and looks for the overlay in the working directory.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		loaded, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(loaded)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Finalize applies defaults, environment overrides and validation to every section.
func (c *Config) Finalize() error {
	if err := c.Detection.Finalize(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.Preview.Finalize(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	c.Detection.Merge(&overlay.Detection)
	c.Preview.Merge(&overlay.Preview)
	c.Log.Merge(&overlay.Log)
}

func overlayPath(base string) string {
	env := os.Getenv(EnvEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}
