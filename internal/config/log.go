package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LogConfig selects the log level and whether stderr output is colored.
type LogConfig struct {
	Level string `toml:"level"`
	// Color is a pointer so an explicit false in the file survives defaults.
	Color *bool `toml:"color"`
}

// SlogLevel converts Level to a slog.Level. Unknown values map to info.
func (c *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Colored reports whether colored output is enabled.
func (c *LogConfig) Colored() bool {
	return c.Color == nil || *c.Color
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LogConfig) Finalize() error {
	if c.Level == "" {
		c.Level = "info"
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = v
	}
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("invalid level: %q", c.Level)
}

// Merge overwrites non-zero fields from overlay.
func (c *LogConfig) Merge(overlay *LogConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Color != nil {
		c.Color = overlay.Color
	}
}
