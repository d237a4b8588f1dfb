package config

import (
	"fmt"
	"os"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	EnvPreviewMaxDimension = "HELMET_PREVIEW_MAX_DIMENSION"
	EnvOverlayColor        = "HELMET_OVERLAY_COLOR"
)

// PreviewConfig controls how the preview and its overlay are rendered.
type PreviewConfig struct {
	// MaxDimension fits rendered previews inside a square of this size.
	// Zero renders at source size.
	MaxDimension     int    `toml:"max_dimension"`
	OverlayColor     string `toml:"overlay_color"`
	OverlayThickness int    `toml:"overlay_thickness"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PreviewConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PreviewConfig) Merge(overlay *PreviewConfig) {
	if overlay.MaxDimension != 0 {
		c.MaxDimension = overlay.MaxDimension
	}
	if overlay.OverlayColor != "" {
		c.OverlayColor = overlay.OverlayColor
	}
	if overlay.OverlayThickness != 0 {
		c.OverlayThickness = overlay.OverlayThickness
	}
}

func (c *PreviewConfig) loadDefaults() {
	if c.OverlayColor == "" {
		c.OverlayColor = "#A855F7"
	}
	if c.OverlayThickness == 0 {
		c.OverlayThickness = 2
	}
}

func (c *PreviewConfig) loadEnv() {
	if v := os.Getenv(EnvPreviewMaxDimension); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDimension = n
		}
	}
	if v := os.Getenv(EnvOverlayColor); v != "" {
		c.OverlayColor = v
	}
}

func (c *PreviewConfig) validate() error {
	if c.MaxDimension < 0 {
		return fmt.Errorf("invalid max_dimension: %d", c.MaxDimension)
	}
	if c.OverlayThickness < 1 {
		return fmt.Errorf("invalid overlay_thickness: %d", c.OverlayThickness)
	}
	if _, err := colorful.Hex(c.OverlayColor); err != nil {
		return fmt.Errorf("invalid overlay_color %q: %w", c.OverlayColor, err)
	}
	return nil
}
