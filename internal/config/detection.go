package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	EnvDetectionURL       = "HELMET_DETECTION_URL"
	EnvDetectionHealthURL = "HELMET_DETECTION_HEALTH_URL"
	EnvDetectionTimeout   = "HELMET_DETECTION_TIMEOUT"
)

// DetectionConfig locates the remote helmet detection service.
type DetectionConfig struct {
	URL       string `toml:"url"`
	HealthURL string `toml:"health_url"`
	// Timeout bounds a single detection request. Empty means no timeout.
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration (zero when unset).
func (c *DetectionConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DetectionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *DetectionConfig) Merge(overlay *DetectionConfig) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.HealthURL != "" {
		c.HealthURL = overlay.HealthURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *DetectionConfig) loadDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:5000/api/detect-helmet"
	}
	if c.HealthURL == "" {
		c.HealthURL = "http://localhost:5000/health"
	}
}

func (c *DetectionConfig) loadEnv() {
	if v := os.Getenv(EnvDetectionURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvDetectionHealthURL); v != "" {
		c.HealthURL = v
	}
	if v := os.Getenv(EnvDetectionTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *DetectionConfig) validate() error {
	if err := validateURL(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if err := validateURL(c.HealthURL); err != nil {
		return fmt.Errorf("invalid health_url: %w", err)
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("invalid timeout: %s is negative", c.Timeout)
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
