package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helmet-mcp.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Detection.URL != "http://localhost:5000/api/detect-helmet" {
		t.Errorf("Detection.URL: got %s", cfg.Detection.URL)
	}
	if cfg.Detection.HealthURL != "http://localhost:5000/health" {
		t.Errorf("Detection.HealthURL: got %s", cfg.Detection.HealthURL)
	}
	if cfg.Detection.TimeoutDuration() != 0 {
		t.Errorf("default timeout should be disabled, got %v", cfg.Detection.TimeoutDuration())
	}
	if cfg.Preview.MaxDimension != 0 {
		t.Errorf("Preview.MaxDimension: got %d, want 0", cfg.Preview.MaxDimension)
	}
	if cfg.Preview.OverlayColor != "#A855F7" {
		t.Errorf("Preview.OverlayColor: got %s", cfg.Preview.OverlayColor)
	}
	if cfg.Preview.OverlayThickness != 2 {
		t.Errorf("Preview.OverlayThickness: got %d", cfg.Preview.OverlayThickness)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("Log level: got %v", cfg.Log.SlogLevel())
	}
	if !cfg.Log.Colored() {
		t.Error("color should default to enabled")
	}
}

func TestLoadFile_FromTOML(t *testing.T) {
	path := writeConfig(t, `
[detection]
url = "https://detector.example.com/api/detect-helmet"
timeout = "45s"

[preview]
max_dimension = 640
overlay_color = "#22C55E"
overlay_thickness = 4

[log]
level = "debug"
color = false
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Detection.URL != "https://detector.example.com/api/detect-helmet" {
		t.Errorf("Detection.URL: got %s", cfg.Detection.URL)
	}
	if cfg.Detection.TimeoutDuration() != 45*time.Second {
		t.Errorf("timeout: got %v, want 45s", cfg.Detection.TimeoutDuration())
	}
	if cfg.Preview.MaxDimension != 640 {
		t.Errorf("MaxDimension: got %d, want 640", cfg.Preview.MaxDimension)
	}
	if cfg.Preview.OverlayThickness != 4 {
		t.Errorf("OverlayThickness: got %d, want 4", cfg.Preview.OverlayThickness)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("Log level: got %v, want debug", cfg.Log.SlogLevel())
	}
	if cfg.Log.Colored() {
		t.Error("explicit color = false should be kept")
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDetectionURL, "http://10.0.0.5:5000/api/detect-helmet")
	t.Setenv(EnvDetectionTimeout, "10s")
	t.Setenv(EnvPreviewMaxDimension, "320")
	t.Setenv(EnvOverlayColor, "#FF0000")
	t.Setenv(EnvLogLevel, "warn")

	path := writeConfig(t, `
[detection]
url = "http://file.example.com/detect"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Detection.URL != "http://10.0.0.5:5000/api/detect-helmet" {
		t.Errorf("env should override file url, got %s", cfg.Detection.URL)
	}
	if cfg.Detection.TimeoutDuration() != 10*time.Second {
		t.Errorf("timeout: got %v, want 10s", cfg.Detection.TimeoutDuration())
	}
	if cfg.Preview.MaxDimension != 320 {
		t.Errorf("MaxDimension: got %d, want 320", cfg.Preview.MaxDimension)
	}
	if cfg.Preview.OverlayColor != "#FF0000" {
		t.Errorf("OverlayColor: got %s", cfg.Preview.OverlayColor)
	}
	if cfg.Log.SlogLevel() != slog.LevelWarn {
		t.Errorf("Log level: got %v, want warn", cfg.Log.SlogLevel())
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad url scheme", "[detection]\nurl = \"ftp://example.com/detect\""},
		{"missing host", "[detection]\nurl = \"http:///detect\""},
		{"bad timeout", "[detection]\ntimeout = \"soon\""},
		{"negative timeout", "[detection]\ntimeout = \"-5s\""},
		{"negative max dimension", "[preview]\nmax_dimension = -1"},
		{"bad overlay color", "[preview]\noverlay_color = \"purple\""},
		{"bad log level", "[log]\nlevel = \"verbose\""},
		{"malformed toml", "[detection\nurl = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			if _, err := LoadFile(path); err == nil {
				t.Error("LoadFile should fail")
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("LoadFile should fail for a missing explicit path")
	}
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeConfig(t, "[preview]\nmax_dimension = 200\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Preview.MaxDimension != 200 {
		t.Errorf("MaxDimension: got %d, want 200", cfg.Preview.MaxDimension)
	}
}

func TestMerge(t *testing.T) {
	off := false
	base := &Config{
		Detection: DetectionConfig{URL: "http://a/detect", Timeout: "5s"},
		Preview:   PreviewConfig{MaxDimension: 100, OverlayColor: "#000000"},
		Log:       LogConfig{Level: "info"},
	}
	overlay := &Config{
		Detection: DetectionConfig{URL: "http://b/detect"},
		Preview:   PreviewConfig{OverlayThickness: 3},
		Log:       LogConfig{Color: &off},
	}

	base.Merge(overlay)

	if base.Detection.URL != "http://b/detect" {
		t.Errorf("URL: got %s", base.Detection.URL)
	}
	if base.Detection.Timeout != "5s" {
		t.Errorf("Timeout should be kept, got %s", base.Detection.Timeout)
	}
	if base.Preview.MaxDimension != 100 || base.Preview.OverlayThickness != 3 {
		t.Errorf("Preview merge: got %+v", base.Preview)
	}
	if base.Log.Level != "info" || base.Log.Colored() {
		t.Errorf("Log merge: got level=%s colored=%v", base.Log.Level, base.Log.Colored())
	}
}

func TestLoadFile_EnvOverlay(t *testing.T) {
	path := writeConfig(t, `
[detection]
url = "http://base.example.com/detect"
timeout = "10s"

[preview]
max_dimension = 640
`)
	overlay := filepath.Join(filepath.Dir(path), "helmet-mcp.staging.toml")
	if err := os.WriteFile(overlay, []byte("[detection]\nurl = \"http://staging.example.com/detect\"\n\n[log]\ncolor = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		env     string
		wantURL string
		colored bool
	}{
		{"no env", "", "http://base.example.com/detect", true},
		{"overlay present", "staging", "http://staging.example.com/detect", false},
		{"overlay absent", "production", "http://base.example.com/detect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvEnv, tt.env)

			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if cfg.Detection.URL != tt.wantURL {
				t.Errorf("Detection.URL: got %s, want %s", cfg.Detection.URL, tt.wantURL)
			}
			if cfg.Detection.TimeoutDuration() != 10*time.Second {
				t.Errorf("base timeout should survive the overlay, got %v", cfg.Detection.TimeoutDuration())
			}
			if cfg.Preview.MaxDimension != 640 {
				t.Errorf("MaxDimension: got %d, want 640", cfg.Preview.MaxDimension)
			}
			if cfg.Log.Colored() != tt.colored {
				t.Errorf("Colored: got %v, want %v", cfg.Log.Colored(), tt.colored)
			}
		})
	}
}

func TestLoadFile_InvalidOverlay(t *testing.T) {
	path := writeConfig(t, "[preview]\nmax_dimension = 640\n")
	overlay := filepath.Join(filepath.Dir(path), "helmet-mcp.broken.toml")
	if err := os.WriteFile(overlay, []byte("[preview\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvEnv, "broken")

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile should fail on a malformed overlay")
	}
}
