package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/ghlc/internal/api"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.API.BaseURL != api.DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if !cfg.History.Enabled || cfg.Monitor.IntervalSec != 30 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://clinic.example/api/ghl"
	cfg.API.TimeoutSec = 15
	cfg.API.Headers = map[string]string{"X-Clinic": "north"}
	cfg.Appearance.Theme = "tokyo-night"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.API.BaseURL != cfg.API.BaseURL || got.API.Headers["X-Clinic"] != "north" || got.Appearance.Theme != "tokyo-night" {
		t.Errorf("round trip = %+v", got)
	}
	if got.API.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %v", got.API.Timeout())
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nbase_url ="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "warn"

	t.Setenv("GHLC_BASE_URL", "http://other:9000/api")
	t.Setenv("GHLC_LOG_LEVEL", "debug")
	if got := GetBaseURL(cfg); got != "http://other:9000/api" {
		t.Errorf("GetBaseURL = %q", got)
	}
	if got := GetLogLevel(cfg); got != "debug" {
		t.Errorf("GetLogLevel = %q", got)
	}

	t.Setenv("GHLC_BASE_URL", "")
	t.Setenv("GHLC_LOG_LEVEL", "")
	cfg.API.BaseURL = ""
	if got := GetBaseURL(cfg); got != api.DefaultBaseURL {
		t.Errorf("GetBaseURL fallback = %q", got)
	}
	if got := GetLogLevel(cfg); got != "warn" {
		t.Errorf("GetLogLevel fallback = %q", got)
	}
}

func TestXDGPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	if got := ConfigPath(); got != filepath.Join(dir, "ghlc", "config.toml") {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := HistoryPath(DefaultConfig()); got != filepath.Join(dir, "ghlc", "history.db") {
		t.Errorf("HistoryPath = %q", got)
	}
}

func TestMonitorIntervalFloor(t *testing.T) {
	if got := (MonitorConfig{IntervalSec: 0}).Interval(); got != time.Second {
		t.Errorf("Interval = %v, want 1s", got)
	}
}
