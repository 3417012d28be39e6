package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/ghlc/internal/api"
)

// Config holds all ghlc configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
	Monitor    MonitorConfig    `toml:"monitor"`
	History    HistoryConfig    `toml:"history"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL    string            `toml:"base_url"`
	TimeoutSec int               `toml:"timeout_sec,omitempty"`
	Headers    map[string]string `toml:"headers,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// MonitorConfig holds settings for the quota monitor.
type MonitorConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// HistoryConfig controls the quota history journal.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: api.DefaultBaseURL,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
		Monitor: MonitorConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ghlc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ghlc")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// StateDir holds the log file, history database and monitor pid file.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ghlc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "ghlc")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetBaseURL returns the backend URL from env var or config, in that order.
func GetBaseURL(cfg Config) string {
	if u := strings.TrimSpace(os.Getenv("GHLC_BASE_URL")); u != "" {
		return u
	}
	if cfg.API.BaseURL != "" {
		return cfg.API.BaseURL
	}
	return api.DefaultBaseURL
}

// GetLogLevel returns the log level from env var or config, in that order.
func GetLogLevel(cfg Config) string {
	if l := strings.TrimSpace(os.Getenv("GHLC_LOG_LEVEL")); l != "" {
		return l
	}
	return cfg.Log.Level
}

// LogFile returns the configured log file or the default under StateDir.
func LogFile(cfg Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(StateDir(), "ghlc.log")
}

// HistoryPath returns the configured journal path or the default under StateDir.
func HistoryPath(cfg Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return filepath.Join(StateDir(), "history.db")
}

// Timeout converts api.timeout_sec to a duration. Zero means no client timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// Interval is the monitor poll interval, at least one second.
func (c MonitorConfig) Interval() time.Duration {
	if c.IntervalSec < 1 {
		return time.Second
	}
	return time.Duration(c.IntervalSec) * time.Second
}
