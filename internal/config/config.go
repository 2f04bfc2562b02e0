// Package config loads and saves the TOML configuration shared by the
// daemon and the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cptspacemanspiff/powerpulse/internal/battery"
)

// DefaultPath is where the daemon and CLI look for a config file.
const DefaultPath = "/etc/powerpulse/config.toml"

const (
	minCollectionIntervalSeconds = 1
	maxCollectionIntervalSeconds = 3600
	minRetentionDays             = 1
	maxRetentionDays             = 3650
	minCleanupIntervalHours      = 1
	maxCleanupIntervalHours      = 720
)

type Config struct {
	Storage    StorageConfig    `toml:"storage"`
	Collection CollectionConfig `toml:"collection"`
	Cleanup    CleanupConfig    `toml:"cleanup"`
	Analytics  AnalyticsConfig  `toml:"analytics"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type CollectionConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

type CleanupConfig struct {
	RetentionDays int `toml:"retention_days"`
	IntervalHours int `toml:"interval_hours"`
}

// AnalyticsConfig holds the default window used when a caller does not
// ask for one.
type AnalyticsConfig struct {
	WindowDays int `toml:"window_days"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DBPath: "/var/lib/powerpulse/history.db",
		},
		Collection: CollectionConfig{
			IntervalSeconds: 30,
		},
		Cleanup: CleanupConfig{
			RetentionDays: 30,
			IntervalHours: 24,
		},
		Analytics: AnalyticsConfig{
			WindowDays: battery.DefaultWindowDays,
		},
	}
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Load reads path over the defaults, so omitted keys keep their default
// values, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NormalizeAndValidate(cfg)
}

// NormalizeAndValidate returns a cleaned copy of cfg or the first problem
// found.
func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}
	out := *cfg

	dbPath, err := sanitizePath("storage.db_path", out.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	out.Storage.DBPath = dbPath

	ranges := []struct {
		name     string
		value    int
		min, max int
	}{
		{"collection.interval_seconds", out.Collection.IntervalSeconds, minCollectionIntervalSeconds, maxCollectionIntervalSeconds},
		{"cleanup.retention_days", out.Cleanup.RetentionDays, minRetentionDays, maxRetentionDays},
		{"cleanup.interval_hours", out.Cleanup.IntervalHours, minCleanupIntervalHours, maxCleanupIntervalHours},
		{"analytics.window_days", out.Analytics.WindowDays, battery.MinWindowDays, battery.MaxWindowDays},
	}
	for _, r := range ranges {
		if err := validateRange(r.name, r.value, r.min, r.max); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Save validates cfg and replaces path with its TOML encoding.
func Save(path string, cfg *Config) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("config path must not be empty")
	}
	valid, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(valid); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes(), 0o644)
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func sanitizePath(name, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	cleaned := filepath.Clean(trimmed)
	if !filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%s must be an absolute path, got %q", name, value)
	}
	return cleaned, nil
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}
	return nil
}
