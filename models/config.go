// Package models defines configuration and per-request options.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds extractor configuration. Values come from a YAML file and
// are overridden by CLI flags.
type Config struct {
	URLs            []string      `yaml:"urls"`
	WorkerCount     int           `yaml:"workers"`
	Timeout         time.Duration `yaml:"timeout"`
	Mobile          bool          `yaml:"mobile"`
	UserAgent       string        `yaml:"user_agent"`
	MobileUserAgent string        `yaml:"mobile_user_agent"`
	MaxBytes        int64         `yaml:"max_bytes"`

	// CacheDir enables the response cache when set.
	CacheDir string        `yaml:"cache_dir"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// ProbeCache is the sqlite file for image dimensions. Empty disables it.
	ProbeCache    string        `yaml:"probe_cache"`
	ProbeTTL      time.Duration `yaml:"probe_ttl"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	MaxCandidates int           `yaml:"max_candidates"`
	ImageCount    int           `yaml:"image_count"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		WorkerCount:   4,
		Timeout:       10 * time.Second,
		MaxBytes:      3 * 1024 * 1024,
		CacheTTL:      24 * time.Hour,
		ProbeTTL:      7 * 24 * time.Hour,
		ProbeTimeout:  5 * time.Second,
		MaxCandidates: 100,
		ImageCount:    5,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Durations use Go
// syntax ("10s", "24h").
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.WorkerCount <= 0 {
		return cfg, fmt.Errorf("invalid worker count: %d", cfg.WorkerCount)
	}
	if cfg.Timeout < 0 || cfg.ProbeTimeout < 0 {
		return cfg, fmt.Errorf("timeouts must not be negative")
	}
	return cfg, nil
}
