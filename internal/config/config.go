// Package config provides configuration loading and structs for the mixpad server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Oracle kinds.
const (
	OracleKMeans = "kmeans"
	OracleRemote = "remote"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Preview PreviewConfig `yaml:"preview"`
	Scene   SceneConfig   `yaml:"scene"`
	Session SessionConfig `yaml:"session"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// OracleConfig selects and tunes the clustering oracle.
type OracleConfig struct {
	Kind          string  `yaml:"kind"`
	Clusters      int     `yaml:"clusters"`
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	RemoteURL     string  `yaml:"remote_url"`
	// Timeout is a duration string (e.g. "10s") applied to remote fits.
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses Timeout. Callers should run Validate first.
func (o *OracleConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(o.Timeout)
	return d
}

// PreviewConfig holds settings for display-only fits.
type PreviewConfig struct {
	// CacheSize is the per-session number of cached preview fits; 0 disables caching.
	CacheSize *int `yaml:"cache_size"`
}

// CacheSizeOrDefault returns the cache size; defaults to 64 when unset.
func (p *PreviewConfig) CacheSizeOrDefault() int {
	if p.CacheSize != nil {
		return *p.CacheSize
	}
	return 64
}

// SceneConfig holds the fixed square plot domain.
type SceneConfig struct {
	ViewportMin float64 `yaml:"viewport_min"`
	ViewportMax float64 `yaml:"viewport_max"`
}

// SessionConfig holds session lifetime settings as duration strings.
type SessionConfig struct {
	IdleTimeout   string `yaml:"idle_timeout"`
	SweepInterval string `yaml:"sweep_interval"`
}

// IdleTimeoutDuration parses IdleTimeout. Callers should run Validate first.
func (s *SessionConfig) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.IdleTimeout)
	return d
}

// SweepIntervalDuration parses SweepInterval. Callers should run Validate first.
func (s *SessionConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(s.SweepInterval)
	return d
}

// StorageConfig holds the fit history database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	Enabled      *bool  `yaml:"enabled"`
}

// EnabledOrDefault returns whether the fit history is kept; defaults to true when unset.
func (s *StorageConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies defaults, and validates.
// Returns an error if the file cannot be read, parsed, or is invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	switch c.Oracle.Kind {
	case OracleKMeans:
		if c.Oracle.Clusters < 1 {
			return fmt.Errorf("oracle.clusters must be >= 1, got %d", c.Oracle.Clusters)
		}
	case OracleRemote:
		if c.Oracle.RemoteURL == "" {
			return fmt.Errorf("oracle.remote_url is required when oracle.kind is %q", OracleRemote)
		}
	default:
		return fmt.Errorf("unknown oracle.kind %q (want %q or %q)", c.Oracle.Kind, OracleKMeans, OracleRemote)
	}
	if _, err := time.ParseDuration(c.Oracle.Timeout); err != nil {
		return fmt.Errorf("invalid oracle.timeout: %w", err)
	}
	if c.Preview.CacheSizeOrDefault() < 0 {
		return fmt.Errorf("preview.cache_size must be >= 0, got %d", *c.Preview.CacheSize)
	}
	if c.Scene.ViewportMin >= c.Scene.ViewportMax {
		return fmt.Errorf("scene.viewport_min (%g) must be below scene.viewport_max (%g)",
			c.Scene.ViewportMin, c.Scene.ViewportMax)
	}
	if _, err := time.ParseDuration(c.Session.IdleTimeout); err != nil {
		return fmt.Errorf("invalid session.idle_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Session.SweepInterval); err != nil {
		return fmt.Errorf("invalid session.sweep_interval: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
