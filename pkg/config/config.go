// Package config handles loading and managing crmpulse configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the crmpulse CLI.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
}

// OutputConfig controls how audit results are rendered.
type OutputConfig struct {
	Format  string `yaml:"format"` // text, json, markdown
	NoColor bool   `yaml:"no_color"`
}

// StorageConfig selects where saved datasets and reports are written.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // local, s3, gcs
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // S3-compatible endpoint, e.g. MinIO
	BaseDir  string `yaml:"base_dir"` // local backend only
}

// HistoryConfig controls the local audit history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "text",
		},
		Storage: StorageConfig{
			Backend: "local",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "", "text", "json", "markdown":
	default:
		return fmt.Errorf("invalid output format %q (want text, json or markdown)", c.Output.Format)
	}
	switch c.Storage.Backend {
	case "", "local":
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage backend %s requires a bucket", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("invalid storage backend %q (want local, s3 or gcs)", c.Storage.Backend)
	}
	return nil
}

// FindConfigFile looks for .crmpulse/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".crmpulse", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// CacheDir returns the root directory for locally stored crmpulse data.
// Uses ~/.cache/crmpulse/ unless the config overrides it.
func CacheDir(cfg *Config) string {
	if cfg != nil && cfg.History.DataDir != "" {
		return cfg.History.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", "crmpulse")
}

// HistoryPath returns the path of the sqlite history database.
func HistoryPath(cfg *Config) string {
	return filepath.Join(CacheDir(cfg), "history.db")
}

// ReportDir returns the local blob directory used when saving audits.
func ReportDir(cfg *Config) string {
	if cfg != nil && cfg.Storage.BaseDir != "" {
		return cfg.Storage.BaseDir
	}
	return filepath.Join(CacheDir(cfg), "reports")
}

// PortalSlug creates a filesystem- and key-safe identifier from a portal name.
func PortalSlug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var sb strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash && sb.Len() > 0:
			sb.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(sb.String(), "-")
	if slug == "" {
		return "default"
	}
	return slug
}
