// ABOUTME: Healthhub configuration management with storage factory function.
// ABOUTME: JSON config under XDG config dir plus environment overrides.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/harperreed/healthhub/internal/export"
	"github.com/harperreed/healthhub/internal/storage"
)

// Config stores healthhub configuration. File values can be overridden by
// HEALTHHUB_* environment variables.
type Config struct {
	// DataDir is the root directory for data storage. The SQLite database
	// and the chunk cache live here. Supports ~ expansion. Defaults to
	// ~/.local/share/healthhub.
	DataDir string `json:"data_dir,omitempty" env:"HEALTHHUB_DATA_DIR"`

	// DefaultUser is the user id assumed by CLI commands when --user is
	// not given.
	DefaultUser string `json:"default_user,omitempty" env:"HEALTHHUB_USER"`

	// MaxChunkSize is the character budget per export chunk.
	MaxChunkSize int `json:"max_chunk_size,omitempty" env:"HEALTHHUB_MAX_CHUNK_SIZE"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetDefaultUser returns the configured default user id.
func (c *Config) GetDefaultUser() string {
	if c.DefaultUser == "" {
		return "default"
	}
	return c.DefaultUser
}

// GetMaxChunkSize returns the configured chunk budget.
func (c *Config) GetMaxChunkSize() int {
	if c.MaxChunkSize <= 0 {
		return export.DefaultMaxChunkSize
	}
	return c.MaxChunkSize
}

// ChunkCacheDir returns the chunk cache directory under the data dir.
func (c *Config) ChunkCacheDir() string {
	return filepath.Join(c.GetDataDir(), "chunkcache")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite store under the configured data directory.
func (c *Config) OpenStorage() (*storage.DB, error) {
	dbPath := filepath.Join(c.GetDataDir(), "healthhub.db")
	return storage.Open(dbPath)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "healthhub", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	path := GetConfigPath()
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
