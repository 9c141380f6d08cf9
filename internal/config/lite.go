// Package config provides configuration management for the screening engine.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LiteConfig is a simplified configuration for the MCP server and the CLI.
// It requires no external services and is read from the environment only.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the checkup database and exports

	// Cache settings
	CacheMaxItems int           // Maximum evaluations in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Transport settings
	Transport string // Transport type: stdio

	// Recording
	RecordCheckups bool // Persist every evaluation to the local checkup store

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".screening-engine")

	return &LiteConfig{
		DataDir:        dataDir,
		CacheMaxItems:  1000,
		CacheTTL:       15 * time.Minute,
		Transport:      "stdio",
		RecordCheckups: true,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("SCREENING_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("SCREENING_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("SCREENING_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("SCREENING_TRANSPORT"); v != "" {
		cfg.Transport = v
	}

	if v := os.Getenv("SCREENING_RECORD_CHECKUPS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RecordCheckups = b
		}
	}

	if v := os.Getenv("SCREENING_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SCREENING_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// CheckupDBPath returns the path to the checkup SQLite database.
func (c *LiteConfig) CheckupDBPath() string {
	return filepath.Join(c.DataDir, "checkups.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
