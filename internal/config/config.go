// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package config loads arc-review settings from a YAML file with
// ARC_REVIEW_ environment overrides, and can watch the file for edits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageSQL    = "sql"
	StorageKV     = "kv"
	StorageMemory = "memory"
)

// Config is the on-disk settings document.
type Config struct {
	// NewItemsPerDay caps how many New items each collection may introduce
	// per calendar day. Env: ARC_REVIEW_NEW_ITEMS_PER_DAY
	NewItemsPerDay int `yaml:"new_items_per_day"`

	// Storage selects the item store: sql, kv or memory.
	// Env: ARC_REVIEW_STORAGE
	Storage string `yaml:"storage"`

	// Database is the SQLite file path. Empty means the default location.
	// Env: ARC_REVIEW_DB
	Database string `yaml:"database,omitempty"`

	// Timezone names the zone whose midnight resets the daily cap.
	// Empty or "Local" uses the system zone. Env: ARC_REVIEW_TIMEZONE
	Timezone string `yaml:"timezone,omitempty"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the store circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"` // default: 5
	Timeout     time.Duration `yaml:"timeout"`      // default: 30s
}

// Default returns the settings written on first run.
func Default() Config {
	return Config{
		NewItemsPerDay: 20,
		Storage:        StorageSQL,
		Breaker: BreakerConfig{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
	}
}

// DefaultPath returns $ARC_REVIEW_CONFIG or <UserConfigDir>/arc-review/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv("ARC_REVIEW_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "arc-review", "config.yaml"), nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.NewItemsPerDay < 0 {
		return fmt.Errorf("new_items_per_day must be >= 0, got %d", c.NewItemsPerDay)
	}
	switch c.Storage {
	case StorageSQL, StorageKV, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q (want sql, kv or memory)", c.Storage)
	}
	if c.Breaker.Timeout < 0 {
		return fmt.Errorf("breaker.timeout must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// readFile decodes path over the defaults. A missing file is created with
// the defaults.
func readFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, writeFile(path, cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func writeFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// Write then rename so watchers never see a half-written file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}

// applyEnv overlays ARC_REVIEW_ variables onto cfg.
func applyEnv(cfg Config) Config {
	cfg.NewItemsPerDay = getEnvInt("ARC_REVIEW_NEW_ITEMS_PER_DAY", cfg.NewItemsPerDay)
	cfg.Storage = getEnv("ARC_REVIEW_STORAGE", cfg.Storage)
	cfg.Database = getEnv("ARC_REVIEW_DB", cfg.Database)
	cfg.Timezone = getEnv("ARC_REVIEW_TIMEZONE", cfg.Timezone)
	return cfg
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
