// Package config defines the tradelog configuration and its validation.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by TRADELOG_* environment variables.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Redis  RedisConfig  `toml:"redis"`
	Log    LogConfig    `toml:"log"`
	Ledger LedgerConfig `toml:"ledger"`
	Import ImportConfig `toml:"import"`
}

// StoreConfig selects where the ledger is persisted.
type StoreConfig struct {
	// Backend is one of file, pebble or redis.
	Backend string `toml:"backend"`
	// Path is the JSON file for the file backend, the database directory for
	// pebble.
	Path string `toml:"path"`
}

// RedisConfig holds the connection parameters of the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Key      string `toml:"key"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// LedgerConfig holds the bookkeeping rules.
type LedgerConfig struct {
	// RequireCash rejects buys and sold puts the account cannot cover.
	RequireCash bool `toml:"require_cash"`
	// DefaultAccount is used by commands when -account is not given.
	DefaultAccount string `toml:"default_account"`
}

// ImportConfig holds the jsonpath selectors of statement candidates.
type ImportConfig struct {
	StockPath  string `toml:"stock_path"`
	OptionPath string `toml:"option_path"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Backend: "file",
			Path:    "tradelog.json",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			Key:  "tradelog",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Import: ImportConfig{
			StockPath:  "$.stocks[*]",
			OptionPath: "$.options[*]",
		},
	}
}

var validBackends = map[string]bool{"file": true, "pebble": true, "redis": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string

	if !validBackends[strings.ToLower(c.Store.Backend)] {
		errs = append(errs, fmt.Sprintf("store: unknown backend %q (valid: file, pebble, redis)", c.Store.Backend))
	}
	if c.Store.Backend != "redis" && c.Store.Path == "" {
		errs = append(errs, "store: path must not be empty")
	}
	if c.Store.Backend == "redis" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.Key == "" {
			errs = append(errs, "redis: key must not be empty")
		}
		if c.Redis.DB < 0 {
			errs = append(errs, "redis: db must be >= 0")
		}
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log: unknown level %q (valid: debug, info, warn, error)", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
