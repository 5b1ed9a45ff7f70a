package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults and applies TRADELOG_* environment variable overrides.
// A missing file is not an error. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads TRADELOG_* environment variables and overwrites the
// corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Store.Backend, "TRADELOG_STORE_BACKEND")
	setStr(&cfg.Store.Path, "TRADELOG_STORE_PATH")

	setStr(&cfg.Redis.Addr, "TRADELOG_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADELOG_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADELOG_REDIS_DB")
	setStr(&cfg.Redis.Key, "TRADELOG_REDIS_KEY")

	setStr(&cfg.Log.Level, "TRADELOG_LOG_LEVEL")

	setBool(&cfg.Ledger.RequireCash, "TRADELOG_LEDGER_REQUIRE_CASH")
	setStr(&cfg.Ledger.DefaultAccount, "TRADELOG_LEDGER_DEFAULT_ACCOUNT")

	setStr(&cfg.Import.StockPath, "TRADELOG_IMPORT_STOCK_PATH")
	setStr(&cfg.Import.OptionPath, "TRADELOG_IMPORT_OPTION_PATH")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
