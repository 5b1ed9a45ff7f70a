// Package cmd implements the tradelog command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/lmazzei55/tradelog"
	"github.com/lmazzei55/tradelog/config"
	"github.com/lmazzei55/tradelog/store"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "tradelog.toml", "Path to the TOML configuration file")
var Verbose = flag.Bool("v", false, "log debug information to stderr")

type entry struct {
	group string
	cmd   subcommands.Command
}

// commands lists every subcommand by group, in help order. Commands hold their
// flag values, so each call returns fresh ones.
func commands() []entry {
	return []entry{
		{"accounts", &accountCmd{}},
		{"accounts", &cashCmd{}},

		{"transactions", &stockCmd{}},
		{"transactions", &optionCmd{}},
		{"transactions", &editCmd{}},
		{"transactions", &rmCmd{}},
		{"transactions", &txCmd{}},
		{"transactions", &importCmd{}},

		{"options", &closeCmd{}},
		{"options", &expireCmd{}},

		{"reports", &holdingsCmd{}},
		{"reports", &optionsCmd{}},
		{"reports", &washCmd{}},
		{"reports", &statsCmd{}},

		{"help", &topicCmd{}},
	}
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, e := range commands() {
		c.Register(e.cmd, e.group)
	}
}

// IsCommand reports whether name is a builtin subcommand.
func IsCommand(name string) bool {
	for _, e := range commands() {
		if e.cmd.Name() == name {
			return true
		}
	}
	switch name {
	case "help", "flags", "commands":
		return true
	}
	return false
}

// app is the state shared by commands for one invocation: the loaded ledger
// and the store it is saved to.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	store  store.Store
	ledger *tradelog.Ledger
}

// openApp loads the configuration, opens the store and replays the saved
// snapshot into a ledger.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", *configFile, err)
	}
	if *Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	snap, err := s.Load(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	ledger := tradelog.NewLedger(
		tradelog.WithLogger(logger),
		tradelog.WithRequireCash(cfg.Ledger.RequireCash),
	)
	if err := ledger.LoadSnapshot(snap); err != nil {
		s.Close()
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	logger.Debug("ledger loaded",
		zap.String("backend", cfg.Store.Backend),
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("stockTransactions", len(snap.StockTransactions)),
		zap.Int("optionTransactions", len(snap.OptionTransactions)),
	)
	return &app{cfg: cfg, log: logger, store: s, ledger: ledger}, nil
}

// openStore returns the store selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "file":
		return store.NewFileStore(cfg.Store.Path), nil
	case "pebble":
		return store.NewPebbleStore(cfg.Store.Path)
	case "redis":
		return store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// save writes the ledger back to the store.
func (a *app) save(ctx context.Context) error {
	if err := a.store.Save(ctx, a.ledger.Snapshot()); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// account returns the account flag value, or the configured default account.
func (a *app) account(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return a.cfg.Ledger.DefaultAccount
}
