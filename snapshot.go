package tradelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Snapshot is the persisted form of a Ledger.
type Snapshot struct {
	Accounts           []Account           `json:"accounts"`
	StockTransactions  []StockTransaction  `json:"stockTransactions"`
	OptionTransactions []OptionTransaction `json:"optionTransactions"`
}

// Snapshot returns a copy of the ledger content.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Accounts:           slices.Clone(l.accounts),
		StockTransactions:  slices.Clone(l.stocks),
		OptionTransactions: slices.Clone(l.options),
	}
}

// LoadSnapshot replaces the ledger content with s.
//
// Every transaction is validated on its own; cross transaction checks
// (holdings, contracts, cash) are not replayed so that a ledger saved with a
// different configuration always loads. Stored cash balances are kept as is,
// use CashDrift to compare them with the transactions.
func (l *Ledger) LoadSnapshot(s Snapshot) error {
	var errs []error
	ids := make(map[string]bool)
	unique := func(kind, id string) {
		if id == "" {
			errs = append(errs, fmt.Errorf("%s without id", kind))
		} else if ids[id] {
			errs = append(errs, fmt.Errorf("%s %q: duplicate id", kind, id))
		}
		ids[id] = true
	}

	accounts := slices.Clone(s.Accounts)
	for _, a := range accounts {
		unique("account", a.ID)
	}
	stocks := make([]StockTransaction, len(s.StockTransactions))
	for i, tx := range s.StockTransactions {
		unique("stock transaction", tx.ID)
		v, err := tx.validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("stock transaction %q: %w", tx.ID, err))
		}
		stocks[i] = v
	}
	options := make([]OptionTransaction, len(s.OptionTransactions))
	for i, tx := range s.OptionTransactions {
		unique("option transaction", tx.ID)
		v, err := tx.validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("option transaction %q: %w", tx.ID, err))
		}
		options[i] = v
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts, l.stocks, l.options = accounts, stocks, options
	l.log.Debug("snapshot loaded",
		zap.Int("accounts", len(accounts)),
		zap.Int("stockTransactions", len(stocks)),
		zap.Int("optionTransactions", len(options)))
	return nil
}

// EncodeSnapshot writes s as indented JSON.
func EncodeSnapshot(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot. An empty input
// is an empty snapshot.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return Snapshot{}, fmt.Errorf("cannot decode snapshot: %w", err)
	}
	return s, nil
}
