package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/lmazzei55/tradelog"
)

// Key schema, one record per key:
//
//	acc:<seq>  → Account
//	stk:<seq>  → StockTransaction
//	opt:<seq>  → OptionTransaction
//
// seq is the zero-padded position in the ledger, so a prefix scan returns the
// records in ledger order.
const (
	prefixAccount = "acc:"
	prefixStock   = "stk:"
	prefixOption  = "opt:"
)

func recordKey(prefix string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%010d", prefix, seq))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// PebbleStore keeps the snapshot in a Pebble database.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) the database in the directory path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("cannot open pebble database %q: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func (s *PebbleStore) Load(ctx context.Context) (tradelog.Snapshot, error) {
	var snap tradelog.Snapshot
	var err error
	if snap.Accounts, err = scan[tradelog.Account](s.db, prefixAccount); err != nil {
		return snap, err
	}
	if snap.StockTransactions, err = scan[tradelog.StockTransaction](s.db, prefixStock); err != nil {
		return snap, err
	}
	if snap.OptionTransactions, err = scan[tradelog.OptionTransaction](s.db, prefixOption); err != nil {
		return snap, err
	}
	return snap, nil
}

func scan[T any](db *pebble.DB, prefix string) ([]T, error) {
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: keyUpperBound([]byte(prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %q: %w", prefix, err)
	}
	defer iter.Close()

	var records []T
	for iter.First(); iter.Valid(); iter.Next() {
		var v T
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", iter.Key(), err)
		}
		records = append(records, v)
	}
	return records, iter.Error()
}

// Save replaces every record in a single synced batch.
func (s *PebbleStore) Save(ctx context.Context, snap tradelog.Snapshot) error {
	b := s.db.NewBatch()
	defer b.Close()

	for _, prefix := range []string{prefixAccount, prefixStock, prefixOption} {
		if err := b.DeleteRange([]byte(prefix), keyUpperBound([]byte(prefix)), nil); err != nil {
			return fmt.Errorf("failed to clear %q: %w", prefix, err)
		}
	}
	if err := put(b, prefixAccount, snap.Accounts); err != nil {
		return err
	}
	if err := put(b, prefixStock, snap.StockTransactions); err != nil {
		return err
	}
	if err := put(b, prefixOption, snap.OptionTransactions); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

func put[T any](b *pebble.Batch, prefix string, records []T) error {
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal %s%d: %w", prefix, i, err)
		}
		if err := b.Set(recordKey(prefix, i), data, nil); err != nil {
			return fmt.Errorf("failed to set %s%d: %w", prefix, i, err)
		}
	}
	return nil
}
