// Package store persists the ledger snapshot.
//
// A Store is loaded once when a command starts and saved after every
// mutation. Three backends are available: a JSON file, a Pebble key-value
// database and a Redis server.
package store

import (
	"context"

	"github.com/lmazzei55/tradelog"
)

// Store loads and saves a ledger snapshot.
type Store interface {
	// Load returns the saved snapshot, or an empty one when nothing was saved.
	Load(ctx context.Context) (tradelog.Snapshot, error)
	// Save replaces the saved snapshot.
	Save(ctx context.Context, s tradelog.Snapshot) error
	Close() error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*PebbleStore)(nil)
	_ Store = (*RedisStore)(nil)
)
