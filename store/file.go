package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lmazzei55/tradelog"
)

// FileStore keeps the snapshot in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path. The file is created on the
// first save.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Load(ctx context.Context) (tradelog.Snapshot, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tradelog.Snapshot{}, nil
	}
	if err != nil {
		return tradelog.Snapshot{}, fmt.Errorf("cannot open ledger file %q: %w", s.path, err)
	}
	defer f.Close()
	snap, err := tradelog.DecodeSnapshot(f)
	if err != nil {
		return snap, fmt.Errorf("ledger file %q: %w", s.path, err)
	}
	return snap, nil
}

// Save writes the snapshot to a temporary file then renames it, so that the
// ledger file is never left half written.
func (s *FileStore) Save(ctx context.Context, snap tradelog.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("cannot create ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tradelog.EncodeSnapshot(tmp, snap); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot write ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("cannot replace ledger file %q: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
