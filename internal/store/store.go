// Package store persists local, per-installation state in Badger. The relay
// stays the source of truth for the catalog; this store only holds what the
// relay cannot, such as items hidden on this server.
package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Hidden *Entity[domain.HiddenItem]
}

// Open creates a Store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Hidden items must survive a crash right after the request returns
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// OpenInMemory creates a Store that keeps nothing on disk.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.Hidden = NewEntity[domain.HiddenItem](s, "hidden:").
		WithIndex("list", func(h *domain.HiddenItem) []string {
			if h.ListTag == "" {
				return nil
			}
			return []string{h.ListTag}
		})

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", opts.Dir, "in_memory", opts.InMemory)
	}
	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping checks that the database accepts reads.
func (s *Store) Ping() error {
	return s.db.View(func(*badger.Txn) error { return nil })
}
