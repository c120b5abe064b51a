package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
)

// Entity provides generic CRUD operations for a JSON-encoded type under a key prefix.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index defines a non-unique secondary index on an entity.
type Index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// NewEntity creates a new Entity for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) indexKey(name, value, id string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value + ":" + id)
}

// Put creates or replaces the entity stored under id, keeping indexes in step.
func (e *Entity[T]) Put(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if old, err := e.read(txn, id); err == nil {
			if err := e.deleteIndexes(txn, id, old); err != nil {
				return err
			}
		} else if !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}

		if err := txn.Set([]byte(e.prefix+id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		for _, idx := range e.indexes {
			for _, v := range idx.keyGen(entity) {
				if err := txn.Set(e.indexKey(idx.name, v, id), []byte(id)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
		}
		return nil
	})
}

// Get retrieves an entity by id. Returns a NotFound error if absent.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = e.read(txn, id)
		return err
	})
	return out, err
}

// Exists reports whether id is stored.
func (e *Entity[T]) Exists(id string) (bool, error) {
	err := e.store.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(e.prefix + id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes an entity and its index keys. Deleting a missing id is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		old, err := e.read(txn, id)
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, id, old); err != nil {
			return err
		}
		return txn.Delete([]byte(e.prefix + id))
	})
}

// List returns an iterator over all entities in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}
				if strings.HasPrefix(string(it.Item().Key()[len(e.prefix):]), "idx:") {
					continue
				}

				var entity T
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				}); err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&entity, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// IDsByIndex returns the ids stored under an index value.
func (e *Entity[T]) IDsByIndex(ctx context.Context, name, value string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(e.prefix + "idx:" + name + ":" + value + ":")
	var ids []string
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// DeleteAll removes every entity under the prefix, including index keys.
func (e *Entity[T]) DeleteAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	removed := 0
	err := e.store.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			if !strings.HasPrefix(string(k[len(e.prefix):]), "idx:") {
				removed++
			}
			keys = append(keys, k)
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return removed, err
}

func (e *Entity[T]) read(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get([]byte(e.prefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFoundf("%s%s not found", e.prefix, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	var entity T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entity)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

func (e *Entity[T]) deleteIndexes(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, v := range idx.keyGen(entity) {
			if err := txn.Delete(e.indexKey(idx.name, v, id)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}
