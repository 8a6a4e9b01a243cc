// Package offline persists the last fetched snapshot to a local BadgerDB so
// the client can render the previous list immediately on startup, before the
// first network round-trip completes. It is a read-through convenience, not a
// source of truth: the hosted database remains authoritative and the local
// copy is replaced wholesale on every successful fetch.
package offline

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/models"
)

// Cache stores one snapshot per user in a local badger database.
type Cache struct {
	db  *badger.DB
	log *zap.Logger
}

// Open opens (or creates) the badger database at path.
func Open(path string, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logging is noisy; zap covers the cache
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open offline cache at %s: %w", path, err)
	}
	return &Cache{db: db, log: log}, nil
}

// Close shuts the database down.
func (c *Cache) Close() error {
	return c.db.Close()
}

func itemKey(userID, itemID string) []byte {
	return []byte(fmt.Sprintf("user:%s:item:%s", userID, itemID))
}

func userPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("user:%s:item:", userID))
}

// Put replaces the user's cached snapshot with items. The previous snapshot
// is dropped first so records deleted remotely do not linger locally.
func (c *Cache) Put(userID string, items []models.JoinedItem) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, userPrefix(userID)); err != nil {
			return err
		}
		for _, it := range items {
			data, err := json.Marshal(it)
			if err != nil {
				return fmt.Errorf("marshal item %s: %w", it.ID, err)
			}
			if err := txn.Set(itemKey(userID, it.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	c.log.Debug("offline snapshot written",
		zap.String("user_id", userID), zap.Int("items", len(items)))
	return nil
}

// Get returns the user's cached snapshot, newest first. A user with no cached
// snapshot gets an empty slice.
func (c *Cache) Get(userID string) ([]models.JoinedItem, error) {
	items := []models.JoinedItem{}
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec models.JoinedItem
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("unmarshal %s: %w", string(it.Item().Key()), err)
				}
				items = append(items, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
