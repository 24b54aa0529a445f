// ABOUTME: Badger-backed cache of export chunks for repeated AI-context pulls.
// ABOUTME: Keys are (user, kind, range); entries expire so stale context ages out.
package chunkstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/healthhub/internal/export"
)

// DefaultTTL is how long cached chunks stay valid.
const DefaultTTL = 24 * time.Hour

// ErrNotFound means no cached chunks exist for the key.
var ErrNotFound = errors.New("chunks not cached")

// Store is a persistent chunk cache. Export formatting is deterministic, so
// the cache never changes what a consumer sees; it only skips recomputation.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens or creates the chunk cache at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open chunk cache: %w", err)
	}
	return &Store{db: db, ttl: DefaultTTL}, nil
}

// Close closes the underlying badger database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetTTL overrides the default entry lifetime.
func (s *Store) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

func cacheKey(userID, kind, start, end string) []byte {
	return []byte(fmt.Sprintf("chunks:%s:%s:%s:%s", userID, kind, start, end))
}

// Put caches the chunks for (user, kind, range).
func (s *Store) Put(userID, kind, start, end string, chunks []export.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(userID, kind, start, end), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache chunks: %w", err)
	}
	return nil
}

// Get returns cached chunks, or ErrNotFound when absent or expired.
func (s *Store) Get(userID, kind, start, end string) ([]export.Chunk, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(userID, kind, start, end))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk cache: %w", err)
	}

	var chunks []export.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("unmarshal chunks: %w", err)
	}
	return chunks, nil
}

// InvalidateUser drops every cached entry for a user, typically after a new
// ingestion batch lands.
func (s *Store) InvalidateUser(userID string) error {
	prefix := []byte("chunks:" + userID + ":")
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
