// internal/app/system/cache/cache.go
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// DefaultTTL matches the 30-minute snapshot expiry the dashboards rely on.
const DefaultTTL = 30 * time.Minute

// envelope is what actually gets stored: the payload plus its write time.
// Expiry is checked against the timestamp on read; the badger TTL is only a
// physical cleanup so stale entries do not pile up forever.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Cache is a TTL-bounded read-through cache for query snapshots. It has no
// size bound beyond TTL cleanup; with per-collection keys that is acceptable
// for this data volume but worth revisiting if key cardinality grows.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
	log *zap.Logger

	now func() time.Time // swapped in tests
}

// Open opens (or creates) the cache at path. An empty path opens an
// in-memory cache, which is what tests use.
func Open(path string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Cache{db: db, ttl: ttl, log: logger, now: time.Now}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives a stable cache key from a collection name and its serialized
// query options. Options that fail to serialize hash as empty, which still
// yields a usable (if coarser) key.
func Key(collection string, opts any) string {
	raw, err := json.Marshal(opts)
	if err != nil {
		raw = nil
	}
	sum := sha1.Sum(append([]byte(collection+"|"), raw...))
	return collection + ":" + hex.EncodeToString(sum[:8])
}

// Put stores v under key with the cache's TTL.
func (c *Cache) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	env, err := json.Marshal(envelope{Data: data, Timestamp: c.now()})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), env).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

// Get loads the entry under key into out. It returns false on absence,
// expiry, or a corrupt entry; corrupt entries are deleted and logged but are
// never an error to the caller.
func (c *Cache) Get(key string, out any) bool {
	var env envelope
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		c.log.Warn("cache entry unreadable, treating as miss", zap.String("key", key), zap.Error(err))
		c.drop(key)
		return false
	}

	if c.now().Sub(env.Timestamp) >= c.ttl {
		return false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		c.log.Warn("cache entry corrupt, treating as miss", zap.String("key", key), zap.Error(err))
		c.drop(key)
		return false
	}
	return true
}

// Sweep reclaims space held by expired entries. Badger drops them from reads
// once the TTL passes but the value log needs an explicit GC pass; the cache
// sweep worker calls this periodically. In-memory caches have no value log,
// which badger rejects outright; that and "nothing to collect" are both clean
// outcomes.
func (c *Cache) Sweep() error {
	err := c.db.RunValueLogGC(0.5)
	switch {
	case err == nil,
		errors.Is(err, badger.ErrNoRewrite),
		errors.Is(err, badger.ErrRejected),
		errors.Is(err, badger.ErrGCInMemoryMode):
		return nil
	}
	return err
}

// ClearAll removes every entry whose key starts with prefix. Used for manual
// invalidation after bulk writes.
func (c *Cache) ClearAll(prefix string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		var keys [][]byte
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
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

func (c *Cache) drop(key string) {
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
