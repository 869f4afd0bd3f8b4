package storage

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrLockHeld is returned by Open when another instance (same or different
// process) already holds the directory's exclusive lock. This is the sole
// intended concurrency barrier at the process boundary (§4.1).
var ErrLockHeld = errors.New("storage: lock held")

// ErrNotFound is returned by operations that require an existing tree and
// don't find one. It is distinct from a missing key, which is reported as
// a nil *ReadGuard with a nil error (§7 — "reads that miss every tier
// return Ok(None), not an error").
var ErrNotFound = errors.New("storage: tree not found")

// lockTimeout bounds how long Open waits for the directory's file lock
// before giving up and reporting ErrLockHeld rather than hanging.
const lockTimeout = 200 * time.Millisecond

const dbFileName = "data.db"

// Engine is a crash-safe, ordered key-value store over a single database
// directory. It exposes one or more named sub-trees (tables); all values
// are opaque byte strings (§4.1).
type Engine struct {
	db   *bolt.DB
	path string
}

// Open acquires an exclusive lock on path (creating it if necessary) and
// opens the backing database file inside it. A second Open against the
// same directory — from this process or another — fails with ErrLockHeld.
func Open(path string) (*Engine, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(path, dbFileName), 0o600, &bolt.Options{
		Timeout: lockTimeout,
	})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrLockHeld
		}
		return nil, err
	}

	return &Engine{db: db, path: path}, nil
}

// Path returns the directory this engine was opened against.
func (e *Engine) Path() string { return e.path }

// Close releases the directory lock and closes the underlying database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// OpenTree is idempotent: it creates the named sub-tree if absent and
// returns nil either way. The tree is addressed by name in subsequent
// calls; there is no separate handle object.
func (e *Engine) OpenTree(tree string) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(tree))
		return err
	})
}

// Insert durably writes value under key in tree. The write is atomic with
// respect to other operations on the same engine.
func (e *Engine) Insert(tree string, key, value []byte) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tree))
		if b == nil {
			return ErrNotFound
		}
		return b.Put(key, value)
	})
}

// Remove deletes key from tree. Removing an absent key is not an error.
func (e *Engine) Remove(tree string, key []byte) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tree))
		if b == nil {
			return ErrNotFound
		}
		return b.Delete(key)
	})
}

// Get returns a ReadGuard borrowing the value stored under key in tree, or
// a nil guard (and nil error) if the key is absent. The guard pins the
// backing read transaction until Release is called; callers must not hold
// it across a suspension point (§9).
func (e *Engine) Get(tree string, key []byte) (*ReadGuard, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, err
	}

	b := tx.Bucket([]byte(tree))
	if b == nil {
		_ = tx.Rollback()
		return nil, ErrNotFound
	}

	v := b.Get(key)
	if v == nil {
		_ = tx.Rollback()
		return nil, nil
	}

	return &ReadGuard{tx: tx, data: v}, nil
}

// ScanPrefix returns a lazy, ordered iterator over (key, ReadGuard) pairs
// whose keys begin with prefix, in lexicographic order on raw key bytes.
// The caller must Close the iterator to release its backing transaction.
func (e *Engine) ScanPrefix(tree string, prefix []byte) (*PrefixIterator, error) {
	tx, err := e.db.Begin(false)
	if err != nil {
		return nil, err
	}

	b := tx.Bucket([]byte(tree))
	if b == nil {
		_ = tx.Rollback()
		return nil, ErrNotFound
	}

	return &PrefixIterator{tx: tx, cursor: b.Cursor(), prefix: prefix, started: false}, nil
}

// Flush forces durability of all prior writes to disk.
func (e *Engine) Flush() error {
	return e.db.Sync()
}
