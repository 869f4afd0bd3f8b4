package storage

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// ReadGuard is a borrow into the engine's backing storage. Its Bytes are
// only valid until Release is called; copy them out before awaiting or
// crossing a goroutine boundary that might outlive the guard (§9, zero-copy
// reads).
type ReadGuard struct {
	tx   *bolt.Tx
	data []byte
}

// Bytes returns the guarded value. The returned slice is invalidated by
// Release.
func (g *ReadGuard) Bytes() []byte { return g.data }

// Copy returns an owned copy of the guarded value, safe to retain past
// Release.
func (g *ReadGuard) Copy() []byte {
	out := make([]byte, len(g.data))
	copy(out, g.data)
	return out
}

// Release ends the backing read transaction, unpinning the underlying page.
func (g *ReadGuard) Release() error {
	return g.tx.Rollback()
}

// PrefixIterator lazily walks all keys sharing a prefix, in lexicographic
// order on raw key bytes. The zero value is not usable; obtain one via
// Engine.ScanPrefix.
type PrefixIterator struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	prefix  []byte
	started bool
	key     []byte
	value   []byte
}

// Next advances the iterator and reports whether a further (key, value)
// pair is available.
func (it *PrefixIterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		k, v = it.cursor.Seek(it.prefix)
	} else {
		k, v = it.cursor.Next()
	}

	if k == nil || !bytes.HasPrefix(k, it.prefix) {
		it.key, it.value = nil, nil
		return false
	}

	it.key, it.value = k, v
	return true
}

// Key returns the current key. Valid only between a true-returning Next
// and the following call to Next or Close.
func (it *PrefixIterator) Key() []byte { return it.key }

// Value returns the current value, following the same validity rule as Key.
func (it *PrefixIterator) Value() []byte { return it.value }

// Close releases the iterator's backing read transaction.
func (it *PrefixIterator) Close() error {
	return it.tx.Rollback()
}
