package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	e, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, e.OpenTree("things"))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpenCreatesDirectory(t *testing.T) {
	e := openTestEngine(t)
	assert.DirExists(t, e.Path())
}

func TestOpenTreeIdempotent(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.OpenTree("things"))
	require.NoError(t, e.OpenTree("things"))
}

func TestInsertGetRoundTrip(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Insert("things", []byte("k1"), []byte("v1")))

	guard, err := e.Get("things", []byte("k1"))
	require.NoError(t, err)
	require.NotNil(t, guard)
	defer guard.Release()

	assert.Equal(t, []byte("v1"), guard.Bytes())
}

func TestGetMissingKeyReturnsNilNotError(t *testing.T) {
	e := openTestEngine(t)
	guard, err := e.Get("things", []byte("nope"))
	require.NoError(t, err)
	assert.Nil(t, guard)
}

func TestRemoveIsIdempotent(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Insert("things", []byte("k1"), []byte("v1")))
	require.NoError(t, e.Remove("things", []byte("k1")))
	require.NoError(t, e.Remove("things", []byte("k1")))

	guard, err := e.Get("things", []byte("k1"))
	require.NoError(t, err)
	assert.Nil(t, guard)
}

func TestScanPrefixOrdersLexicographically(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Insert("things", []byte("a|2"), []byte("2")))
	require.NoError(t, e.Insert("things", []byte("a|1"), []byte("1")))
	require.NoError(t, e.Insert("things", []byte("b|1"), []byte("b1")))

	it, err := e.ScanPrefix("things", []byte("a|"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.Equal(t, []string{"a|1", "a|2"}, keys)
}

func TestSecondOpenOnSameDirectoryFailsWithLockHeld(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	e1, err := Open(dir)
	require.NoError(t, err)
	defer e1.Close()

	_, err = Open(dir)
	assert.ErrorIs(t, err, ErrLockHeld)
}

func TestFlushDoesNotError(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, e.Insert("things", []byte("k"), []byte("v")))
	assert.NoError(t, e.Flush())
}
