package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStorageRejectsDuplicateName(t *testing.T) {
	r := New(t.TempDir())
	require.NoError(t, r.AddStorage("active", []string{"messages"}))
	assert.ErrorIs(t, r.AddStorage("active", []string{"messages"}), ErrAlreadyRegistered)
}

func TestInsertGetRoundTrip(t *testing.T) {
	r := New(t.TempDir())
	require.NoError(t, r.AddStorage("active", []string{"messages"}))

	require.NoError(t, r.Insert("active", "messages", []byte("m1"), []byte("hello")))
	guard, err := r.Get("active", "messages", []byte("m1"))
	require.NoError(t, err)
	require.NotNil(t, guard)
	defer guard.Release()
	assert.Equal(t, []byte("hello"), guard.Bytes())
}

func TestUnknownStorageReturnsError(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Get("nope", "messages", []byte("m1"))
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestRemoveStorageDropsHandle(t *testing.T) {
	r := New(t.TempDir())
	require.NoError(t, r.AddStorage("active", []string{"messages"}))
	require.NoError(t, r.RemoveStorage("active"))
	assert.False(t, r.Has("active"))
}

func TestFlushAllFansOutAcrossEngines(t *testing.T) {
	r := New(t.TempDir())
	require.NoError(t, r.AddStorage("active", []string{"messages"}))
	require.NoError(t, r.AddStorage("recent", []string{"messages"}))

	assert.NoError(t, r.FlushAll(context.Background()))
}

func TestFindKeyAnywhereIsStubbed(t *testing.T) {
	r := New(t.TempDir())
	guard, err := r.FindKeyAnywhere("messages", []byte("m1"))
	assert.NoError(t, err)
	assert.Nil(t, guard)
}
