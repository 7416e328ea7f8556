package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-tracker/eventclient/pkg/session"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := store.Get(ctx, session.KeyAuth, &payload{})
	require.NoError(t, err)
	assert.False(t, ok, "missing key should report not found")

	require.NoError(t, store.Set(ctx, session.KeyAuth, payload{Name: "alice", Count: 3}))

	var got payload
	ok, err = store.Get(ctx, session.KeyAuth, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload{Name: "alice", Count: 3}, got)
}

func TestFileStore_SetReplaces(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, session.KeyEvents, payload{Count: 1}))
	require.NoError(t, store.Set(ctx, session.KeyEvents, payload{Count: 2}))

	var got payload
	_, err = store.Get(ctx, session.KeyEvents, &got)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
}

func TestFileStore_Delete(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, session.KeyFollowers, payload{Count: 1}))
	require.NoError(t, store.Delete(ctx, session.KeyFollowers))

	ok, err := store.Get(ctx, session.KeyFollowers, &payload{})
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting twice is not an error.
	require.NoError(t, store.Delete(ctx, session.KeyFollowers))
}

func TestMemStore_RoundTrip(t *testing.T) {
	store := session.NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, session.KeyOrganizers, payload{Name: "org"}))

	var got payload
	ok, err := store.Get(ctx, session.KeyOrganizers, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "org", got.Name)

	require.NoError(t, store.Delete(ctx, session.KeyOrganizers))
	ok, err = store.Get(ctx, session.KeyOrganizers, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
