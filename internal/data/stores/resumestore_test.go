package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/revdeck/internal/data/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestResumeStore_SaveAndGet(t *testing.T) {
	store := NewResumeStore(openTestDB(t))
	ctx := context.Background()

	state := ResumeState{
		Server:          "https://rb.example.com",
		ReviewRequestID: 42,
		Revision:        3,
		Page:            2,
		Anchor:          "chunk1.2",
	}
	require.NoError(t, store.Save(ctx, state))

	got, err := store.Get(ctx, "https://rb.example.com", 42)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Revision)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, "chunk1.2", got.Anchor)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestResumeStore_SaveUpserts(t *testing.T) {
	store := NewResumeStore(openTestDB(t))
	ctx := context.Background()

	state := ResumeState{Server: "srv", ReviewRequestID: 1, Revision: 1, Page: 1}
	require.NoError(t, store.Save(ctx, state))

	state.Revision = 4
	state.InterdiffRevision = 6
	state.Anchor = "file2"
	require.NoError(t, store.Save(ctx, state))

	got, err := store.Get(ctx, "srv", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Revision)
	assert.Equal(t, 6, got.InterdiffRevision)
	assert.Equal(t, "file2", got.Anchor)
}

func TestResumeStore_GetMissing(t *testing.T) {
	store := NewResumeStore(openTestDB(t))

	_, err := store.Get(context.Background(), "srv", 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResumeStore_Delete(t *testing.T) {
	store := NewResumeStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, ResumeState{Server: "srv", ReviewRequestID: 1, Revision: 1}))
	require.NoError(t, store.Delete(ctx, "srv", 1))

	_, err := store.Get(ctx, "srv", 1)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, store.Delete(ctx, "srv", 1))
}

func TestResumeStore_ScopedByServer(t *testing.T) {
	store := NewResumeStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, ResumeState{Server: "a", ReviewRequestID: 1, Revision: 2}))
	require.NoError(t, store.Save(ctx, ResumeState{Server: "b", ReviewRequestID: 1, Revision: 9}))

	got, err := store.Get(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Revision)

	got, err = store.Get(ctx, "b", 1)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Revision)
}
