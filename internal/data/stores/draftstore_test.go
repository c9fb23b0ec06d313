package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_PutAndGet(t *testing.T) {
	store := NewDraftStore(openTestDB(t))
	ctx := context.Background()

	d := DraftText{
		Server:          "srv",
		ReviewRequestID: 42,
		RangeKey:        "10-3",
		Text:            "off by one?",
		RichText:        true,
		IssueOpened:     true,
	}
	require.NoError(t, store.Put(ctx, d))

	got, err := store.Get(ctx, "srv", 42, "10-3")
	require.NoError(t, err)
	assert.Equal(t, "off by one?", got.Text)
	assert.True(t, got.RichText)
	assert.True(t, got.IssueOpened)
}

func TestDraftStore_PutUpserts(t *testing.T) {
	store := NewDraftStore(openTestDB(t))
	ctx := context.Background()

	d := DraftText{Server: "srv", ReviewRequestID: 1, RangeKey: "5-1", Text: "v1"}
	require.NoError(t, store.Put(ctx, d))
	d.Text = "v2"
	require.NoError(t, store.Put(ctx, d))

	got, err := store.Get(ctx, "srv", 1, "5-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Text)

	drafts, err := store.List(ctx, "srv", 1)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestDraftStore_ListOrdersByRecency(t *testing.T) {
	store := NewDraftStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, DraftText{Server: "srv", ReviewRequestID: 1, RangeKey: "5-1", Text: "old"}))
	time.Sleep(time.Millisecond)
	require.NoError(t, store.Put(ctx, DraftText{Server: "srv", ReviewRequestID: 1, RangeKey: "9-2", Text: "new"}))

	drafts, err := store.List(ctx, "srv", 1)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "9-2", drafts[0].RangeKey)
	assert.Equal(t, "5-1", drafts[1].RangeKey)
}

func TestDraftStore_Delete(t *testing.T) {
	store := NewDraftStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, DraftText{Server: "srv", ReviewRequestID: 1, RangeKey: "5-1", Text: "x"}))
	require.NoError(t, store.Delete(ctx, "srv", 1, "5-1"))

	_, err := store.Get(ctx, "srv", 1, "5-1")
	require.ErrorIs(t, err, ErrNotFound)

	drafts, err := store.List(ctx, "srv", 1)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}
