package comments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/revdeck/internal/core/difftable"
)

func TestRegionBlock_BoundsRoundTrip(t *testing.T) {
	store := newFakeStore()
	extra := map[string]string{"x": "12", "y": "34", "width": "100", "height": "50"}

	b := NewRegionBlock(store, extra, nil)
	x, y, w, h := b.Bounds()
	assert.Equal(t, [4]int{12, 34, 100, 50}, [4]int{x, y, w, h})
	assert.Equal(t, extra, b.ExtraData())
}

func TestRegionBlock_BadBoundsReadAsZero(t *testing.T) {
	store := newFakeStore()
	b := NewRegionBlock(store, map[string]string{"x": "twelve"}, nil)
	x, _, _, _ := b.Bounds()
	assert.Zero(t, x)
}

func TestRegionBlock_BoundsMutableWhileDraftOnly(t *testing.T) {
	store := newFakeStore()
	b := NewRegionBlock(store, nil, nil)

	require.True(t, b.CanUpdateBounds())
	require.True(t, b.SetBounds(1, 2, 3, 4))

	b.CreateComment("region note")
	require.NoError(t, b.Save(context.Background()))

	// A saved draft is still the author's own; bounds stay mutable.
	assert.True(t, b.CanUpdateBounds())
}

func TestRegionBlock_BoundsFreezeOnPublish(t *testing.T) {
	store := newFakeStore()
	b := NewRegionBlock(store, nil, nil)
	require.True(t, b.SetBounds(5, 5, 10, 10))

	b.AddPublished(Comment{ID: 1, Text: "published"})
	assert.False(t, b.CanUpdateBounds())
	assert.False(t, b.SetBounds(0, 0, 1, 1))

	x, y, w, h := b.Bounds()
	assert.Equal(t, [4]int{5, 5, 10, 10}, [4]int{x, y, w, h})
}

func TestRegionBlock_BoundsStayFrozenAcrossDraftChurn(t *testing.T) {
	store := newFakeStore()
	serialized := []difftable.SerializedComment{
		{CommentID: 1, Text: "published"},
		{CommentID: 2, Text: "draft", LocalDraft: true},
	}
	b := NewRegionBlock(store, map[string]string{"x": "3"}, serialized)
	require.False(t, b.CanUpdateBounds())

	// Delete the draft and recreate it: bounds remain immutable.
	require.NoError(t, b.Delete(context.Background()))
	b.CreateComment("new draft")
	assert.False(t, b.CanUpdateBounds())
}

func TestRegionBlock_LoadedWithPublishedIsFrozen(t *testing.T) {
	store := newFakeStore()
	serialized := []difftable.SerializedComment{{CommentID: 4, Text: "from another reviewer"}}
	b := NewRegionBlock(store, nil, serialized)
	assert.False(t, b.CanUpdateBounds())
}

func TestScreenshotBlock_Lifecycle(t *testing.T) {
	store := newFakeStore()
	b := NewScreenshotBlock(store, 77, nil)

	requireCountInvariant(t, b)
	b.CreateComment("whole-screenshot note")
	require.NoError(t, b.Save(context.Background()))
	requireCountInvariant(t, b)
	assert.EqualValues(t, 77, b.ScreenshotID)
}

func TestNextIssueStatus(t *testing.T) {
	tests := []struct {
		from    IssueStatus
		event   IssueEvent
		want    IssueStatus
		wantErr bool
	}{
		{IssueOpen, IssueEventResolve, IssueResolved, false},
		{IssueOpen, IssueEventDrop, IssueDropped, false},
		{IssueResolved, IssueEventReopen, IssueOpen, false},
		{IssueDropped, IssueEventReopen, IssueOpen, false},
		{IssueOpen, IssueEventReopen, IssueOpen, true},
		{IssueResolved, IssueEventResolve, IssueResolved, true},
		{IssueResolved, IssueEventDrop, IssueResolved, true},
		{IssueDropped, IssueEventDrop, IssueDropped, true},
		{IssueNone, IssueEventResolve, IssueNone, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := NextIssueStatus(tt.from, tt.event)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
