package tui

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/revdeck/internal/api"
	"github.com/colonyops/revdeck/internal/core/comments"
	"github.com/colonyops/revdeck/internal/core/config"
	"github.com/colonyops/revdeck/internal/core/difftable"
	"github.com/colonyops/revdeck/internal/core/router"
)

// twoChunkTable builds a table with one insert chunk and one equal chunk.
func twoChunkTable(df difftable.DiffFile) *difftable.Table {
	return &difftable.Table{
		File: df,
		Rows: []difftable.Row{
			{Kind: difftable.RowHeader, Chunk: -1, Text: df.ModifiedFilename},
			{Kind: difftable.RowContent, Chunk: 0, Line: 1, NewLine: 1, Text: "added"},
			{Kind: difftable.RowContent, Chunk: 1, Line: 2, OldLine: 1, NewLine: 2, Text: "same"},
		},
		Chunks: []difftable.Chunk{
			{Index: 0, Kind: difftable.ChunkInsert, FirstRow: 1, LastRow: 1, FirstLine: 1, LastLine: 1},
			{Index: 1, Kind: difftable.ChunkEqual, FirstRow: 2, LastRow: 2, FirstLine: 2, LastLine: 2},
		},
	}
}

// emptyTable builds a header-only table for a file with no chunks.
func emptyTable(df difftable.DiffFile) *difftable.Table {
	return &difftable.Table{
		File: df,
		Rows: []difftable.Row{
			{Kind: difftable.RowHeader, Chunk: -1, Text: df.ModifiedFilename},
		},
	}
}

func newTestApp(t *testing.T, route router.Route) App {
	t.Helper()
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	client, err := api.NewClient("http://reviews.example.test", 42, "", api.Options{})
	require.NoError(t, err)

	return New(cfg, client, nil, nil, route)
}

// loadThreeFiles drives the app through the sequential load of three files:
// files 1 and 3 have an insert and an equal chunk, file 2 has none.
func loadThreeFiles(t *testing.T, a App) App {
	t.Helper()

	files := []difftable.DiffFile{
		{FileDiffID: 1, ModifiedFilename: "one.go"},
		{FileDiffID: 2, ModifiedFilename: "two.go"},
		{FileDiffID: 3, ModifiedFilename: "three.go"},
	}
	model, _ := a.Update(filesListMsg{generation: 0, files: files})
	a = model.(App)

	tables := []*difftable.Table{
		twoChunkTable(a.files[0].file),
		emptyTable(a.files[1].file),
		twoChunkTable(a.files[2].file),
	}
	for i, table := range tables {
		model, _ = a.Update(fileLoadedMsg{generation: 0, fileIndex: i, table: table})
		a = model.(App)
	}
	return a
}

func TestAnchorSequenceAcrossFiles(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	a = loadThreeFiles(t, a)

	require.Equal(t, 7, a.seq.Len())
	assert.Equal(t, "file1", a.seq.At(0).Name)
	assert.Equal(t, "1.0", a.seq.At(1).Name)
	assert.Equal(t, "1.1", a.seq.At(2).Name)
	assert.Equal(t, "file2", a.seq.At(3).Name)
	assert.Equal(t, "file3", a.seq.At(4).Name)
	assert.Equal(t, "3.0", a.seq.At(5).Name)
	assert.Equal(t, "3.1", a.seq.At(6).Name)
}

func TestPrevFileFromMiddle(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	a = loadThreeFiles(t, a)

	a.seq.SelectName("file2")
	model, _ := a.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	a = model.(App)

	assert.Equal(t, 0, a.seq.Selected())
	assert.Equal(t, "file1", a.seq.At(a.seq.Selected()).Name)
}

func TestNextChunkFromFirstFile(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	a = loadThreeFiles(t, a)

	a.seq.SelectName("file1")
	model, _ := a.Update(tea.KeyPressMsg{Code: 'd', Text: "d"})
	a = model.(App)

	assert.Equal(t, 1, a.seq.Selected())
	assert.Equal(t, "1.0", a.seq.At(a.seq.Selected()).Name)
}

func TestStaleGenerationDropped(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	a = loadThreeFiles(t, a)

	model, _ := a.reload(router.Route{Revision: 2})
	a = model.(App)
	require.Empty(t, a.files)

	// a load from the superseded revision arrives late
	stale := twoChunkTable(difftable.DiffFile{FileDiffID: 9})
	model, _ = a.Update(fileLoadedMsg{generation: 0, fileIndex: 0, table: stale})
	a = model.(App)

	assert.Empty(t, a.files)
	assert.Equal(t, 0, a.seq.Len())
}

func TestPendingAnchorFiresOnce(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1, Anchor: "file2"})
	a = loadThreeFiles(t, a)

	require.Equal(t, 3, a.seq.Selected(), "route anchor selected when its file loaded")

	// later navigation is not overridden by the consumed anchor
	a.seq.SelectName("file3")
	a.consumePendingAnchor()
	assert.Equal(t, "file3", a.seq.At(a.seq.Selected()).Name)
}

func TestFileStartAccountsForUnloadedFiles(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})

	files := []difftable.DiffFile{
		{FileDiffID: 1, ModifiedFilename: "one.go"},
		{FileDiffID: 2, ModifiedFilename: "two.go"},
	}
	model, _ := a.Update(filesListMsg{generation: 0, files: files})
	a = model.(App)

	// nothing loaded: each file is a one-line placeholder
	assert.Equal(t, 0, a.fileStart(0))
	assert.Equal(t, 1, a.fileStart(1))

	model, _ = a.Update(fileLoadedMsg{generation: 0, fileIndex: 0, table: twoChunkTable(a.files[0].file)})
	a = model.(App)

	assert.Equal(t, 3, a.fileStart(1), "loaded file contributes its row count")

	idx, local := a.locate(2)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 2, local)

	idx, local = a.locate(3)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 0, local)
}

func TestRouteFilenameFilterSkipsFiles(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1, Filenames: []string{"*.go"}})

	files := []difftable.DiffFile{
		{FileDiffID: 1, ModifiedFilename: "main.go"},
		{FileDiffID: 2, ModifiedFilename: "README.md"},
	}
	model, _ := a.Update(filesListMsg{generation: 0, files: files})
	a = model.(App)

	require.Len(t, a.files, 1)
	assert.Equal(t, "main.go", a.files[0].file.ModifiedFilename)
}

// stubCommentStore persists drafts in memory, assigning server IDs.
type stubCommentStore struct {
	nextID  int64
	deleted []int64
}

func (s *stubCommentStore) SaveComment(_ context.Context, c comments.Comment) (comments.Comment, error) {
	if c.ID == 0 {
		s.nextID++
		c.ID = 900 + s.nextID
	}
	return c, nil
}

func (s *stubCommentStore) DeleteComment(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestSaveCmdMutatesBlockOnlyViaMessage(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	a = loadThreeFiles(t, a)

	store := &stubCommentStore{}
	block := comments.NewDiffBlock(store, a.files[0].file.FileDiffID, 1, 1, nil)
	block.CreateComment("tighten this loop")
	a.attachBlock(0, block)

	cmd := a.saveBlockCmd(0, block)
	msg := cmd()

	// The command only ran the store round-trip; the block is applied
	// when the message reaches Update.
	assert.Zero(t, block.Draft().ID)
	assert.False(t, block.CanDelete())

	model, _ := a.Update(msg)
	a = model.(App)
	assert.NotZero(t, block.Draft().ID)
	assert.True(t, block.CanDelete())
	assert.Equal(t, "draft saved", a.status)
}

func TestDiscardCmdDeletesPersistedDraftViaMessage(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	a = loadThreeFiles(t, a)

	store := &stubCommentStore{}
	block := comments.NewDiffBlock(store, a.files[0].file.FileDiffID, 2, 1, nil)
	block.CreateComment("  ")
	block.ApplySaved(comments.Comment{ID: 77, Text: "  "})
	a.attachBlock(0, block)

	cmd := a.discardBlockCmd(0, block)
	require.NotNil(t, cmd)
	msg := cmd()

	// Delete ran remotely, the draft is still on the block.
	assert.Equal(t, []int64{77}, store.deleted)
	require.NotNil(t, block.Draft())

	model, _ := a.Update(msg)
	a = model.(App)
	assert.Nil(t, block.Draft())
	assert.Equal(t, "draft discarded", a.status)
}

func TestViewDrawsChunkHighlightEdges(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	model, _ := a.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	a = model.(App)

	df := difftable.DiffFile{FileDiffID: 1, ModifiedFilename: "one.go"}
	table := &difftable.Table{
		File: df,
		Rows: []difftable.Row{
			{Kind: difftable.RowHeader, Chunk: -1, Text: df.ModifiedFilename},
			{Kind: difftable.RowContent, Chunk: 0, Line: 1, NewLine: 1, Text: "first"},
			{Kind: difftable.RowContent, Chunk: 0, Line: 2, NewLine: 2, Text: "second"},
			{Kind: difftable.RowContent, Chunk: 0, Line: 3, NewLine: 3, Text: "third"},
		},
		Chunks: []difftable.Chunk{
			{Index: 0, Kind: difftable.ChunkInsert, FirstRow: 1, LastRow: 3, FirstLine: 1, LastLine: 3},
		},
	}
	model, _ = a.Update(filesListMsg{generation: 0, files: []difftable.DiffFile{df}})
	a = model.(App)
	model, _ = a.Update(fileLoadedMsg{generation: 0, fileIndex: 0, table: table})
	a = model.(App)

	a.seq.SelectName("1.0")
	a.rebuildContent()
	view := a.View()

	// All four edges of the fully visible chunk rectangle are on screen:
	// the left bar on each row, the corners, and the plain side between.
	assert.Contains(t, view, "▎")
	assert.Contains(t, view, "┐")
	assert.Contains(t, view, "│")
	assert.Contains(t, view, "┘")
}

func TestViewScrolledChunkKeepsVisibleEdgesOnly(t *testing.T) {
	a := newTestApp(t, router.Route{Revision: 1})
	model, _ := a.Update(tea.WindowSizeMsg{Width: 30, Height: 4}) // 2 body rows
	a = model.(App)

	df := difftable.DiffFile{FileDiffID: 1, ModifiedFilename: "one.go"}
	rows := []difftable.Row{{Kind: difftable.RowHeader, Chunk: -1, Text: df.ModifiedFilename}}
	for i := 1; i <= 6; i++ {
		rows = append(rows, difftable.Row{
			Kind: difftable.RowContent, Chunk: 0, Line: i, NewLine: i, Text: "line",
		})
	}
	table := &difftable.Table{
		File:   df,
		Rows:   rows,
		Chunks: []difftable.Chunk{{Index: 0, Kind: difftable.ChunkInsert, FirstRow: 1, LastRow: 6, FirstLine: 1, LastLine: 6}},
	}
	model, _ = a.Update(filesListMsg{generation: 0, files: []difftable.DiffFile{df}})
	a = model.(App)
	model, _ = a.Update(fileLoadedMsg{generation: 0, fileIndex: 0, table: table})
	a = model.(App)

	a.seq.SelectName("1.0")
	a.rebuildContent()
	a.viewport.SetYOffset(2) // both corners scrolled off

	view := a.View()
	assert.Contains(t, view, "│")
	assert.NotContains(t, view, "┐")
	assert.NotContains(t, view, "┘")
}
