package tui

import (
	"github.com/colonyops/revdeck/internal/api"
	"github.com/colonyops/revdeck/internal/core/comments"
	"github.com/colonyops/revdeck/internal/core/difftable"
	"github.com/colonyops/revdeck/internal/core/fragment"
)

// diffContextMsg carries the revision's diff context after the initial load.
type diffContextMsg struct {
	generation int
	context    *api.DiffContext
	err        error
}

// filesListMsg carries the revision's file listing.
type filesListMsg struct {
	generation int
	files      []difftable.DiffFile
	err        error
}

// fileLoadedMsg delivers one file's built table from the sequential loader.
type fileLoadedMsg struct {
	generation int
	fileIndex  int
	table      *difftable.Table
	err        error
}

// fragmentsLoadedMsg carries one fetched fragment pass back to the event
// loop, which applies it into the containers. A stale generation drops the
// pass unapplied.
type fragmentsLoadedMsg struct {
	generation int
	pass       *fragment.Pass
	fragments  []fragment.Fragment
	err        error
}

// chunkExpandedMsg delivers replacement rows for an expanded or re-collapsed
// chunk range.
type chunkExpandedMsg struct {
	generation int
	fileIndex  int
	chunkIndex int
	rows       []difftable.Row
	err        error
}

// commentSavedMsg reports the outcome of a draft save or delete. The
// stored comment is applied to its block on the event loop; fileIndex
// scopes the range key, which repeats across files.
type commentSavedMsg struct {
	comment   comments.Comment
	fileIndex int
	rangeKey  string
	deleted   bool
	err       error
}

// errMsg surfaces a failure that has no more specific message.
type errMsg struct {
	err error
}
