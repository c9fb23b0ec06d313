// Package selection implements multi-row selection over a diff table: the
// pointer-driven gesture that produces new comment blocks. Range movement is
// computed as pure row deltas; marking rows selected is a rendering side
// effect applied by the caller.
package selection

import "github.com/colonyops/revdeck/internal/core/difftable"

// LineRange is an inclusive range of virtual line numbers.
type LineRange struct {
	Start int
	End   int
}

// Normalize returns the range with Start <= End.
func (r LineRange) Normalize() LineRange {
	if r.Start > r.End {
		return LineRange{Start: r.End, End: r.Start}
	}
	return r
}

// NumLines returns the number of lines the normalized range covers.
func (r LineRange) NumLines() int {
	n := r.Normalize()
	return n.End - n.Start + 1
}

// Contains reports whether line falls inside the normalized range.
func (r LineRange) Contains(line int) bool {
	n := r.Normalize()
	return line >= n.Start && line <= n.End
}

// FrontierDelta computes which row indices enter and leave the selection
// when the frontier moves from prev to next while anchored at anchor. Both
// results are empty when the frontier did not move. This is what keeps
// pointer-move updates O(delta) instead of rescanning the table.
func FrontierDelta(anchor, prev, next int) (entering, leaving []int) {
	if prev == next {
		return nil, nil
	}

	prevRange := LineRange{Start: anchor, End: prev}.Normalize()
	nextRange := LineRange{Start: anchor, End: next}.Normalize()

	for i := nextRange.Start; i <= nextRange.End; i++ {
		if i < prevRange.Start || i > prevRange.End {
			entering = append(entering, i)
		}
	}
	for i := prevRange.Start; i <= prevRange.End; i++ {
		if i < nextRange.Start || i > nextRange.End {
			leaving = append(leaving, i)
		}
	}
	return entering, leaving
}

// ReleaseKind classifies what a pointer release produces.
type ReleaseKind int

const (
	// ReleaseNone cancels the gesture; normal text selection resumes.
	ReleaseNone ReleaseKind = iota
	// ReleaseNewBlock creates a comment block over the selected range and
	// opens its editor.
	ReleaseNewBlock
	// ReleaseDelegate reuses the existing comment flag on the row instead
	// of stacking a duplicate single-line block on it.
	ReleaseDelegate
	// ReleaseMoveAnchor moves navigation to the released chunk without
	// creating anything.
	ReleaseMoveAnchor
)

// Release is the outcome of finishing a selection gesture.
type Release struct {
	Kind  ReleaseKind
	Range LineRange // set for ReleaseNewBlock
	Row   int       // set for ReleaseDelegate and ReleaseMoveAnchor
	Chunk int       // set for ReleaseMoveAnchor
}

// Tracker holds one in-progress selection. The zero value is idle.
type Tracker struct {
	table *difftable.Table

	beginRow     int
	endRow       int
	beginLineNum int
	endLineNum   int
	lastSeenRow  int
	active       bool
}

// NewTracker creates a tracker over one table.
func NewTracker(table *difftable.Table) *Tracker {
	return &Tracker{table: table}
}

// Active reports whether a selection gesture is in progress.
func (t *Tracker) Active() bool { return t.active }

// Range returns the current selected line range.
func (t *Tracker) Range() LineRange {
	return LineRange{Start: t.beginLineNum, End: t.endLineNum}.Normalize()
}

// Begin anchors a selection at the given row. Rows without a line number
// (headers, boundary rows) do not start selections.
func (t *Tracker) Begin(rowIndex int) bool {
	line := t.lineAt(rowIndex)
	if line == 0 {
		return false
	}

	t.beginRow = rowIndex
	t.endRow = rowIndex
	t.beginLineNum = line
	t.endLineNum = line
	t.lastSeenRow = rowIndex
	t.active = true
	return true
}

// ExtendTo moves the selection frontier to rowIndex, returning the row
// indices entering and leaving the selection. Rows without line numbers are
// skipped by returning empty deltas.
func (t *Tracker) ExtendTo(rowIndex int) (entering, leaving []int) {
	if !t.active {
		return nil, nil
	}
	line := t.lineAt(rowIndex)
	if line == 0 {
		return nil, nil
	}

	entering, leaving = FrontierDelta(t.beginRow, t.lastSeenRow, rowIndex)
	t.lastSeenRow = rowIndex
	t.endRow = rowIndex
	t.endLineNum = line
	return entering, leaving
}

// Release finishes the gesture at rowIndex. hasFlag reports whether a
// comment flag already sits on a row; it decides the single-line delegate
// case.
func (t *Tracker) Release(rowIndex int, hasFlag func(rowIndex int) bool) Release {
	if !t.active {
		return t.releaseOutside(rowIndex)
	}
	defer t.Cancel()

	line := t.lineAt(rowIndex)
	if line == 0 {
		return Release{Kind: ReleaseNone}
	}

	r := LineRange{Start: t.beginLineNum, End: line}.Normalize()
	if r.Start == r.End && hasFlag != nil && hasFlag(rowIndex) {
		return Release{Kind: ReleaseDelegate, Row: rowIndex}
	}
	return Release{Kind: ReleaseNewBlock, Range: r}
}

// releaseOutside handles a release with no selection in progress: releasing
// inside a changed chunk moves the navigation anchor there.
func (t *Tracker) releaseOutside(rowIndex int) Release {
	chunk := t.table.ChunkAt(rowIndex)
	if chunk != nil && chunk.Kind.Changed() {
		return Release{Kind: ReleaseMoveAnchor, Row: rowIndex, Chunk: chunk.Index}
	}
	return Release{Kind: ReleaseNone}
}

// Cancel abandons the gesture and restores idle state.
func (t *Tracker) Cancel() {
	*t = Tracker{table: t.table}
}

// SelectedRows returns every row index currently inside the selection.
func (t *Tracker) SelectedRows() []int {
	if !t.active {
		return nil
	}
	lo, hi := t.beginRow, t.lastSeenRow
	if lo > hi {
		lo, hi = hi, lo
	}
	rows := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		rows = append(rows, i)
	}
	return rows
}

// ShowGhostFlag reports whether hovering rowIndex should show the ghost
// comment-flag affordance: a line-numbered row, no selection in progress,
// and no existing flag on the row.
func (t *Tracker) ShowGhostFlag(rowIndex int, hasFlag func(rowIndex int) bool) bool {
	if t.active {
		return false
	}
	if t.lineAt(rowIndex) == 0 {
		return false
	}
	return hasFlag == nil || !hasFlag(rowIndex)
}

func (t *Tracker) lineAt(rowIndex int) int {
	if rowIndex < 0 || rowIndex >= len(t.table.Rows) {
		return 0
	}
	return t.table.Rows[rowIndex].Line
}
