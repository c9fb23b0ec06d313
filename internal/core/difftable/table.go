// Package difftable models rendered diff tables: rows tagged with virtual
// source line numbers, chunk sections with collapse state, and the splicing
// operations that keep comment placement correct as chunks expand and
// collapse.
package difftable

import "fmt"

// ChunkKind is the change type shared by all lines of one chunk.
type ChunkKind int

const (
	ChunkEqual ChunkKind = iota
	ChunkInsert
	ChunkDelete
	ChunkReplace
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkEqual:
		return "equal"
	case ChunkInsert:
		return "insert"
	case ChunkDelete:
		return "delete"
	case ChunkReplace:
		return "replace"
	default:
		return fmt.Sprintf("ChunkKind(%d)", int(k))
	}
}

// Changed reports whether the chunk represents a modification.
func (k ChunkKind) Changed() bool {
	return k != ChunkEqual
}

// RowKind distinguishes content rows from structural rows.
type RowKind int

const (
	// RowContent is a regular diff line row carrying a line number.
	RowContent RowKind = iota
	// RowHeader is the table's fixed column header row.
	RowHeader
	// RowBoundary is an "N lines hidden" control row standing in for a
	// collapsed region. It carries no line number.
	RowBoundary
)

// Row is one rendered row of a diff table. Line is the virtual line number
// spanning the whole file's diff; it is 0 on header and boundary rows, and
// strictly increasing but possibly sparse across content rows when regions
// are collapsed.
type Row struct {
	Kind     RowKind
	Line     int
	Chunk    int // index of the owning chunk; -1 for the header row
	OldLine  int // line number in the original file, 0 if absent
	NewLine  int // line number in the modified file, 0 if absent
	Text     string
	Selected bool // marked by row selection
	Ghost    bool // ghost comment-flag affordance
}

// Chunk is a contiguous block of diff rows sharing one change type.
// FirstRow/LastRow are the inclusive row-index span currently occupied in
// the table, kept up to date across splices.
type Chunk struct {
	Index     int
	Kind      ChunkKind
	Collapsed bool
	Dimmed    bool // whitespace-only chunk currently de-emphasized
	FirstRow  int
	LastRow   int
	NumHidden int // content rows hidden while collapsed
	FirstLine int // first virtual line covered by the chunk (including hidden)
	LastLine  int // last virtual line covered by the chunk (including hidden)
}

// DiffFile is one file entry in a diff revision, constructed from the parsed
// server payload and immutable afterwards except for comment-block updates.
type DiffFile struct {
	ID              int64
	FileDiffID      int64
	BaseFileDiffID  int64 // 0 when absent
	InterFileDiffID int64 // 0 when absent

	OrigFilename     string
	ModifiedFilename string
	OrigRevision     string
	ModifiedRevision string

	Binary  bool
	Deleted bool
	IsNew   bool

	// Index is the file's position within the loaded page.
	Index int

	// SerializedComments maps "beginLine-numLines" keys to the serialized
	// comments anchored at that range, as delivered by the server payload.
	SerializedComments map[string][]SerializedComment
}

// SerializedComment is the wire form of one comment inside a diff payload.
// A localdraft entry becomes the block's editable draft.
type SerializedComment struct {
	CommentID   int64  `json:"comment_id"`
	Text        string `json:"text"`
	RichText    bool   `json:"rich_text"`
	IssueOpened bool   `json:"issue_opened"`
	IssueStatus string `json:"issue_status"`
	LocalDraft  bool   `json:"localdraft"`
	User        string `json:"user"`
}

// Table is the rendered diff table for one file. Rows[0] is always the
// column header row.
type Table struct {
	File   DiffFile
	Rows   []Row
	Chunks []Chunk
}

// headerOffset is the fixed number of header rows before content begins.
const headerOffset = 1

// NumRows returns the total row count including the header row.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ChunkAt returns the chunk containing the given row index, or nil for
// header and out-of-range rows.
func (t *Table) ChunkAt(rowIndex int) *Chunk {
	if rowIndex < headerOffset || rowIndex >= len(t.Rows) {
		return nil
	}
	ci := t.Rows[rowIndex].Chunk
	if ci < 0 || ci >= len(t.Chunks) {
		return nil
	}
	return &t.Chunks[ci]
}

// SpliceChunk replaces the chunk's current row span with replacement rows
// and updates every chunk's row bookkeeping. Boundary rows inside the span
// are superseded by the new content. The replacement rows are retagged with
// the chunk's index.
func (t *Table) SpliceChunk(chunkIndex int, replacement []Row) error {
	if chunkIndex < 0 || chunkIndex >= len(t.Chunks) {
		return fmt.Errorf("splice: no chunk %d", chunkIndex)
	}

	chunk := &t.Chunks[chunkIndex]
	for i := range replacement {
		replacement[i].Chunk = chunkIndex
	}

	before := t.Rows[:chunk.FirstRow]
	after := t.Rows[chunk.LastRow+1:]

	rows := make([]Row, 0, len(before)+len(replacement)+len(after))
	rows = append(rows, before...)
	rows = append(rows, replacement...)
	rows = append(rows, after...)
	t.Rows = rows

	delta := len(replacement) - (chunk.LastRow - chunk.FirstRow + 1)
	chunk.LastRow += delta
	for i := chunkIndex + 1; i < len(t.Chunks); i++ {
		t.Chunks[i].FirstRow += delta
		t.Chunks[i].LastRow += delta
	}

	return nil
}

// visibleLines returns how many content rows the chunk currently shows.
func (t *Table) visibleLines(chunk *Chunk) int {
	n := 0
	for i := chunk.FirstRow; i <= chunk.LastRow && i < len(t.Rows); i++ {
		if t.Rows[i].Kind == RowContent {
			n++
		}
	}
	return n
}
