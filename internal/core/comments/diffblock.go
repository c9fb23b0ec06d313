package comments

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/colonyops/revdeck/internal/core/difftable"
)

// DiffBlock anchors comments to a virtual line range of one file's diff.
type DiffBlock struct {
	base

	FileDiffID      int64
	InterFileDiffID int64

	beginLine int
	numLines  int
}

var _ Block = (*DiffBlock)(nil)
var _ difftable.Anchored = (*DiffBlock)(nil)

// NewDiffBlock constructs a block from serialized comments at a line range.
// Passing no comments starts a fresh block with an empty draft, the path
// taken when a user finishes a row selection.
func NewDiffBlock(store Store, fileDiffID int64, beginLine, numLines int, serialized []difftable.SerializedComment) *DiffBlock {
	b := &DiffBlock{
		FileDiffID: fileDiffID,
		beginLine:  beginLine,
		numLines:   numLines,
	}
	b.init(b, store, serialized)
	return b
}

// EnsureDraft creates the draft shell if needed and stamps the block's
// line range into its extra data so the store can anchor the comment.
func (b *DiffBlock) EnsureDraft() {
	b.base.EnsureDraft()
	if b.draft.Extra == nil {
		b.draft.Extra = map[string]string{}
	}
	b.draft.Extra["beginLineNum"] = strconv.Itoa(b.beginLine)
	b.draft.Extra["numLines"] = strconv.Itoa(b.numLines)
}

// BeginLine returns the first virtual line the block covers.
func (b *DiffBlock) BeginLine() int { return b.beginLine }

// NumLines returns how many lines the block covers.
func (b *DiffBlock) NumLines() int { return b.numLines }

// EndLine returns the last virtual line the block covers.
func (b *DiffBlock) EndLine() int { return b.beginLine + b.numLines - 1 }

// RangeKey is the serialization key for the block's range.
func (b *DiffBlock) RangeKey() string {
	return fmt.Sprintf("%d-%d", b.beginLine, b.numLines)
}

// BlocksFromFile constructs the diff blocks for one file's serialized
// comment map, keyed "beginLine-numLines". Blocks come back ordered by
// line so callers can index anchors in document order; map iteration
// order must never leak out.
func BlocksFromFile(store Store, file difftable.DiffFile) ([]*DiffBlock, error) {
	blocks := make([]*DiffBlock, 0, len(file.SerializedComments))
	for key, serialized := range file.SerializedComments {
		var begin, num int
		if _, err := fmt.Sscanf(key, "%d-%d", &begin, &num); err != nil {
			return nil, fmt.Errorf("bad comment range key %q: %w", key, err)
		}
		blocks = append(blocks, NewDiffBlock(store, file.FileDiffID, begin, num, serialized))
	}
	slices.SortFunc(blocks, func(a, b *DiffBlock) int {
		if a.beginLine != b.beginLine {
			return a.beginLine - b.beginLine
		}
		return a.numLines - b.numLines
	})
	return blocks, nil
}
