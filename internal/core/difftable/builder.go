package difftable

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// BuildOptions controls initial table construction.
type BuildOptions struct {
	// ContextLines is how many equal lines stay visible on each side of a
	// collapsed region.
	ContextLines int
	// CollapseThreshold is the minimum length of an equal chunk before its
	// middle collapses behind a boundary row.
	CollapseThreshold int
}

const (
	defaultContextLines      = 5
	defaultCollapseThreshold = 25
)

func (o BuildOptions) withDefaults() BuildOptions {
	if o.ContextLines <= 0 {
		o.ContextLines = defaultContextLines
	}
	if o.CollapseThreshold <= 0 {
		o.CollapseThreshold = defaultCollapseThreshold
	}
	return o
}

// Build constructs the table for one file from its parsed unified diff.
// Content rows get sequential virtual line numbers spanning the whole diff;
// long equal chunks are collapsed behind boundary rows, leaving gaps in the
// visible numbering.
func Build(df DiffFile, file *gitdiff.File, opts BuildOptions) *Table {
	opts = opts.withDefaults()

	t := &Table{File: df}
	t.Rows = append(t.Rows, Row{
		Kind:  RowHeader,
		Chunk: -1,
		Text:  df.ModifiedFilename,
	})

	line := 0
	var pending []Row // rows of the chunk being accumulated
	var pendingKind ChunkKind
	havePending := false

	flush := func() {
		if !havePending {
			return
		}
		appendChunk(t, pendingKind, pending, opts)
		pending = nil
		havePending = false
	}

	push := func(kind ChunkKind, row Row) {
		if havePending && pendingKind != kind {
			flush()
		}
		pendingKind = kind
		havePending = true
		line++
		row.Line = line
		row.Kind = RowContent
		pending = append(pending, row)
	}

	if file != nil {
		for _, frag := range file.TextFragments {
			oldLine := int(frag.OldPosition)
			newLine := int(frag.NewPosition)

			lines := frag.Lines
			for i := 0; i < len(lines); i++ {
				ln := lines[i]
				switch ln.Op {
				case gitdiff.OpContext:
					push(ChunkEqual, Row{
						OldLine: oldLine,
						NewLine: newLine,
						Text:    strings.TrimSuffix(ln.Line, "\n"),
					})
					oldLine++
					newLine++

				case gitdiff.OpDelete:
					// A delete run immediately followed by an add run is
					// one replace chunk.
					kind := ChunkDelete
					if followedByAdd(lines, i) {
						kind = ChunkReplace
					}
					push(kind, Row{
						OldLine: oldLine,
						Text:    strings.TrimSuffix(ln.Line, "\n"),
					})
					oldLine++

				case gitdiff.OpAdd:
					kind := ChunkInsert
					if havePending && pendingKind == ChunkReplace {
						kind = ChunkReplace
					}
					push(kind, Row{
						NewLine: newLine,
						Text:    strings.TrimSuffix(ln.Line, "\n"),
					})
					newLine++
				}
			}
		}
	}
	flush()

	return t
}

// followedByAdd reports whether the delete run starting at i transitions
// into an add run, which makes the combined run a replace chunk.
func followedByAdd(lines []gitdiff.Line, i int) bool {
	for ; i < len(lines); i++ {
		switch lines[i].Op {
		case gitdiff.OpDelete:
			continue
		case gitdiff.OpAdd:
			return true
		default:
			return false
		}
	}
	return false
}

// appendChunk adds one chunk's rows to the table, collapsing the middle of
// long equal chunks behind a boundary row.
func appendChunk(t *Table, kind ChunkKind, rows []Row, opts BuildOptions) {
	index := len(t.Chunks)
	chunk := Chunk{
		Index:     index,
		Kind:      kind,
		FirstRow:  len(t.Rows),
		FirstLine: rows[0].Line,
		LastLine:  rows[len(rows)-1].Line,
	}

	// A collapse must leave at least one hidden line between the context
	// windows, or the head and tail slices would overlap and duplicate rows.
	collapse := kind == ChunkEqual &&
		len(rows) > opts.CollapseThreshold &&
		len(rows) > 2*opts.ContextLines
	if collapse {
		ctx := opts.ContextLines
		hidden := len(rows) - 2*ctx
		head := rows[:ctx]
		tail := rows[len(rows)-ctx:]

		for i := range head {
			head[i].Chunk = index
		}
		for i := range tail {
			tail[i].Chunk = index
		}

		t.Rows = append(t.Rows, head...)
		t.Rows = append(t.Rows, Row{
			Kind:  RowBoundary,
			Chunk: index,
			Text:  fmt.Sprintf("%d lines hidden", hidden),
		})
		t.Rows = append(t.Rows, tail...)

		chunk.Collapsed = true
		chunk.NumHidden = hidden
	} else {
		for i := range rows {
			rows[i].Chunk = index
		}
		t.Rows = append(t.Rows, rows...)
	}

	chunk.LastRow = len(t.Rows) - 1
	t.Chunks = append(t.Chunks, chunk)
}
