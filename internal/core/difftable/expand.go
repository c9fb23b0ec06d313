package difftable

import (
	"context"
	"fmt"
)

// RowSource fetches replacement rows for one chunk from the external diff
// rendering collaborator. linesOfContext is ignored when all is true.
type RowSource interface {
	ChunkRows(ctx context.Context, file DiffFile, chunkIndex, linesOfContext int, all bool) ([]Row, error)
}

// GeometryObserver is told when a table's row membership changed, so
// highlight overlays and collapse-button position trackers can re-derive
// their inputs.
type GeometryObserver interface {
	RowsChanged(t *Table)
}

// ScrollPreserver keeps the user's visual anchor stable across a
// content-height change: Measure before the splice, Restore after.
type ScrollPreserver interface {
	Measure(t *Table, chunkIndex int) int
	Restore(t *Table, offset int)
}

// ExpandController coordinates chunk expansion and collapse: fetching
// replacement rows, splicing them in, re-placing comment blocks that were
// hidden inside the collapsed region, and notifying geometry trackers.
type ExpandController struct {
	table     *Table
	source    RowSource
	placer    *Placer
	opts      BuildOptions
	observers []GeometryObserver
	scroll    ScrollPreserver // optional
}

// NewExpandController creates a controller bound to one table and its
// placer.
func NewExpandController(t *Table, source RowSource, placer *Placer, opts BuildOptions) *ExpandController {
	return &ExpandController{
		table:  t,
		source: source,
		placer: placer,
		opts:   opts.withDefaults(),
	}
}

// Observe registers a geometry observer.
func (c *ExpandController) Observe(obs GeometryObserver) {
	c.observers = append(c.observers, obs)
}

// SetScrollPreserver installs the scroll-anchor preserver.
func (c *ExpandController) SetScrollPreserver(s ScrollPreserver) {
	c.scroll = s
}

// ExpandChunk reveals more of a collapsed chunk: linesOfContext additional
// lines, or the whole chunk when linesOfContext <= 0. Replacement rows come
// from the rendering collaborator; boundary rows inside the old span are
// superseded by the new content. Deferred comment blocks whose lines became
// visible are placed in ascending order afterwards.
func (c *ExpandController) ExpandChunk(ctx context.Context, chunkIndex, linesOfContext int) error {
	if chunkIndex < 0 || chunkIndex >= len(c.table.Chunks) {
		return fmt.Errorf("expand: no chunk %d", chunkIndex)
	}
	chunk := &c.table.Chunks[chunkIndex]
	if !chunk.Collapsed {
		return nil
	}

	all := linesOfContext <= 0
	rows, err := c.source.ChunkRows(ctx, c.table.File, chunkIndex, linesOfContext, all)
	if err != nil {
		return fmt.Errorf("expand chunk %d: %w", chunkIndex, err)
	}

	c.applyReplacement(chunkIndex, rows)
	return nil
}

// ApplyRows splices already-fetched replacement rows for a chunk, for
// callers that run the row source asynchronously and apply the result on
// their own loop.
func (c *ExpandController) ApplyRows(chunkIndex int, rows []Row) error {
	if chunkIndex < 0 || chunkIndex >= len(c.table.Chunks) {
		return fmt.Errorf("expand: no chunk %d", chunkIndex)
	}
	c.applyReplacement(chunkIndex, rows)
	return nil
}

// CollapseChunk hides the middle of an expanded equal chunk again, keeping
// the configured context lines on each side. Visible comment blocks whose
// rows disappear move back to the deferred set, sorted by line number.
func (c *ExpandController) CollapseChunk(chunkIndex int) error {
	if chunkIndex < 0 || chunkIndex >= len(c.table.Chunks) {
		return fmt.Errorf("collapse: no chunk %d", chunkIndex)
	}
	chunk := &c.table.Chunks[chunkIndex]
	if chunk.Collapsed || chunk.Kind != ChunkEqual {
		return nil
	}

	visible := c.collectContentRows(chunk)
	ctxLines := c.opts.ContextLines
	if len(visible) <= 2*ctxLines {
		return nil
	}

	hidden := len(visible) - 2*ctxLines
	replacement := make([]Row, 0, 2*ctxLines+1)
	replacement = append(replacement, visible[:ctxLines]...)
	replacement = append(replacement, Row{
		Kind: RowBoundary,
		Text: fmt.Sprintf("%d lines hidden", hidden),
	})
	replacement = append(replacement, visible[len(visible)-ctxLines:]...)

	c.applyReplacement(chunkIndex, replacement)

	chunk = &c.table.Chunks[chunkIndex]
	chunk.Collapsed = true
	chunk.NumHidden = hidden
	return nil
}

// applyReplacement splices rows into the chunk span, refreshes collapse
// bookkeeping, restores the scroll anchor, re-places comments, and notifies
// geometry observers.
func (c *ExpandController) applyReplacement(chunkIndex int, rows []Row) {
	var offset int
	if c.scroll != nil {
		offset = c.scroll.Measure(c.table, chunkIndex)
	}

	// SpliceChunk cannot fail here: the index was validated by the caller.
	_ = c.table.SpliceChunk(chunkIndex, rows)

	chunk := &c.table.Chunks[chunkIndex]
	span := chunk.LastLine - chunk.FirstLine + 1
	visible := c.table.visibleLines(chunk)
	chunk.NumHidden = span - visible
	chunk.Collapsed = chunk.NumHidden > 0

	if c.scroll != nil {
		c.scroll.Restore(c.table, offset)
	}

	// Comment blocks hidden by a collapse defer; blocks revealed by an
	// expand place in ascending line order with chained search hints.
	c.placer.Reconcile()
	c.placer.PlacePending()

	for _, obs := range c.observers {
		obs.RowsChanged(c.table)
	}
}

func (c *ExpandController) collectContentRows(chunk *Chunk) []Row {
	var rows []Row
	for i := chunk.FirstRow; i <= chunk.LastRow && i < len(c.table.Rows); i++ {
		if c.table.Rows[i].Kind == RowContent {
			rows = append(rows, c.table.Rows[i])
		}
	}
	return rows
}
