package difftable

import (
	"sort"

	"github.com/colonyops/revdeck/internal/core/logging"
)

// Anchored is the minimal view of a comment block the placer needs: the
// virtual line range it is anchored to.
type Anchored interface {
	BeginLine() int
	NumLines() int
}

// Placer positions comment blocks onto a table's rows. Blocks whose anchor
// line is hidden inside a collapsed region stay deferred, sorted by line
// number, until an expand makes their row visible again.
type Placer struct {
	table    *Table
	visible  map[Anchored]int // block -> row index of its anchor line
	deferred []Anchored       // ascending by BeginLine
}

// NewPlacer creates a placer for the given table.
func NewPlacer(t *Table) *Placer {
	return &Placer{
		table:   t,
		visible: make(map[Anchored]int),
	}
}

// Add registers blocks for placement. They start deferred; call
// PlacePending to resolve them against the current rows.
func (p *Placer) Add(blocks ...Anchored) {
	p.deferred = append(p.deferred, blocks...)
	sortByLine(p.deferred)
}

// PlacePending walks the deferred set in ascending line order, locating each
// block's anchor row. Each successful lookup seeds the next one's search
// hint, which is what makes initial population of a large table cheap.
// Blocks whose line is still collapsed remain deferred.
func (p *Placer) PlacePending() {
	log := logging.Component("placer")

	var still []Anchored
	hint := 0
	for _, block := range p.deferred {
		row, ok := p.table.FindRow(block.BeginLine(), hint, 0)
		if !ok {
			log.Debug().
				Int("line", block.BeginLine()).
				Msg("comment line inside collapsed region, deferring")
			still = append(still, block)
			continue
		}
		p.visible[block] = row
		hint = row
	}
	p.deferred = still
}

// Reconcile re-resolves every visible block after row membership changed.
// Blocks whose row vanished (collapsed away) move back to the deferred set.
func (p *Placer) Reconcile() {
	blocks := make([]Anchored, 0, len(p.visible))
	for block := range p.visible {
		blocks = append(blocks, block)
	}
	sortByLine(blocks)

	hint := 0
	for _, block := range blocks {
		row, ok := p.table.FindRow(block.BeginLine(), hint, 0)
		if !ok {
			delete(p.visible, block)
			p.deferred = append(p.deferred, block)
			continue
		}
		p.visible[block] = row
		hint = row
	}
	sortByLine(p.deferred)
}

// RowOf returns the anchor row of a placed block.
func (p *Placer) RowOf(block Anchored) (int, bool) {
	row, ok := p.visible[block]
	return row, ok
}

// Remove forgets a block entirely, placed or deferred.
func (p *Placer) Remove(block Anchored) {
	delete(p.visible, block)
	for i, b := range p.deferred {
		if b == block {
			p.deferred = append(p.deferred[:i], p.deferred[i+1:]...)
			break
		}
	}
}

// Visible returns the placed blocks in ascending row order.
func (p *Placer) Visible() []Anchored {
	blocks := make([]Anchored, 0, len(p.visible))
	for block := range p.visible {
		blocks = append(blocks, block)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return p.visible[blocks[i]] < p.visible[blocks[j]]
	})
	return blocks
}

// Deferred returns the blocks currently waiting on a collapsed region, in
// ascending line order.
func (p *Placer) Deferred() []Anchored {
	return p.deferred
}

func sortByLine(blocks []Anchored) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].BeginLine() < blocks[j].BeginLine()
	})
}
