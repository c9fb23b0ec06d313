package tui

// anchorTopOffset is how many rows below the top of the viewport a selected
// anchor is parked, keeping a little context above it.
const anchorTopOffset = 3

// ChromeMeasurer reports the number of viewport rows consumed by fixed
// chrome (the sticky file banner) at a given scroll offset. The height can
// itself depend on the offset: the banner only appears once its file header
// has scrolled off the top.
type ChromeMeasurer func(offset int) int

// ScrollEngine converts anchor rows into viewport offsets, compensating for
// chrome whose height depends on the resulting offset.
type ScrollEngine struct {
	ContentHeight  int
	ViewportHeight int
	Chrome         ChromeMeasurer
}

// OffsetFor returns the viewport offset that parks row at the anchor
// position. Because the chrome's height can change once the viewport moves,
// the target is recomputed with the chrome measured at the first candidate
// offset; one corrective pass is enough since chrome height is monotone in
// the offset.
func (e ScrollEngine) OffsetFor(row int) int {
	target := e.clamp(row - anchorTopOffset - e.chrome(0))
	corrected := e.clamp(row - anchorTopOffset - e.chrome(target))
	return corrected
}

func (e ScrollEngine) chrome(offset int) int {
	if e.Chrome == nil {
		return 0
	}
	return e.Chrome(offset)
}

func (e ScrollEngine) clamp(offset int) int {
	max := e.ContentHeight - e.ViewportHeight
	if max < 0 {
		max = 0
	}
	if offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
