package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// highlightDebounce coalesces geometry-changing events before the chunk
// highlight is recomputed.
const highlightDebounce = 50 * time.Millisecond

// HighlightRect is the selected chunk's rectangle in viewport coordinates.
// The four sides are drawn as independent segments so partially visible
// chunks keep whichever edges are on screen.
type HighlightRect struct {
	Top    int // viewport row of the top edge, -1 when scrolled off
	Bottom int // viewport row of the bottom edge, -1 when scrolled off
	Left   int
	Right  int
	// FirstRow/LastRow are the visible vertical span for the side edges.
	FirstRow int
	LastRow  int
	Visible  bool
}

// ComputeHighlight maps a chunk's table-row span to viewport coordinates.
// firstRow/lastRow are absolute content rows, offset/height describe the
// viewport window, width the rendered line width.
func ComputeHighlight(firstRow, lastRow, offset, height, width int) HighlightRect {
	if height <= 0 || lastRow < offset || firstRow >= offset+height {
		return HighlightRect{Top: -1, Bottom: -1}
	}

	rect := HighlightRect{
		Top:     firstRow - offset,
		Bottom:  lastRow - offset,
		Left:    0,
		Right:   width - 1,
		Visible: true,
	}
	if rect.Top < 0 {
		rect.FirstRow = 0
		rect.Top = -1 // top edge scrolled off
	} else {
		rect.FirstRow = rect.Top
	}
	if rect.Bottom >= height {
		rect.LastRow = height - 1
		rect.Bottom = -1 // bottom edge scrolled off
	} else {
		rect.LastRow = rect.Bottom
	}
	return rect
}

// highlightTickMsg fires when the debounce window for one recompute
// generation closes.
type highlightTickMsg struct {
	generation int
}

// HighlightDebouncer coalesces bursts of geometry changes into one
// recompute. Each Invalidate bumps the generation; only the tick carrying
// the latest generation triggers work.
type HighlightDebouncer struct {
	generation int
}

// Invalidate schedules a recompute after the debounce window.
func (d *HighlightDebouncer) Invalidate() tea.Cmd {
	d.generation++
	gen := d.generation
	return tea.Tick(highlightDebounce, func(time.Time) tea.Msg {
		return highlightTickMsg{generation: gen}
	})
}

// Due reports whether a tick is the most recent generation and should
// trigger the recompute. Stale ticks from superseded bursts are dropped.
func (d *HighlightDebouncer) Due(msg highlightTickMsg) bool {
	return msg.generation == d.generation
}
