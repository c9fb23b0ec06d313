package difftable

// FindRow locates the content row whose virtual line number equals linenum.
// startHint and endHint (0 = unset) seed the search window from a previous
// lookup in the same table; they only ever narrow where the search begins,
// never what it can find. Returns the row index and whether it was found.
//
// Comment placement calls this with monotonically ascending line numbers,
// passing each result's row index as the next call's startHint, which keeps
// the amortized cost logarithmic even on very large tables.
//
// The search runs in three layers:
//
//  1. a direct-index guess that hits immediately when no rows are collapsed
//     before the line,
//  2. an interpolation shortcut at every probe, exploiting that line numbers
//     and row indices differ by a constant within one collapsed-state region,
//  3. a bounded binary search that probes outward past rows with no line
//     number (boundary rows) and bails out as not-found the moment neither
//     bound moves, which means the line sits inside a still-collapsed region.
func (t *Table) FindRow(linenum, startHint, endHint int) (int, bool) {
	nRows := len(t.Rows)
	if linenum <= 0 || nRows <= headerOffset {
		return 0, false
	}

	// Fast path: with nothing collapsed above it, a line sits exactly at
	// its own offset past the header row.
	if guess := headerOffset + linenum - 1; guess < nRows {
		if t.Rows[guess].Line == linenum {
			return guess, true
		}
	}

	low := headerOffset
	high := nRows - 1
	hinted := false

	if startHint > 0 && startHint < nRows {
		// A hint row past the target would invert the window; ignore it.
		if t.Rows[startHint].Line <= linenum {
			low = startHint
			hinted = true
		}
	}
	if endHint > 0 && endHint < nRows {
		// The previous pass may have landed exactly here.
		if t.Rows[endHint].Line == linenum {
			return endHint, true
		}
		if endHint < high {
			high = endHint
			hinted = true
		}
	}

	if i, ok := t.searchWindow(linenum, low, high); ok {
		return i, true
	}
	if hinted {
		// Hints are advisory. A miss inside a hinted window may just mean
		// the hints were wrong, so fall back to the whole table.
		return t.searchWindow(linenum, headerOffset, nRows-1)
	}
	return 0, false
}

// searchWindow runs the hybrid binary search over an inclusive row-index
// window.
func (t *Table) searchWindow(linenum, low, high int) (int, bool) {
	nRows := len(t.Rows)
	if low > high {
		return 0, false
	}

	// The binary search below never re-examines its own bounds, so check
	// them once up front. This also covers degenerate two-row tables.
	if t.Rows[low].Line == linenum {
		return low, true
	}
	if t.Rows[high].Line == linenum {
		return high, true
	}

	for i := (low + high) / 2; low < high-1; {
		value := t.Rows[i].Line

		if value == 0 {
			// Boundary or header row. Probe outward by growing offsets
			// until a numbered row appears within the window.
			found := false
			for k := 1; k <= (high-low)/2; k++ {
				if i+k <= high && t.Rows[i+k].Line != 0 {
					i += k
					value = t.Rows[i].Line
					found = true
					break
				}
				if i-k >= low && t.Rows[i-k].Line != 0 {
					i -= k
					value = t.Rows[i].Line
					found = true
					break
				}
			}
			if !found {
				return 0, false
			}
		}

		oldLow, oldHigh := low, high
		switch {
		case value > linenum:
			high = i
		case value < linenum:
			low = i
		default:
			return i, true
		}

		// Interpolation shortcut: if the target lives in the same
		// collapsed-state region as the probe, it sits at a constant
		// offset from it.
		if guess := i + (linenum - value); guess >= 0 && guess < nRows {
			if t.Rows[guess].Line == linenum {
				return guess, true
			}
		}

		if low == oldLow && high == oldHigh {
			// Neither bound moved: the line is inside a collapsed region.
			return 0, false
		}
		i = (low + high) / 2
	}

	return 0, false
}
