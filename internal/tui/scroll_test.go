package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollEngineParksAnchorBelowTop(t *testing.T) {
	e := ScrollEngine{ContentHeight: 200, ViewportHeight: 40}

	assert.Equal(t, 100-anchorTopOffset, e.OffsetFor(100))
}

func TestScrollEngineClampsToBounds(t *testing.T) {
	e := ScrollEngine{ContentHeight: 200, ViewportHeight: 40}

	// near the top the offset cannot go negative
	assert.Equal(t, 0, e.OffsetFor(1))
	// near the bottom the offset cannot run past the content
	assert.Equal(t, 160, e.OffsetFor(199))
}

func TestScrollEngineShortContent(t *testing.T) {
	e := ScrollEngine{ContentHeight: 10, ViewportHeight: 40}

	assert.Equal(t, 0, e.OffsetFor(8))
}

func TestScrollEngineChromeCompensation(t *testing.T) {
	// chrome banner appears once the viewport has scrolled at all
	chrome := func(offset int) int {
		if offset > 0 {
			return 1
		}
		return 0
	}
	e := ScrollEngine{ContentHeight: 200, ViewportHeight: 40, Chrome: chrome}

	// first pass measures chrome at offset 0 (none), the corrective pass
	// measures it at the candidate offset where the banner is up
	got := e.OffsetFor(100)
	assert.Equal(t, 100-anchorTopOffset-1, got)

	// at the top the banner never appears and no compensation happens
	assert.Equal(t, 0, e.OffsetFor(2))
}
