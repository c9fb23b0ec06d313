package comments

import (
	"strconv"

	"github.com/colonyops/revdeck/internal/core/difftable"
)

// RegionBlock anchors comments to an x/y/width/height region of
// two-dimensional reviewable content.
type RegionBlock struct {
	base

	x, y, width, height int

	// boundsFrozen latches the instant any comment on the region becomes
	// permanent, so other reviewers' anchors stay valid through later
	// draft churn.
	boundsFrozen bool
}

var _ Block = (*RegionBlock)(nil)

// NewRegionBlock constructs a region block. Bounds arrive as stringified
// integers in the serialized extra-data and are parsed leniently: a bad
// value reads as zero.
func NewRegionBlock(store Store, extra map[string]string, serialized []difftable.SerializedComment) *RegionBlock {
	b := &RegionBlock{
		x:      parseBound(extra["x"]),
		y:      parseBound(extra["y"]),
		width:  parseBound(extra["width"]),
		height: parseBound(extra["height"]),
	}
	b.init(b, store, serialized)
	if len(b.published) > 0 {
		b.boundsFrozen = true
	}
	return b
}

// Bounds returns the region's position and size.
func (b *RegionBlock) Bounds() (x, y, width, height int) {
	return b.x, b.y, b.width, b.height
}

// CanUpdateBounds reports whether the region may still move or resize.
// Bounds freeze permanently once any published comment exists, even if the
// draft is later deleted and recreated.
func (b *RegionBlock) CanUpdateBounds() bool {
	if b.boundsFrozen || len(b.published) > 0 {
		return false
	}
	return true
}

// SetBounds updates the region when still allowed. Returns whether the
// update was applied.
func (b *RegionBlock) SetBounds(x, y, width, height int) bool {
	if !b.CanUpdateBounds() {
		return false
	}
	b.x, b.y, b.width, b.height = x, y, width, height
	return true
}

// AddPublished freezes bounds in addition to the base behavior.
func (b *RegionBlock) AddPublished(c Comment) {
	b.base.AddPublished(c)
	b.boundsFrozen = true
}

// ExtraData returns the bounds as stringified integers for the comment
// resource's extra-data payload.
func (b *RegionBlock) ExtraData() map[string]string {
	return map[string]string{
		"x":      strconv.Itoa(b.x),
		"y":      strconv.Itoa(b.y),
		"width":  strconv.Itoa(b.width),
		"height": strconv.Itoa(b.height),
	}
}

func parseBound(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
