package comments

import "github.com/colonyops/revdeck/internal/core/difftable"

// ScreenshotBlock anchors comments to a whole screenshot attachment.
type ScreenshotBlock struct {
	base

	ScreenshotID int64
}

var _ Block = (*ScreenshotBlock)(nil)

// NewScreenshotBlock constructs a block covering one screenshot.
func NewScreenshotBlock(store Store, screenshotID int64, serialized []difftable.SerializedComment) *ScreenshotBlock {
	b := &ScreenshotBlock{ScreenshotID: screenshotID}
	b.init(b, store, serialized)
	return b
}
