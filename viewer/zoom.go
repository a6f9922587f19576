package viewer

import "math"

// Pixel allowances used by the fit computations and the page layout. The
// scrollbar allowance is reserved horizontally inside the scroll
// container; the padding is applied above and below every page.
const (
	scrollBarWidth = 17.0
	pagePadding    = 8.0
)

type zoomMode int

const (
	zoomKeep zoomMode = iota
	zoomFactor
	zoomActualSize
	zoomPageFit
	zoomPageWidth
)

// ZoomLevel selects a scale for the viewer: either a numeric factor or
// one of the symbolic fit levels computed from the container geometry.
// The zero value means "keep the current scale".
type ZoomLevel struct {
	mode   zoomMode
	factor float64
}

// Symbolic zoom levels. ActualSize is factor 1, PageFit fits the whole
// page inside the container, PageWidth fits the page width only.
var (
	ActualSize = ZoomLevel{mode: zoomActualSize}
	PageFit    = ZoomLevel{mode: zoomPageFit}
	PageWidth  = ZoomLevel{mode: zoomPageWidth}
)

// ZoomTo returns the zoom level for a fixed numeric factor
func ZoomTo(factor float64) ZoomLevel {
	return ZoomLevel{mode: zoomFactor, factor: factor}
}

// symbolic reports whether the level is one of the named levels, which
// need container geometry to resolve and force a re-zoom when used as a
// destination's scale intent.
func (z ZoomLevel) symbolic() bool {
	switch z.mode {
	case zoomActualSize, zoomPageFit, zoomPageWidth:
		return true
	}
	return false
}

// fitScale resolves a zoom level against the container size W x H and the
// page's natural size w x h, all in CSS pixels. The width fits reserve
// the scrollbar allowance, the height fit reserves the page padding on
// both edges. ok is false when the level cannot be resolved (zero value,
// non-positive factor, degenerate geometry).
func fitScale(level ZoomLevel, containerWidth, containerHeight, pageWidth, pageHeight float64) (scale float64, ok bool) {
	switch level.mode {
	case zoomFactor:
		if level.factor <= 0 {
			return 0, false
		}
		return level.factor, true
	case zoomActualSize:
		return 1, true
	case zoomPageFit:
		if pageWidth <= 0 || pageHeight <= 0 {
			return 0, false
		}
		widthFit := (containerWidth - scrollBarWidth) / pageWidth
		heightFit := (containerHeight - 2*pagePadding) / pageHeight
		return math.Min(widthFit, heightFit), true
	case zoomPageWidth:
		if pageWidth <= 0 {
			return 0, false
		}
		return (containerWidth - scrollBarWidth) / pageWidth, true
	}
	return 0, false
}
