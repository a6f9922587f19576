package viewer

import "math"

// pageVisibility holds one visibility ratio per page. The slice is
// allocated once per document and mutated in place, so ratios reported
// between renders are never lost.
type pageVisibility struct {
	ratios []float64
}

func newPageVisibility(pages int) *pageVisibility {
	return &pageVisibility{ratios: make([]float64, pages)}
}

// set records the ratio for page and reports whether the page index was
// in range. Ratios are clamped to [0, 1].
func (pv *pageVisibility) set(page int, ratio float64) bool {
	if page < 0 || page >= len(pv.ratios) {
		return false
	}
	pv.ratios[page] = math.Min(1, math.Max(0, ratio))
	return true
}

// mostVisible returns the index with the highest ratio, or -1 for an
// empty document. Only a strictly greater ratio displaces the running
// maximum, so the first of several tied pages wins.
func (pv *pageVisibility) mostVisible() int {
	if len(pv.ratios) == 0 {
		return -1
	}
	best := 0
	for i, r := range pv.ratios {
		if r > pv.ratios[best] {
			best = i
		}
	}
	return best
}

// visibleRatio returns the fraction of a page, spanning
// [pageTop, pageTop+pageHeight) in content coordinates, that lies inside
// the viewport [scrollTop, scrollTop+viewportHeight).
func visibleRatio(pageTop, pageHeight, scrollTop, viewportHeight float64) float64 {
	if pageHeight <= 0 {
		return 0
	}
	top := math.Max(pageTop, scrollTop)
	bottom := math.Min(pageTop+pageHeight, scrollTop+viewportHeight)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / pageHeight
}
