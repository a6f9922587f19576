// Package document defines the handle contract between the viewer and the
// underlying rendering engine. The viewer only ever sees page counts and
// per-page geometry; everything else (pixels, text layers) stays behind
// whichever implementation the host picked.
package document

import (
	"context"
	"errors"
)

// ErrPageOutOfRange is returned by Page for an index outside [0, NumPages)
var ErrPageOutOfRange = errors.New("document: page index out of range")

// Viewport is the geometry of a page at a given scale
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is an opaque page descriptor resolved from a Document
type Page interface {
	// Viewport returns the page geometry scaled by scale. Scale 1 is the
	// page's natural size in CSS pixels (PDF points).
	Viewport(scale float64) Viewport
}

// Document is the handle the viewer navigates. Page may block (network,
// disk) and therefore takes a context; callers are expected to run it off
// the UI goroutine.
type Document interface {
	NumPages() int
	Page(ctx context.Context, index int) (Page, error)
}

// ImageSource is an optional capability of a Document: a URL for the
// rendered image of a page at a given scale and rotation. The viewer's
// default page layer type-asserts for it; documents without it render
// empty page boxes and leave drawing to a custom page renderer.
type ImageSource interface {
	PageImageURL(index int, scale float64, rotation int) string
}

// staticPage is a fixed-geometry page descriptor
type staticPage struct {
	width  float64
	height float64
}

func (p staticPage) Viewport(scale float64) Viewport {
	return Viewport{Width: p.width * scale, Height: p.height * scale}
}

// Static is a Document with a fixed page count and uniform page geometry.
// It is the fallback handle for hosts that lay pages out before the real
// engine has answered, and the handle tests are written against.
type Static struct {
	pages  int
	width  float64
	height float64
}

// NewStatic returns a Static document of pages pages sized width x height
// points each.
func NewStatic(pages int, width, height float64) *Static {
	return &Static{pages: pages, width: width, height: height}
}

// NumPages returns the page count
func (s *Static) NumPages() int { return s.pages }

// Page returns the fixed-geometry descriptor for index
func (s *Static) Page(ctx context.Context, index int) (Page, error) {
	if index < 0 || index >= s.pages {
		return nil, ErrPageOutOfRange
	}
	return staticPage{width: s.width, height: s.height}, nil
}
