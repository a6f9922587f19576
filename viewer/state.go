// Package viewer implements a plugin-extensible paginated document viewer
// component for go-app. The component owns the canonical viewer state
// (open file, page index, rotation, scale) and exposes a capability object
// to an ordered list of plugins, which can observe state transitions,
// rewrite them, and wrap the rendered tree through a slot chain negotiated
// on every render.
package viewer

// State is the canonical viewer snapshot. It is owned by the Viewer
// component; every plugin-visible mutation funnels through the viewer's
// internal setter, so plugins observe each other's changes on the next
// read rather than synchronously.
type State struct {
	// File is the name of the open file, empty when the document
	// handle carries no name.
	File string
	// Page is the current zero-based page index.
	Page int
	// Rotation is in degrees. Navigation and rendering normalize it,
	// state change hooks see it exactly as set.
	Rotation int
	// Scale is the current zoom factor, 1 being the page's natural size.
	Scale float64
}

// Match identifies one search hit: a page index and the index of the
// match within that page.
type Match struct {
	Page  int `json:"page"`
	Index int `json:"index"`
}

// NoMatch is the sentinel for "no active match"
var NoMatch = Match{Page: -1, Index: -1}

// PageSize is fallback page geometry used before the document handle has
// answered, plus an optional initial scale.
type PageSize struct {
	Width  float64
	Height float64
	Scale  float64
}

// File is a one-shot deferred read of a file picked by the user. Read is
// called at most once per OpenFile call, off the UI goroutine.
type File struct {
	Name string
	Read func() ([]byte, error)
}
