package viewer

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/goPDFView/document"
)

// Plugin is a set of optional hooks into the viewer. Any subset may be
// set; nil hooks are skipped. Hooks of every kind fire in the order the
// plugins were given to the viewer, for install, uninstall, document
// load, state changes and render negotiation alike.
type Plugin struct {
	// Install is called exactly once when the viewer mounts. The
	// capability object stays valid for the whole installed lifetime
	// and may be retained.
	Install func(fns Functions)

	// Uninstall is called exactly once when the viewer dismounts
	Uninstall func(fns Functions)

	// OnDocumentLoad is called when a document handle becomes available
	OnDocumentLoad func(doc document.Document)

	// OnViewerStateChange intercepts every state transition. The hook
	// receives the state produced by the previous plugin's hook and
	// returns the state to hand to the next one; the last result
	// becomes canonical.
	OnViewerStateChange func(state State) State

	// RenderViewer rewrites the slot chain during render negotiation.
	// The hook receives the chain produced so far and returns the chain
	// to use next; returning nil keeps the current chain.
	RenderViewer func(rc RenderContext) *Slot
}

// Functions is the capability object handed to every plugin. It is shared
// by all plugins of one viewer and never cloned; all calls are serialized
// by the single UI goroutine, and plugins must mutate viewer state only
// through these methods.
type Functions interface {
	// PagesRef returns the element ID of the scrollable pages
	// container, for plugins that need to read or drive scrolling
	// directly. The element may not exist yet; look it up per use and
	// check liveness.
	PagesRef() string

	// ViewerState returns the latest canonical state snapshot
	ViewerState() State

	// SetViewerState routes next through every installed plugin's
	// OnViewerStateChange hook in install order and makes the final
	// result canonical.
	SetViewerState(next State)

	// JumpToPage scrolls to the page and makes it current. Out of
	// range indexes are ignored.
	JumpToPage(index int)

	// OpenFile validates the file's extension, reads it, and forwards
	// the content to the host. Unsupported extensions are ignored.
	OpenFile(f File)

	// Rotate sets the rotation in degrees
	Rotate(degrees int)

	// Zoom resolves the level against the current geometry and makes
	// the resulting factor the canonical scale
	Zoom(level ZoomLevel)
}

// RenderContext is what a RenderViewer hook gets to work with: the chain
// built so far, the outer container's element ID, the document, the
// page's natural size (rotation already applied) and the capability
// object.
type RenderContext struct {
	Slot        *Slot
	ContainerID string
	Doc         document.Document
	PageWidth   float64
	PageHeight  float64
	Rotation    int
	Functions   Functions
}

// RenderPageProps describe one page to a custom page renderer
type RenderPageProps struct {
	// Index is the zero-based page index
	Index int
	// Width and Height are the page box size in CSS pixels at the
	// current scale, rotation applied.
	Width  float64
	Height float64
	Scale  float64
	// Rotation is normalized to 0, 90, 180 or 270
	Rotation int
	Doc      document.Document
	// Match is the active search hit, NoMatch when there is none
	Match   Match
	Keyword string
}
