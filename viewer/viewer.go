package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/goPDFView/document"
)

// Named actions understood by ExecuteNamedAction. These are the literal
// action names carried by in-document links.
const (
	ActionFirstPage = "FirstPage"
	ActionLastPage  = "LastPage"
	ActionNextPage  = "NextPage"
	ActionPrevPage  = "PrevPage"
)

// viewerSeq numbers viewer instances so every mounted viewer gets its own
// element IDs.
var viewerSeq atomic.Uint64

// namedDocument is implemented by document handles that know the name of
// the file they came from.
type namedDocument interface {
	Name() string
}

// Viewer is the document viewer component. The host mounts it with a
// document handle, initial view options and an ordered list of plugins;
// afterwards plugins drive it through the Functions capability object and
// the host observes it through the On* callbacks.
//
// All exported methods must be called from the UI goroutine (event
// handlers, dispatched functions), which is where go-app delivers every
// event; the viewer relies on that serialization instead of locking.
type Viewer struct {
	app.Compo

	// Doc is the open document handle. Mounting with a different handle
	// requires a fresh component.
	Doc document.Document

	// DefaultScale is the zoom applied on mount. Numeric levels apply
	// immediately; fit levels resolve once the page geometry arrives.
	// The zero value keeps scale 1 (or PageSize.Scale when set).
	DefaultScale ZoomLevel

	// InitialPage is the zero-based page shown first. Out of range
	// values fall back to 0.
	InitialPage int

	// Keyword is the active search term, handed to page renderers for
	// highlighting.
	Keyword string

	// PageSize is fallback page geometry used until the document
	// handle has answered.
	PageSize PageSize

	// Plugins is the fixed, ordered plugin list. It must not change
	// for the lifetime of the component.
	Plugins []*Plugin

	// RenderPage overrides the default page layer
	RenderPage func(props RenderPageProps) app.UI

	// Host callbacks, all optional.
	OnDocumentLoad   func(doc document.Document)
	OnPageChange     func(page int, doc document.Document)
	OnZoom           func(scale float64, doc document.Document)
	OnOpenFile       func(name string, data []byte)
	OnOpenFileFailed func(name string, err error)

	// Log defaults to slog.Default
	Log *slog.Logger

	ctx        app.Context
	state      State
	match      Match
	visibility *pageVisibility

	// pageWidth and pageHeight are the natural page size at scale 1,
	// fetched from the document handle after mount.
	pageWidth  float64
	pageHeight float64

	// version is bumped on every state transition and on dismount.
	// Asynchronous continuations capture it at call time and drop
	// their result when it has moved on.
	version uint64

	defaultScaleApplied bool

	containerID string
	pagesID     string

	// measure overrides container geometry lookup in tests
	measure func() (width, height float64, ok bool)
}

var _ Functions = (*Viewer)(nil)

// OnMount installs the plugins and announces the document. Install order
// is list order, and each Install hook fires exactly once per mount.
func (v *Viewer) OnMount(ctx app.Context) {
	v.ctx = ctx
	v.ensureIDs()

	pages := 0
	if v.Doc != nil {
		pages = v.Doc.NumPages()
	}
	v.visibility = newPageVisibility(pages)
	v.match = NoMatch
	v.pageWidth = v.PageSize.Width
	v.pageHeight = v.PageSize.Height
	v.defaultScaleApplied = false

	page := v.InitialPage
	if page < 0 || page >= pages {
		page = 0
	}

	scale := v.PageSize.Scale
	if scale <= 0 {
		scale = 1
	}
	switch v.DefaultScale.mode {
	case zoomFactor, zoomActualSize:
		if s, ok := fitScale(v.DefaultScale, 0, 0, 0, 0); ok {
			scale = s
		}
		v.defaultScaleApplied = true
	}

	name := ""
	if nd, ok := v.Doc.(namedDocument); ok {
		name = nd.Name()
	}
	v.state = State{File: name, Page: page, Rotation: 0, Scale: scale}

	fns := Functions(v)
	for _, p := range v.Plugins {
		if p != nil && p.Install != nil {
			p.Install(fns)
		}
	}

	if v.Doc != nil {
		if v.OnDocumentLoad != nil {
			v.OnDocumentLoad(v.Doc)
		}
		for _, p := range v.Plugins {
			if p != nil && p.OnDocumentLoad != nil {
				p.OnDocumentLoad(v.Doc)
			}
		}
		if ctx.Context != nil {
			v.fetchPageSize(ctx, page)
		}
	}

	if page > 0 {
		v.scrollToPage(page)
	}
	v.log().Debug("Viewer mounted", "file", name, "pages", pages, "page", page, "scale", scale)
}

// OnDismount uninstalls the plugins in the same list order
func (v *Viewer) OnDismount() {
	fns := Functions(v)
	for _, p := range v.Plugins {
		if p != nil && p.Uninstall != nil {
			p.Uninstall(fns)
		}
	}
	v.ctx = app.Context{}
	v.version++
	v.log().Debug("Viewer dismounted")
}

// Render assembles the baseline slot chain, offers it to every plugin's
// RenderViewer hook in install order, and materializes the final chain.
func (v *Viewer) Render() app.UI {
	v.ensureIDs()

	pageWidth, pageHeight := v.effectivePageSize()
	chain := v.baselineChain(pageWidth, pageHeight)

	rc := RenderContext{
		ContainerID: v.containerID,
		Doc:         v.Doc,
		PageWidth:   pageWidth,
		PageHeight:  pageHeight,
		Rotation:    v.displayRotation(),
		Functions:   v,
	}
	for _, p := range v.Plugins {
		if p == nil || p.RenderViewer == nil {
			continue
		}
		rc.Slot = chain
		if next := p.RenderViewer(rc); next != nil {
			chain = next
		}
	}
	return chain.UI()
}

// PagesRef returns the element ID of the scrollable pages container
func (v *Viewer) PagesRef() string {
	v.ensureIDs()
	return v.pagesID
}

// ViewerState returns the latest canonical state snapshot
func (v *Viewer) ViewerState() State {
	return v.state
}

// SetViewerState routes next through every plugin's OnViewerStateChange
// hook in install order; the final result becomes canonical and is what
// the next ViewerState call returns.
func (v *Viewer) SetViewerState(next State) {
	v.applyState(next)
}

// JumpToPage makes index the current page and scrolls its top to the
// container's scroll offset. Indexes outside the document are ignored.
func (v *Viewer) JumpToPage(index int) {
	if v.Doc == nil || index < 0 || index >= v.Doc.NumPages() {
		return
	}
	st := v.state
	st.Page = index
	v.applyState(st)
	v.notifyPageChange()
	v.scrollToPage(index)
}

// ExecuteNamedAction dispatches a named action from an in-document link.
// Unknown actions and page moves past either end of the document are
// ignored.
func (v *Viewer) ExecuteNamedAction(action string) {
	if v.Doc == nil {
		return
	}
	switch action {
	case ActionFirstPage:
		v.JumpToPage(0)
	case ActionLastPage:
		v.JumpToPage(v.Doc.NumPages() - 1)
	case ActionNextPage:
		v.JumpToPage(v.state.Page + 1)
	case ActionPrevPage:
		v.JumpToPage(v.state.Page - 1)
	}
}

// JumpToDest navigates to a named destination: a page, a vertical offset
// measured from the page bottom at unit scale, and an optional zoom
// intent. The page geometry resolves asynchronously; a result arriving
// after a newer navigation, zoom, rotation or state change is dropped.
func (v *Viewer) JumpToDest(pageIndex int, bottomOffset float64, scaleTo ZoomLevel) {
	if v.Doc == nil || pageIndex < 0 || pageIndex >= v.Doc.NumPages() {
		return
	}
	if v.ctx.Context == nil {
		return
	}
	token := v.version
	doc := v.Doc
	ctx := v.ctx
	ctx.Async(func() {
		page, err := doc.Page(context.Background(), pageIndex)
		if err != nil {
			v.log().Warn("Failed to resolve destination geometry", "page", pageIndex, "error", err)
			return
		}
		vp := page.Viewport(1)
		ctx.Dispatch(func(app.Context) {
			v.completeJumpToDest(token, pageIndex, vp, bottomOffset, scaleTo)
		})
	})
}

// completeJumpToDest applies a resolved destination unless it has been
// superseded.
func (v *Viewer) completeJumpToDest(token uint64, pageIndex int, vp document.Viewport, bottomOffset float64, scaleTo ZoomLevel) {
	if token != v.version {
		return
	}
	if scaleTo.symbolic() {
		v.Zoom(scaleTo)
		v.setScrollTop(v.pageTop(pageIndex))
		return
	}
	v.setScrollTop(v.pageTop(pageIndex) + (vp.Height-bottomOffset)*v.currentScale())
}

// Zoom resolves level against the live container and page geometry and
// makes the result the canonical scale. Without a mounted container the
// call is ignored.
func (v *Viewer) Zoom(level ZoomLevel) {
	containerWidth, containerHeight, ok := v.containerSize()
	if !ok {
		return
	}
	pageWidth, pageHeight := v.effectivePageSize()
	scale, ok := fitScale(level, containerWidth, containerHeight, pageWidth, pageHeight)
	if !ok {
		return
	}
	st := v.state
	st.Scale = scale
	v.applyState(st)
	if v.OnZoom != nil {
		v.OnZoom(v.state.Scale, v.Doc)
	}
}

// Rotate sets the rotation in degrees. Values are taken as given; layout
// and rendering normalize to quarter turns.
func (v *Viewer) Rotate(degrees int) {
	st := v.state
	st.Rotation = degrees
	v.applyState(st)
}

// OpenFile forwards a user-picked file to the host. Files without the
// .pdf extension are ignored, the comparison is case-insensitive. The
// content is read off the UI goroutine; the host sees either OnOpenFile
// with the full content or OnOpenFileFailed with the read error.
func (v *Viewer) OpenFile(f File) {
	if !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
		return
	}
	if f.Read == nil {
		return
	}
	if v.ctx.Context == nil {
		data, err := f.Read()
		v.completeOpenFile(f.Name, data, err)
		return
	}
	ctx := v.ctx
	ctx.Async(func() {
		data, err := f.Read()
		ctx.Dispatch(func(app.Context) {
			v.completeOpenFile(f.Name, data, err)
		})
	})
}

func (v *Viewer) completeOpenFile(name string, data []byte, err error) {
	if err != nil {
		v.log().Warn("Failed to read file", "file", name, "error", err)
		if v.OnOpenFileFailed != nil {
			v.OnOpenFileFailed(name, err)
		}
		return
	}
	if v.OnOpenFile != nil {
		v.OnOpenFile(name, data)
	}
}

// SetMatch records the active search hit and brings its page into view.
// Pass NoMatch to clear the highlight.
func (v *Viewer) SetMatch(m Match) {
	v.match = m
	if v.Doc != nil && m.Page >= 0 && m.Page < v.Doc.NumPages() {
		v.JumpToPage(m.Page)
	}
}

// Match returns the active search hit
func (v *Viewer) Match() Match {
	return v.match
}

// ReportPageVisibility records a page's visibility ratio and re-selects
// the most visible page. When the selection moves, the new page becomes
// current through the regular state transition path.
func (v *Viewer) ReportPageVisibility(page int, ratio float64) {
	if v.visibility == nil || !v.visibility.set(page, ratio) {
		return
	}
	best := v.visibility.mostVisible()
	if best < 0 || best == v.state.Page {
		return
	}
	st := v.state
	st.Page = best
	v.applyState(st)
	v.notifyPageChange()
}

// applyState is the single choke point for every plugin-visible state
// transition: hooks run in install order, each seeing the previous
// hook's output, and the final result becomes canonical. Bumping the
// version here invalidates any in-flight asynchronous continuation.
func (v *Viewer) applyState(next State) {
	for _, p := range v.Plugins {
		if p != nil && p.OnViewerStateChange != nil {
			next = p.OnViewerStateChange(next)
		}
	}
	v.state = next
	v.version++
}

func (v *Viewer) notifyPageChange() {
	if v.OnPageChange != nil {
		v.OnPageChange(v.state.Page, v.Doc)
	}
}

// fetchPageSize resolves the natural page size off the UI goroutine and
// applies it once it arrives. A fit-mode DefaultScale resolves here,
// since it needs the geometry.
func (v *Viewer) fetchPageSize(ctx app.Context, pageIndex int) {
	doc := v.Doc
	ctx.Async(func() {
		page, err := doc.Page(context.Background(), pageIndex)
		if err != nil {
			v.log().Warn("Failed to fetch page geometry", "page", pageIndex, "error", err)
			return
		}
		vp := page.Viewport(1)
		ctx.Dispatch(func(app.Context) {
			v.completePageSize(vp)
		})
	})
}

func (v *Viewer) completePageSize(vp document.Viewport) {
	if !v.Mounted() {
		return
	}
	v.pageWidth = vp.Width
	v.pageHeight = vp.Height
	if v.DefaultScale.symbolic() && !v.defaultScaleApplied {
		v.defaultScaleApplied = true
		v.Zoom(v.DefaultScale)
	}
}

// baselineChain builds the two-level chain the negotiation starts from:
// a full-height outer container, then the scrollable pages region with
// one wrapper per page.
func (v *Viewer) baselineChain(pageWidth, pageHeight float64) *Slot {
	scale := v.currentScale()
	width := pageWidth * scale
	height := pageHeight * scale

	pages := 0
	if v.Doc != nil {
		pages = v.Doc.NumPages()
	}
	children := make([]app.UI, 0, pages)
	for i := 0; i < pages; i++ {
		children = append(children, v.renderPageWrapper(i, width, height))
	}

	inner := &Slot{
		Attrs: Attributes{
			ID:      v.pagesID,
			Classes: []string{"viewer-pages"},
			Styles: map[string]string{
				"height":   "100%",
				"overflow": "auto",
				"position": "relative",
			},
			Events: map[string]app.EventHandler{
				"scroll": v.onScroll,
			},
		},
		Children: children,
	}
	return &Slot{
		Attrs: Attributes{
			ID:      v.containerID,
			Classes: []string{"viewer-container"},
			Styles:  map[string]string{"height": "100%"},
		},
		Sub: inner,
	}
}

func (v *Viewer) renderPageWrapper(index int, width, height float64) app.UI {
	pageClasses := []string{"viewer-page"}
	if v.match.Page == index {
		pageClasses = append(pageClasses, "viewer-page-match")
	}
	return app.Div().
		ID(v.pageID(index)).
		Class("viewer-page-wrapper").
		Style("padding", px(pagePadding)+" 0").
		Body(
			app.Div().
				Class(pageClasses...).
				Style("width", px(width)).
				Style("height", px(height)).
				Style("margin", "0 auto").
				Style("position", "relative").
				Body(v.renderPageContent(index, width, height)),
		)
}

// renderPageContent renders the page layer: the host override when set,
// otherwise an image layer for documents that can serve page images, and
// an empty box as the last resort.
func (v *Viewer) renderPageContent(index int, width, height float64) app.UI {
	props := RenderPageProps{
		Index:    index,
		Width:    width,
		Height:   height,
		Scale:    v.currentScale(),
		Rotation: v.displayRotation(),
		Doc:      v.Doc,
		Match:    v.match,
		Keyword:  v.Keyword,
	}
	if v.RenderPage != nil {
		return v.RenderPage(props)
	}
	if src, ok := v.Doc.(document.ImageSource); ok {
		return app.Img().
			Class("viewer-page-image").
			Alt(fmt.Sprintf("Page %d", index+1)).
			Src(src.PageImageURL(index, props.Scale, props.Rotation)).
			Style("width", "100%").
			Style("height", "100%")
	}
	return app.Div().Class("viewer-page-empty")
}

// onScroll recomputes every page's visibility ratio from the scroll
// geometry and lets the tracker settle on the most visible page.
func (v *Viewer) onScroll(ctx app.Context, e app.Event) {
	if v.visibility == nil {
		return
	}
	src := ctx.JSSrc()
	if !src.Truthy() {
		return
	}
	scrollTop := src.Get("scrollTop").Float()
	viewportHeight := src.Get("clientHeight").Float()

	_, pageHeight := v.scaledPageSize()
	rowHeight := pageHeight + 2*pagePadding
	for i := range v.visibility.ratios {
		top := float64(i)*rowHeight + pagePadding
		v.ReportPageVisibility(i, visibleRatio(top, pageHeight, scrollTop, viewportHeight))
	}
}

// containerSize returns the scroll container's client size
func (v *Viewer) containerSize() (width, height float64, ok bool) {
	if v.measure != nil {
		return v.measure()
	}
	if !app.IsClient {
		return 0, 0, false
	}
	el := app.Window().GetElementByID(v.pagesID)
	if !el.Truthy() {
		return 0, 0, false
	}
	return el.Get("clientWidth").Float(), el.Get("clientHeight").Float(), true
}

func (v *Viewer) scrollToPage(index int) {
	v.setScrollTop(v.pageTop(index))
}

func (v *Viewer) setScrollTop(top float64) {
	if !app.IsClient {
		return
	}
	el := app.Window().GetElementByID(v.pagesID)
	if !el.Truthy() {
		return
	}
	el.Set("scrollTop", top)
}

// pageTop returns the content offset of a page's wrapper inside the
// scroll container.
func (v *Viewer) pageTop(index int) float64 {
	_, height := v.scaledPageSize()
	return float64(index) * (height + 2*pagePadding)
}

// effectivePageSize is the natural page size with rotation applied
func (v *Viewer) effectivePageSize() (width, height float64) {
	width, height = v.pageWidth, v.pageHeight
	if width == 0 && height == 0 {
		width, height = v.PageSize.Width, v.PageSize.Height
	}
	switch v.displayRotation() {
	case 90, 270:
		width, height = height, width
	}
	return width, height
}

func (v *Viewer) scaledPageSize() (width, height float64) {
	width, height = v.effectivePageSize()
	scale := v.currentScale()
	return width * scale, height * scale
}

func (v *Viewer) currentScale() float64 {
	if v.state.Scale <= 0 {
		return 1
	}
	return v.state.Scale
}

// displayRotation normalizes the rotation into [0, 360)
func (v *Viewer) displayRotation() int {
	r := v.state.Rotation % 360
	if r < 0 {
		r += 360
	}
	return r
}

func (v *Viewer) ensureIDs() {
	if v.containerID != "" {
		return
	}
	n := viewerSeq.Add(1)
	v.containerID = fmt.Sprintf("viewer-%d", n)
	v.pagesID = fmt.Sprintf("viewer-%d-pages", n)
}

func (v *Viewer) pageID(index int) string {
	return fmt.Sprintf("%s-page-%d", v.pagesID, index)
}

func (v *Viewer) log() *slog.Logger {
	if v.Log != nil {
		return v.Log
	}
	return slog.Default()
}

func px(value float64) string {
	return fmt.Sprintf("%.2fpx", value)
}
