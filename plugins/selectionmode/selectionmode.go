// Package selectionmode augments the viewer with a selection mode toggle:
// Hand mode pans the pages with the pointer, Text mode leaves the
// browser's native text selection alone. The plugin wraps the viewer's
// slot chain with a mode-classed container carrying the pointer handlers
// and a floating pair of toggle buttons.
package selectionmode

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/goPDFView/viewer"
)

// Mode selects how the pointer interacts with pages
type Mode int

const (
	// Hand pans the scroll container while the pointer is held down
	Hand Mode = iota
	// Text keeps the browser's text selection behavior
	Text
)

// selectionMode holds the plugin's private state. The viewer never sees
// any of it; the plugin reaches back through the capability object it
// retained at install time.
type selectionMode struct {
	fns  viewer.Functions
	mode Mode

	panning   bool
	startX    float64
	startY    float64
	startLeft float64
	startTop  float64
}

// New returns the selection mode plugin starting in the given mode
func New(initial Mode) *viewer.Plugin {
	s := &selectionMode{mode: initial}
	return &viewer.Plugin{
		Install: func(fns viewer.Functions) {
			s.fns = fns
		},
		Uninstall: func(fns viewer.Functions) {
			s.fns = nil
			s.panning = false
		},
		RenderViewer: s.renderViewer,
	}
}

// renderViewer wraps the chain with the mode container and the floating
// toggle. Before install there is no capability object yet, so the chain
// passes through untouched.
func (s *selectionMode) renderViewer(rc viewer.RenderContext) *viewer.Slot {
	if s.fns == nil {
		return nil
	}
	modeClass := "selection-mode-text"
	if s.mode == Hand {
		modeClass = "selection-mode-hand"
	}
	return &viewer.Slot{
		Attrs: viewer.Attributes{
			Classes: []string{"selection-mode", modeClass},
			Styles: map[string]string{
				"height":   "100%",
				"position": "relative",
			},
			Events: map[string]app.EventHandler{
				"pointerdown":   s.onPointerDown,
				"pointermove":   s.onPointerMove,
				"pointerup":     s.onPointerUp,
				"pointercancel": s.onPointerUp,
			},
		},
		Children: []app.UI{s.renderToggle()},
		Sub:      rc.Slot,
	}
}

func (s *selectionMode) renderToggle() app.UI {
	return app.Div().
		Class("selection-mode-toggle").
		Style("position", "absolute").
		Style("top", "8px").
		Style("right", "24px").
		Style("z-index", "1").
		Body(
			s.toggleButton("Hand", Hand),
			s.toggleButton("Text", Text),
		)
}

func (s *selectionMode) toggleButton(label string, mode Mode) app.UI {
	classes := []string{"selection-mode-button"}
	if s.mode == mode {
		classes = append(classes, "selection-mode-button-active")
	}
	return app.Button().
		Class(classes...).
		Type("button").
		Text(label).
		OnClick(func(ctx app.Context, e app.Event) {
			s.setMode(mode)
		})
}

func (s *selectionMode) setMode(mode Mode) {
	s.mode = mode
	s.panning = false
}

func (s *selectionMode) onPointerDown(ctx app.Context, e app.Event) {
	if s.mode != Hand || s.fns == nil {
		return
	}
	el := s.pagesElement()
	if el == nil {
		return
	}
	e.PreventDefault()
	s.panning = true
	s.startX = e.Get("clientX").Float()
	s.startY = e.Get("clientY").Float()
	s.startLeft = el.Get("scrollLeft").Float()
	s.startTop = el.Get("scrollTop").Float()
}

func (s *selectionMode) onPointerMove(ctx app.Context, e app.Event) {
	if !s.panning {
		return
	}
	el := s.pagesElement()
	if el == nil {
		s.panning = false
		return
	}
	left, top := panTarget(s.startLeft, s.startTop, s.startX, s.startY,
		e.Get("clientX").Float(), e.Get("clientY").Float())
	el.Set("scrollLeft", left)
	el.Set("scrollTop", top)
}

func (s *selectionMode) onPointerUp(ctx app.Context, e app.Event) {
	s.panning = false
}

// pagesElement resolves the live scroll container, nil when it is not
// mounted.
func (s *selectionMode) pagesElement() app.Value {
	if !app.IsClient || s.fns == nil {
		return nil
	}
	el := app.Window().GetElementByID(s.fns.PagesRef())
	if !el.Truthy() {
		return nil
	}
	return el
}

// panTarget computes the scroll offsets that keep the content under the
// pointer: the view moves against the pointer's travel.
func panTarget(startLeft, startTop, startX, startY, x, y float64) (left, top float64) {
	return startLeft - (x - startX), startTop - (y - startY)
}
