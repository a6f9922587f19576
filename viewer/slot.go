package viewer

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Attributes describe the container element of one slot level
type Attributes struct {
	// ID names the container element so plugins and the viewer itself
	// can find it again through the DOM.
	ID      string
	Classes []string
	Styles  map[string]string
	// Events maps DOM event names ("scroll", "pointerdown", ...) to
	// handlers registered on the container.
	Events map[string]app.EventHandler
}

// Slot is one level of the rendering negotiation chain: container
// attributes, the children rendered at this level, and at most one nested
// sub slot. The chain is rebuilt from scratch on every render pass; each
// RenderViewer hook receives the chain produced so far and returns the
// chain to use next, so a later plugin wraps everything an earlier plugin
// built.
type Slot struct {
	Attrs    Attributes
	Children []app.UI
	Sub      *Slot
}

// Depth returns the number of levels in the chain
func (s *Slot) Depth() int {
	depth := 0
	for n := s; n != nil; n = n.Sub {
		depth++
	}
	return depth
}

// UI materializes the chain into the element tree: each level becomes a
// div carrying its attributes, with the level's children followed by the
// nested sub slot.
func (s *Slot) UI() app.UI {
	if s == nil {
		return app.Div()
	}
	div := app.Div()
	if s.Attrs.ID != "" {
		div = div.ID(s.Attrs.ID)
	}
	if len(s.Attrs.Classes) > 0 {
		div = div.Class(s.Attrs.Classes...)
	}
	for name, value := range s.Attrs.Styles {
		div = div.Style(name, value)
	}
	for event, handler := range s.Attrs.Events {
		div = div.On(event, handler)
	}
	body := make([]app.UI, 0, len(s.Children)+1)
	body = append(body, s.Children...)
	if s.Sub != nil {
		body = append(body, s.Sub.UI())
	}
	return div.Body(body...)
}
