// Package toolbar adds a navigation and zoom toolbar above the viewer.
// Every control is a plain capability object call, which makes the
// package double as a worked example of the plugin contract.
package toolbar

import (
	"fmt"
	"strconv"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/goPDFView/viewer"
)

// zoomSteps multiply the current scale on the +/- buttons
const (
	zoomInStep  = 1.1
	zoomOutStep = 1 / 1.1
)

type toolbar struct {
	fns viewer.Functions
}

// New returns the toolbar plugin
func New() *viewer.Plugin {
	tb := &toolbar{}
	return &viewer.Plugin{
		Install: func(fns viewer.Functions) {
			tb.fns = fns
		},
		Uninstall: func(fns viewer.Functions) {
			tb.fns = nil
		},
		RenderViewer: tb.renderViewer,
	}
}

// renderViewer stacks the bar above the chain built so far. The previous
// chain keeps its place as the flexible region below the bar.
func (tb *toolbar) renderViewer(rc viewer.RenderContext) *viewer.Slot {
	if tb.fns == nil {
		return nil
	}

	sub := rc.Slot
	if sub.Attrs.Styles == nil {
		sub.Attrs.Styles = map[string]string{}
	}
	sub.Attrs.Styles["height"] = "auto"
	sub.Attrs.Styles["flex"] = "1"
	sub.Attrs.Styles["min-height"] = "0"

	return &viewer.Slot{
		Attrs: viewer.Attributes{
			Classes: []string{"viewer-toolbar-layout"},
			Styles: map[string]string{
				"height":         "100%",
				"display":        "flex",
				"flex-direction": "column",
			},
		},
		Children: []app.UI{tb.renderBar(rc)},
		Sub:      sub,
	}
}

func (tb *toolbar) renderBar(rc viewer.RenderContext) app.UI {
	state := tb.fns.ViewerState()
	pages := 0
	if rc.Doc != nil {
		pages = rc.Doc.NumPages()
	}

	return app.Div().
		Class("viewer-toolbar").
		Body(
			tb.button("‹", "Previous page", func(ctx app.Context, e app.Event) {
				tb.fns.JumpToPage(tb.fns.ViewerState().Page - 1)
			}),
			app.Span().
				Class("viewer-toolbar-pages").
				Text(pageLabel(state.Page, pages)),
			tb.button("›", "Next page", func(ctx app.Context, e app.Event) {
				tb.fns.JumpToPage(tb.fns.ViewerState().Page + 1)
			}),
			tb.button("−", "Zoom out", func(ctx app.Context, e app.Event) {
				tb.fns.Zoom(viewer.ZoomTo(tb.fns.ViewerState().Scale * zoomOutStep))
			}),
			tb.renderZoomSelect(state),
			tb.button("+", "Zoom in", func(ctx app.Context, e app.Event) {
				tb.fns.Zoom(viewer.ZoomTo(tb.fns.ViewerState().Scale * zoomInStep))
			}),
			tb.button("⟳", "Rotate clockwise", func(ctx app.Context, e app.Event) {
				tb.fns.Rotate(tb.fns.ViewerState().Rotation + 90)
			}),
		)
}

func (tb *toolbar) renderZoomSelect(state viewer.State) app.UI {
	return app.Select().
		Class("viewer-toolbar-zoom").
		OnChange(func(ctx app.Context, e app.Event) {
			level, ok := parseZoomSelection(ctx.JSSrc().Get("value").String())
			if !ok {
				return
			}
			tb.fns.Zoom(level)
		}).
		Body(
			app.Option().Value("fit").Text("Page fit"),
			app.Option().Value("width").Text("Page width"),
			app.Option().Value("50").Text("50%"),
			app.Option().Value("75").Text("75%"),
			app.Option().Value("100").Text("100%").Selected(true),
			app.Option().Value("125").Text("125%"),
			app.Option().Value("150").Text("150%"),
			app.Option().Value("200").Text("200%"),
		)
}

func (tb *toolbar) button(label, title string, onClick app.EventHandler) app.UI {
	return app.Button().
		Class("viewer-toolbar-button").
		Type("button").
		Title(title).
		Text(label).
		OnClick(onClick)
}

// pageLabel formats the one-based page indicator
func pageLabel(page, pages int) string {
	if pages == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", page+1, pages)
}

// parseZoomSelection maps a zoom dropdown value to a zoom level. Values
// are either a fit keyword or a percentage.
func parseZoomSelection(value string) (viewer.ZoomLevel, bool) {
	switch value {
	case "fit":
		return viewer.PageFit, true
	case "width":
		return viewer.PageWidth, true
	case "100":
		return viewer.ActualSize, true
	}
	pct, err := strconv.Atoi(value)
	if err != nil || pct <= 0 {
		return viewer.ZoomLevel{}, false
	}
	return viewer.ZoomTo(float64(pct) / 100), true
}
