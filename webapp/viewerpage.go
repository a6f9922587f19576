package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/goPDFView/document"
	"github.com/drummonds/goPDFView/plugins/selectionmode"
	"github.com/drummonds/goPDFView/plugins/toolbar"
	"github.com/drummonds/goPDFView/viewer"
)

// PageMatch is one search hit inside the open document
type PageMatch struct {
	Page    int    `json:"page"`
	Index   int    `json:"index"`
	Excerpt string `json:"excerpt"`
}

// DocumentSearchResponse is the in-document search API response
type DocumentSearchResponse struct {
	Term    string      `json:"term"`
	Matches []PageMatch `json:"matches"`
	Count   int         `json:"count"`
}

// sessionState is the persisted slice of the viewer state
type sessionState struct {
	Page     int     `json:"page"`
	Rotation int     `json:"rotation"`
	Scale    float64 `json:"scale"`
}

// ViewerPage opens one document in the viewer. It restores the last view
// session on mount, saves it back on every state change, and drives the
// viewer's search highlight from the in-document search panel.
type ViewerPage struct {
	app.Compo

	// ULID identifies the document to open
	ULID string

	ctx     app.Context
	base    string
	doc     *document.Remote
	view    *viewer.Viewer
	loading bool
	error   string

	searchTerm   string
	searchStatus string
	matches      []PageMatch
	matchIndex   int

	lastSaved sessionState
}

// OnMount fetches the document info and the saved view session, then
// builds the viewer.
func (p *ViewerPage) OnMount(ctx app.Context) {
	p.ctx = ctx
	p.loading = true
	p.base = apiOrigin()

	ulid := p.ULID
	base := p.base
	ctx.Async(func() {
		doc, err := document.OpenRemote(context.Background(), nil, base, ulid)
		session := fetchSession(base, ulid)

		ctx.Dispatch(func(ctx app.Context) {
			if err != nil {
				p.error = fmt.Sprintf("Failed to open document: %v", err)
				p.loading = false
				return
			}
			p.doc = doc
			p.view = p.buildViewer(doc, session)
			p.loading = false
		})
	})
}

// buildViewer assembles the viewer component with the session restored
// and the plugin stack installed.
func (p *ViewerPage) buildViewer(doc *document.Remote, session sessionState) *viewer.Viewer {
	p.lastSaved = session
	return &viewer.Viewer{
		Doc:         doc,
		InitialPage: session.Page,
		PageSize:    viewer.PageSize{Scale: session.Scale},
		Plugins: []*viewer.Plugin{
			selectionmode.New(selectionmode.Text),
			toolbar.New(),
			p.sessionPlugin(session.Rotation),
		},
	}
}

// sessionPlugin restores the saved rotation at install time and writes
// every later state change back to the server.
func (p *ViewerPage) sessionPlugin(initialRotation int) *viewer.Plugin {
	return &viewer.Plugin{
		Install: func(fns viewer.Functions) {
			if initialRotation != 0 {
				fns.Rotate(initialRotation)
			}
		},
		OnViewerStateChange: func(state viewer.State) viewer.State {
			p.saveSession(state)
			return state
		},
	}
}

// saveSession persists the state when it differs from the last save. The
// write is optimistic; a failed save is overwritten by the next change.
func (p *ViewerPage) saveSession(state viewer.State) {
	next := sessionState{Page: state.Page, Rotation: state.Rotation, Scale: state.Scale}
	if next == p.lastSaved {
		return
	}
	p.lastSaved = next

	base := p.base
	ulid := p.ULID
	go putSession(base, ulid, next)
}

// fetchSession loads the saved view session, returning the zero session
// when none exists or the request fails.
func fetchSession(base, ulid string) sessionState {
	var session sessionState
	resp, err := http.Get(base + "/api/session/" + url.PathEscape(ulid))
	if err != nil {
		return session
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return session
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return sessionState{}
	}
	return session
}

// putSession writes the view session to the server
func putSession(base, ulid string, session sessionState) {
	body, err := json.Marshal(session)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPut, base+"/api/session/"+url.PathEscape(ulid), bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// performSearch queries the in-document search endpoint and jumps to the
// first hit.
func (p *ViewerPage) performSearch(ctx app.Context) {
	if p.searchTerm == "" {
		p.searchStatus = "Enter a search term"
		return
	}
	p.searchStatus = "Searching..."

	term := p.searchTerm
	ctx.Async(func() {
		searchURL := BuildAPIURL(fmt.Sprintf("/api/document/%s/search?term=%s",
			url.PathEscape(p.ULID), url.QueryEscape(term)))
		res := app.Window().Call("fetch", searchURL)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}

				jsonData := args[0]
				jsonStr := app.Window().Get("JSON").Call("stringify", jsonData).String()

				var resp DocumentSearchResponse
				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
						p.searchStatus = fmt.Sprintf("Failed to parse response: %v", err)
						return
					}
					p.matches = resp.Matches
					if len(p.matches) == 0 {
						p.searchStatus = "No matches for " + resp.Term
						p.clearHighlight()
						return
					}
					p.searchStatus = ""
					p.applyMatch(0)
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				p.searchStatus = "Network error"
			})
			return nil
		}))
	})
}

// applyMatch makes the i-th hit active and brings its page into view
func (p *ViewerPage) applyMatch(i int) {
	if p.view == nil || i < 0 || i >= len(p.matches) {
		return
	}
	p.matchIndex = i
	match := p.matches[i]
	p.view.Keyword = p.searchTerm
	p.view.SetMatch(viewer.Match{Page: match.Page, Index: match.Index})
}

// nextMatch cycles forward through the hits, wrapping at the end
func (p *ViewerPage) nextMatch() {
	if len(p.matches) == 0 {
		return
	}
	p.applyMatch((p.matchIndex + 1) % len(p.matches))
}

// prevMatch cycles backward through the hits, wrapping at the start
func (p *ViewerPage) prevMatch() {
	if len(p.matches) == 0 {
		return
	}
	p.applyMatch((p.matchIndex - 1 + len(p.matches)) % len(p.matches))
}

// clearSearch drops the hits and the highlight
func (p *ViewerPage) clearSearch() {
	p.searchTerm = ""
	p.searchStatus = ""
	p.matches = nil
	p.matchIndex = 0
	p.clearHighlight()
}

func (p *ViewerPage) clearHighlight() {
	if p.view == nil {
		return
	}
	p.view.Keyword = ""
	p.view.SetMatch(viewer.NoMatch)
}

// Render renders the viewer page
func (p *ViewerPage) Render() app.UI {
	if p.loading {
		return app.Div().Class("viewer-page-loading").Body(
			app.Div().Class("loading").Body(app.Text("Opening document...")),
		)
	}
	if p.error != "" {
		return app.Div().Class("viewer-page-error").Body(
			app.Div().Class("error").Body(app.Text("Error: "+p.error)),
			app.A().Href("/").Class("back-link").Text("Back to library"),
		)
	}
	if p.view == nil {
		return app.Div().Class("viewer-page-loading")
	}

	return app.Div().
		Class("viewer-page-layout").
		Body(
			app.Div().Class("viewer-page-main").Body(p.view),
			p.renderSearchPanel(),
		)
}

// renderSearchPanel renders the in-document search sidebar
func (p *ViewerPage) renderSearchPanel() app.UI {
	name := ""
	if p.doc != nil {
		name = p.doc.Name()
	}

	return app.Aside().
		Class("viewer-search-panel").
		Body(
			app.H3().Class("viewer-search-title").Text(name),
			app.Div().Class("viewer-search-form").Body(
				app.Input().
					Type("text").
					Class("viewer-search-input").
					Placeholder("Search in document...").
					Value(p.searchTerm).
					OnInput(func(ctx app.Context, e app.Event) {
						p.searchTerm = ctx.JSSrc().Get("value").String()
					}).
					OnKeyDown(func(ctx app.Context, e app.Event) {
						if e.Get("key").String() == "Enter" {
							p.performSearch(ctx)
						}
					}),
				app.Button().
					Class("viewer-search-button").
					Text("Search").
					OnClick(func(ctx app.Context, e app.Event) {
						p.performSearch(ctx)
					}),
			),
			app.If(p.searchStatus != "", func() app.UI {
				return app.P().Class("viewer-search-status").Text(p.searchStatus)
			}),
			app.If(len(p.matches) > 0, func() app.UI {
				return app.Div().Class("viewer-search-results").Body(
					app.Div().Class("viewer-search-nav").Body(
						app.Button().
							Class("viewer-search-step").
							Text("‹").
							OnClick(func(ctx app.Context, e app.Event) {
								p.prevMatch()
							}),
						app.Span().
							Class("viewer-search-count").
							Text(fmt.Sprintf("%d / %d", p.matchIndex+1, len(p.matches))),
						app.Button().
							Class("viewer-search-step").
							Text("›").
							OnClick(func(ctx app.Context, e app.Event) {
								p.nextMatch()
							}),
						app.Button().
							Class("viewer-search-clear").
							Text("Clear").
							OnClick(func(ctx app.Context, e app.Event) {
								p.clearSearch()
							}),
					),
					app.Div().Class("viewer-search-list").Body(
						app.Range(p.matches).Slice(func(i int) app.UI {
							match := p.matches[i]
							classes := "viewer-search-hit"
							if i == p.matchIndex {
								classes += " viewer-search-hit-active"
							}
							return app.Button().
								Class(classes).
								OnClick(func(ctx app.Context, e app.Event) {
									p.applyMatch(i)
								}).
								Body(
									app.Span().Class("viewer-search-hit-page").Text(fmt.Sprintf("p.%d", match.Page+1)),
									app.Span().Class("viewer-search-hit-excerpt").Text(match.Excerpt),
								)
						}),
					),
				)
			}),
		)
}
