package webapp

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Document represents a document summary from the API
type Document struct {
	ULID        string `json:"ulid"`
	Name        string `json:"name"`
	Folder      string `json:"folder"`
	NumPages    int    `json:"numPages"`
	IngressTime string `json:"ingressTime"`
}

// PaginatedResponse represents the paginated API response
type PaginatedResponse struct {
	Documents   []Document `json:"documents"`
	Page        int        `json:"page"`
	PageSize    int        `json:"pageSize"`
	TotalCount  int        `json:"totalCount"`
	TotalPages  int        `json:"totalPages"`
	HasNext     bool       `json:"hasNext"`
	HasPrevious bool       `json:"hasPrevious"`
}

// SearchResponse represents the library search API response
type SearchResponse struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// LibraryPage displays the document library with pagination, search and
// upload.
type LibraryPage struct {
	app.Compo
	documents   []Document
	currentPage int
	totalPages  int
	totalCount  int
	hasNext     bool
	hasPrevious bool
	loading     bool
	error       string

	searchTerm    string
	searchActive  bool
	searchResults []Document

	pendingFile   app.Value
	uploadFolder  string
	uploading     bool
	statusMessage string
}

// OnMount is called when the component is mounted
func (l *LibraryPage) OnMount(ctx app.Context) {
	l.currentPage = 1
	l.loading = true
	l.fetchDocuments(ctx, 1)
}

// fetchDocuments fetches documents for a specific page
func (l *LibraryPage) fetchDocuments(ctx app.Context, page int) {
	ctx.Async(func() {
		url := BuildAPIURL(fmt.Sprintf("/api/documents?page=%d", page))
		res := app.Window().Call("fetch", url)

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

				var resp PaginatedResponse
				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
						l.error = fmt.Sprintf("Failed to parse response: %v", err)
					} else {
						l.documents = resp.Documents
						l.currentPage = resp.Page
						l.totalPages = resp.TotalPages
						l.totalCount = resp.TotalCount
						l.hasNext = resp.HasNext
						l.hasPrevious = resp.HasPrevious
					}
					l.loading = false
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				l.error = "Network error"
				l.loading = false
			})
			return nil
		}))
	})
}

// performSearch runs a full-text search over the library
func (l *LibraryPage) performSearch(ctx app.Context) {
	if l.searchTerm == "" {
		l.error = "Please enter a search term"
		return
	}

	l.loading = true
	l.error = ""

	ctx.Async(func() {
		searchURL := BuildAPIURL(fmt.Sprintf("/api/search?term=%s", url.QueryEscape(l.searchTerm)))
		res := app.Window().Call("fetch", searchURL)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]

			if response.Get("status").Int() == 204 {
				ctx.Dispatch(func(ctx app.Context) {
					l.searchResults = nil
					l.searchActive = true
					l.loading = false
				})
				return nil
			}

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}

				jsonData := args[0]
				jsonStr := app.Window().Get("JSON").Call("stringify", jsonData).String()

				var resp SearchResponse
				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
						l.error = fmt.Sprintf("Failed to parse response: %v", err)
					} else {
						l.searchResults = resp.Documents
						l.searchActive = true
					}
					l.loading = false
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				l.error = "Network error"
				l.loading = false
			})
			return nil
		}))
	})
}

// clearSearch returns to the paginated library listing
func (l *LibraryPage) clearSearch(ctx app.Context) {
	l.searchTerm = ""
	l.searchActive = false
	l.searchResults = nil
	l.loading = true
	l.fetchDocuments(ctx, l.currentPage)
}

// uploadSelected posts the picked file to the upload endpoint
func (l *LibraryPage) uploadSelected(ctx app.Context) {
	if l.pendingFile == nil || !l.pendingFile.Truthy() {
		l.statusMessage = "Pick a PDF file first"
		return
	}

	l.uploading = true
	l.statusMessage = ""
	file := l.pendingFile
	folder := l.uploadFolder

	ctx.Async(func() {
		form := app.Window().Get("FormData").New()
		form.Call("append", "file", file)
		if folder != "" {
			form.Call("append", "path", folder)
		}

		res := app.Window().Call("fetch", BuildAPIURL("/api/document/upload"), map[string]any{
			"method": "POST",
			"body":   form,
		})

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}

				jsonData := args[0]
				jsonStr := app.Window().Get("JSON").Call("stringify", jsonData).String()

				ctx.Dispatch(func(ctx app.Context) {
					l.uploading = false
					l.pendingFile = nil
					if status >= 200 && status < 300 {
						var uploaded struct {
							Name string `json:"name"`
						}
						if err := json.Unmarshal([]byte(jsonStr), &uploaded); err == nil && uploaded.Name != "" {
							l.statusMessage = "Uploaded " + uploaded.Name
						} else {
							l.statusMessage = "Upload complete"
						}
						l.loading = true
						l.fetchDocuments(ctx, 1)
					} else {
						var failure struct {
							Error string `json:"error"`
						}
						if err := json.Unmarshal([]byte(jsonStr), &failure); err == nil && failure.Error != "" {
							l.statusMessage = "Upload failed: " + failure.Error
						} else {
							l.statusMessage = fmt.Sprintf("Upload failed with status %d", status)
						}
					}
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				l.uploading = false
				l.statusMessage = "Upload failed: network error"
			})
			return nil
		}))
	})
}

// runRescan asks the server to rescan the library folder now
func (l *LibraryPage) runRescan(ctx app.Context) {
	l.statusMessage = "Rescan started..."
	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL("/api/rescan"), map[string]any{
			"method": "POST",
		})

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				l.statusMessage = "Rescan running, refresh in a moment"
			})
			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				l.statusMessage = "Rescan failed: network error"
			})
			return nil
		}))
	})
}

// onPageChange handles page navigation
func (l *LibraryPage) onPageChange(page int) func(ctx app.Context, e app.Event) {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		l.loading = true
		l.error = ""
		l.fetchDocuments(ctx, page)
	}
}

// Render renders the library page
func (l *LibraryPage) Render() app.UI {
	var content app.UI

	documents := l.documents
	if l.searchActive {
		documents = l.searchResults
	}

	if l.loading {
		content = app.Div().Class("loading").Body(app.Text("Loading..."))
	} else if l.error != "" {
		content = app.Div().Class("error").Body(app.Text("Error: " + l.error))
	} else if len(documents) == 0 {
		if l.searchActive {
			content = app.Div().Class("no-results").Body(app.Text("No results found for: " + l.searchTerm))
		} else {
			content = app.Div().Class("no-results").Body(app.Text("No documents found. Upload a PDF or drop one into the library folder."))
		}
	} else {
		content = app.Div().Class("document-grid").Body(
			app.Range(documents).Slice(func(i int) app.UI {
				doc := documents[i]
				return &DocumentCard{Document: doc}
			}),
		)
	}

	return app.Div().
		Class("library-page").
		Body(
			app.H2().Text("Library"),
			l.renderToolRow(),
			l.renderHeading(),
			content,
			l.renderPagination(),
		)
}

// renderToolRow renders the search box, upload form and rescan button
func (l *LibraryPage) renderToolRow() app.UI {
	return app.Div().Class("library-tools").Body(
		app.Div().Class("search-form").Body(
			app.Input().
				Type("text").
				Class("search-input").
				Placeholder("Search the library...").
				Value(l.searchTerm).
				OnInput(func(ctx app.Context, e app.Event) {
					l.searchTerm = ctx.JSSrc().Get("value").String()
				}).
				OnKeyDown(func(ctx app.Context, e app.Event) {
					if e.Get("key").String() == "Enter" {
						l.performSearch(ctx)
					}
				}),
			app.Button().
				Class("search-button").
				Text("Search").
				OnClick(func(ctx app.Context, e app.Event) {
					l.performSearch(ctx)
				}),
			app.If(l.searchActive, func() app.UI {
				return app.Button().
					Class("search-clear-button").
					Text("Clear").
					OnClick(func(ctx app.Context, e app.Event) {
						l.clearSearch(ctx)
					})
			}),
		),
		app.Div().Class("upload-form").Body(
			app.Input().
				Type("file").
				Class("upload-input").
				Accept(".pdf").
				OnChange(func(ctx app.Context, e app.Event) {
					files := ctx.JSSrc().Get("files")
					if files.Truthy() && files.Get("length").Int() > 0 {
						l.pendingFile = files.Index(0)
					} else {
						l.pendingFile = nil
					}
				}),
			app.Input().
				Type("text").
				Class("upload-folder-input").
				Placeholder("Folder (optional)").
				Value(l.uploadFolder).
				OnInput(func(ctx app.Context, e app.Event) {
					l.uploadFolder = ctx.JSSrc().Get("value").String()
				}),
			app.Button().
				Class("upload-button").
				Disabled(l.uploading).
				Text("Upload").
				OnClick(func(ctx app.Context, e app.Event) {
					l.uploadSelected(ctx)
				}),
			app.Button().
				Class("rescan-button").
				Text("Rescan Library").
				OnClick(func(ctx app.Context, e app.Event) {
					l.runRescan(ctx)
				}),
		),
		app.If(l.statusMessage != "", func() app.UI {
			return app.Div().Class("library-status").Body(app.Text(l.statusMessage))
		}),
	)
}

// renderHeading renders the listing or search result headline
func (l *LibraryPage) renderHeading() app.UI {
	if l.searchActive {
		return app.P().Class("page-info").Text(
			fmt.Sprintf("Found %d results for %q", len(l.searchResults), l.searchTerm),
		)
	}
	return app.P().Class("page-info").Text(
		fmt.Sprintf("Showing page %d of %d (%d total documents)",
			l.currentPage, l.totalPages, l.totalCount),
	)
}

// renderPagination renders the pagination controls
func (l *LibraryPage) renderPagination() app.UI {
	if l.searchActive || l.totalPages <= 1 {
		return app.Div() // No pagination needed
	}

	return app.Div().Class("pagination").Body(
		// Previous button
		app.Button().
			Class("pagination-btn").
			Disabled(!l.hasPrevious || l.loading).
			OnClick(l.onPageChange(l.currentPage-1)).
			Body(app.Text("← Previous")),

		// Page info
		app.Span().Class("pagination-info").Body(
			app.Text(fmt.Sprintf("Page %d of %d", l.currentPage, l.totalPages)),
		),

		// Next button
		app.Button().
			Class("pagination-btn").
			Disabled(!l.hasNext || l.loading).
			OnClick(l.onPageChange(l.currentPage+1)).
			Body(app.Text("Next →")),

		// Jump to first/last
		app.Div().Class("pagination-jump").Body(
			app.Button().
				Class("pagination-btn-small").
				Disabled(l.currentPage == 1 || l.loading).
				OnClick(l.onPageChange(1)).
				Body(app.Text("First")),
			app.Button().
				Class("pagination-btn-small").
				Disabled(l.currentPage == l.totalPages || l.loading).
				OnClick(l.onPageChange(l.totalPages)).
				Body(app.Text("Last")),
		),
	)
}

// DocumentCard displays a single document card
type DocumentCard struct {
	app.Compo
	Document Document
}

// Render renders the document card
func (d *DocumentCard) Render() app.UI {
	viewHref := "/view/" + d.Document.ULID

	return app.Div().
		Class("document-card").
		Body(
			app.A().Href(viewHref).Class("document-thumbnail-link").Body(
				app.Img().
					Class("document-thumbnail").
					Alt(d.Document.Name).
					Src(thumbnailURL(d.Document.ULID)),
			),
			app.Div().Class("document-info").Body(
				app.H3().Body(
					app.A().Href(viewHref).Class("document-link").Text(d.Document.Name),
				),
				app.P().Class("document-pages").Text(pageCountLabel(d.Document.NumPages)),
				app.P().Class("document-date").Text("Added: "+formatIngressDate(d.Document.IngressTime)),
				app.A().
					Href(BuildAPIURL("/api/document/"+d.Document.ULID+"/file")).
					Class("document-download").
					Target("_blank").
					Body(app.Text("Download")),
			),
		)
}

// thumbnailURL returns the API URL of a document's thumbnail image
func thumbnailURL(ulid string) string {
	return BuildAPIURL("/api/document/" + ulid + "/thumbnail")
}

// pageCountLabel formats a page count for display
func pageCountLabel(pages int) string {
	if pages == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", pages)
}

// formatIngressDate trims an RFC 3339 timestamp down to its date part
func formatIngressDate(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}
