package webapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"github.com/yuin/goldmark"
)

// usageNotes is rendered to HTML on the about page
const usageNotes = `## Using the viewer

- Open a document from the library page; the viewer restores the page,
  zoom and rotation you left it at.
- The toolbar steps pages, zooms in and out, and rotates in quarter
  turns. The zoom presets fit the whole page or the page width to the
  window.
- **Hand** mode drags the pages with the pointer, **Text** mode leaves
  the browser's text selection alone. Toggle between them with the
  floating buttons.
- The search panel finds a term inside the open document and steps
  through the hits; the hit's page scrolls into view.

## Managing the library

- Upload a PDF from the library page, or drop files into the library
  folder on disk and trigger a rescan.
- The library is also rescanned on a schedule; removed files drop out
  of the listing on the next pass.
`

// AboutInfo represents the about information from the API
type AboutInfo struct {
	Version        string  `json:"version"`
	DatabaseType   string  `json:"databaseType"`
	DatabaseHost   string  `json:"databaseHost"`
	DatabasePort   string  `json:"databasePort"`
	DatabaseName   string  `json:"databaseName"`
	LibraryPath    string  `json:"libraryPath"`
	UploadFolder   string  `json:"uploadFolder"`
	RescanInterval int     `json:"rescanInterval"`
	ThumbnailWidth int     `json:"thumbnailWidth"`
	MaxRenderScale float64 `json:"maxRenderScale"`
}

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
	usageHTML string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchAboutInfo(ctx)
}

// fetchAboutInfo fetches the about information from the API
func (a *AboutPage) fetchAboutInfo(ctx app.Context) {
	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL("/api/about"))

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

				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &a.aboutInfo); err != nil {
						a.error = fmt.Sprintf("Failed to parse response: %v", err)
					}
					a.loading = false
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				a.error = "Network error"
				a.loading = false
			})
			return nil
		}))
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About goPDFView"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About goPDFView"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About goPDFView"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("Database", a.getDatabaseDisplay()),
					a.renderInfoItem("Rescan Interval", a.getRescanDisplay()),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Database Configuration"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Database Type: "),
						app.Text(a.getDatabaseDisplay()),
					),
					app.P().Body(
						app.Strong().Text("Host: "),
						app.Text(a.aboutInfo.DatabaseHost),
					),
					app.P().Body(
						app.Strong().Text("Port: "),
						app.Text(a.aboutInfo.DatabasePort),
					),
					app.P().Body(
						app.Strong().Text("Database Name: "),
						app.Text(a.aboutInfo.DatabaseName),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Library Configuration"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Library Folder: "),
						app.Text(a.aboutInfo.LibraryPath),
					),
					app.P().Body(
						app.Strong().Text("Upload Folder: "),
						app.Text(a.aboutInfo.UploadFolder),
					),
					app.P().Body(
						app.Strong().Text("Thumbnail Width: "),
						app.Text(fmt.Sprintf("%d px", a.aboutInfo.ThumbnailWidth)),
					),
					app.P().Body(
						app.Strong().Text("Maximum Render Scale: "),
						app.Text(fmt.Sprintf("%gx", a.aboutInfo.MaxRenderScale)),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Usage"),
				app.Raw(`<div class="about-usage-notes">`+a.usage()+`</div>`),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getDatabaseDisplay returns a user-friendly database display name
func (a *AboutPage) getDatabaseDisplay() string {
	switch a.aboutInfo.DatabaseType {
	case "postgres":
		return "PostgreSQL"
	case "cockroachdb":
		return "CockroachDB"
	case "sqlite":
		return "SQLite"
	default:
		return a.aboutInfo.DatabaseType
	}
}

// getRescanDisplay returns the rescan interval as a user-friendly string
func (a *AboutPage) getRescanDisplay() string {
	if a.aboutInfo.RescanInterval <= 0 {
		return "Disabled"
	}
	if a.aboutInfo.RescanInterval == 1 {
		return "Every minute"
	}
	return fmt.Sprintf("Every %d minutes", a.aboutInfo.RescanInterval)
}

// usage returns the usage notes rendered to HTML, computed once
func (a *AboutPage) usage() string {
	if a.usageHTML == "" {
		a.usageHTML = renderUsageNotes()
	}
	return a.usageHTML
}

// renderUsageNotes converts the embedded markdown notes to HTML, falling
// back to escaped plain text if the conversion fails.
func renderUsageNotes() string {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(usageNotes), &buf); err != nil {
		return "<pre>" + html.EscapeString(usageNotes) + "</pre>"
	}
	return buf.String()
}
