package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/goPDFView/config"
	"github.com/drummonds/goPDFView/database"
	"github.com/drummonds/goPDFView/document"
	"github.com/labstack/echo/v4"
)

func ensureTestLogger() {
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
	}
	if database.Logger == nil {
		database.Logger = Logger
	}
}

// newTestHandler wires a ServerHandler to an in-memory database and a
// temporary library folder.
func newTestHandler(t *testing.T) *ServerHandler {
	t.Helper()
	ensureTestLogger()

	libraryDir := t.TempDir()
	serverConfig := config.ServerConfig{
		DatabaseType:    "sqlite",
		DatabaseDbname:  ":memory:",
		LibraryPath:     libraryDir,
		UploadFolder:    filepath.Join(libraryDir, "Uploads"),
		UploadFolderRel: "Uploads",
		RescanInterval:  10,
		ThumbnailWidth:  64,
		MaxRenderScale:  4,
		FrontEndConfig:  config.FrontEndConfig{LibraryPageSize: 10},
	}

	db := database.NewRepository(serverConfig)
	t.Cleanup(func() { db.Close() })
	database.WriteConfigToDB(serverConfig, db)

	serverHandler := &ServerHandler{
		DB:           db,
		Echo:         echo.New(),
		ServerConfig: serverConfig,
	}
	if err := serverHandler.StartupChecks(); err != nil {
		t.Fatalf("Startup checks failed: %v", err)
	}
	return serverHandler
}

func registerAPIRoutes(serverHandler *ServerHandler) *echo.Echo {
	e := serverHandler.Echo
	e.GET("/api/documents", serverHandler.GetLatestDocuments)
	e.GET("/api/document/:id", serverHandler.GetDocument)
	e.GET("/api/document/:id/file", serverHandler.GetDocumentFile)
	e.GET("/api/document/:id/page/:page/image", serverHandler.GetPageImage)
	e.GET("/api/document/:id/thumbnail", serverHandler.GetThumbnail)
	e.GET("/api/document/:id/search", serverHandler.SearchDocument)
	e.POST("/api/document/upload", serverHandler.UploadDocument)
	e.DELETE("/api/document/:id", serverHandler.DeleteDocument)
	e.GET("/api/folder/:folder", serverHandler.GetFolder)
	e.GET("/api/search", serverHandler.SearchDocuments)
	e.GET("/api/session/:id", serverHandler.GetViewSession)
	e.PUT("/api/session/:id", serverHandler.SaveViewSession)
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/health", serverHandler.GetHealth)
	return e
}

// buildTestPDF assembles a single-page US Letter PDF with text drawn on
// the page. The xref offsets are computed from the actual byte positions
// so strict parsers can read the file back.
func buildTestPDF(text string) []byte {
	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	object("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	object("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	object(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))
	object("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for _, offset := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", offset))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset))
	return buf.Bytes()
}

// addTestDocument records a document without going through the PDF
// scanner, for handler tests that only need database state.
func addTestDocument(t *testing.T, serverHandler *ServerHandler, name string, fullText string, pages []database.PageDimension) database.Document {
	t.Helper()
	path := filepath.Join(serverHandler.ServerConfig.LibraryPath, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub "+name+" "+fullText), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	doc, err := database.AddNewDocument(path, fullText, pages, serverHandler.DB)
	if err != nil {
		t.Fatalf("Failed to add test document: %v", err)
	}
	return *doc
}

func multipartUpload(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestDocumentInfoRoute(t *testing.T) {
	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	doc := addTestDocument(t, serverHandler, "manual.pdf", "installation manual", []database.PageDimension{
		{Width: 612, Height: 792},
		{Width: 792, Height: 612},
	})

	t.Run("Known document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/document/"+doc.ULID.String(), nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var info document.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("Failed to parse document info: %v", err)
		}
		if info.Name != "manual.pdf" {
			t.Errorf("Expected name manual.pdf, got %q", info.Name)
		}
		if info.NumPages != 2 || len(info.Pages) != 2 {
			t.Fatalf("Expected 2 pages, got numPages=%d len(pages)=%d", info.NumPages, len(info.Pages))
		}
		if info.Pages[1].Width != 792 || info.Pages[1].Height != 612 {
			t.Errorf("Expected landscape second page, got %gx%g", info.Pages[1].Width, info.Pages[1].Height)
		}
	})

	t.Run("Unknown document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/document/01HNOSUCHDOCUMENT0000000000", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestLatestDocumentsRoute(t *testing.T) {
	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	pages := []database.PageDimension{{Width: 612, Height: 792}}
	addTestDocument(t, serverHandler, "first.pdf", "first", pages)
	addTestDocument(t, serverHandler, "second.pdf", "second", pages)
	addTestDocument(t, serverHandler, "third.pdf", "third", pages)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Documents []struct {
			ULID     string `json:"ulid"`
			Name     string `json:"name"`
			NumPages int    `json:"numPages"`
		} `json:"documents"`
		TotalCount int  `json:"totalCount"`
		TotalPages int  `json:"totalPages"`
		HasNext    bool `json:"hasNext"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse documents response: %v", err)
	}
	if response.TotalCount != 3 || len(response.Documents) != 3 {
		t.Errorf("Expected 3 documents, got totalCount=%d len=%d", response.TotalCount, len(response.Documents))
	}
	if response.TotalPages != 1 || response.HasNext {
		t.Errorf("Expected a single page of results, got totalPages=%d hasNext=%v", response.TotalPages, response.HasNext)
	}
	for _, doc := range response.Documents {
		if doc.ULID == "" || doc.NumPages != 1 {
			t.Errorf("Document summary incomplete: %+v", doc)
		}
	}
}

func TestViewSessionRoutes(t *testing.T) {
	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	pages := []database.PageDimension{{Width: 612, Height: 792}}
	doc := addTestDocument(t, serverHandler, "sessions.pdf", "session test", pages)
	untouched := addTestDocument(t, serverHandler, "untouched.pdf", "never opened", pages)

	t.Run("Save and restore", func(t *testing.T) {
		body := strings.NewReader(`{"page":3,"rotation":90,"scale":1.5}`)
		req := httptest.NewRequest(http.MethodPut, "/api/session/"+doc.ULID.String(), body)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 saving session, got %d: %s", rec.Code, rec.Body.String())
		}

		req = httptest.NewRequest(http.MethodGet, "/api/session/"+doc.ULID.String(), nil)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 reading session, got %d: %s", rec.Code, rec.Body.String())
		}
		var session database.ViewSession
		if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
			t.Fatalf("Failed to parse session: %v", err)
		}
		if session.Page != 3 || session.Rotation != 90 || session.Scale != 1.5 {
			t.Errorf("Session round trip mismatch: %+v", session)
		}
	})

	t.Run("No session yet", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session/"+untouched.ULID.String(), nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for unopened document, got %d", rec.Code)
		}
	})

	t.Run("Unknown document", func(t *testing.T) {
		body := strings.NewReader(`{"page":1,"rotation":0,"scale":1}`)
		req := httptest.NewRequest(http.MethodPut, "/api/session/01HNOSUCHDOCUMENT0000000000", body)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 saving session for unknown document, got %d", rec.Code)
		}
	})
}

func TestSearchLibraryRoute(t *testing.T) {
	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	pages := []database.PageDimension{{Width: 612, Height: 792}}
	addTestDocument(t, serverHandler, "maintenance.pdf", "quarterly zeppelin maintenance report", pages)
	addTestDocument(t, serverHandler, "cookbook.pdf", "slow roasted vegetables", pages)

	t.Run("Match by full text", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search?term=zeppelin", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var response struct {
			Documents []struct {
				Name string `json:"name"`
			} `json:"documents"`
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to parse search response: %v", err)
		}
		if response.Count != 1 || len(response.Documents) != 1 {
			t.Fatalf("Expected 1 result, got count=%d len=%d", response.Count, len(response.Documents))
		}
		if response.Documents[0].Name != "maintenance.pdf" {
			t.Errorf("Expected maintenance.pdf, got %q", response.Documents[0].Name)
		}
	})

	t.Run("Empty term", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for empty term, got %d", rec.Code)
		}
	})

	t.Run("No results", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search?term=dirigible", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected 204 for no results, got %d", rec.Code)
		}
	})
}

func TestAboutAndHealthRoutes(t *testing.T) {
	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/about", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from about, got %d", rec.Code)
	}
	var aboutInfo map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &aboutInfo); err != nil {
		t.Fatalf("Failed to parse about info: %v", err)
	}
	if aboutInfo["databaseType"] != "sqlite" {
		t.Errorf("Expected databaseType sqlite, got %v", aboutInfo["databaseType"])
	}
	if aboutInfo["version"] == "" {
		t.Error("Expected a version in about info")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from health, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health body: %s", rec.Body.String())
	}
}

func TestUploadValidation(t *testing.T) {
	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	t.Run("Rejects non-PDF extension", func(t *testing.T) {
		body, contentType := multipartUpload(t, "notes.txt", []byte("plain text"))
		req := httptest.NewRequest(http.MethodPost, "/api/document/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for non-PDF upload, got %d", rec.Code)
		}
	})

	t.Run("Rejects unparseable PDF", func(t *testing.T) {
		body, contentType := multipartUpload(t, "junk.pdf", []byte("this is not a pdf"))
		req := httptest.NewRequest(http.MethodPost, "/api/document/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected 422 for unparseable upload, got %d", rec.Code)
		}
		leftover := filepath.Join(serverHandler.ServerConfig.UploadFolder, "junk.pdf")
		if _, err := os.Stat(leftover); !os.IsNotExist(err) {
			t.Errorf("Rejected upload left a file behind at %s", leftover)
		}
	})
}

func TestUploadAndRenderRoutes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MuPDF render test in short mode")
	}
	ensureTestLogger()

	pdfBytes := buildTestPDF("Annual zeppelin report")
	probe, err := document.OpenFitzBytes(pdfBytes)
	if err != nil {
		// MuPDF may not be available in every build environment
		t.Skipf("Skipping: could not open fixture with MuPDF: %v", err)
	}
	probe.Close()

	serverHandler := newTestHandler(t)
	e := registerAPIRoutes(serverHandler)

	body, contentType := multipartUpload(t, "report.pdf", pdfBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/document/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed with %d: %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		ULID string `json:"ulid"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("Failed to parse upload response: %v", err)
	}
	if uploaded.ULID == "" || uploaded.Name != "report.pdf" {
		t.Fatalf("Unexpected upload response: %+v", uploaded)
	}

	t.Run("Info after upload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/document/"+uploaded.ULID, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var info document.Info
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("Failed to parse document info: %v", err)
		}
		if info.NumPages != 1 || len(info.Pages) != 1 {
			t.Fatalf("Expected 1 page, got %d", info.NumPages)
		}
		if info.Pages[0].Width != 612 || info.Pages[0].Height != 792 {
			t.Errorf("Expected 612x792 geometry, got %gx%g", info.Pages[0].Width, info.Pages[0].Height)
		}
	})

	t.Run("Page image with rotation", func(t *testing.T) {
		url := "/api/document/" + uploaded.ULID + "/page/0/image?scale=1&rotation=90"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("Response is not a PNG: %v", err)
		}
		bounds := img.Bounds()
		if abs(bounds.Dx()-792) > 2 || abs(bounds.Dy()-612) > 2 {
			t.Errorf("Expected a 792x612 rotated page, got %dx%d", bounds.Dx(), bounds.Dy())
		}
	})

	t.Run("Scale is clamped", func(t *testing.T) {
		url := "/api/document/" + uploaded.ULID + "/page/0/image?scale=50"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("Response is not a PNG: %v", err)
		}
		// MaxRenderScale is 4 in the test config
		if abs(img.Bounds().Dx()-612*4) > 8 {
			t.Errorf("Expected width near %d after clamping, got %d", 612*4, img.Bounds().Dx())
		}
	})

	t.Run("Page out of range", func(t *testing.T) {
		url := "/api/document/" + uploaded.ULID + "/page/5/image"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for out-of-range page, got %d", rec.Code)
		}
	})

	t.Run("Bad rotation", func(t *testing.T) {
		url := "/api/document/" + uploaded.ULID + "/page/0/image?rotation=45"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for a 45 degree rotation, got %d", rec.Code)
		}
	})

	t.Run("Thumbnail", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/document/"+uploaded.ULID+"/thumbnail", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("Response is not a PNG: %v", err)
		}
		if img.Bounds().Dx() != 64 {
			t.Errorf("Expected thumbnail width 64, got %d", img.Bounds().Dx())
		}
	})

	t.Run("File download", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/document/"+uploaded.ULID+"/file", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
			t.Error("Downloaded file does not start with a PDF header")
		}
	})

	t.Run("Delete document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/document/"+uploaded.ULID, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 deleting document, got %d: %s", rec.Code, rec.Body.String())
		}

		req = httptest.NewRequest(http.MethodGet, "/api/document/"+uploaded.ULID, nil)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 after delete, got %d", rec.Code)
		}

		uploadedFile := filepath.Join(serverHandler.ServerConfig.UploadFolder, "report.pdf")
		if _, err := os.Stat(uploadedFile); !os.IsNotExist(err) {
			t.Errorf("Expected uploaded file to be removed, stat err: %v", err)
		}
	})
}

func TestRescanJob(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MuPDF rescan test in short mode")
	}
	ensureTestLogger()

	alpha := buildTestPDF("alpha contents")
	probe, err := document.OpenFitzBytes(alpha)
	if err != nil {
		t.Skipf("Skipping: could not open fixture with MuPDF: %v", err)
	}
	probe.Close()

	serverHandler := newTestHandler(t)
	libraryDir := serverHandler.ServerConfig.LibraryPath

	if err := os.WriteFile(filepath.Join(libraryDir, "alpha.pdf"), alpha, 0644); err != nil {
		t.Fatalf("Failed to write alpha.pdf: %v", err)
	}
	if err := os.WriteFile(filepath.Join(libraryDir, "beta.pdf"), buildTestPDF("beta contents"), 0644); err != nil {
		t.Fatalf("Failed to write beta.pdf: %v", err)
	}

	serverHandler.rescanJobFunc(serverHandler.ServerConfig, serverHandler.DB)

	documents, err := serverHandler.DB.GetAllDocuments()
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("Expected 2 documents after rescan, got %d", len(documents))
	}
	for _, doc := range documents {
		if doc.PageCount != 1 || len(doc.Pages) != 1 {
			t.Errorf("Document %s has wrong geometry: pageCount=%d", doc.Name, doc.PageCount)
		}
	}

	// A second rescan must not duplicate anything
	serverHandler.rescanJobFunc(serverHandler.ServerConfig, serverHandler.DB)
	documents, err = serverHandler.DB.GetAllDocuments()
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("Expected 2 documents after second rescan, got %d", len(documents))
	}

	// A vanished file drops its record
	if err := os.Remove(filepath.Join(libraryDir, "alpha.pdf")); err != nil {
		t.Fatalf("Failed to remove alpha.pdf: %v", err)
	}
	serverHandler.rescanJobFunc(serverHandler.ServerConfig, serverHandler.DB)
	documents, err = serverHandler.DB.GetAllDocuments()
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(documents) != 1 || documents[0].Name != "beta.pdf" {
		t.Fatalf("Expected only beta.pdf to remain, got %d documents", len(documents))
	}
}

func TestSearchDocumentPages(t *testing.T) {
	ensureTestLogger()

	pdfPath := filepath.Join(t.TempDir(), "search.pdf")
	if err := os.WriteFile(pdfPath, buildTestPDF("The quick brown fox jumps over the lazy dog"), 0644); err != nil {
		t.Fatalf("Failed to write test PDF: %v", err)
	}

	matches, err := searchDocumentPages(pdfPath, "Fox")
	if err != nil {
		t.Skipf("Skipping: pure Go PDF parser could not read the fixture: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].Page != 0 || matches[0].Index != 0 {
		t.Errorf("Expected match on page 0 index 0, got %+v", matches[0])
	}
	if !strings.Contains(strings.ToLower(matches[0].Excerpt), "fox") {
		t.Errorf("Excerpt does not contain the term: %q", matches[0].Excerpt)
	}

	matches, err = searchDocumentPages(pdfPath, "dirigible")
	if err != nil {
		t.Fatalf("Search for absent term failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(matches))
	}

	matches, err = searchDocumentPages(pdfPath, "   ")
	if err != nil || matches != nil {
		t.Errorf("Blank term should be a no-op, got matches=%v err=%v", matches, err)
	}
}

func TestExcerpt(t *testing.T) {
	text := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 100)
	got := excerpt(text, 100, 6)
	if !strings.Contains(got, "needle") {
		t.Errorf("Excerpt lost the hit: %q", got)
	}
	if len(got) > 6+2*40 {
		t.Errorf("Excerpt too long: %d bytes", len(got))
	}

	if got := excerpt("needle in a haystack", 0, 6); !strings.HasPrefix(got, "needle") {
		t.Errorf("Expected excerpt to start at the hit, got %q", got)
	}

	// An offset beyond the text is clamped rather than panicking
	if got := excerpt("short", 99, 6); got != "short" {
		t.Errorf("Expected clamped excerpt %q, got %q", "short", got)
	}
}

func TestInsideFolder(t *testing.T) {
	cases := []struct {
		root string
		path string
		want bool
	}{
		{"/library", "/library/report.pdf", true},
		{"/library", "/library/sub/report.pdf", true},
		{"/library", "/library/../etc/passwd", false},
		{"/library", "/elsewhere/report.pdf", false},
		{"/library", "/library", false},
	}
	for _, tc := range cases {
		if got := insideFolder(tc.root, tc.path); got != tc.want {
			t.Errorf("insideFolder(%q, %q) = %v, want %v", tc.root, tc.path, got, tc.want)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
