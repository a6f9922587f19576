package engine

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/drummonds/goPDFView/config"
	"github.com/drummonds/goPDFView/database"
	"github.com/drummonds/goPDFView/document"
	"github.com/drummonds/goPDFView/internal/build"
	"github.com/labstack/echo/v4"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
}

// documentSummary is the wire form of a library entry. It carries what the
// library page needs for a card and leaves the full text behind.
type documentSummary struct {
	ULID        string    `json:"ulid"`
	Name        string    `json:"name"`
	Folder      string    `json:"folder"`
	NumPages    int       `json:"numPages"`
	IngressTime time.Time `json:"ingressTime"`
}

func summarizeDocuments(documents []database.Document) []documentSummary {
	summaries := make([]documentSummary, 0, len(documents))
	for _, doc := range documents {
		summaries = append(summaries, documentSummary{
			ULID:        doc.ULID.String(),
			Name:        doc.Name,
			Folder:      doc.Folder,
			NumPages:    doc.PageCount,
			IngressTime: doc.IngressTime,
		})
	}
	return summaries
}

// documentInfo is the wire form the viewer's remote document handle
// decodes: the page count plus the unit-scale geometry of every page.
func documentInfo(doc database.Document) document.Info {
	pages := make([]document.PageInfo, 0, len(doc.Pages))
	for _, dim := range doc.Pages {
		pages = append(pages, document.PageInfo{Width: dim.Width, Height: dim.Height})
	}
	return document.Info{
		ULID:     doc.ULID.String(),
		Name:     doc.Name,
		NumPages: doc.PageCount,
		Pages:    pages,
	}
}

// GetDocument will return a document's viewer description by ULID
// @Summary Get document info
// @Description Retrieve the name, page count and per-page geometry of a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {object} document.Info "Document description"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /document/{id} [get]
func (serverHandler *ServerHandler) GetDocument(context echo.Context) error {
	ulidStr := context.Param("id")
	foundDocument, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB)
	if err != nil {
		Logger.Error("GetDocument API call failed", "error", err)
		return context.JSON(httpStatus, err)
	}
	return context.JSON(httpStatus, documentInfo(foundDocument))
}

// GetDocumentFile serves the original PDF bytes of a document
// @Summary Download a document
// @Description Serve the stored PDF file for viewing or download
// @Tags Documents
// @Produce application/pdf
// @Param id path string true "Document ULID"
// @Success 200 {file} file "The PDF file"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Router /document/{id}/file [get]
func (serverHandler *ServerHandler) GetDocumentFile(context echo.Context) error {
	ulidStr := context.Param("id")
	foundDocument, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB)
	if err != nil {
		Logger.Error("GetDocumentFile API call failed", "error", err)
		return context.JSON(httpStatus, err)
	}
	return context.File(filepath.FromSlash(foundDocument.Path))
}

// GetLatestDocuments gets the latest documents added to the library
// @Summary Get latest documents
// @Description Retrieve the most recently scanned documents with pagination
// @Tags Documents
// @Accept json
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Success 200 {object} map[string]interface{} "Paginated documents with metadata"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /documents [get]
func (serverHandler *ServerHandler) GetLatestDocuments(context echo.Context) error {
	// Get page parameter (default to 1)
	page := 1
	if pageParam := context.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}

	pageSize := serverHandler.ServerConfig.LibraryPageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	documents, totalCount, err := serverHandler.DB.GetNewestDocumentsWithPagination(page, pageSize)
	if err != nil {
		Logger.Error("Can't find latest documents", "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to fetch documents",
		})
	}

	totalPages := (totalCount + pageSize - 1) / pageSize // Ceiling division

	return context.JSON(http.StatusOK, map[string]interface{}{
		"documents":   summarizeDocuments(documents),
		"page":        page,
		"pageSize":    pageSize,
		"totalCount":  totalCount,
		"totalPages":  totalPages,
		"hasNext":     page < totalPages,
		"hasPrevious": page > 1,
	})
}

// GetFolder fetches all the documents in the folder
// @Summary Get folder contents
// @Description Retrieve all documents in a specific library folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param folder path string true "Folder name"
// @Success 200 {array} documentSummary "List of documents in folder"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /folder/{folder} [get]
func (serverHandler *ServerHandler) GetFolder(context echo.Context) error {
	folderName := context.Param("folder")

	folderContents, err := database.FetchFolder(folderName, serverHandler.DB)
	if err != nil {
		Logger.Error("API GetFolder call failed", "error", err)
		return err
	}
	return context.JSON(http.StatusOK, summarizeDocuments(folderContents))
}

// SearchDocuments will take the search terms and search the whole library
// @Summary Search the library
// @Description Search all documents using PostgreSQL full-text search
// @Tags Search
// @Accept json
// @Produce json
// @Param term query string true "Search term"
// @Success 200 {object} map[string]interface{} "Matching documents"
// @Success 204 "No results found"
// @Failure 404 {string} string "Empty search term"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /search [get]
func (serverHandler *ServerHandler) SearchDocuments(context echo.Context) error {
	searchParams := context.QueryParams()
	searchTerm := searchParams.Get("term")
	if searchTerm == "" {
		return context.JSON(http.StatusNotFound, "Empty search term")
	}

	Logger.Debug("Performing library full-text search", "searchTerm", searchTerm)
	documents, err := serverHandler.DB.SearchDocuments(searchTerm)
	if err != nil {
		Logger.Error("Search failed", "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}

	if len(documents) == 0 {
		Logger.Info("Search returned no results", "searchTerm", searchTerm)
		return context.JSON(http.StatusNoContent, nil)
	}

	return context.JSON(http.StatusOK, map[string]interface{}{
		"documents": summarizeDocuments(documents),
		"count":     len(documents),
	})
}

// SearchDocument finds every occurrence of a term inside one document so
// the viewer can highlight it and step through the hits
// @Summary Search inside a document
// @Description Case-insensitive keyword search across the pages of one document
// @Tags Search
// @Accept json
// @Produce json
// @Param id path string true "Document ULID"
// @Param term query string true "Search term"
// @Success 200 {object} map[string]interface{} "Matches with page excerpts"
// @Failure 404 {string} string "Empty search term or unknown document"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /document/{id}/search [get]
func (serverHandler *ServerHandler) SearchDocument(context echo.Context) error {
	ulidStr := context.Param("id")
	searchTerm := context.QueryParam("term")
	if searchTerm == "" {
		return context.JSON(http.StatusNotFound, "Empty search term")
	}

	foundDocument, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB)
	if err != nil {
		Logger.Error("SearchDocument API call failed", "error", err)
		return context.JSON(httpStatus, err)
	}

	matches, err := searchDocumentPages(filepath.FromSlash(foundDocument.Path), searchTerm)
	if err != nil {
		Logger.Error("In-document search failed", "ulid", ulidStr, "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}
	if matches == nil {
		matches = []SearchMatch{}
	}
	return context.JSON(http.StatusOK, map[string]interface{}{
		"term":    searchTerm,
		"matches": matches,
		"count":   len(matches),
	})
}

// ReindexSearchDocuments reindexes all documents for full-text search
// @Summary Reindex search documents
// @Description Rebuild the full-text search index for all documents
// @Tags Search
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Reindex successful"
// @Failure 500 {object} map[string]interface{} "Reindex failed"
// @Router /search/reindex [post]
func (serverHandler *ServerHandler) ReindexSearchDocuments(context echo.Context) error {
	Logger.Info("Search reindex triggered via API")

	count, err := serverHandler.DB.ReindexSearchDocuments()
	if err != nil {
		Logger.Error("Reindex failed", "error", err)
		return context.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Reindex failed",
			"message": err.Error(),
		})
	}

	Logger.Info("Search reindex completed", "documents", count)
	return context.JSON(http.StatusOK, map[string]interface{}{
		"message":             "Search reindex completed successfully",
		"documents_reindexed": count,
	})
}

// UploadDocument handles documents uploaded from the frontend
// @Summary Upload a document
// @Description Upload a new PDF into the library upload folder and scan it
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param path formData string false "Upload path (relative to the upload folder)"
// @Param file formData file true "PDF file to upload"
// @Success 200 {object} map[string]interface{} "ULID and name of the new document"
// @Failure 400 {object} map[string]interface{} "Not a PDF"
// @Failure 422 {object} map[string]interface{} "File could not be scanned"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /document/upload [post]
func (serverHandler *ServerHandler) UploadDocument(context echo.Context) error {
	request := context.Request()
	uploadPath := request.FormValue("path")
	file, fileHeader, err := request.FormFile("file")
	if err != nil {
		Logger.Error("Problem finding file in upload", "error", err)
		return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "missing file field"})
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "only PDF files can be uploaded"})
	}

	// Uploads land in the upload folder inside the library so a broken file
	// cannot pollute the rest of the tree.
	path := filepath.Join(serverHandler.ServerConfig.UploadFolder, filepath.FromSlash(uploadPath), filepath.Base(fileHeader.Filename))
	if !insideFolder(serverHandler.ServerConfig.UploadFolder, path) {
		return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "upload path escapes the upload folder"})
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		Logger.Error("Unable to create filepath for upload", "path", path, "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}
	Logger.Debug("Writing uploaded file into the library", "path", path)
	body, err := io.ReadAll(file)
	if err != nil {
		Logger.Error("Unable to read uploaded file", "path", path, "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		Logger.Error("Unable to write uploaded file", "path", path, "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}

	newDocument, err := serverHandler.scanDocument(path)
	if err != nil {
		// Do not leave files in the library the scanner cannot read
		os.Remove(path)
		Logger.Error("Uploaded file could not be scanned", "path", path, "error", err)
		return context.JSON(http.StatusUnprocessableEntity, map[string]interface{}{"error": err.Error()})
	}
	return context.JSON(http.StatusOK, map[string]interface{}{
		"ulid": newDocument.ULID.String(),
		"name": newDocument.Name,
	})
}

// DeleteDocument deletes a document from the database and, when the file
// lives inside the library folder, from disk
// @Summary Delete a document
// @Description Delete a document record and its file from the library
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {string} string "Document Deleted"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /document/{id} [delete]
func (serverHandler *ServerHandler) DeleteDocument(context echo.Context) error {
	ulidStr := context.Param("id")
	foundDocument, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB)
	if err != nil {
		Logger.Error("DeleteDocument API call failed", "error", err)
		return context.JSON(httpStatus, err)
	}
	if err := database.DeleteDocument(ulidStr, serverHandler.DB); err != nil {
		Logger.Error("Unable to delete document from database", "name", foundDocument.Name, "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}
	if insideFolder(serverHandler.ServerConfig.LibraryPath, foundDocument.Path) {
		if err := DeleteFile(filepath.FromSlash(foundDocument.Path)); err != nil {
			Logger.Error("Unable to delete document from file system", "path", foundDocument.Path, "error", err)
			return context.JSON(http.StatusInternalServerError, err)
		}
	} else {
		Logger.Warn("Document file is outside the library folder, leaving it in place", "path", foundDocument.Path)
	}
	// The full-text search index row goes away with the document record
	return context.JSON(http.StatusOK, "Document Deleted")
}

// insideFolder reports whether path sits strictly under root once both are
// absolute. The root itself does not count: deletions pass through here and
// must never be handed the whole folder.
func insideFolder(root, path string) bool {
	absRoot, err := filepath.Abs(filepath.FromSlash(root))
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// GetViewSession returns the viewer state a reader last left a document in
// @Summary Get a document's view session
// @Description Retrieve the saved page, rotation and scale for a document
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {object} database.ViewSession "Saved viewer state"
// @Failure 404 {object} map[string]interface{} "No session saved"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /session/{id} [get]
func (serverHandler *ServerHandler) GetViewSession(context echo.Context) error {
	ulidStr := context.Param("id")
	session, err := serverHandler.DB.GetViewSession(ulidStr)
	if err != nil {
		Logger.Error("GetViewSession API call failed", "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}
	if session == nil {
		return context.JSON(http.StatusNotFound, map[string]interface{}{"error": "no view session for document"})
	}
	return context.JSON(http.StatusOK, session)
}

// SaveViewSession stores the viewer state a reader left a document in
// @Summary Save a document's view session
// @Description Upsert the page, rotation and scale to restore next time
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Document ULID"
// @Param session body database.ViewSession true "Viewer state"
// @Success 200 {object} database.ViewSession "Saved viewer state"
// @Failure 400 {object} map[string]interface{} "Bad request body"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /session/{id} [put]
func (serverHandler *ServerHandler) SaveViewSession(context echo.Context) error {
	ulidStr := context.Param("id")
	if _, httpStatus, err := database.FetchDocument(ulidStr, serverHandler.DB); err != nil {
		Logger.Error("SaveViewSession called for unknown document", "ulid", ulidStr, "error", err)
		return context.JSON(httpStatus, err)
	}

	var session database.ViewSession
	if err := context.Bind(&session); err != nil {
		return context.JSON(http.StatusBadRequest, map[string]interface{}{"error": "cannot parse view session"})
	}
	session.DocumentULID = ulidStr
	if session.Page < 0 {
		session.Page = 0
	}
	if session.Scale <= 0 {
		session.Scale = 1
	}
	if err := serverHandler.DB.SaveViewSession(&session); err != nil {
		Logger.Error("Unable to save view session", "ulid", ulidStr, "error", err)
		return context.JSON(http.StatusInternalServerError, err)
	}
	return context.JSON(http.StatusOK, session)
}

// RunRescanNow triggers a library rescan manually
// @Summary Trigger library rescan
// @Description Walk the library folder now, scanning new PDFs and dropping records of vanished files
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Rescan started"
// @Router /rescan [post]
func (serverHandler *ServerHandler) RunRescanNow(c echo.Context) error {
	Logger.Info("Manual library rescan triggered via API")

	go serverHandler.rescanJobFunc(serverHandler.ServerConfig, serverHandler.DB)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Library rescan started",
	})
}

// GetAboutInfo returns information about the application configuration
// @Summary Get application information
// @Description Retrieve information about the application configuration, version, and database
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Application information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	aboutInfo := map[string]interface{}{
		"version":        build.Version,
		"databaseType":   serverHandler.ServerConfig.DatabaseType,
		"databaseHost":   serverHandler.ServerConfig.DatabaseHost,
		"databasePort":   serverHandler.ServerConfig.DatabasePort,
		"databaseName":   serverHandler.ServerConfig.DatabaseDbname,
		"libraryPath":    serverHandler.ServerConfig.LibraryPath,
		"uploadFolder":   serverHandler.ServerConfig.UploadFolder,
		"rescanInterval": serverHandler.ServerConfig.RescanInterval,
		"thumbnailWidth": serverHandler.ServerConfig.ThumbnailWidth,
		"maxRenderScale": serverHandler.ServerConfig.MaxRenderScale,
	}

	return c.JSON(http.StatusOK, aboutInfo)
}

// GetHealth reports service liveness
// @Summary Health check
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Service status"
// @Router /health [get]
func (serverHandler *ServerHandler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": build.Version,
	})
}
