package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/drummonds/goPDFView/config"
	"github.com/drummonds/goPDFView/database"
	"github.com/drummonds/goPDFView/document"
	"github.com/ledongthuc/pdf"
)

// rescanJobFunc walks the library folder and brings the database in line
// with what is on disk: new PDFs are scanned and recorded, records whose
// file has vanished are removed. Library files stay where they are found.
func (serverHandler *ServerHandler) rescanJobFunc(serverConfig config.ServerConfig, db database.Repository) {
	// Add panic recovery to prevent entire application crash
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in rescan job", "panic", r)
		}
	}()

	// Re-read the config so edits made since startup take effect next run
	serverConfig, err := database.FetchConfigFromDB(db)
	if err != nil {
		Logger.Error("Error reading config from database", "error", err)
	}
	Logger.Info("Starting library rescan", "path", serverConfig.LibraryPath)

	var libraryFiles []string
	err = filepath.Walk(serverConfig.LibraryPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			Logger.Warn("Error accessing path during rescan", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			libraryFiles = append(libraryFiles, path)
		}
		return nil
	})
	if err != nil {
		Logger.Error("Unable to walk library folder", "path", serverConfig.LibraryPath, "error", err)
		return
	}

	added := 0
	errorCount := 0
	for _, filePath := range libraryFiles {
		if _, err := database.FetchDocumentFromPath(filePath, db); err == nil {
			// Already in the library
			continue
		}
		if _, err := serverHandler.scanDocument(filePath); err != nil {
			Logger.Error("Failed to scan document", "filePath", filePath, "error", err)
			errorCount++
			continue
		}
		added++
	}

	removed := serverHandler.removeVanishedDocuments(db)

	Logger.Info("Library rescan completed", "found", len(libraryFiles), "added", added, "removed", removed, "errors", errorCount)
}

// scanDocument extracts the text and page geometry of a PDF already
// sitting in the library and records it in the database.
func (serverHandler *ServerHandler) scanDocument(filePath string) (newDocument *database.Document, err error) {
	// Add panic recovery to prevent one bad document from crashing the entire rescan job
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered while scanning document", "filePath", filePath, "panic", r)
			newDocument, err = nil, fmt.Errorf("panic while scanning document: %v", r)
		}
	}()

	if !strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
	}

	pages, err := readPageGeometry(filePath)
	if err != nil {
		return nil, err
	}

	fullText, err := pdfTextProcessing(filePath)
	if err != nil {
		Logger.Info("Falling back to MuPDF text extraction", "filePath", filePath, "error", err)
		fullText, err = fitzTextProcessing(filePath)
		if err != nil {
			Logger.Warn("No text could be extracted, storing document without text", "filePath", filePath, "error", err)
			fullText = ""
		}
	}

	newDocument, err = database.AddNewDocument(filePath, fullText, pages, serverHandler.DB)
	if err != nil {
		return nil, err
	}
	Logger.Info("Added file to the database", "filePath", filePath, "pages", len(pages))
	return newDocument, nil
}

// readPageGeometry opens the PDF with MuPDF and reads the natural size of
// every page. MuPDF reports points at 72 DPI, the viewer's scale-1 unit.
func readPageGeometry(filePath string) ([]database.PageDimension, error) {
	fitzDoc, err := document.OpenFitz(filePath)
	if err != nil {
		return nil, err
	}
	defer fitzDoc.Close()

	pages := make([]database.PageDimension, 0, fitzDoc.NumPages())
	for pageNum := 0; pageNum < fitzDoc.NumPages(); pageNum++ {
		page, err := fitzDoc.Page(context.Background(), pageNum)
		if err != nil {
			return nil, fmt.Errorf("unable to read geometry of page %d: %w", pageNum, err)
		}
		viewport := page.Viewport(1)
		pages = append(pages, database.PageDimension{Width: viewport.Width, Height: viewport.Height})
	}
	if len(pages) == 0 {
		return nil, errors.New("PDF has no pages")
	}
	return pages, nil
}

// removeVanishedDocuments drops database records whose file no longer
// exists on disk and returns how many were removed.
func (serverHandler *ServerHandler) removeVanishedDocuments(db database.Repository) int {
	documents, err := database.FetchAllDocuments(db)
	if err != nil {
		Logger.Error("Failed to fetch documents for vanished-file check", "error", err)
		return 0
	}

	removed := 0
	for _, doc := range documents {
		if doc.Path == "" {
			Logger.Warn("Document has empty path, skipping", "id", doc.ID, "name", doc.Name)
			continue
		}
		if _, err := os.Stat(filepath.FromSlash(doc.Path)); os.IsNotExist(err) {
			Logger.Info("File not found, removing from database", "path", doc.Path, "id", doc.ID)
			if err := database.DeleteDocument(doc.ULID.String(), db); err != nil {
				Logger.Error("Failed to delete document from DB", "error", err, "id", doc.ID)
				continue
			}
			removed++
		}
	}
	return removed
}

// DeleteFile deletes a folder (or file) and everything in that folder
func DeleteFile(filePath string) error {
	err := os.RemoveAll(filePath)
	if err != nil {
		Logger.Error("Error deleting File/Folder", "error", err)
		return err
	}
	return nil
}

// pdfTextProcessing extracts the plain text of a PDF with the pure Go
// parser, for the library's full-text index.
func pdfTextProcessing(file string) (string, error) {
	fileName := filepath.Base(file)
	Logger.Debug("Extracting text from PDF", "fileName", fileName)
	pdfFile, result, err := pdf.Open(file)
	if err != nil {
		return "", fmt.Errorf("unable to open PDF: %w", err)
	}
	defer pdfFile.Close()

	textReader, err := result.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("unable to convert PDF to text: %w", err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(textReader)
	fullText := buf.String()
	if fullText == "" {
		return "", errors.New("PDF text result is empty")
	}
	Logger.Debug("Text processed from PDF", "fileName", fileName, "characters", len(fullText))
	return fullText, nil
}

// fitzTextProcessing is the fallback extractor for PDFs the pure Go
// parser cannot read.
func fitzTextProcessing(file string) (string, error) {
	fitzDoc, err := document.OpenFitz(file)
	if err != nil {
		return "", err
	}
	defer fitzDoc.Close()

	var buf bytes.Buffer
	for pageNum := 0; pageNum < fitzDoc.NumPages(); pageNum++ {
		text, err := fitzDoc.Text(pageNum)
		if err != nil {
			Logger.Warn("Unable to read text of page", "file", file, "page", pageNum, "error", err)
			continue
		}
		buf.WriteString(text)
	}
	if buf.Len() == 0 {
		return "", errors.New("no text could be extracted")
	}
	return buf.String(), nil
}
