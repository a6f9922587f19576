package database

import (
	"crypto/md5"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/drummonds/goPDFView/config"
	"github.com/oklog/ulid/v2"
)

// Document is all of the document information stored in the database
type Document struct {
	ID           int
	Name         string
	Path         string // full path to the file
	IngressTime  time.Time
	Folder       string
	Hash         string
	ULID         ulid.ULID // Have a smaller (than hash) id that can be used in URL's, hopefully speed things up
	DocumentType string    // type of document (pdf, txt, etc)
	PageCount    int
	Pages        []PageDimension // unit-scale page geometry, points at 72 DPI
	FullText     string
}

// PageDimension is the unit-scale size of one page
type PageDimension struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewSession is the viewer state a reader last left a document in
type ViewSession struct {
	DocumentULID string    `json:"documentUlid"`
	Page         int       `json:"page"`
	Rotation     int       `json:"rotation"`
	Scale        float64   `json:"scale"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Repository defines database operations
type Repository interface {
	Close() error
	SaveDocument(doc *Document) error
	GetDocumentByID(id int) (*Document, error)
	GetDocumentByULID(ulid string) (*Document, error)
	GetDocumentByPath(path string) (*Document, error)
	GetDocumentByHash(hash string) (*Document, error)
	GetNewestDocuments(limit int) ([]Document, error)
	GetNewestDocumentsWithPagination(page int, pageSize int) ([]Document, int, error)
	GetAllDocuments() ([]Document, error)
	GetDocumentsByFolder(folder string) ([]Document, error)
	DeleteDocument(ulid string) error
	SearchDocuments(searchTerm string) ([]Document, error)
	ReindexSearchDocuments() (int, error)
	SaveConfig(config *config.ServerConfig) error
	GetConfig() (*config.ServerConfig, error)
	// View session methods
	SaveViewSession(session *ViewSession) error
	GetViewSession(docULID string) (*ViewSession, error)
	DeleteViewSession(docULID string) error
}

// FetchConfigFromDB pulls the server config from the database
func FetchConfigFromDB(db Repository) (config.ServerConfig, error) {
	serverConfig, err := db.GetConfig()
	if err != nil {
		Logger.Error("Unable to fetch server config from db", "error", err)
		return config.ServerConfig{}, err
	}
	return *serverConfig, nil
}

// WriteConfigToDB writes the serverconfig to the database for later retrieval
func WriteConfigToDB(serverConfig config.ServerConfig, db Repository) {
	serverConfig.ID = 1 // config will be stored in row 1
	err := db.SaveConfig(&serverConfig)
	if err != nil {
		Logger.Error("Unable to write server config to database", "error", err)
	}
}

// AddNewDocument records a newly discovered library file in the database.
// Library files stay where they are found, so the stored path is the real
// path on disk.
func AddNewDocument(filePath string, fullText string, pages []PageDimension, db Repository) (*Document, error) {
	fileHash, err := calculateHash(filePath)
	if err != nil {
		return nil, err
	}
	duplicate := checkDuplicateDocument(fileHash, filePath, db)
	if duplicate {
		err = errors.New("Duplicate document found on scan (Hash collision) ! " + filePath)
		Logger.Error("Duplicate document detected", "error", err)
		return nil, err
	}
	newTime := time.Now()
	newULID, err := CalculateUUID(newTime)
	if err != nil {
		Logger.Error("Cannot generate ULID", "filePath", filePath, "error", err)
	}

	var newDocument Document
	newDocument.Name = filepath.Base(filePath)
	newDocument.Path = filepath.ToSlash(filePath)
	newDocument.Folder = filepath.ToSlash(filepath.Dir(filePath))
	newDocument.Hash = fileHash
	newDocument.IngressTime = newTime
	newDocument.ULID = newULID
	newDocument.DocumentType = filepath.Ext(filePath)
	newDocument.PageCount = len(pages)
	newDocument.Pages = pages
	newDocument.FullText = fullText
	Logger.Debug("Adding document to database", "path", newDocument.Path, "pages", newDocument.PageCount)
	// PostgreSQL full-text search will be automatically indexed via trigger
	err = db.SaveDocument(&newDocument)
	if err != nil {
		Logger.Error("Unable to write document to database", "error", err)
		return nil, err
	}
	return &newDocument, nil
}

// FetchNewestDocuments fetches the documents that were added last
func FetchNewestDocuments(numberOf int, db Repository) ([]Document, error) {
	newestDocuments, err := db.GetNewestDocuments(numberOf)
	if err != nil {
		Logger.Error("Unable to find the latest documents", "error", err)
		return newestDocuments, err
	}
	return newestDocuments, nil
}

// FetchAllDocuments fetches all the documents in the database
func FetchAllDocuments(db Repository) ([]Document, error) {
	allDocuments, err := db.GetAllDocuments()
	if err != nil {
		Logger.Error("Unable to list library documents", "error", err)
		return nil, err
	}
	return allDocuments, nil
}

// FetchDocument fetches the requested document by ULID
func FetchDocument(docULIDSt string, db Repository) (Document, int, error) {
	foundDocument, err := db.GetDocumentByULID(docULIDSt)
	if err != nil {
		if err == sql.ErrNoRows {
			Logger.Error("Unable to find the requested document", "ulid", docULIDSt, "error", err)
			return Document{}, http.StatusNotFound, err
		}
		Logger.Error("Database error fetching document", "error", err)
		return Document{}, http.StatusInternalServerError, err
	}
	return *foundDocument, http.StatusOK, nil
}

// FetchDocumentFromPath fetches the document by document path
func FetchDocumentFromPath(path string, db Repository) (Document, error) {
	path = filepath.ToSlash(path) // converting to slash before search
	foundDocument, err := db.GetDocumentByPath(path)
	if err != nil {
		return Document{}, err
	}
	return *foundDocument, nil
}

// FetchFolder grabs all of the documents contained in a folder
func FetchFolder(folderName string, db Repository) ([]Document, error) {
	folderContents, err := db.GetDocumentsByFolder(folderName)
	if err != nil {
		Logger.Error("Unable to find the requested folder", "error", err)
		return folderContents, err
	}
	return folderContents, nil
}

// DeleteDocument removes the requested document by ULID
func DeleteDocument(docULIDSt string, db Repository) error {
	err := db.DeleteDocument(docULIDSt)
	if err != nil {
		Logger.Error("Unable to delete requested document", "error", err)
		return err
	}
	return nil
}

func checkDuplicateDocument(fileHash string, fileName string, db Repository) bool {
	document, err := db.GetDocumentByHash(fileHash)
	if err != nil || document == nil {
		return false
	}
	Logger.Info("Duplicate document found on scan (Hash collision)", "fileName", fileName, "existingDocument", document.Name)
	return true
}

// calculate the hash of the incoming file
func calculateHash(fileName string) (string, error) {
	var fileHash string
	file, err := os.Open(fileName)
	if err != nil {
		return fileHash, err
	}
	defer file.Close()
	hash := md5.New()
	_, err = io.Copy(hash, file)
	if err != nil {
		return fileHash, err
	}
	fileHash = fmt.Sprintf("%x", hash.Sum(nil))
	return fileHash, nil
}

// CalculateUUID for the incoming file
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
