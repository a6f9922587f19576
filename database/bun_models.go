package database

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunDocument represents the documents table for Bun ORM
type BunDocument struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID             int       `bun:"id,pk,autoincrement"`
	Name           string    `bun:"name,notnull"`
	Path           string    `bun:"path,notnull,unique"`
	IngressTime    time.Time `bun:"ingress_time,notnull,default:current_timestamp"`
	Folder         string    `bun:"folder,notnull"`
	Hash           string    `bun:"hash,notnull"`
	ULID           string    `bun:"ulid,notnull,unique"` // Stored as string in DB
	DocumentType   string    `bun:"document_type,notnull"`
	PageCount      int       `bun:"page_count,notnull,default:0"`
	PageSizes      string    `bun:"page_sizes,nullzero"` // JSON-encoded []PageDimension
	FullText       string    `bun:"full_text,nullzero"`
	FullTextSearch string    `bun:"full_text_search,type:tsvector,nullzero"` // PostgreSQL-specific
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ToDocument converts BunDocument to Document
func (bd *BunDocument) ToDocument() (*Document, error) {
	parsedULID, err := ulid.Parse(bd.ULID)
	if err != nil {
		return nil, err
	}

	pages, err := decodePageSizes(bd.PageSizes)
	if err != nil {
		return nil, err
	}

	return &Document{
		ID:           bd.ID,
		Name:         bd.Name,
		Path:         bd.Path,
		IngressTime:  bd.IngressTime,
		Folder:       bd.Folder,
		Hash:         bd.Hash,
		ULID:         parsedULID,
		DocumentType: bd.DocumentType,
		PageCount:    bd.PageCount,
		Pages:        pages,
		FullText:     bd.FullText,
	}, nil
}

// FromDocument converts Document to BunDocument
func FromDocument(doc *Document) *BunDocument {
	return &BunDocument{
		ID:           doc.ID,
		Name:         doc.Name,
		Path:         doc.Path,
		IngressTime:  doc.IngressTime,
		Folder:       doc.Folder,
		Hash:         doc.Hash,
		ULID:         doc.ULID.String(),
		DocumentType: doc.DocumentType,
		PageCount:    doc.PageCount,
		PageSizes:    encodePageSizes(doc.Pages),
		FullText:     doc.FullText,
	}
}

// encodePageSizes serializes page geometry for the page_sizes column
func encodePageSizes(pages []PageDimension) string {
	if len(pages) == 0 {
		return ""
	}
	data, err := json.Marshal(pages)
	if err != nil {
		return ""
	}
	return string(data)
}

// decodePageSizes restores page geometry from the page_sizes column
func decodePageSizes(raw string) ([]PageDimension, error) {
	if raw == "" {
		return nil, nil
	}
	var pages []PageDimension
	if err := json.Unmarshal([]byte(raw), &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// BunServerConfig represents the server_config table for Bun ORM
type BunServerConfig struct {
	bun.BaseModel `bun:"table:server_config,alias:sc"`

	ID              int       `bun:"id,pk"`
	ListenAddrIP    string    `bun:"listen_addr_ip,default:''"`
	ListenAddrPort  string    `bun:"listen_addr_port,notnull,default:'8000'"`
	LibraryPath     string    `bun:"library_path,notnull,default:''"`
	UploadFolder    string    `bun:"upload_folder,default:''"`
	UploadFolderRel string    `bun:"upload_folder_rel,default:''"`
	RescanInterval  int       `bun:"rescan_interval,notnull,default:10"`
	ThumbnailWidth  int       `bun:"thumbnail_width,notnull,default:320"`
	MaxRenderScale  float64   `bun:"max_render_scale,notnull,default:4"`
	UseReverseProxy bool      `bun:"use_reverse_proxy,notnull,default:false"`
	BaseURL         string    `bun:"base_url,default:''"`
	LibraryPageSize int       `bun:"library_page_size,notnull,default:24"`
	ServerAPIURL    string    `bun:"server_api_url,default:''"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// BunViewSession represents the view_sessions table for Bun ORM
type BunViewSession struct {
	bun.BaseModel `bun:"table:view_sessions,alias:vs"`

	DocumentULID string    `bun:"document_ulid,pk"`
	Page         int       `bun:"page,notnull,default:0"`
	Rotation     int       `bun:"rotation,notnull,default:0"`
	Scale        float64   `bun:"scale,notnull,default:1"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ToViewSession converts BunViewSession to ViewSession
func (bvs *BunViewSession) ToViewSession() *ViewSession {
	return &ViewSession{
		DocumentULID: bvs.DocumentULID,
		Page:         bvs.Page,
		Rotation:     bvs.Rotation,
		Scale:        bvs.Scale,
		UpdatedAt:    bvs.UpdatedAt,
	}
}

// FromViewSession converts ViewSession to BunViewSession
func FromViewSession(session *ViewSession) *BunViewSession {
	return &BunViewSession{
		DocumentULID: session.DocumentULID,
		Page:         session.Page,
		Rotation:     session.Rotation,
		Scale:        session.Scale,
		UpdatedAt:    session.UpdatedAt,
	}
}
