//go:build !js
// +build !js

package document

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Fitz is a Document backed by a go-fitz (MuPDF) handle. It serves hosts
// that run next to the file itself: the render server and native tests.
// A MuPDF context is not safe for concurrent use, so all calls are
// serialized on a mutex.
type Fitz struct {
	mu    sync.Mutex
	doc   *fitz.Document
	pages int
}

// OpenFitz opens the PDF at path with MuPDF
func OpenFitz(path string) (*Fitz, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &Fitz{doc: doc, pages: doc.NumPage()}, nil
}

// OpenFitzBytes opens an in-memory PDF with MuPDF
func OpenFitzBytes(data []byte) (*Fitz, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &Fitz{doc: doc, pages: doc.NumPage()}, nil
}

// NumPages returns the page count read at open time
func (f *Fitz) NumPages() int { return f.pages }

// Page resolves the geometry of page index. MuPDF reports bounds in
// points at 72 DPI, which is exactly the viewer's scale-1 unit.
func (f *Fitz) Page(ctx context.Context, index int) (Page, error) {
	if index < 0 || index >= f.pages {
		return nil, ErrPageOutOfRange
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	bound, err := f.doc.Bound(index)
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("unable to read bounds of page %d: %w", index, err)
	}
	return staticPage{
		width:  float64(bound.Dx()),
		height: float64(bound.Dy()),
	}, nil
}

// Image rasterizes page index at the given scale. Scale 1 produces one
// pixel per point (72 DPI).
func (f *Fitz) Image(index int, scale float64) (image.Image, error) {
	if index < 0 || index >= f.pages {
		return nil, ErrPageOutOfRange
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	img, err := f.doc.ImageDPI(index, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", index, err)
	}
	return img, nil
}

// Text extracts the plain text of page index, for keyword search
func (f *Fitz) Text(index int) (string, error) {
	if index < 0 || index >= f.pages {
		return "", ErrPageOutOfRange
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Text(index)
}

// Close releases the MuPDF handle
func (f *Fitz) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}
