package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// SearchMatch is one keyword hit inside a document. Index numbers the
// hits within their page so the viewer can step through them.
type SearchMatch struct {
	Page    int    `json:"page"`
	Index   int    `json:"index"`
	Excerpt string `json:"excerpt"`
}

// searchDocumentPages scans every page of the PDF at path for term and
// returns the hits in reading order. Matching is case-insensitive; pages
// the parser cannot read are skipped.
func searchDocumentPages(path string, term string) ([]SearchMatch, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, nil
	}

	pdfFile, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF for search: %w", err)
	}
	defer pdfFile.Close()

	var matches []SearchMatch
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			Logger.Warn("Skipping unreadable page during search", "path", path, "page", pageNum, "error", err)
			continue
		}

		haystack := strings.ToLower(text)
		index := 0
		for offset := 0; ; {
			found := strings.Index(haystack[offset:], needle)
			if found < 0 {
				break
			}
			at := offset + found
			matches = append(matches, SearchMatch{
				Page:    pageNum - 1,
				Index:   index,
				Excerpt: excerpt(text, at, len(needle)),
			})
			index++
			offset = at + len(needle)
		}
	}
	return matches, nil
}

// excerpt returns the text surrounding a hit, clipped to rune boundaries.
// The hit offset comes from the case-folded copy of text, so it is clamped
// before slicing.
func excerpt(text string, at, length int) string {
	const context = 40
	if at > len(text) {
		at = len(text)
	}
	start := at - context
	if start < 0 {
		start = 0
	}
	end := at + length + context
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}
