package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// PageInfo is one page's natural geometry in points
type PageInfo struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info is the render server's description of a document
type Info struct {
	ULID     string     `json:"ulid"`
	Name     string     `json:"name"`
	NumPages int        `json:"numPages"`
	Pages    []PageInfo `json:"pages"`
	Error    string     `json:"error,omitempty"`
}

// Remote is a Document served by the render server's API. Geometry for
// every page arrives with the initial info response, so Page never goes
// back to the network; page pixels are addressed by URL and fetched by
// the browser itself.
type Remote struct {
	baseURL string
	info    Info
}

// OpenRemote fetches the document info for ulid from the render server at
// baseURL. Pass a nil client to use a default with a 30 second timeout.
func OpenRemote(ctx context.Context, client *http.Client, baseURL, ulid string) (*Remote, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	infoURL := fmt.Sprintf("%s/api/document/%s", baseURL, url.PathEscape(ulid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("document info returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode document info: %w", err)
	}
	if info.Error != "" {
		return nil, fmt.Errorf("document info error: %s", info.Error)
	}
	if len(info.Pages) != info.NumPages {
		return nil, fmt.Errorf("document info lists %d pages but reports %d", len(info.Pages), info.NumPages)
	}

	return &Remote{baseURL: baseURL, info: info}, nil
}

// ULID returns the server-side identity of the document
func (r *Remote) ULID() string { return r.info.ULID }

// Name returns the document's file name
func (r *Remote) Name() string { return r.info.Name }

// NumPages returns the page count
func (r *Remote) NumPages() int { return r.info.NumPages }

// Page returns the cached geometry descriptor for index
func (r *Remote) Page(ctx context.Context, index int) (Page, error) {
	if index < 0 || index >= r.info.NumPages {
		return nil, ErrPageOutOfRange
	}
	pi := r.info.Pages[index]
	return staticPage{width: pi.Width, height: pi.Height}, nil
}

// PageImageURL returns the render server URL for a page image. The server
// rasterizes at the requested scale and rotation so the browser can drop
// the URL straight into an img tag.
func (r *Remote) PageImageURL(index int, scale float64, rotation int) string {
	return fmt.Sprintf("%s/api/document/%s/page/%d/image?scale=%.3f&rotation=%d",
		r.baseURL, url.PathEscape(r.info.ULID), index, scale, rotation)
}
