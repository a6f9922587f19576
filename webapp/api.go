package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// GetAPIBaseURL returns the configured API base URL
// It reads from window.goPDFViewConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	// Check if config is available in browser
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	// Try to get API URL from global config
	config := app.Window().Get("goPDFViewConfig")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			url := apiURL.String()
			// Ensure no trailing slash
			if len(url) > 0 && url[len(url)-1] == '/' {
				return url[:len(url)-1]
			}
			return url
		}
	}

	// Fallback to relative URLs (same origin)
	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/documents") -> "http://backend:8000/api/documents"
// or just "/api/documents" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path // Relative URL
	}
	return baseURL + path
}

// apiOrigin returns an absolute API base URL. Browser fetch accepts the
// relative URLs BuildAPIURL produces, but net/http clients need a scheme
// and host, so the window origin fills in when no API URL is configured.
func apiOrigin() string {
	if base := GetAPIBaseURL(); base != "" {
		return base
	}
	if app.IsClient {
		return app.Window().Get("location").Get("origin").String()
	}
	return ""
}
