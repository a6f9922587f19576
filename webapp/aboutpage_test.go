package webapp

import (
	"strings"
	"testing"
)

// TestGetDatabaseDisplay tests the database type display conversion
func TestGetDatabaseDisplay(t *testing.T) {
	tests := []struct {
		name     string
		dbType   string
		expected string
	}{
		{
			name:     "PostgreSQL",
			dbType:   "postgres",
			expected: "PostgreSQL",
		},
		{
			name:     "CockroachDB",
			dbType:   "cockroachdb",
			expected: "CockroachDB",
		},
		{
			name:     "SQLite",
			dbType:   "sqlite",
			expected: "SQLite",
		},
		{
			name:     "Unknown type",
			dbType:   "mongodb",
			expected: "mongodb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{
				aboutInfo: AboutInfo{
					DatabaseType: tt.dbType,
				},
			}
			got := page.getDatabaseDisplay()
			if got != tt.expected {
				t.Errorf("getDatabaseDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestGetRescanDisplay tests the rescan interval display conversion
func TestGetRescanDisplay(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		expected string
	}{
		{
			name:     "Disabled",
			interval: 0,
			expected: "Disabled",
		},
		{
			name:     "One minute",
			interval: 1,
			expected: "Every minute",
		},
		{
			name:     "Several minutes",
			interval: 15,
			expected: "Every 15 minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{
				aboutInfo: AboutInfo{
					RescanInterval: tt.interval,
				},
			}
			got := page.getRescanDisplay()
			if got != tt.expected {
				t.Errorf("getRescanDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestRenderUsageNotes tests that the markdown notes convert to HTML
func TestRenderUsageNotes(t *testing.T) {
	html := renderUsageNotes()

	if html == "" {
		t.Fatal("renderUsageNotes returned an empty string")
	}
	if !strings.Contains(html, "<h2") {
		t.Error("Expected a rendered heading in the usage notes")
	}
	if !strings.Contains(html, "<li>") {
		t.Error("Expected rendered list items in the usage notes")
	}
	if strings.Contains(html, "## ") {
		t.Error("Usage notes still contain raw markdown headings")
	}
}

// TestAboutPageRenderStates tests that different states produce valid UI
func TestAboutPageRenderStates(t *testing.T) {
	t.Run("Loading state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			loading: true,
		}
		ui := page.Render()

		if ui == nil {
			t.Error("Loading state should return non-nil UI")
		}
	})

	t.Run("Error state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			loading: false,
			error:   "Network error",
		}
		ui := page.Render()

		if ui == nil {
			t.Error("Error state should return non-nil UI")
		}
	})

	t.Run("Success state returns valid UI", func(t *testing.T) {
		page := &AboutPage{
			loading: false,
			error:   "",
			aboutInfo: AboutInfo{
				Version:        "v1.2.3",
				DatabaseType:   "sqlite",
				LibraryPath:    "/srv/library",
				RescanInterval: 15,
			},
		}
		ui := page.Render()

		if ui == nil {
			t.Error("Success state should return non-nil UI")
		}
	})
}
