package viewer

import (
	"math"
	"testing"
)

// TestMostVisiblePage tests the arg-max selection over visibility ratios
func TestMostVisiblePage(t *testing.T) {
	t.Run("First of tied maxima wins", func(t *testing.T) {
		pv := newPageVisibility(3)
		pv.set(0, 0.2)
		pv.set(1, 0.9)
		pv.set(2, 0.9)

		if got := pv.mostVisible(); got != 1 {
			t.Errorf("mostVisible = %d, want 1", got)
		}
	})

	t.Run("All zero picks first page", func(t *testing.T) {
		pv := newPageVisibility(4)
		if got := pv.mostVisible(); got != 0 {
			t.Errorf("mostVisible = %d, want 0", got)
		}
	})

	t.Run("Empty document", func(t *testing.T) {
		pv := newPageVisibility(0)
		if got := pv.mostVisible(); got != -1 {
			t.Errorf("mostVisible = %d, want -1", got)
		}
	})

	t.Run("Selection moves with updates", func(t *testing.T) {
		pv := newPageVisibility(3)
		pv.set(0, 1)
		if got := pv.mostVisible(); got != 0 {
			t.Fatalf("mostVisible = %d, want 0", got)
		}

		pv.set(0, 0.3)
		pv.set(2, 0.8)
		if got := pv.mostVisible(); got != 2 {
			t.Errorf("mostVisible = %d, want 2", got)
		}
	})
}

// TestVisibilitySet tests ratio recording bounds
func TestVisibilitySet(t *testing.T) {
	pv := newPageVisibility(2)

	if pv.set(-1, 0.5) {
		t.Error("Negative page index should be rejected")
	}
	if pv.set(2, 0.5) {
		t.Error("Page index past the end should be rejected")
	}
	if !pv.set(1, 0.5) {
		t.Error("In-range page index should be accepted")
	}

	// Ratios clamp to [0, 1]
	pv.set(0, 1.4)
	if pv.ratios[0] != 1 {
		t.Errorf("Ratio should clamp to 1, got %v", pv.ratios[0])
	}
	pv.set(0, -0.2)
	if pv.ratios[0] != 0 {
		t.Errorf("Ratio should clamp to 0, got %v", pv.ratios[0])
	}
}

// TestVisibleRatio tests the scroll-geometry ratio computation
func TestVisibleRatio(t *testing.T) {
	tests := []struct {
		name           string
		pageTop        float64
		pageHeight     float64
		scrollTop      float64
		viewportHeight float64
		expected       float64
	}{
		{"Fully visible", 100, 200, 0, 600, 1},
		{"Fully above viewport", 0, 200, 300, 600, 0},
		{"Fully below viewport", 1000, 200, 0, 600, 0},
		{"Top half clipped", 0, 200, 100, 600, 0.5},
		{"Bottom half clipped", 500, 200, 0, 600, 0.5},
		{"Taller than viewport", 0, 1200, 0, 600, 0.5},
		{"Zero height page", 100, 0, 0, 600, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := visibleRatio(tt.pageTop, tt.pageHeight, tt.scrollTop, tt.viewportHeight)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("visibleRatio = %v, want %v", got, tt.expected)
			}
		})
	}
}
