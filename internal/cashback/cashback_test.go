package cashback

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestKB(t *testing.T) *KnowledgeBase {
	t.Helper()

	kb, err := Load("")
	if err != nil {
		t.Fatalf("failed to load embedded knowledge base: %v", err)
	}
	return kb
}

func TestLoadEmbedded(t *testing.T) {
	kb := newTestKB(t)

	if len(kb.Portals) == 0 {
		t.Error("expected embedded knowledge base to contain portals")
	}
	if len(kb.UniversalExclusions) == 0 {
		t.Error("expected embedded knowledge base to contain universal exclusions")
	}
	if len(kb.CategoryGuidance) == 0 {
		t.Error("expected embedded knowledge base to contain category guidance")
	}
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	data := `{
		"portals": {
			"testportal": {
				"name": "TestPortal",
				"retailers": {"amazon": {"base_rate": "9%"}}
			}
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write override file: %v", err)
	}

	kb, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load override knowledge base: %v", err)
	}

	got := kb.Lookup([]string{"Amazon"}, "General")
	want := "Amazon: TestPortal 9%"
	if got != want {
		t.Errorf("expected lookup %q, got %q", want, got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Error("expected error for missing knowledge base file")
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for malformed knowledge base file")
	}
}

func TestLookupUniversalExclusion(t *testing.T) {
	kb := newTestKB(t)

	got := kb.Lookup([]string{"Costco"}, "Electronics")
	want := "Costco: No cashback (excluded from all portals)"
	if got != want {
		t.Errorf("expected lookup %q, got %q", want, got)
	}
}

func TestLookupPortalExclusion(t *testing.T) {
	kb := newTestKB(t)

	got := kb.Lookup([]string{"Amazon"}, "General")
	want := "Amazon: Rakuten 1%, TopCashback: No cashback"
	if got != want {
		t.Errorf("expected lookup %q, got %q", want, got)
	}
}

func TestLookupCategoryRate(t *testing.T) {
	kb := newTestKB(t)

	got := kb.Lookup([]string{"Newegg"}, "Electronics")
	want := "Newegg: Rakuten: No cashback, TopCashback 2%"
	if got != want {
		t.Errorf("expected lookup %q, got %q", want, got)
	}
}

func TestLookupBaseRateFallback(t *testing.T) {
	kb := newTestKB(t)

	// Walmart has no clothing rate on TopCashback, so the base rate applies
	// there while Rakuten serves its clothing rate.
	got := kb.Lookup([]string{"Walmart"}, "Clothing")
	want := "Walmart: Rakuten 4%, TopCashback 2%"
	if got != want {
		t.Errorf("expected lookup %q, got %q", want, got)
	}
}

func TestLookupUnknownRetailer(t *testing.T) {
	kb := newTestKB(t)

	got := kb.Lookup([]string{"Corner Store"}, "General")
	want := "Corner Store: No cashback data available"
	if got != want {
		t.Errorf("expected lookup %q, got %q", want, got)
	}
}

func TestLookupMultipleRetailers(t *testing.T) {
	kb := newTestKB(t)

	got := kb.Lookup([]string{"Costco", "B&H Photo"}, "Electronics")
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], "Costco:") {
		t.Errorf("expected first line for Costco, got %q", lines[0])
	}
	if lines[1] != "B&H Photo: TopCashback 2.5%" {
		t.Errorf("unexpected B&H Photo line: %q", lines[1])
	}
}

func TestCategoryGuidanceFor(t *testing.T) {
	kb := newTestKB(t)

	got := kb.CategoryGuidanceFor("Electronics")
	if !strings.Contains(got, "Category: Electronics") {
		t.Errorf("expected guidance header, got %q", got)
	}
	if !strings.Contains(got, "Typical cashback range:") {
		t.Errorf("expected typical range line, got %q", got)
	}
	if !strings.Contains(got, "Best portal:") {
		t.Errorf("expected best portal line, got %q", got)
	}
}

func TestCategoryGuidanceForUnknown(t *testing.T) {
	kb := newTestKB(t)

	got := kb.CategoryGuidanceFor("Groceries")
	if !strings.Contains(got, "No specific guidance") {
		t.Errorf("expected no-guidance message, got %q", got)
	}
}

func TestRetailerKey(t *testing.T) {
	tests := []struct {
		name     string
		retailer string
		want     string
	}{
		{"lowercase passthrough", "amazon", "amazon"},
		{"spaces to underscores", "Best Buy", "best_buy"},
		{"ampersand dropped", "B&H Photo", "bh_photo"},
		{"hyphens to underscores", "e-commerce", "e_commerce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retailerKey(tt.retailer); got != tt.want {
				t.Errorf("expected key %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"console", "PlayStation 5 Pro bundle", "Electronics"},
		{"laptop", "macbook air laptop 13 inch", "Electronics"},
		{"dress", "red summer dress size M", "Clothing"},
		{"mattress", "queen mattress memory foam", "Home/Furniture"},
		{"skincare", "skincare gift set", "Beauty"},
		{"fallback", "garden hose 50ft", "General"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCategory(tt.query); got != tt.want {
				t.Errorf("expected category %q for %q, got %q", tt.want, tt.query, got)
			}
		})
	}
}
