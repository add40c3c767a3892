// Package cashback answers portal-rate questions from a bundled knowledge
// base of shopping portals (Rakuten, TopCashback and friends). The data is
// curated by hand and embedded at build time; a config override can point
// at a fresher JSON file without rebuilding.
package cashback

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
)

//go:embed knowledge_base.json
var embeddedKnowledgeBase []byte

// Retailer holds the portal rates for one merchant.
type Retailer struct {
	BaseRate   string            `json:"base_rate"`
	Categories map[string]string `json:"categories"`
}

// Portal is one cashback portal with its merchant list.
type Portal struct {
	Name       string              `json:"name"`
	Retailers  map[string]Retailer `json:"retailers"`
	Exclusions []string            `json:"exclusions"`
}

// Guidance summarizes what a shopper should expect for a category.
type Guidance struct {
	TypicalRange string `json:"typical_range"`
	BestPortal   string `json:"best_portal"`
	Notes        string `json:"notes"`
}

// KnowledgeBase is the full cashback dataset.
type KnowledgeBase struct {
	LastUpdated         string              `json:"last_updated"`
	Portals             map[string]Portal   `json:"portals"`
	UniversalExclusions map[string]string   `json:"universal_exclusions"`
	CategoryGuidance    map[string]Guidance `json:"category_guidance"`
}

// Load parses the knowledge base at path, or the embedded copy when path is
// empty.
func Load(path string) (*KnowledgeBase, error) {
	data := embeddedKnowledgeBase
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read knowledge base: %w", err)
		}
		data = b
	}

	var kb KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	return &kb, nil
}

// Lookup renders one line per retailer listing its rate on every portal for
// the given category. Retailers excluded everywhere get a single exclusion
// line; retailers no portal knows about get a "no data" line.
func (kb *KnowledgeBase) Lookup(retailers []string, category string) string {
	portalIDs := make([]string, 0, len(kb.Portals))
	for id := range kb.Portals {
		portalIDs = append(portalIDs, id)
	}
	sort.Strings(portalIDs)

	cat := strings.ToLower(category)
	lines := make([]string, 0, len(retailers))
	for _, retailer := range retailers {
		key := retailerKey(retailer)
		if _, excluded := kb.UniversalExclusions[key]; excluded {
			lines = append(lines, fmt.Sprintf("%s: No cashback (excluded from all portals)", retailer))
			continue
		}

		var rates []string
		for _, id := range portalIDs {
			portal := kb.Portals[id]
			name := portal.Name
			if name == "" {
				name = id
			}
			if slices.Contains(portal.Exclusions, key) {
				rates = append(rates, name+": No cashback")
				continue
			}
			info, ok := portal.Retailers[key]
			if !ok {
				continue
			}
			rate := info.BaseRate
			if cr, ok := info.Categories[cat]; ok {
				rate = cr
			}
			if rate == "" {
				rate = "varies"
			}
			rates = append(rates, name+" "+rate)
		}

		if len(rates) == 0 {
			lines = append(lines, fmt.Sprintf("%s: No cashback data available", retailer))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", retailer, strings.Join(rates, ", ")))
	}
	return strings.Join(lines, "\n")
}

// CategoryGuidanceFor renders the shopper guidance for a category, or a
// "no specific guidance" line when the category is unknown.
func (kb *KnowledgeBase) CategoryGuidanceFor(category string) string {
	g, ok := kb.CategoryGuidance[strings.ToLower(category)]
	if !ok {
		return fmt.Sprintf("No specific guidance for category %q", category)
	}
	return fmt.Sprintf("Category: %s\nTypical cashback range: %s\nBest portal: %s\nNotes: %s",
		category, g.TypicalRange, g.BestPortal, g.Notes)
}

// retailerKey normalizes a display name to a knowledge-base key, e.g.
// "B&H Photo" becomes "bh_photo".
func retailerKey(retailer string) string {
	key := strings.ToLower(retailer)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "&", "")
	return key
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Electronics", []string{"phone", "laptop", "computer", "tv", "headphone", "airpod", "playstation", "xbox", "nintendo", "camera", "tablet", "watch"}},
	{"Clothing", []string{"shirt", "pants", "dress", "jacket", "shoes", "clothing"}},
	{"Home/Furniture", []string{"sofa", "chair", "table", "bed", "furniture", "mattress"}},
	{"Beauty", []string{"makeup", "skincare", "beauty", "cosmetic"}},
}

// DetectCategory guesses a product category from keywords in the query.
// Unmatched queries fall back to "General".
func DetectCategory(query string) string {
	q := strings.ToLower(query)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(q, w) {
				return c.category
			}
		}
	}
	return "General"
}
