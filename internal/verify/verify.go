// Package verify sanity-checks product URLs reported by the agent and builds
// retailer search links to fall back on when a reported URL looks wrong.
package verify

import (
	"fmt"
	"strings"
)

// searchIndicators mark URLs that point at a results page rather than a
// single product.
var searchIndicators = []string{"/search", "/s?", "searchpage", "query=", "q="}

// productIndicators are the path and query fragments major retailers use for
// product detail pages.
var productIndicators = []string{"/dp/", "/ip/", "/product/", "/p/", "sku=", "pid="}

var searchURLPatterns = map[string]string{
	"Amazon":    "https://www.amazon.com/s?k={query}",
	"Best Buy":  "https://www.bestbuy.com/site/searchpage.jsp?st={query}",
	"Walmart":   "https://www.walmart.com/search?q={query}",
	"Target":    "https://www.target.com/s?searchTerm={query}",
	"Costco":    "https://www.costco.com/CatalogSearch?keyword={query}",
	"B&H Photo": "https://www.bhphotovideo.com/c/search?q={query}",
	"Newegg":    "https://www.newegg.com/p/pl?d={query}",
}

// ValidateURL reports whether a URL plausibly points at a product page for
// the expected product, listing the issues found otherwise.
func ValidateURL(url, expectedProduct string) string {
	var issues []string

	if strings.Count(url, "/") <= 3 {
		issues = append(issues, "URL appears to be a homepage, not a product page")
	}

	lower := strings.ToLower(url)
	for _, indicator := range searchIndicators {
		if strings.Contains(lower, indicator) {
			issues = append(issues, fmt.Sprintf("URL appears to be a search page (contains %q)", indicator))
			break
		}
	}

	hasProductID := false
	for _, indicator := range productIndicators {
		if strings.Contains(lower, indicator) {
			hasProductID = true
			break
		}
	}
	if !hasProductID && len(issues) == 0 {
		issues = append(issues, "URL may not contain a product identifier")
	}

	if len(issues) > 0 {
		var b strings.Builder
		b.WriteString("❌ URL Validation Issues:")
		for _, issue := range issues {
			b.WriteString("\n  • ")
			b.WriteString(issue)
		}
		return b.String()
	}
	return fmt.Sprintf("✅ URL appears to be a valid product page for %q", expectedProduct)
}

// SearchURL builds a search link for the query on one retailer. ok is false
// when the retailer has no known pattern.
func SearchURL(retailer, query string) (string, bool) {
	pattern, ok := searchURLPatterns[retailer]
	if !ok {
		return "", false
	}
	encoded := strings.ReplaceAll(query, " ", "+")
	return strings.ReplaceAll(pattern, "{query}", encoded), true
}

// SearchLinks renders one "- Name: URL" line per retailer with a known
// search pattern, preserving the order of the input.
func SearchLinks(retailers []string, query string) string {
	var lines []string
	for _, retailer := range retailers {
		url, ok := SearchURL(retailer, query)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", retailer, url))
	}
	return strings.Join(lines, "\n")
}
