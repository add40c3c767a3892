// Package cards recommends a rewards credit card per retailer from a small
// curated table. Rates reflect the mainstream cards as of mid-2025 and are
// advisory only.
package cards

import (
	"fmt"
	"strings"
)

// Pick pairs a card with the reward it earns at one retailer.
type Pick struct {
	Card string
	Rate string
}

var cardRates = map[string]Pick{
	"Amazon":    {Card: "Amazon Prime Visa", Rate: "5% back"},
	"Costco":    {Card: "Costco Anywhere Visa", Rate: "2% back (Visa only!)"},
	"Best Buy":  {Card: "BofA Customized Cash", Rate: "3% back (Online Shopping category)"},
	"Walmart":   {Card: "BofA Customized Cash", Rate: "3% back (Online Shopping category)"},
	"Target":    {Card: "Target RedCard", Rate: "5% back"},
	"B&H Photo": {Card: "BofA Customized Cash", Rate: "3% back (Online Shopping category)"},
	"Newegg":    {Card: "BofA Customized Cash", Rate: "3% back (Online Shopping category)"},
}

var defaultPick = Pick{Card: "Citi Double Cash", Rate: "2% back on everything"}

// For returns the best known card for a retailer, falling back to a flat-rate
// card when the retailer has no dedicated entry.
func For(retailer string) Pick {
	if p, ok := cardRates[retailer]; ok {
		return p
	}
	return defaultPick
}

// Recommend renders one pick per retailer plus the caveats that apply to the
// cards in the table.
func Recommend(retailers []string) string {
	lines := make([]string, 0, len(retailers))
	for _, retailer := range retailers {
		p := For(retailer)
		lines = append(lines, fmt.Sprintf("• %s: %s - %s", retailer, p.Card, p.Rate))
	}

	var b strings.Builder
	b.WriteString("💳 Credit Card Recommendations:\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n⚠️ Notes:\n")
	b.WriteString("• Costco only accepts Visa cards\n")
	b.WriteString("• BofA Customized Cash requires setting Online Shopping as your 3% category")
	return b.String()
}
