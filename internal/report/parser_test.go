package report

import (
	"testing"
)

const sampleReport = `Here are the best prices I found for PlayStation 5:

**Amazon**
- Base Price: $499.99
- Tax: $46.25
- Shipping: FREE with Prime
- TOTAL: $546.24
- URL: https://www.amazon.com/dp/B0CL61F39H
- Cashback: 1% via Rakuten
- 💳 Credit Card: Prime Visa earns 5% back

**Walmart**
- Base Price: $499.00
- Tax: $46.16
- Shipping: $9.95
- TOTAL: $555.11
- URL: https://www.walmart.com/ip/PlayStation-5/123456

**Best Buy**
- Base Price: $499.99
- Tax: $46.25
- Shipping: Free
- TOTAL: $546.24
- URL: https://www.bestbuy.com/site/playstation-5/6566040.p
`

func TestParse_MultipleRetailers(t *testing.T) {
	records := Parse(sampleReport)
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	wantTotals := map[string]float64{
		"Amazon":   546.24,
		"Walmart":  555.11,
		"Best Buy": 546.24,
	}
	for _, r := range records {
		want, ok := wantTotals[r.Retailer]
		if !ok {
			t.Errorf("unexpected retailer %q", r.Retailer)
			continue
		}
		if r.TotalPrice != want {
			t.Errorf("%s total: got %v, want %v", r.Retailer, r.TotalPrice, want)
		}
	}
}

func TestParse_FieldExtraction(t *testing.T) {
	records := Parse(sampleReport)
	if len(records) == 0 {
		t.Fatal("no records parsed")
	}

	amazon := records[0]
	if amazon.Retailer != "Amazon" {
		t.Fatalf("first retailer: got %q, want Amazon", amazon.Retailer)
	}
	if amazon.BasePrice != 499.99 {
		t.Errorf("base price: got %v, want 499.99", amazon.BasePrice)
	}
	if amazon.Tax != 46.25 {
		t.Errorf("tax: got %v, want 46.25", amazon.Tax)
	}
	if amazon.Shipping != 0 {
		t.Errorf("shipping: got %v, want 0 (free)", amazon.Shipping)
	}
	if amazon.ProductURL != "https://www.amazon.com/dp/B0CL61F39H" {
		t.Errorf("url: got %q", amazon.ProductURL)
	}
	if amazon.CashbackNote == "" {
		t.Error("cashback note not captured")
	}
	if amazon.CardNote == "" {
		t.Error("card note not captured")
	}

	walmart := records[1]
	if walmart.Shipping != 9.95 {
		t.Errorf("walmart shipping: got %v, want 9.95", walmart.Shipping)
	}
}

func TestParse_DroppedWithoutTotal(t *testing.T) {
	text := `**Amazon**
- Base Price: $499.99
- TOTAL: $546.24

**Target**
- Base Price: $489.99
- Shipping: Free

**Walmart**
- TOTAL: $555.11
`
	records := Parse(text)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (Target has no total)", len(records))
	}
	if records[0].Retailer != "Amazon" || records[1].Retailer != "Walmart" {
		t.Errorf("got retailers %q and %q, want Amazon and Walmart", records[0].Retailer, records[1].Retailer)
	}
	// The dropped section must not leak fields into its neighbors.
	if records[1].BasePrice != 0 {
		t.Errorf("Walmart base price: got %v, want 0", records[1].BasePrice)
	}
}

func TestParse_FreeShipping(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"plain free", "Shipping: Free"},
		{"uppercase", "Shipping: FREE"},
		{"free with numeral", "Shipping: FREE (normally $9.99)"},
		{"free with note", "shipping: free 2-day delivery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "**Amazon**\n" + tt.line + "\nTOTAL: $100.00\n"
			records := Parse(text)
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if records[0].Shipping != 0 {
				t.Errorf("shipping: got %v, want 0", records[0].Shipping)
			}
		})
	}
}

func TestParse_ThousandsSeparators(t *testing.T) {
	text := `**B&H Photo**
- Base Price: $1,999.00
- TOTAL: $2,184.89
`
	records := Parse(text)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].TotalPrice != 2184.89 {
		t.Errorf("total: got %v, want 2184.89", records[0].TotalPrice)
	}
	if records[0].BasePrice != 1999.00 {
		t.Errorf("base: got %v, want 1999", records[0].BasePrice)
	}
}

func TestParse_CaseInsensitiveCues(t *testing.T) {
	text := `**Newegg**
base price: $329.99
tax: $27.22
total: $357.21
url: https://www.newegg.com/p/N82E16819113664
`
	records := Parse(text)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.BasePrice != 329.99 || r.Tax != 27.22 || r.TotalPrice != 357.21 {
		t.Errorf("got base=%v tax=%v total=%v", r.BasePrice, r.Tax, r.TotalPrice)
	}
	if r.ProductURL != "https://www.newegg.com/p/N82E16819113664" {
		t.Errorf("url: got %q", r.ProductURL)
	}
}

func TestParse_ZeroTotalKept(t *testing.T) {
	// A matched total line whose number degraded to zero still yields a
	// record; only a missing total drops the section.
	text := "**Amazon**\nTOTAL: $0.00\n"
	records := Parse(text)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].TotalPrice != 0 {
		t.Errorf("total: got %v, want 0", records[0].TotalPrice)
	}
}

func TestParse_NoHeadings(t *testing.T) {
	text := "I could not find reliable prices for that product right now.\nTOTAL: $10.00\n"
	if records := Parse(text); len(records) != 0 {
		t.Errorf("got %d records, want 0 without a retailer heading", len(records))
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if records := Parse(""); len(records) != 0 {
		t.Errorf("got %d records from empty input, want 0", len(records))
	}
}

func TestParse_EmptyHeadingIgnored(t *testing.T) {
	text := "****\nTOTAL: $25.00\n"
	if records := Parse(text); len(records) != 0 {
		t.Errorf("got %d records, want 0 for a heading with no name", len(records))
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		want  float64
		found bool
	}{
		{"dollar amount", "TOTAL: $546.24", 546.24, true},
		{"no symbol", "TOTAL: 546.24", 546.24, true},
		{"thousands", "$1,299.99", 1299.99, true},
		{"integer", "Shipping: $10", 10, true},
		{"trailing dot", "price 299.", 299, true},
		{"no number", "free shipping", 0, false},
		{"bare comma", "only , here", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractPrice(tt.line)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
