// Package report extracts structured price records from the free-text
// shopping reports returned by the search agent. The input is LLM-generated
// prose with loose conventions rather than a schema, so parsing is a
// best-effort heuristic: a record is only emitted when a total price was
// found, and a failed numeric match leaves that field absent rather than
// guessing.
package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paihanhuang/shopping-agent/internal/models"
)

// priceRe captures the first digit run after an optional currency symbol.
// Thousands separators are stripped before conversion.
var priceRe = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)

// section accumulates one retailer's fields while scanning.
type section struct {
	obs      models.PriceObservation
	hasTotal bool
}

// Parse scans a report line by line and returns one record per retailer
// section that contained a parseable total price. Session id and timestamp
// are left zero for the caller to stamp.
//
// A retailer section starts at a line that both begins and ends with the
// bold marker "**". Within a section, each line is tested against an
// ordered set of case-insensitive cues: base price, tax (requires a "$" on
// the line), shipping ("free" wins over any numeral), total, URL, cashback,
// credit card. The first matching cue claims the line.
func Parse(text string) []models.PriceObservation {
	var records []models.PriceObservation
	var cur *section

	flush := func() {
		if cur != nil && cur.obs.Retailer != "" && cur.hasTotal {
			records = append(records, cur.obs)
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)

		if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") {
			flush()
			cur = &section{}
			cur.obs.Retailer = strings.TrimSpace(strings.Trim(line, "*"))
			continue
		}
		if cur == nil {
			// Preamble before the first retailer heading carries no record.
			continue
		}

		switch {
		case strings.Contains(lower, "base price:"):
			if v, ok := extractPrice(line); ok {
				cur.obs.BasePrice = v
			}
		case strings.Contains(lower, "tax") && strings.Contains(line, "$"):
			if v, ok := extractPrice(line); ok {
				cur.obs.Tax = v
			}
		case strings.Contains(lower, "shipping:"):
			if strings.Contains(lower, "free") {
				cur.obs.Shipping = 0
			} else if v, ok := extractPrice(line); ok {
				cur.obs.Shipping = v
			}
		case strings.Contains(lower, "total:"):
			if v, ok := extractPrice(line); ok {
				cur.obs.TotalPrice = v
				cur.hasTotal = true
			}
		case strings.Contains(lower, "url:"):
			if _, rest, ok := strings.Cut(line, ":"); ok {
				cur.obs.ProductURL = strings.TrimSpace(rest)
			}
		case strings.Contains(lower, "cashback"):
			cur.obs.CashbackNote = line
		case strings.Contains(lower, "credit card"), strings.Contains(line, "💳"):
			cur.obs.CardNote = line
		}
	}
	flush()
	return records
}

// extractPrice pulls the first price-looking number out of a line.
func extractPrice(line string) (float64, bool) {
	m := priceRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
