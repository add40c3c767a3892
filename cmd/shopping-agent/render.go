package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/paihanhuang/shopping-agent/internal/models"
	"github.com/paihanhuang/shopping-agent/internal/storage"
)

const timeLayout = "2006-01-02 15:04:05"

// truncate shortens s to at most max characters, ending in ".." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-2]) + ".."
}

func renderStats(out io.Writer, sess *models.TrackingSession, stats []models.RetailerStats, alertCount int) {
	divider := strings.Repeat("=", 60)
	fmt.Fprintf(out, "\n%s\n", divider)
	fmt.Fprintf(out, "📊 STATISTICS - Session #%d [%s]\n", sess.ID, strings.ToUpper(sess.Status))
	fmt.Fprintln(out, divider)
	fmt.Fprintf(out, "Product: %s\n", sess.ProductQuery)
	fmt.Fprintf(out, "Started: %s\n", sess.StartedAt.Format(timeLayout))

	if len(stats) > 0 {
		fmt.Fprintf(out, "\n%-20s %-8s %-12s %-12s %-12s\n", "Retailer", "Checks", "Min", "Max", "Avg")
		fmt.Fprintln(out, strings.Repeat("-", 64))
		for _, row := range stats {
			fmt.Fprintf(out, "%-20s %-8d $%-10.2f $%-10.2f $%-10.2f\n",
				truncate(row.Retailer, 20), row.Checks, row.MinPrice, row.MaxPrice, row.AvgPrice)
		}
	} else {
		fmt.Fprint(out, "\nNo price data recorded yet.\n")
	}

	fmt.Fprintf(out, "\n🚨 Price alerts: %d\n", alertCount)
}

// trendLine is one retailer's first-to-last price movement within a session.
type trendLine struct {
	Retailer string
	First    float64
	Last     float64
	Pct      float64
}

// buildTrends computes per-retailer trends. Retailers with fewer than two
// observations, or a zero first price, contribute no line.
func buildTrends(store *storage.Storage, sessionID int64) ([]trendLine, error) {
	retailers, err := store.Retailers(sessionID)
	if err != nil {
		return nil, err
	}
	var trends []trendLine
	for _, retailer := range retailers {
		series, err := store.PriceSeries(sessionID, retailer)
		if err != nil {
			return nil, err
		}
		if len(series) < 2 {
			continue
		}
		first := series[0].Price
		last := series[len(series)-1].Price
		if first <= 0 {
			continue
		}
		trends = append(trends, trendLine{
			Retailer: retailer,
			First:    first,
			Last:     last,
			Pct:      (last - first) / first * 100,
		})
	}
	return trends, nil
}

func trendMarker(pct float64) string {
	switch {
	case pct < 0:
		return "📉"
	case pct > 0:
		return "📈"
	default:
		return "➡️"
	}
}

func renderSummary(out io.Writer, sess *models.TrackingSession, deal *models.BestDeal, trends []trendLine, alerts []models.PriceAlert) {
	divider := strings.Repeat("=", 60)
	fmt.Fprintf(out, "\n%s\n", divider)
	fmt.Fprintf(out, "📋 SUMMARY - Session #%d [%s]\n", sess.ID, strings.ToUpper(sess.Status))
	fmt.Fprintln(out, divider)
	fmt.Fprintf(out, "📦 Product: %s\n", sess.ProductQuery)
	ended := "ongoing"
	if sess.EndedAt != nil {
		ended = sess.EndedAt.Format(timeLayout)
	}
	fmt.Fprintf(out, "📅 Period: %s to %s\n", sess.StartedAt.Format(timeLayout), ended)
	fmt.Fprintf(out, "⏱️ Interval: Every %d minutes\n", sess.IntervalMinutes)

	if deal != nil {
		fmt.Fprintf(out, "\n🏆 BEST DEAL: %s at $%.2f\n", deal.Retailer, deal.Price)
		fmt.Fprint(out, "\n📈 PRICE TRENDS:\n")
		for _, tl := range trends {
			fmt.Fprintf(out, "   %s %s: $%.2f → $%.2f (%+.1f%%)\n",
				trendMarker(tl.Pct), tl.Retailer, tl.First, tl.Last, tl.Pct)
		}
	}

	if len(alerts) > 0 {
		fmt.Fprintf(out, "\n🚨 ALERTS (%d):\n", len(alerts))
		recent := alerts
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		for _, al := range recent {
			marker := "↑"
			if al.ChangePct < 0 {
				marker = "↓"
			}
			fmt.Fprintf(out, "   %s %s: $%.2f → $%.2f (%+.1f%%)\n",
				marker, al.Retailer, al.OldPrice, al.NewPrice, al.ChangePct)
		}
	}

	fmt.Fprintf(out, "%s\n\n", divider)
}

func renderSessions(out io.Writer, overviews []models.SessionOverview, live map[int64]bool) {
	divider := strings.Repeat("=", 70)
	fmt.Fprintf(out, "\n%s\n", divider)
	fmt.Fprintln(out, "📋 TRACKING SESSIONS")
	fmt.Fprintln(out, divider)
	fmt.Fprintf(out, "%-5s %-25s %-12s %-10s %-8s\n", "ID", "Product", "Status", "Records", "Active")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, o := range overviews {
		marker := ""
		if live[o.ID] {
			marker = "✅"
		}
		fmt.Fprintf(out, "%-5d %-25s %-12s %-10d %-8s\n",
			o.ID, truncate(o.ProductQuery, 25), o.Status, o.Observations, marker)
	}
}
