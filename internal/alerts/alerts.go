// Package alerts flags significant price changes between a retailer's two
// most recent observations within a tracking session.
package alerts

import (
	"fmt"
	"math"
	"time"

	"github.com/paihanhuang/shopping-agent/internal/logger"
	"github.com/paihanhuang/shopping-agent/internal/models"
	"github.com/paihanhuang/shopping-agent/internal/storage"
)

// ThresholdPct is the minimum absolute percent change that raises an alert.
// Together with the two-most-recent comparison window it is a fixed design
// constant, not per-session configuration.
const ThresholdPct = 5.0

// Notifier pushes one alert to an external channel. Delivery failures are
// logged and never fail the check.
type Notifier interface {
	NotifyAlert(a models.PriceAlert) error
}

// Detector checks a session's stored observations after each tick.
type Detector struct {
	store    *storage.Storage
	notifier Notifier
}

// New returns a detector writing through the given store. notifier may be
// nil when no external channel is configured.
func New(store *storage.Storage, notifier Notifier) *Detector {
	return &Detector{store: store, notifier: notifier}
}

// Check compares the newest total price against the second newest for every
// retailer in the session and records an alert when the relative change
// clears the threshold. Retailers with fewer than two observations, or
// whose previous price is zero, are skipped. Returns the alerts raised by
// this call.
func (d *Detector) Check(sessionID int64) ([]models.PriceAlert, error) {
	points, err := d.store.RecentTotals(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent totals: %w", err)
	}

	// points arrive newest first; keep the first two per retailer.
	pairs := make(map[string][]float64)
	var retailers []string
	for _, p := range points {
		prices := pairs[p.Retailer]
		if len(prices) >= 2 {
			continue
		}
		if len(prices) == 0 {
			retailers = append(retailers, p.Retailer)
		}
		pairs[p.Retailer] = append(prices, p.Price)
	}

	var raised []models.PriceAlert
	for _, r := range retailers {
		prices := pairs[r]
		if len(prices) < 2 {
			continue
		}
		newest, previous := prices[0], prices[1]
		if previous == 0 {
			// No meaningful relative change from a zero base.
			continue
		}
		pct := (newest - previous) / previous * 100
		if math.Abs(pct) < ThresholdPct {
			continue
		}

		a := models.PriceAlert{
			SessionID: sessionID,
			Retailer:  r,
			OldPrice:  previous,
			NewPrice:  newest,
			ChangePct: pct,
			CreatedAt: time.Now(),
		}
		if err := d.store.RecordAlert(a); err != nil {
			return raised, fmt.Errorf("failed to record alert: %w", err)
		}
		logger.Info("ALERT: %s %s %.1f%% ($%.2f -> $%.2f)",
			r, direction(pct), math.Abs(pct), previous, newest)
		if d.notifier != nil {
			if err := d.notifier.NotifyAlert(a); err != nil {
				logger.Warn("alert notification failed: %v", err)
			}
		}
		raised = append(raised, a)
	}
	return raised, nil
}

// direction labels the sign of a percent change.
func direction(pct float64) string {
	if pct < 0 {
		return "dropped"
	}
	return "increased"
}
