// Package export writes a tracking session's history to an Excel workbook
// with one sheet each for the session summary, observations, and alerts.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/paihanhuang/shopping-agent/internal/models"
	"github.com/paihanhuang/shopping-agent/internal/storage"
)

const (
	sessionSheet      = "Session"
	observationsSheet = "Observations"
	alertsSheet       = "Alerts"

	timeLayout = "2006-01-02 15:04:05"
)

// Workbook exports one session to an .xlsx file at path.
func Workbook(store *storage.Storage, sessionID int64, path string) error {
	sess, err := store.Session(sessionID)
	if err != nil {
		return err
	}
	obs, err := store.Observations(sessionID)
	if err != nil {
		return err
	}
	alerts, err := store.Alerts(sessionID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", sessionSheet); err != nil {
		return fmt.Errorf("failed to create session sheet: %w", err)
	}
	if err := writeSession(f, sess, len(obs), len(alerts)); err != nil {
		return err
	}
	if err := writeObservations(f, obs); err != nil {
		return err
	}
	if err := writeAlerts(f, alerts); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSession(f *excelize.File, sess *models.TrackingSession, observations, alerts int) error {
	endedAt := any("")
	if sess.EndedAt != nil {
		endedAt = sess.EndedAt.Format(timeLayout)
	}
	duration := any("until stopped")
	if sess.DurationHours != nil {
		duration = *sess.DurationHours
	}

	rows := [][]any{
		{"Session ID", sess.ID},
		{"Product Query", sess.ProductQuery},
		{"Status", sess.Status},
		{"Started At", sess.StartedAt.Format(timeLayout)},
		{"Ended At", endedAt},
		{"Interval (minutes)", sess.IntervalMinutes},
		{"Duration (hours)", duration},
		{"Observations", observations},
		{"Alerts", alerts},
	}
	return writeRows(f, sessionSheet, rows)
}

func writeObservations(f *excelize.File, obs []models.PriceObservation) error {
	if _, err := f.NewSheet(observationsSheet); err != nil {
		return fmt.Errorf("failed to create observations sheet: %w", err)
	}

	rows := [][]any{
		{"Observed At", "Retailer", "Total Price", "Base Price", "Tax", "Shipping", "Product URL", "Cashback", "Credit Card"},
	}
	for _, o := range obs {
		rows = append(rows, []any{
			o.ObservedAt.Format(timeLayout), o.Retailer, o.TotalPrice,
			o.BasePrice, o.Tax, o.Shipping, o.ProductURL, o.CashbackNote, o.CardNote,
		})
	}
	return writeRows(f, observationsSheet, rows)
}

func writeAlerts(f *excelize.File, alerts []models.PriceAlert) error {
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return fmt.Errorf("failed to create alerts sheet: %w", err)
	}

	rows := [][]any{
		{"Created At", "Retailer", "Old Price", "New Price", "Change %"},
	}
	for _, a := range alerts {
		rows = append(rows, []any{
			a.CreatedAt.Format(timeLayout), a.Retailer, a.OldPrice, a.NewPrice, a.ChangePct,
		})
	}
	return writeRows(f, alertsSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", sheet, err)
		}
	}
	return nil
}
