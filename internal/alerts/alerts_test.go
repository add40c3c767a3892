package alerts

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/paihanhuang/shopping-agent/internal/models"
	"github.com/paihanhuang/shopping-agent/internal/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func appendTotals(t *testing.T, s *storage.Storage, sessionID int64, retailer string, totals ...float64) {
	t.Helper()
	base := time.Now().Add(-time.Duration(len(totals)) * time.Minute)
	for i, total := range totals {
		obs := []models.PriceObservation{{
			Retailer:   retailer,
			TotalPrice: total,
			ObservedAt: base.Add(time.Duration(i) * time.Minute),
		}}
		if _, err := s.AppendObservations(sessionID, obs); err != nil {
			t.Fatalf("AppendObservations: %v", err)
		}
	}
}

type recordingNotifier struct {
	alerts []models.PriceAlert
	err    error
}

func (n *recordingNotifier) NotifyAlert(a models.PriceAlert) error {
	n.alerts = append(n.alerts, a)
	return n.err
}

func TestCheck_DropAboveThreshold(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00, 94.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 1 {
		t.Fatalf("got %d alerts, want 1", len(raised))
	}
	a := raised[0]
	if a.Retailer != "Amazon" {
		t.Errorf("retailer: got %q, want Amazon", a.Retailer)
	}
	if a.OldPrice != 100 || a.NewPrice != 94 {
		t.Errorf("prices: got %v -> %v, want 100 -> 94", a.OldPrice, a.NewPrice)
	}
	if math.Abs(a.ChangePct-(-6.0)) > 0.01 {
		t.Errorf("pct: got %v, want ~ -6.0", a.ChangePct)
	}

	// The alert must be durably recorded, not just returned.
	stored, err := s.Alerts(id)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("got %d stored alerts, want 1", len(stored))
	}
}

func TestCheck_SmallMoveNoAlert(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00, 96.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 0 {
		t.Errorf("got %d alerts for a 4%% move, want 0", len(raised))
	}
}

func TestCheck_ThresholdInclusive(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00, 105.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 1 {
		t.Fatalf("got %d alerts at exactly +5%%, want 1", len(raised))
	}
	if raised[0].ChangePct < 0 {
		t.Errorf("pct sign: got %v, want positive", raised[0].ChangePct)
	}
}

func TestCheck_SingleObservation(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 0 {
		t.Errorf("got %d alerts with one observation, want 0", len(raised))
	}
}

func TestCheck_ZeroOldPriceSkipped(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 0, 50.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 0 {
		t.Errorf("got %d alerts against a zero base, want 0", len(raised))
	}
}

func TestCheck_UsesTwoMostRecent(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	// Oldest 100 must be ignored: the window is 200 -> 206 (+3%).
	appendTotals(t, s, id, "Amazon", 100.00, 200.00, 206.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 0 {
		t.Errorf("got %d alerts, want 0 (only the two newest compare)", len(raised))
	}
}

func TestCheck_MultipleRetailers(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00, 90.00)
	appendTotals(t, s, id, "Walmart", 100.00, 99.00)
	appendTotals(t, s, id, "Best Buy", 100.00, 110.00)

	d := New(s, nil)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(raised) != 2 {
		t.Fatalf("got %d alerts, want 2 (Amazon drop, Best Buy increase)", len(raised))
	}
	byRetailer := map[string]models.PriceAlert{}
	for _, a := range raised {
		byRetailer[a.Retailer] = a
	}
	if a, ok := byRetailer["Amazon"]; !ok || a.ChangePct > 0 {
		t.Errorf("Amazon alert missing or wrong sign: %+v", a)
	}
	if a, ok := byRetailer["Best Buy"]; !ok || a.ChangePct < 0 {
		t.Errorf("Best Buy alert missing or wrong sign: %+v", a)
	}
}

func TestCheck_NotifierReceivesAlert(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00, 94.00)

	n := &recordingNotifier{}
	d := New(s, n)
	if _, err := d.Check(id); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(n.alerts) != 1 {
		t.Fatalf("notifier got %d alerts, want 1", len(n.alerts))
	}
	if n.alerts[0].Retailer != "Amazon" {
		t.Errorf("notified retailer: got %q, want Amazon", n.alerts[0].Retailer)
	}
}

func TestCheck_NotifierErrorNotFatal(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.CreateSession("PlayStation 5", 60, nil)
	appendTotals(t, s, id, "Amazon", 100.00, 94.00)

	n := &recordingNotifier{err: errors.New("telegram down")}
	d := New(s, n)
	raised, err := d.Check(id)
	if err != nil {
		t.Fatalf("Check should contain notifier errors, got: %v", err)
	}
	if len(raised) != 1 {
		t.Errorf("got %d alerts, want 1 despite notifier failure", len(raised))
	}
}

func TestDirection(t *testing.T) {
	if got := direction(-6.0); got != "dropped" {
		t.Errorf("direction(-6): got %q, want dropped", got)
	}
	if got := direction(6.0); got != "increased" {
		t.Errorf("direction(6): got %q, want increased", got)
	}
}
