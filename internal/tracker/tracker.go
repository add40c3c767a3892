// Package tracker runs background price-tracking sessions. Each session
// periodically asks the shopping agent for prices, stores the parsed
// observations and checks them for significant changes. Starting a session
// returns immediately; the loop is cancellable at any point, including
// mid-search.
package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paihanhuang/shopping-agent/internal/alerts"
	"github.com/paihanhuang/shopping-agent/internal/logger"
	"github.com/paihanhuang/shopping-agent/internal/report"
	"github.com/paihanhuang/shopping-agent/internal/storage"
)

// Searcher produces a price report for a product query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// ActiveSession describes one running tracking loop.
type ActiveSession struct {
	SessionID       int64
	ProductQuery    string
	IntervalMinutes int
	StartedAt       time.Time
	Stopping        bool
}

type handle struct {
	cancel   context.CancelFunc
	done     chan struct{}
	meta     ActiveSession
	stopping bool
}

// Tracker owns the background tracking loops and their registry.
type Tracker struct {
	store    *storage.Storage
	searcher Searcher
	detector *alerts.Detector

	// OnComplete, when set, runs from the session goroutine after the
	// session reaches its terminal state. Set it before the first Start.
	OnComplete func(sessionID int64, query, reason string)

	mu      sync.Mutex
	running map[int64]*handle

	// tickDelay overrides the per-session interval when positive. Tests use
	// it to run multi-tick sessions quickly.
	tickDelay time.Duration
}

func New(store *storage.Storage, searcher Searcher, detector *alerts.Detector) *Tracker {
	return &Tracker{
		store:    store,
		searcher: searcher,
		detector: detector,
		running:  make(map[int64]*handle),
	}
}

// Start persists a new session and launches its tracking loop in the
// background, returning the session id immediately. A nil durationHours
// tracks until explicitly stopped; zero hours checks prices exactly once.
func (t *Tracker) Start(query string, intervalMinutes int, durationHours *int) (int64, error) {
	sessionID, err := t.store.CreateSession(query, intervalMinutes, durationHours)
	if err != nil {
		return 0, fmt.Errorf("failed to start tracking: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{
		cancel: cancel,
		done:   make(chan struct{}),
		meta: ActiveSession{
			SessionID:       sessionID,
			ProductQuery:    query,
			IntervalMinutes: intervalMinutes,
			StartedAt:       time.Now(),
		},
	}

	t.mu.Lock()
	t.running[sessionID] = h
	t.mu.Unlock()

	go t.run(ctx, sessionID, query, intervalMinutes, durationHours, h.done)

	logger.Info("Session #%d started tracking %q (interval: %dm)", sessionID, query, intervalMinutes)
	return sessionID, nil
}

func (t *Tracker) run(ctx context.Context, sessionID int64, query string, intervalMinutes int, durationHours *int, done chan struct{}) {
	reason := "stopped"
	defer close(done)
	defer func() { t.finish(sessionID, query, reason) }()

	start := time.Now()
	checks := 0

	for {
		if ctx.Err() != nil {
			return
		}
		// The duration window closes only after the first check, so a
		// zero-hour session still observes prices exactly once.
		if durationHours != nil && checks > 0 && time.Since(start) >= time.Duration(*durationHours)*time.Hour {
			logger.Info("Session #%d: duration (%dh) completed", sessionID, *durationHours)
			reason = fmt.Sprintf("duration (%dh) reached", *durationHours)
			return
		}

		checks++
		logger.Info("Session #%d: price check #%d", sessionID, checks)
		if err := t.tick(ctx, sessionID, query); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Session #%d check failed: %v", sessionID, err)
		}

		wait := time.Duration(intervalMinutes) * time.Minute
		if t.tickDelay > 0 {
			wait = t.tickDelay
		}
		if durationHours != nil {
			remaining := time.Duration(*durationHours)*time.Hour - time.Since(start)
			if remaining < wait {
				wait = remaining
			}
			if wait < 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// tick runs one search-parse-store-check cycle.
func (t *Tracker) tick(ctx context.Context, sessionID int64, query string) error {
	rep, err := t.searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	obs := report.Parse(rep)
	saved, err := t.store.AppendObservations(sessionID, obs)
	if err != nil {
		return fmt.Errorf("failed to store observations: %w", err)
	}
	logger.Info("Session #%d: saved %d price records", sessionID, saved)

	if _, err := t.detector.Check(sessionID); err != nil {
		return fmt.Errorf("alert check failed: %w", err)
	}
	return nil
}

// finish runs on every loop exit, natural or cancelled: the session is
// marked completed exactly once and leaves the registry.
func (t *Tracker) finish(sessionID int64, query, reason string) {
	if err := t.store.CompleteSession(sessionID); err != nil {
		logger.Error("Session #%d: failed to mark completed: %v", sessionID, err)
	}

	t.mu.Lock()
	delete(t.running, sessionID)
	t.mu.Unlock()

	logger.Info("Session #%d stopped (%s)", sessionID, reason)
	if t.OnComplete != nil {
		t.OnComplete(sessionID, query, reason)
	}
}

// Stop cancels a running session's loop and waits for it to wind down. It
// returns false when the session is not currently running.
func (t *Tracker) Stop(sessionID int64) bool {
	t.mu.Lock()
	h, ok := t.running[sessionID]
	if ok {
		h.stopping = true
	}
	t.mu.Unlock()
	if !ok {
		return false
	}

	h.cancel()
	<-h.done
	return true
}

// StopAll stops every running session and waits for all of them. Used at
// shutdown.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	handles := make([]*handle, 0, len(t.running))
	for _, h := range t.running {
		h.stopping = true
		handles = append(handles, h)
	}
	t.mu.Unlock()

	for _, h := range handles {
		h.cancel()
		<-h.done
	}
}

// Active lists the sessions whose loops are currently running, newest first.
func (t *Tracker) Active() []ActiveSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := make([]ActiveSession, 0, len(t.running))
	for _, h := range t.running {
		meta := h.meta
		meta.Stopping = h.stopping
		sessions = append(sessions, meta)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SessionID > sessions[j].SessionID
	})
	return sessions
}
