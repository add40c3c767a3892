// Package models defines the core domain entities: tracking sessions, price
// observations, and price alerts.
package models

import (
	"errors"
	"time"
)

// Session status values. A session makes exactly one terminal transition,
// active -> completed, and is never deleted.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// TrackingSession represents one user-initiated request to repeatedly re-run
// a price search for a fixed product query on a fixed cadence.
type TrackingSession struct {
	ID              int64      `json:"id"`
	ProductQuery    string     `json:"product_query"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	IntervalMinutes int        `json:"interval_minutes"`
	DurationHours   *int       `json:"duration_hours,omitempty"`
	Status          string     `json:"status"`
}

// Validate checks session field constraints. A nil DurationHours means the
// session runs until explicitly stopped; zero means a single price check.
func (s *TrackingSession) Validate() error {
	if s.ProductQuery == "" {
		return errors.New("product query must not be empty")
	}
	if s.IntervalMinutes <= 0 {
		return errors.New("interval must be at least one minute")
	}
	if s.DurationHours != nil && *s.DurationHours < 0 {
		return errors.New("duration hours must not be negative")
	}
	if s.Status != StatusActive && s.Status != StatusCompleted {
		return errors.New("status must be active or completed")
	}
	if s.EndedAt != nil && s.EndedAt.Before(s.StartedAt) {
		return errors.New("ended at must not precede started at")
	}
	return nil
}

// Completed reports whether the session has reached its terminal state.
func (s *TrackingSession) Completed() bool {
	return s.Status == StatusCompleted
}

// SessionOverview is a session row joined with its observation count, used
// by the recent-sessions listing.
type SessionOverview struct {
	TrackingSession
	Observations int
}
