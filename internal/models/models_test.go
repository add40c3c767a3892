package models

import (
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func TestTrackingSessionValidate(t *testing.T) {
	now := time.Now()
	ended := now.Add(2 * time.Hour)
	before := now.Add(-1 * time.Hour)

	tests := []struct {
		name    string
		session TrackingSession
		wantErr bool
	}{
		{
			name: "valid indefinite session",
			session: TrackingSession{
				ProductQuery:    "PlayStation 5",
				StartedAt:       now,
				IntervalMinutes: 60,
				Status:          StatusActive,
			},
			wantErr: false,
		},
		{
			name: "valid completed session with zero duration",
			session: TrackingSession{
				ProductQuery:    "PlayStation 5",
				StartedAt:       now,
				EndedAt:         &ended,
				IntervalMinutes: 1,
				DurationHours:   intPtr(0),
				Status:          StatusCompleted,
			},
			wantErr: false,
		},
		{
			name: "empty query",
			session: TrackingSession{
				StartedAt:       now,
				IntervalMinutes: 60,
				Status:          StatusActive,
			},
			wantErr: true,
		},
		{
			name: "zero interval",
			session: TrackingSession{
				ProductQuery:    "PlayStation 5",
				StartedAt:       now,
				IntervalMinutes: 0,
				Status:          StatusActive,
			},
			wantErr: true,
		},
		{
			name: "negative duration",
			session: TrackingSession{
				ProductQuery:    "PlayStation 5",
				StartedAt:       now,
				IntervalMinutes: 60,
				DurationHours:   intPtr(-1),
				Status:          StatusActive,
			},
			wantErr: true,
		},
		{
			name: "unknown status",
			session: TrackingSession{
				ProductQuery:    "PlayStation 5",
				StartedAt:       now,
				IntervalMinutes: 60,
				Status:          "paused",
			},
			wantErr: true,
		},
		{
			name: "ended before started",
			session: TrackingSession{
				ProductQuery:    "PlayStation 5",
				StartedAt:       now,
				EndedAt:         &before,
				IntervalMinutes: 60,
				Status:          StatusCompleted,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TrackingSession.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceObservationValidate(t *testing.T) {
	tests := []struct {
		name    string
		obs     PriceObservation
		wantErr bool
	}{
		{
			name: "valid observation",
			obs: PriceObservation{
				SessionID:  1,
				ObservedAt: time.Now(),
				Retailer:   "Amazon",
				ProductURL: "https://www.amazon.com/dp/B0ABC123",
				BasePrice:  499.99,
				Tax:        46.25,
				Shipping:   0,
				TotalPrice: 546.24,
			},
			wantErr: false,
		},
		{
			name: "missing session",
			obs: PriceObservation{
				Retailer:   "Amazon",
				TotalPrice: 546.24,
			},
			wantErr: true,
		},
		{
			name: "empty retailer",
			obs: PriceObservation{
				SessionID:  1,
				TotalPrice: 546.24,
			},
			wantErr: true,
		},
		{
			name: "negative price",
			obs: PriceObservation{
				SessionID:  1,
				Retailer:   "Amazon",
				TotalPrice: -5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("PriceObservation.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionCompleted(t *testing.T) {
	s := TrackingSession{Status: StatusActive}
	if s.Completed() {
		t.Error("active session reported as completed")
	}
	s.Status = StatusCompleted
	if !s.Completed() {
		t.Error("completed session not reported as completed")
	}
}
