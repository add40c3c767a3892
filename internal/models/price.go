package models

import (
	"errors"
	"time"
)

// PriceObservation is one retailer's parsed price snapshot from a single
// tick of a tracking session. Fields the report did not mention are zero;
// a row is only ever persisted when a total price was parsed.
type PriceObservation struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"session_id"`
	ObservedAt   time.Time `json:"observed_at"`
	Retailer     string    `json:"retailer"`
	ProductURL   string    `json:"product_url,omitempty"`
	BasePrice    float64   `json:"base_price"`
	Tax          float64   `json:"tax"`
	Shipping     float64   `json:"shipping"`
	TotalPrice   float64   `json:"total_price"`
	CashbackNote string    `json:"cashback_note,omitempty"`
	CardNote     string    `json:"card_note,omitempty"`
}

// Validate checks observation field constraints.
func (o *PriceObservation) Validate() error {
	if o.SessionID <= 0 {
		return errors.New("session ID must be positive")
	}
	if o.Retailer == "" {
		return errors.New("retailer must not be empty")
	}
	if o.BasePrice < 0 || o.Tax < 0 || o.Shipping < 0 || o.TotalPrice < 0 {
		return errors.New("prices must not be negative")
	}
	return nil
}

// PriceAlert records a significant change between a retailer's two most
// recent observations within one session.
type PriceAlert struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Retailer  string    `json:"retailer"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
	ChangePct float64   `json:"change_pct"`
	CreatedAt time.Time `json:"created_at"`
}

// RetailerStats aggregates one retailer's observations within a session.
type RetailerStats struct {
	Retailer string
	Checks   int
	MinPrice float64
	MaxPrice float64
	AvgPrice float64
}

// PricePoint is a single (retailer, total price, timestamp) sample.
type PricePoint struct {
	Retailer   string
	Price      float64
	ObservedAt time.Time
}

// BestDeal is the lowest total price seen across all retailers in a session.
type BestDeal struct {
	Retailer   string
	Price      float64
	ObservedAt time.Time
}
