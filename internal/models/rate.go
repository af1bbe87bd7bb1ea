package models

import "time"

// ExchangeRate is a cached conversion rate for an ordered currency pair.
// A→B and B→A are stored as separate entries.
type ExchangeRate struct {
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	UpdatedAt    time.Time `json:"updated_at"`
}
