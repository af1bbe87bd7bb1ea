package models

// MonthlyAmount is one point of the historical series, already converted
// to the target currency.
type MonthlyAmount struct {
	Month  string  `json:"month"` // Format: YYYY-MM
	Amount float64 `json:"amount"`
}

// ForecastResult represents a one-month-ahead spending projection.
// Forecast is nil when there is not enough history, in which case
// Message explains why and the remaining fields are zero.
type ForecastResult struct {
	Forecast       *float64        `json:"forecast"`
	Message        string          `json:"message,omitempty"`
	Average        float64         `json:"average"`
	Trend          string          `json:"trend,omitempty"` // increasing | decreasing | stable
	ChangePercent  float64         `json:"change_percent"`
	Confidence     string          `json:"confidence,omitempty"` // high | medium
	Currency       string          `json:"currency"`
	HistoricalData []MonthlyAmount `json:"historical_data,omitempty"`
}

// CategoryForecast is a per-category projection entry.
type CategoryForecast struct {
	CategoryID    int64   `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	CategoryColor string  `json:"category_color"`
	Forecast      float64 `json:"forecast"`
	Average       float64 `json:"average"`
	Trend         string  `json:"trend"`
	LastMonth     float64 `json:"last_month"`
	Currency      string  `json:"currency"`
}
