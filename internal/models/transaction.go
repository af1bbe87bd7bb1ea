package models

// Transaction represents a financial transaction
type Transaction struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	CategoryID      *int64  `json:"category_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Type            string  `json:"type"` // "income" or "expense"
	Description     string  `json:"description"`
	TransactionDate string  `json:"transaction_date"`
	CreatedAt       string  `json:"created_at"`
}

// MonthlyTotal is one row of the server-side expense aggregation:
// the sum of expense amounts for a (year, month, currency) bucket.
// Amounts in different currencies are never summed before conversion.
type MonthlyTotal struct {
	Year     int
	Month    int
	Currency string
	Total    float64
}

// CategoryRef identifies a spending category for ranking results.
type CategoryRef struct {
	ID    int64
	Name  string
	Color string
}
