package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dorlov/fintrack/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, preferred_currency, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.PreferredCurrency).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, preferred_currency, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.PreferredCurrency, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, used by the monthly digest job
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, username, email, preferred_currency
		FROM users
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PreferredCurrency); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// PreferredCurrency returns the user's stored display currency, or an empty
// string if none is stored.
func (r *Repository) PreferredCurrency(ctx context.Context, userID int64) (string, error) {
	var code sql.NullString
	query := `SELECT preferred_currency FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&code)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preferred currency: %w", err)
	}
	return code.String, nil
}

// FreshRate looks up a cached rate for the ordered pair (from, to) updated
// within maxAge.
func (r *Repository) FreshRate(ctx context.Context, from, to string, maxAge time.Duration) (float64, bool, error) {
	var rate float64
	query := `
		SELECT rate FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND updated_at >= $3`
	err := r.db.QueryRowContext(ctx, query, from, to, time.Now().Add(-maxAge)).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query fresh rate: %w", err)
	}
	return rate, true, nil
}

// AnyRate looks up a cached rate for the ordered pair (from, to) regardless
// of how stale it is.
func (r *Repository) AnyRate(ctx context.Context, from, to string) (float64, bool, error) {
	var rate float64
	query := `
		SELECT rate FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2`
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query cached rate: %w", err)
	}
	return rate, true, nil
}

// UpsertRate writes the rate for the ordered pair (from, to). The latest
// write wins.
func (r *Repository) UpsertRate(ctx context.Context, from, to string, rate float64) error {
	query := `
		INSERT INTO exchange_rates (from_currency, to_currency, rate, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (from_currency, to_currency)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, from, to, rate); err != nil {
		return fmt.Errorf("failed to upsert rate: %w", err)
	}
	return nil
}

// MonthlyExpenseTotals sums expense amounts per (year, month, currency)
// bucket since the given date, newest bucket first. Amounts in different
// currencies stay in separate rows.
func (r *Repository) MonthlyExpenseTotals(ctx context.Context, userID int64, categoryID *int64, since time.Time) ([]models.MonthlyTotal, error) {
	query := `
		SELECT EXTRACT(YEAR FROM transaction_date)::int AS year,
		       EXTRACT(MONTH FROM transaction_date)::int AS month,
		       currency,
		       SUM(amount) AS total
		FROM transactions
		WHERE user_id = $1 AND type = 'expense' AND transaction_date >= $2`
	args := []interface{}{userID, since}
	if categoryID != nil {
		query += ` AND category_id = $3`
		args = append(args, *categoryID)
	}
	query += `
		GROUP BY year, month, currency
		ORDER BY year DESC, month DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	var totals []models.MonthlyTotal
	for rows.Next() {
		var t models.MonthlyTotal
		if err := rows.Scan(&t.Year, &t.Month, &t.Currency, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly totals: %w", err)
	}
	return totals, nil
}

// TopExpenseCategories ranks the user's categories by summed expense amount
// since the given date, descending, up to limit entries.
func (r *Repository) TopExpenseCategories(ctx context.Context, userID int64, since time.Time, limit int) ([]models.CategoryRef, error) {
	query := `
		SELECT c.id, c.name, c.color
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.type = 'expense'
		      AND t.transaction_date >= $2 AND t.category_id IS NOT NULL
		GROUP BY c.id, c.name, c.color
		ORDER BY SUM(t.amount) DESC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	defer rows.Close()

	var categories []models.CategoryRef
	for rows.Next() {
		var c models.CategoryRef
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top categories: %w", err)
	}
	return categories, nil
}
