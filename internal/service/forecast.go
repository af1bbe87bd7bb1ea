package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dorlov/fintrack/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	historyMonths  = 3
	rankingMonths  = 1
	topCategories  = 5
	notEnoughData  = "not enough historical data"
	trendUp        = "increasing"
	trendDown      = "decreasing"
	trendStable    = "stable"
	confidenceHigh = "high"
	confidenceMed  = "medium"
)

// TransactionStore supplies aggregated transaction data for forecasting.
type TransactionStore interface {
	MonthlyExpenseTotals(ctx context.Context, userID int64, categoryID *int64, since time.Time) ([]models.MonthlyTotal, error)
	TopExpenseCategories(ctx context.Context, userID int64, since time.Time, limit int) ([]models.CategoryRef, error)
	PreferredCurrency(ctx context.Context, userID int64) (string, error)
}

// Converter normalizes amounts between currencies.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// ForecastService projects next-month spending from historical monthly
// buckets normalized into a single display currency.
type ForecastService struct {
	store           TransactionStore
	converter       Converter
	log             *logrus.Logger
	defaultCurrency string
}

// NewForecastService initializes a new forecast service
func NewForecastService(store TransactionStore, converter Converter, log *logrus.Logger, defaultCurrency string) *ForecastService {
	return &ForecastService{
		store:           store,
		converter:       converter,
		log:             log,
		defaultCurrency: defaultCurrency,
	}
}

// ResolveCurrency picks the display currency for a request: the explicitly
// requested code, else the user's stored preference, else the default.
func (s *ForecastService) ResolveCurrency(ctx context.Context, userID int64, requested string) string {
	if requested != "" {
		return requested
	}
	stored, err := s.store.PreferredCurrency(ctx, userID)
	if err != nil {
		s.log.Warnf("Failed to read preferred currency for user %d: %v", userID, err)
		return s.defaultCurrency
	}
	if stored == "" {
		return s.defaultCurrency
	}
	return stored
}

// bucket is a (year, month) aggregation unit after currency normalization.
type bucket struct {
	year   int
	month  int
	amount float64
}

func (b bucket) label() string {
	return fmt.Sprintf("%04d-%02d", b.year, b.month)
}

// ForecastOverall fits a linear trend to the user's last three months of
// spending, optionally scoped to one category, and extrapolates one month
// ahead. With fewer than two monthly buckets it returns a soft result with
// a nil forecast instead of an error.
func (s *ForecastService) ForecastOverall(ctx context.Context, userID int64, targetCurrency string, categoryID *int64) (*models.ForecastResult, error) {
	since := time.Now().AddDate(0, -historyMonths, 0)
	rows, err := s.store.MonthlyExpenseTotals(ctx, userID, categoryID, since)
	if err != nil {
		return nil, fmt.Errorf("load monthly totals: %w", err)
	}
	if len(rows) < 2 {
		return &models.ForecastResult{Message: notEnoughData, Currency: targetCurrency}, nil
	}

	buckets, err := s.mergeBuckets(ctx, rows, targetCurrency)
	if err != nil {
		return nil, err
	}
	// Rows in different currencies can collapse into the same month.
	if len(buckets) < 2 {
		return &models.ForecastResult{Message: notEnoughData, Currency: targetCurrency}, nil
	}

	n := len(buckets)
	ys := make([]float64, n)
	var sum float64
	for i, b := range buckets {
		ys[i] = b.amount
		sum += b.amount
	}

	slope, intercept := fitLinear(ys)
	forecast := slope*float64(n) + intercept
	if forecast < 0 {
		forecast = 0
	}
	average := sum / float64(n)

	trend := trendStable
	if slope > 0 {
		trend = trendUp
	} else if slope < 0 {
		trend = trendDown
	}

	changePercent := 0.0
	if average != 0 {
		changePercent = (forecast - average) / average * 100
	}

	confidence := confidenceMed
	if n >= 3 {
		confidence = confidenceHigh
	}

	historical := make([]models.MonthlyAmount, n)
	for i, b := range buckets {
		historical[i] = models.MonthlyAmount{Month: b.label(), Amount: b.amount}
	}

	return &models.ForecastResult{
		Forecast:       &forecast,
		Average:        average,
		Trend:          trend,
		ChangePercent:  changePercent,
		Confidence:     confidence,
		Currency:       targetCurrency,
		HistoricalData: historical,
	}, nil
}

// ForecastByCategory projects spending for the user's five biggest
// categories of the last month. Categories with fewer than two monthly
// buckets are omitted, and the ranking order is preserved.
func (s *ForecastService) ForecastByCategory(ctx context.Context, userID int64, targetCurrency string) ([]models.CategoryForecast, error) {
	since := time.Now().AddDate(0, -rankingMonths, 0)
	categories, err := s.store.TopExpenseCategories(ctx, userID, since, topCategories)
	if err != nil {
		return nil, fmt.Errorf("rank categories: %w", err)
	}

	forecasts := make([]models.CategoryForecast, 0, len(categories))
	for _, cat := range categories {
		result, err := s.ForecastOverall(ctx, userID, targetCurrency, &cat.ID)
		if err != nil {
			return nil, err
		}
		if result.Forecast == nil {
			continue
		}
		lastMonth := result.HistoricalData[len(result.HistoricalData)-1].Amount
		forecasts = append(forecasts, models.CategoryForecast{
			CategoryID:    cat.ID,
			CategoryName:  cat.Name,
			CategoryColor: cat.Color,
			Forecast:      *result.Forecast,
			Average:       result.Average,
			Trend:         result.Trend,
			LastMonth:     lastMonth,
			Currency:      targetCurrency,
		})
	}
	return forecasts, nil
}

// mergeBuckets converts every aggregate row into the target currency and
// accumulates the results per (year, month), ascending. Conversions run
// concurrently; any single failure aborts the whole computation so partial
// results are never returned.
func (s *ForecastService) mergeBuckets(ctx context.Context, rows []models.MonthlyTotal, targetCurrency string) ([]bucket, error) {
	converted := make([]float64, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			amount, err := s.converter.Convert(gctx, row.Total, row.Currency, targetCurrency)
			if err != nil {
				return fmt.Errorf("convert %04d-%02d %s bucket: %w", row.Year, row.Month, row.Currency, err)
			}
			converted[i] = amount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[int]*bucket)
	for i, row := range rows {
		key := row.Year*100 + row.Month
		if b, ok := merged[key]; ok {
			b.amount += converted[i]
			continue
		}
		merged[key] = &bucket{year: row.Year, month: row.Month, amount: converted[i]}
	}

	buckets := make([]bucket, 0, len(merged))
	for _, b := range merged {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].year != buckets[j].year {
			return buckets[i].year < buckets[j].year
		}
		return buckets[i].month < buckets[j].month
	})
	return buckets, nil
}

// fitLinear performs an ordinary least squares fit of y against equally
// spaced indices x = 0..n-1. Callers must pass at least two points.
func fitLinear(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
