package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dorlov/fintrack/internal/config"
	"github.com/dorlov/fintrack/internal/currency"
	"github.com/dorlov/fintrack/internal/middleware"
	"github.com/dorlov/fintrack/internal/models"
	"github.com/dorlov/fintrack/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stubs

type stubStore struct {
	totals     []models.MonthlyTotal
	categories []models.CategoryRef
}

func (s *stubStore) MonthlyExpenseTotals(ctx context.Context, userID int64, categoryID *int64, since time.Time) ([]models.MonthlyTotal, error) {
	return s.totals, nil
}

func (s *stubStore) TopExpenseCategories(ctx context.Context, userID int64, since time.Time, limit int) ([]models.CategoryRef, error) {
	return s.categories, nil
}

func (s *stubStore) PreferredCurrency(ctx context.Context, userID int64) (string, error) {
	return "", nil
}

type stubConverter struct{}

func (stubConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	return amount, nil
}

type stubCache struct{}

func (stubCache) FreshRate(ctx context.Context, from, to string, maxAge time.Duration) (float64, bool, error) {
	return 0, false, nil
}
func (stubCache) AnyRate(ctx context.Context, from, to string) (float64, bool, error) {
	return 0, false, nil
}
func (stubCache) UpsertRate(ctx context.Context, from, to string, rate float64) error { return nil }

type stubSource struct {
	rate float64
	err  error
}

func (s *stubSource) PairRate(ctx context.Context, from, to string) (float64, error) {
	return s.rate, s.err
}
func (s *stubSource) LatestRates(ctx context.Context, base string) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[string]float64{"EUR": s.rate}, nil
}

var testConfig = &config.Config{JWTSecret: "test-secret"}

func newTestRouter(store *stubStore, source *stubSource) *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)

	forecastSvc := service.NewForecastService(store, stubConverter{}, log, "USD")
	rates := currency.NewProvider(stubCache{}, source, log)
	h := NewHandler(nil, forecastSvc, rates, log)

	r := mux.NewRouter()
	r.HandleFunc("/api/rates", h.Rates).Methods("GET")
	r.HandleFunc("/api/rates/convert", h.Convert).Methods("GET")
	authRouter := r.PathPrefix("/api").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(testConfig))
	authRouter.HandleFunc("/forecast", h.Forecast).Methods("GET")
	authRouter.HandleFunc("/forecast/categories", h.ForecastByCategory).Methods("GET")
	return r
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testConfig.JWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

// Tests

func TestForecastEndpoint(t *testing.T) {
	store := &stubStore{totals: []models.MonthlyTotal{
		{Year: 2025, Month: 8, Currency: "USD", Total: 300},
		{Year: 2025, Month: 7, Currency: "USD", Total: 200},
		{Year: 2025, Month: 6, Currency: "USD", Total: 100},
	}}
	router := newTestRouter(store, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	req.Header.Set("Authorization", bearerToken(t, "7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ForecastResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.NotNil(t, result.Forecast)
	assert.InDelta(t, 400, *result.Forecast, 1e-9)
	assert.Equal(t, "USD", result.Currency)
	assert.Equal(t, "increasing", result.Trend)
}

func TestForecastEndpointNotEnoughData(t *testing.T) {
	store := &stubStore{totals: []models.MonthlyTotal{
		{Year: 2025, Month: 8, Currency: "USD", Total: 300},
	}}
	router := newTestRouter(store, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	req.Header.Set("Authorization", bearerToken(t, "7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ForecastResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Nil(t, result.Forecast)
	assert.Equal(t, "not enough historical data", result.Message)
}

func TestForecastRequiresAuth(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForecastRejectsBadCategoryID(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/api/forecast?category_id=abc", nil)
	req.Header.Set("Authorization", bearerToken(t, "7"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRatesEndpointHidesUpstreamDetails(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubSource{err: errors.New("api key rejected by provider")})

	req := httptest.NewRequest(http.MethodGet, "/api/rates?base=USD", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "api key")
	assert.Contains(t, rec.Body.String(), "error")
}

func TestConvertEndpoint(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubSource{rate: 0.5})

	req := httptest.NewRequest(http.MethodGet, "/api/rates/convert?amount=200&from=USD&to=EUR", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 100.0, body["converted"])
	assert.Equal(t, "€100.00", body["formatted"])
}

func TestConvertEndpointValidation(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubSource{rate: 0.5})

	req := httptest.NewRequest(http.MethodGet, "/api/rates/convert?amount=abc&from=USD&to=EUR", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/rates/convert?amount=10&from=US&to=EUR", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
