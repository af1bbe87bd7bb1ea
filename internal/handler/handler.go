package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dorlov/fintrack/internal/currency"
	"github.com/dorlov/fintrack/internal/middleware"
	"github.com/dorlov/fintrack/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler exposes the HTTP surface
type Handler struct {
	auth     *service.Service
	forecast *service.ForecastService
	rates    *currency.Provider
	log      *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(auth *service.Service, forecast *service.ForecastService, rates *currency.Provider, log *logrus.Logger) *Handler {
	return &Handler{auth: auth, forecast: forecast, rates: rates, log: log}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes a generic error body. Upstream details are logged,
// never exposed to the caller.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type registerRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PreferredCurrency string `json:"preferred_currency"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.PreferredCurrency)
	if err != nil {
		h.log.Errorf("Registration failed: %v", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Forecast handles GET /api/forecast
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var categoryID *int64
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		categoryID = &id
	}

	target := h.forecast.ResolveCurrency(r.Context(), userID, r.URL.Query().Get("currency"))
	result, err := h.forecast.ForecastOverall(r.Context(), userID, target, categoryID)
	if err != nil {
		h.log.Errorf("Forecast failed for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to compute forecast")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ForecastByCategory handles GET /api/forecast/categories
func (h *Handler) ForecastByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	target := h.forecast.ResolveCurrency(r.Context(), userID, r.URL.Query().Get("currency"))
	forecasts, err := h.forecast.ForecastByCategory(r.Context(), userID, target)
	if err != nil {
		h.log.Errorf("Category forecast failed for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to compute forecast")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"forecasts": forecasts})
}

// Rates handles GET /api/rates
func (h *Handler) Rates(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	if base == "" {
		base = "USD"
	}

	rates, err := h.rates.LatestRates(r.Context(), base)
	if err != nil {
		h.log.Errorf("Rate snapshot failed for base %s: %v", base, err)
		respondError(w, http.StatusInternalServerError, "failed to fetch exchange rates")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"base": base, "rates": rates})
}

// Convert handles GET /api/rates/convert
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if len(from) != 3 || len(to) != 3 {
		respondError(w, http.StatusBadRequest, "from and to must be 3-letter currency codes")
		return
	}
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	converted, err := h.rates.Convert(r.Context(), amount, from, to)
	if err != nil {
		h.log.Errorf("Conversion failed %s->%s: %v", from, to, err)
		respondError(w, http.StatusInternalServerError, "failed to convert amount")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"converted": converted,
		"formatted": currency.FormatAmount(converted, to),
	})
}
