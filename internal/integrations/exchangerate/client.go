package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dorlov/fintrack/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles integration with the remote exchange-rate API
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logrus.Logger
}

// NewClient initializes a new exchange-rate API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.ExchangeAPIURL,
		apiKey:  cfg.ExchangeAPIKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type pairResponse struct {
	Result         string  `json:"result"`
	ErrorType      string  `json:"error-type"`
	ConversionRate float64 `json:"conversion_rate"`
}

type latestResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// PairRate retrieves the live conversion rate for an ordered currency pair
func (c *Client) PairRate(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s/%s/pair/%s/%s", c.baseURL, c.apiKey, from, to)

	var parsed pairResponse
	if err := c.get(ctx, url, &parsed); err != nil {
		return 0, err
	}
	if parsed.Result != "success" {
		return 0, fmt.Errorf("rate API error: %s", parsed.ErrorType)
	}
	if parsed.ConversionRate <= 0 {
		return 0, fmt.Errorf("rate API returned non-positive rate for %s->%s", from, to)
	}

	c.log.Debugf("Fetched live rate %s->%s: %f", from, to, parsed.ConversionRate)
	return parsed.ConversionRate, nil
}

// LatestRates retrieves the full rate table for a base currency
func (c *Client) LatestRates(ctx context.Context, base string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, base)

	var parsed latestResponse
	if err := c.get(ctx, url, &parsed); err != nil {
		return nil, err
	}
	if parsed.Result != "success" {
		return nil, fmt.Errorf("rate API error: %s", parsed.ErrorType)
	}
	if len(parsed.ConversionRates) == 0 {
		return nil, fmt.Errorf("rate API returned no rates for base %s", base)
	}

	return parsed.ConversionRates, nil
}
