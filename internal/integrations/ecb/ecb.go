package ecb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/dorlov/fintrack/internal/config"
	"github.com/sirupsen/logrus"
)

// Client fetches the ECB daily reference-rate feed. All rates are quoted
// against EUR.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new ECB feed client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.ECBFeedURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// DailyRates retrieves the current EUR-based reference rates
func (c *Client) DailyRates(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rates, err := ParseDailyFeed(body)
	if err != nil {
		return nil, err
	}

	c.log.Debugf("ECB feed returned %d reference rates", len(rates))
	return rates, nil
}

// ParseDailyFeed extracts currency/rate pairs from the ECB reference-rate
// XML document.
func ParseDailyFeed(raw []byte) (map[string]float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	cubes := doc.FindElements("//Cube[@currency]")
	if len(cubes) == 0 {
		return nil, fmt.Errorf("no rate data found in feed")
	}

	rates := make(map[string]float64, len(cubes))
	for _, cube := range cubes {
		code := cube.SelectAttrValue("currency", "")
		rateStr := cube.SelectAttrValue("rate", "")
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil || code == "" {
			return nil, fmt.Errorf("malformed rate entry %q=%q", code, rateStr)
		}
		rates[code] = rate
	}
	return rates, nil
}
