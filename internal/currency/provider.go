package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// FreshnessWindow is how long a cached rate is served without consulting
// the remote source.
const FreshnessWindow = 24 * time.Hour

// RateCache persists rates per ordered currency pair.
type RateCache interface {
	// FreshRate returns the cached rate for (from, to) if it was updated
	// within maxAge. The second result reports whether an entry was found.
	FreshRate(ctx context.Context, from, to string, maxAge time.Duration) (float64, bool, error)
	// AnyRate returns the cached rate for (from, to) regardless of age.
	AnyRate(ctx context.Context, from, to string) (float64, bool, error)
	// UpsertRate writes the rate for (from, to) with the current timestamp.
	UpsertRate(ctx context.Context, from, to string, rate float64) error
}

// RateSource is the remote exchange-rate API.
type RateSource interface {
	PairRate(ctx context.Context, from, to string) (float64, error)
	LatestRates(ctx context.Context, base string) (map[string]float64, error)
}

// Provider resolves conversion rates between currency codes, preferring the
// persisted cache and degrading to stale cache data when the remote source
// is unavailable.
type Provider struct {
	cache  RateCache
	source RateSource
	log    *logrus.Logger
	group  singleflight.Group
}

// NewProvider initializes a new rate provider
func NewProvider(cache RateCache, source RateSource, log *logrus.Logger) *Provider {
	return &Provider{cache: cache, source: source, log: log}
}

// GetRate returns the conversion rate from one currency to another.
// Identity pairs short-circuit to 1 without touching the cache or network.
func (p *Provider) GetRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	rate, found, err := p.cache.FreshRate(ctx, from, to, FreshnessWindow)
	if err != nil {
		return 0, fmt.Errorf("rate cache lookup %s->%s: %w", from, to, err)
	}
	if found {
		return rate, nil
	}

	// Concurrent misses for the same pair are collapsed into one remote call.
	v, err, _ := p.group.Do(from+"/"+to, func() (interface{}, error) {
		return p.fetchAndCache(ctx, from, to)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// fetchAndCache asks the remote source for a live rate, falling back to an
// arbitrarily stale cache entry if the source fails.
func (p *Provider) fetchAndCache(ctx context.Context, from, to string) (float64, error) {
	live, err := p.source.PairRate(ctx, from, to)
	if err == nil {
		if cacheErr := p.cache.UpsertRate(ctx, from, to, live); cacheErr != nil {
			// A failed cache write is not worth failing the conversion over.
			p.log.Warnf("Failed to cache rate %s->%s: %v", from, to, cacheErr)
		}
		return live, nil
	}

	p.log.Warnf("Rate source failed for %s->%s: %v", from, to, err)

	stale, found, cacheErr := p.cache.AnyRate(ctx, from, to)
	if cacheErr != nil {
		return 0, fmt.Errorf("stale rate lookup %s->%s: %w", from, to, cacheErr)
	}
	if found {
		p.log.Warnf("Using stale cached rate for %s->%s", from, to)
		return stale, nil
	}
	return 0, fmt.Errorf("%s->%s: %w", from, to, ErrRateUnavailable)
}

// Convert converts amount from one currency to another. Identity conversions
// return the amount unchanged and bypass the rate lookup entirely.
func (p *Provider) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	rate, err := p.GetRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// LatestRates returns a live full snapshot of rates for the given base
// currency. The snapshot is never cached.
func (p *Provider) LatestRates(ctx context.Context, base string) (map[string]float64, error) {
	rates, err := p.source.LatestRates(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("latest rates for %s: %w: %w", base, ErrRateSource, err)
	}
	return rates, nil
}
