package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cafepos/internal/domain"
)

// RateFeed polls an exchange-rate endpoint and caches the latest
// fiat-per-BTC value. The cache never regresses to absent once a value
// has been observed; a failed refresh keeps the prior value.
type RateFeed struct {
	url      string
	currency string
	interval time.Duration
	client   *http.Client

	mu     sync.RWMutex
	latest *domain.ExchangeRate

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateFeed creates a rate feed polling the given URL every interval.
// The endpoint is expected to answer with a Coinbase-style exchange-rates
// document carrying a rate for the given fiat currency code.
func NewRateFeed(url, currency string, interval time.Duration) *RateFeed {
	return &RateFeed{
		url:      url,
		currency: currency,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		stop:     make(chan struct{}),
	}
}

// Start performs an immediate fetch and schedules periodic refreshes.
// It returns after the first fetch completes (successfully or not).
func (f *RateFeed) Start(ctx context.Context) {
	if _, err := f.ForceRefresh(ctx); err != nil {
		log.Printf("rate feed: initial fetch failed: %v", err)
	}

	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := f.ForceRefresh(ctx); err != nil {
					log.Printf("rate feed: refresh failed: %v", err)
				}
			case <-f.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the periodic refresh. A refresh in flight may still
// complete and update the cache.
func (f *RateFeed) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// Current returns the latest observed rate, or nil before the first
// successful fetch.
func (f *RateFeed) Current() *domain.ExchangeRate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.latest == nil {
		return nil
	}
	rate := *f.latest
	return &rate
}

// ForceRefresh fetches the rate synchronously and updates the cache on
// success. On failure the cached value is left untouched.
func (f *RateFeed) ForceRefresh(ctx context.Context) (*domain.ExchangeRate, error) {
	rate, err := f.fetch(ctx)
	if err != nil {
		return nil, err
	}

	observed := &domain.ExchangeRate{Value: rate, ObservedAt: time.Now()}

	f.mu.Lock()
	f.latest = observed
	f.mu.Unlock()

	out := *observed
	return &out, nil
}

// ratesResponse mirrors the exchange-rates document shape:
// {"data":{"currency":"BTC","rates":{"USD":"87345.12", ...}}}.
type ratesResponse struct {
	Data struct {
		Rates map[string]string `json:"rates"`
	} `json:"data"`
}

func (f *RateFeed) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("rate fetch failed: status %d", resp.StatusCode)
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("rate fetch failed: %w", err)
	}

	raw, ok := parsed.Data.Rates[f.currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate fetch failed: no %s rate in response", f.currency)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate fetch failed: %w", err)
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("rate fetch failed: non-positive rate %s", raw)
	}

	return rate, nil
}
