package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RateOracle polls an external quote endpoint for the fiat value of the
// native settlement asset. Appraisals are advisory: the ledger never
// depends on the oracle, listings and payments stay denominated in
// asset base units.
type RateOracle struct {
	mu       sync.RWMutex
	rate     decimal.Decimal
	lastSync time.Time

	url      string
	decimals int32
	client   *http.Client
	breaker  *CircuitBreaker
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// chartResponse mirrors the quote endpoint's JSON shape.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// NewRateOracle creates an oracle with a zero rate. Call Start to begin
// polling; Appraise returns ok=false until the first successful fetch.
func NewRateOracle(cfg *Config, logger *slog.Logger) *RateOracle {
	return &RateOracle{
		rate:     decimal.Zero,
		url:      cfg.Oracle.URL,
		decimals: cfg.Oracle.AssetDecimals,
		client:   &http.Client{Timeout: 10 * time.Second},
		breaker:  NewCircuitBreaker(DefaultCircuitBreakerConfig("rate-oracle")),
		logger:   logger,
	}
}

// Start begins the polling loop. The first fetch happens immediately.
func (o *RateOracle) Start(pollInterval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})

	go func() {
		defer close(o.done)

		o.sync(ctx)

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.sync(ctx)
			}
		}
	}()
}

// Stop terminates the polling loop and waits for it to exit.
func (o *RateOracle) Stop() {
	if o.cancel != nil {
		o.cancel()
		<-o.done
	}
}

// GetRate returns the last fetched rate and whether one has been fetched.
func (o *RateOracle) GetRate() (decimal.Decimal, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rate, !o.lastSync.IsZero()
}

// Appraise converts an amount in asset base units to its fiat value.
// Returns ok=false when no rate has been fetched yet.
func (o *RateOracle) Appraise(baseUnits int64) (decimal.Decimal, bool) {
	rate, ok := o.GetRate()
	if !ok {
		return decimal.Zero, false
	}

	whole := decimal.NewFromInt(baseUnits).Shift(-o.decimals)
	return whole.Mul(rate), true
}

// sync fetches the rate with up to 3 attempts, backing off between tries.
func (o *RateOracle) sync(ctx context.Context) {
	if err := o.breaker.Allow(); err != nil {
		o.logger.Debug("oracle sync skipped", "reason", err.Error())
		return
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(CalculateBackoff(attempt - 1)):
			}
		}

		rate, err := o.fetch(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		o.mu.Lock()
		o.rate = rate
		o.lastSync = time.Now()
		o.mu.Unlock()

		o.breaker.RecordSuccess()
		o.logger.Info("oracle rate updated", "rate", rate.String())
		return
	}

	o.breaker.RecordFailure()
	o.logger.Warn("oracle sync failed", "error", lastErr)
}

func (o *RateOracle) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate endpoint status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read body: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("parse response: %w", err)
	}

	if len(parsed.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("empty result set")
	}

	price := parsed.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive rate %f", price)
	}

	return decimal.NewFromFloat(price), nil
}
