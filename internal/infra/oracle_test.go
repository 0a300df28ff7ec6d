package infra

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testOracle(t *testing.T, url string) *RateOracle {
	t.Helper()
	cfg := &Config{}
	cfg.Oracle.URL = url
	cfg.Oracle.AssetDecimals = 18
	return NewRateOracle(cfg, slog.Default())
}

func TestRateOracle_FetchAndAppraise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":2500.0}}],"error":null}}`))
	}))
	defer srv.Close()

	o := testOracle(t, srv.URL)

	if _, ok := o.GetRate(); ok {
		t.Error("rate should not be available before first sync")
	}
	if _, ok := o.Appraise(1); ok {
		t.Error("appraisal should fail before first sync")
	}

	o.Start(time.Hour)
	defer o.Stop()

	// First fetch is immediate; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := o.GetRate(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("rate never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rate, _ := o.GetRate()
	if !rate.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("rate = %s, want 2500", rate)
	}

	// 2 whole units at 18 decimals
	value, ok := o.Appraise(2_000_000_000_000_000_000)
	if !ok {
		t.Fatal("appraisal should succeed")
	}
	if !value.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("appraisal = %s, want 5000", value)
	}
}

func TestRateOracle_RejectsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":"bad symbol"}}`))
	}))
	defer srv.Close()

	o := testOracle(t, srv.URL)
	if _, err := o.fetch(context.Background()); err == nil {
		t.Error("fetch should fail on empty result")
	}
}
