package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/collector/crypto"
	"github.com/newthinker/fundwatch/internal/core"
)

func TestBinance_ImplementsProvider(t *testing.T) {
	var _ crypto.Provider = (*Binance)(nil)
}

func TestBinance_Name(t *testing.T) {
	b := New(collector.HTTPConfig{}, nil)
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_FetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %q, want BTCUSDT", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"BTCUSDT","priceChangePercent":"-1.234","lastPrice":"64000.50",
			"prevClosePrice":"64800.00","closeTime":1700000000000}`))
	}))
	defer server.Close()

	b := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	tick, err := b.FetchQuote(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if tick.Price != 64000.50 {
		t.Errorf("expected price 64000.50, got %f", tick.Price)
	}
	if tick.ChangePct != -1.234 {
		t.Errorf("expected change -1.234, got %f", tick.ChangePct)
	}
	if !tick.Time.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("expected close time 1700000000000, got %s", tick.Time)
	}
}

func TestBinance_FetchQuote_MissingCloseTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","priceChangePercent":"0.5","lastPrice":"64000.50"}`))
	}))
	defer server.Close()

	b := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	tick, err := b.FetchQuote(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if !tick.Time.IsZero() {
		t.Errorf("expected zero time without closeTime, got %s", tick.Time)
	}
}

func TestBinance_FetchQuote_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lastPrice":""}`))
	}))
	defer server.Close()

	b := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	_, err := b.FetchQuote(context.Background(), "BTCUSDT")
	if !errors.Is(err, core.ErrPayloadInvalid) {
		t.Errorf("expected PAYLOAD_INVALID, got %v", err)
	}
}

func TestBinance_FetchQuote_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	b := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	_, err := b.FetchQuote(context.Background(), "BTCUSDT")
	if !errors.Is(err, core.ErrProviderFailed) {
		t.Errorf("expected PROVIDER_FAILED, got %v", err)
	}
}

// Integration test - skip in CI
func TestBinance_FetchQuote_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	b := New(collector.HTTPConfig{}, nil)
	tick, err := b.FetchQuote(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if tick.Price <= 0 {
		t.Errorf("expected positive price, got %f", tick.Price)
	}
}
