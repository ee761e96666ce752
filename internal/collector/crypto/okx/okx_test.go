package okx

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/collector/crypto"
	"github.com/newthinker/fundwatch/internal/core"
)

func TestOKX_ImplementsProvider(t *testing.T) {
	var _ crypto.Provider = (*OKX)(nil)
}

func TestOKX_ToInstID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"BTCUSDT", "BTC-USDT"},
		{"ETHBTC", "ETH-BTC"},
		{"DOGEUSDT", "DOGE-USDT"},
	}
	for _, tc := range tests {
		if got := toInstID(tc.input); got != tc.expected {
			t.Errorf("toInstID(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestOKX_FetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("instId"); got != "ETH-USDT" {
			t.Errorf("instId = %q, want ETH-USDT", got)
		}
		w.Write([]byte(`{"code":"0","msg":"","data":[{"instId":"ETH-USDT","last":"2020","open24h":"2000","ts":"1700000000000"}]}`))
	}))
	defer server.Close()

	o := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	tick, err := o.FetchQuote(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if tick.Price != 2020 {
		t.Errorf("expected price 2020, got %f", tick.Price)
	}
	if math.Abs(tick.ChangePct-1.0) > 1e-9 {
		t.Errorf("expected change 1%%, got %f", tick.ChangePct)
	}
}

func TestOKX_FetchQuote_MissingTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","msg":"","data":[{"instId":"ETH-USDT","last":"2020","open24h":"2000"}]}`))
	}))
	defer server.Close()

	o := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	tick, err := o.FetchQuote(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if !tick.Time.IsZero() {
		t.Errorf("expected zero time without ts, got %s", tick.Time)
	}
}

func TestOKX_FetchQuote_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer server.Close()

	o := New(collector.HTTPConfig{BaseURL: server.URL}, nil)
	_, err := o.FetchQuote(context.Background(), "XXXUSDT")
	if !errors.Is(err, core.ErrProviderFailed) {
		t.Errorf("expected PROVIDER_FAILED, got %v", err)
	}
}
