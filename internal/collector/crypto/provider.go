package crypto

import (
	"context"

	"github.com/newthinker/fundwatch/internal/collector"
)

// Provider defines the interface for cryptocurrency exchange tickers
type Provider interface {
	// Name returns the provider identifier (e.g., "binance", "okx")
	Name() string

	// FetchQuote fetches the 24h ticker for a normalized symbol (e.g., "BTCUSDT")
	FetchQuote(ctx context.Context, symbol string) (*collector.Tick, error)
}
