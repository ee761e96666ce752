package crypto

import (
	"context"
	"fmt"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
)

const defaultQuoteCurrency = "USDT"

// Collector resolves crypto tickers through an ordered provider chain;
// the first provider that answers wins.
type Collector struct {
	providers    []Provider
	defaultQuote string
	logger       *zap.Logger
}

// New creates a Collector over the given providers.
func New(providers []Provider, defaultQuote string, logger *zap.Logger) *Collector {
	if defaultQuote == "" {
		defaultQuote = defaultQuoteCurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		providers:    providers,
		defaultQuote: defaultQuote,
		logger:       logger,
	}
}

func (c *Collector) Name() string {
	return "crypto"
}

// FetchQuote fetches the ticker with automatic provider fallback.
// Accepts "BTC", "BTC/USDT", "btc-usdt" and similar forms.
func (c *Collector) FetchQuote(ctx context.Context, symbol string) (*collector.Tick, error) {
	if err := ValidateCryptoSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrPayloadInvalid, err)
	}
	if len(c.providers) == 0 {
		return nil, core.Errorf(core.ErrConfigMissing, "no crypto providers configured")
	}
	normalized := NormalizeSymbol(symbol, c.defaultQuote)

	var lastErr error
	for _, p := range c.providers {
		tick, err := p.FetchQuote(ctx, normalized)
		if err == nil {
			tick.Symbol = normalized
			tick.Source = "crypto:" + p.Name()
			return tick, nil
		}
		c.logger.Debug("crypto provider failed",
			zap.String("provider", p.Name()),
			zap.String("symbol", normalized),
			zap.Error(err),
		)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("all providers failed for %s: %w", normalized, lastErr)
}
