package valuation

import (
	"context"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
)

// asOfLayout formats provider timestamps carried in quotes.
const asOfLayout = time.RFC3339

// Direct reads a quote straight from a provider. When a close source is
// set, a failed fast read falls back to the last two daily closes.
type Direct struct {
	quotes collector.QuoteSource
	closes collector.CloseSource
	opts   Options
	logger *zap.Logger
}

// NewDirect creates a direct quote resolver. closes may be nil.
func NewDirect(quotes collector.QuoteSource, closes collector.CloseSource, opts Options, logger *zap.Logger) *Direct {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Direct{
		quotes: quotes,
		closes: closes,
		opts:   opts,
		logger: logger,
	}
}

// Resolve implements Resolver. Crypto and equities need a positive price;
// indices and commodities need a usable change.
func (d *Direct) Resolve(ctx context.Context, a core.Asset) core.Outcome {
	symbol := a.Symbol
	if symbol == "" {
		symbol = a.Code
	}

	tick, err := d.Quote(ctx, symbol)
	if err != nil {
		return core.Failure(a, core.Quote{Price: core.Float(0)}, err)
	}

	q := core.Quote{
		Price:     core.Float(Round(tick.Price, 2)),
		ChangePct: Round(tick.ChangePct, 2),
		AsOf:      formatAsOf(tick.Time),
		Source:    tick.Source,
	}

	switch a.Class {
	case core.ClassCrypto, core.ClassStockUS:
		if *q.Price <= 0 {
			return core.Failure(a, q, core.Errorf(core.ErrNoData, "non-positive price for %s", symbol))
		}
	default:
		if d.opts.missing(q.ChangePct) {
			return core.Failure(a, q, core.Errorf(core.ErrNoData, "zero change for %s", symbol))
		}
	}
	return core.Success(a, q)
}

// Quote returns the provider tick for symbol, trying the fast read first
// and then the daily closes.
func (d *Direct) Quote(ctx context.Context, symbol string) (*collector.Tick, error) {
	tick, err := d.quotes.FetchQuote(ctx, symbol)
	if err == nil && tick.Price > 0 {
		return tick, nil
	}
	if d.closes == nil {
		if err == nil {
			err = core.Errorf(core.ErrNoData, "%s: no price for %s", d.quotes.Name(), symbol)
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, collector.ClassifyError(d.quotes.Name(), ctx.Err())
	}

	d.logger.Debug("fast quote failed, falling back to daily closes",
		zap.String("symbol", symbol), zap.Error(err))
	return d.fromCloses(ctx, symbol)
}

func (d *Direct) fromCloses(ctx context.Context, symbol string) (*collector.Tick, error) {
	closes, err := d.closes.FetchCloses(ctx, symbol, 2)
	if err != nil {
		return nil, err
	}
	if len(closes) < 2 {
		return nil, core.Errorf(core.ErrInsufficientData, "%d daily closes for %s", len(closes), symbol)
	}

	last, prev := closes[len(closes)-1], closes[len(closes)-2]
	if prev <= 0 {
		return nil, core.Errorf(core.ErrInsufficientData, "non-positive previous close for %s", symbol)
	}
	return &collector.Tick{
		Symbol:    symbol,
		Price:     last,
		PrevClose: prev,
		ChangePct: (last - prev) / prev * 100,
		Source:    d.quotes.Name() + ":closes",
	}, nil
}

func formatAsOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(asOfLayout)
}
