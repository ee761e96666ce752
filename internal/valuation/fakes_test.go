package valuation

import (
	"context"
	"sync/atomic"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
)

type fakeQuotes struct {
	name  string
	ticks map[string]*collector.Tick
	err   error
}

func (f *fakeQuotes) Name() string { return f.name }

func (f *fakeQuotes) FetchQuote(ctx context.Context, symbol string) (*collector.Tick, error) {
	if f.err != nil {
		return nil, f.err
	}
	tick, ok := f.ticks[symbol]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *tick
	return &cp, nil
}

type fakeCloses struct {
	closes map[string][]float64
	calls  atomic.Int32
}

func (f *fakeCloses) FetchCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	f.calls.Add(1)
	closes, ok := f.closes[symbol]
	if !ok {
		return nil, core.ErrNoData
	}
	return closes, nil
}

type fakeTable struct {
	rows  map[string]collector.SpotRow
	calls atomic.Int32
}

func (f *fakeTable) Row(ctx context.Context, code string) (collector.SpotRow, error) {
	f.calls.Add(1)
	row, ok := f.rows[code]
	if !ok {
		return collector.SpotRow{}, core.ErrNotFound
	}
	return row, nil
}

type fakeEstimator struct {
	name  string
	est   *collector.FundEstimate
	err   error
	calls atomic.Int32
}

func (f *fakeEstimator) Name() string { return f.name }

func (f *fakeEstimator) FetchEstimate(ctx context.Context, code string) (*collector.FundEstimate, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.est
	cp.Code = code
	return &cp, nil
}

type fakeHoldings struct {
	holdings []core.Holding
	err      error
}

func (f *fakeHoldings) FundHoldings(ctx context.Context, code string) ([]core.Holding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.holdings, nil
}
