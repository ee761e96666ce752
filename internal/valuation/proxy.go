package valuation

import (
	"context"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
)

// IndexProxy values a QDII fund by its benchmark's change. It produces no
// price.
type IndexProxy struct {
	direct *Direct
	opts   Options
}

// NewIndexProxy creates a benchmark proxy reading through direct.
func NewIndexProxy(direct *Direct, opts Options) *IndexProxy {
	return &IndexProxy{direct: direct, opts: opts}
}

// Resolve implements Resolver.
func (p *IndexProxy) Resolve(ctx context.Context, a core.Asset) core.Outcome {
	if a.Benchmark == "" {
		return core.Failure(a, core.Quote{}, core.Errorf(core.ErrConfigMissing, "no benchmark for %s", a.Code))
	}

	q := core.Quote{Source: "proxy:" + a.Benchmark}
	tick, err := p.direct.Quote(ctx, a.Benchmark)
	if err != nil {
		return core.Failure(a, q, err)
	}

	q.ChangePct = Round(tick.ChangePct, 2)
	q.AsOf = formatAsOf(tick.Time)
	if p.opts.missing(q.ChangePct) {
		return core.Failure(a, q, core.Errorf(core.ErrNoData, "zero change for benchmark %s", a.Benchmark))
	}
	return core.Success(a, q)
}

// HoldingsProxy values a domestic fund by the mean change of a fixed basket
// of constituents read from the bulk quote table.
type HoldingsProxy struct {
	table  collector.SpotTable
	opts   Options
	logger *zap.Logger
}

// NewHoldingsProxy creates a basket proxy.
func NewHoldingsProxy(table collector.SpotTable, opts Options, logger *zap.Logger) *HoldingsProxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoldingsProxy{table: table, opts: opts, logger: logger}
}

// Resolve implements Resolver. Constituents that fail to resolve, or that
// report an exact zero under the zero policy, are left out of the mean.
func (p *HoldingsProxy) Resolve(ctx context.Context, a core.Asset) core.Outcome {
	q := core.Quote{Source: "holdings"}
	if len(a.Holdings) == 0 {
		return core.Failure(a, q, core.Errorf(core.ErrConfigMissing, "no constituents for %s", a.Code))
	}

	var (
		sum     float64
		count   int
		lastErr error
	)
	for _, code := range a.Holdings {
		row, err := p.table.Row(ctx, code)
		if err != nil {
			p.logger.Debug("constituent lookup failed",
				zap.String("fund", a.Code), zap.String("code", code), zap.Error(err))
			lastErr = err
			continue
		}
		if p.opts.missing(row.ChangePct) {
			continue
		}
		sum += row.ChangePct
		count++
	}

	if count == 0 {
		err := core.Errorf(core.ErrInsufficientData, "no constituent of %s reported a change", a.Code)
		if lastErr != nil {
			err = core.Errorf(core.ErrInsufficientData, "no constituent of %s reported a change: %v", a.Code, lastErr)
		}
		return core.Failure(a, q, err)
	}

	q.ChangePct = Round(sum/float64(count), 2)
	out := core.Success(a, q)
	out.Constituents = count
	return out
}
