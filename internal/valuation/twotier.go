package valuation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"github.com/newthinker/fundwatch/internal/namecache"
	"go.uber.org/zap"
)

const (
	// NoDataTime and NoDataSource mark a fund whose estimate is unavailable
	// from every tier.
	NoDataTime   = "无数据"
	NoDataSource = "无"

	// MaxHoldings caps the disclosed holdings attached to a fund.
	MaxHoldings = 10
)

// TwoTier values an open-end fund from a primary real-time estimate feed,
// falling back to a secondary estimator, and attaches its top holdings.
type TwoTier struct {
	primary   collector.FundEstimator
	secondary collector.FundEstimator
	holdings  collector.HoldingsSource
	names     *namecache.Cache
	logger    *zap.Logger
}

// NewTwoTier creates a two-tier fund resolver. secondary, holdings and
// names may be nil.
func NewTwoTier(primary, secondary collector.FundEstimator, holdings collector.HoldingsSource,
	names *namecache.Cache, logger *zap.Logger) *TwoTier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwoTier{
		primary:   primary,
		secondary: secondary,
		holdings:  holdings,
		names:     names,
		logger:    logger,
	}
}

// Resolve implements Resolver. The fund succeeds when either the estimate
// or at least one holding is available.
func (t *TwoTier) Resolve(ctx context.Context, a core.Asset) core.Outcome {
	q := core.Quote{Source: NoDataSource}
	fund := &core.FundValuation{UpdateTime: NoDataTime, DataSource: NoDataSource}

	est, estErr := t.estimate(ctx, a.Code)
	if estErr == nil {
		q = core.Quote{
			ChangePct: Round(est.ChangePct, 2),
			AsOf:      est.UpdateTime,
			Source:    est.Source,
		}
		fund = &core.FundValuation{
			NetValue:   roundPositive(est.NetValue),
			EstValue:   roundPositive(est.EstValue),
			UpdateTime: est.UpdateTime,
			DataSource: est.Source,
		}
	}

	holdings, holdErr := t.topHoldings(ctx, a.Code)

	var out core.Outcome
	if estErr != nil && len(holdings) == 0 {
		out = core.Failure(a, q, core.Errorf(core.ErrNoData,
			"no valuation (%v) and no holdings (%v)", estErr, holdErr))
	} else {
		out = core.Success(a, q)
	}
	out.Fund = fund
	out.Holdings = holdings
	return out
}

func (t *TwoTier) estimate(ctx context.Context, code string) (*collector.FundEstimate, error) {
	est, err := t.primary.FetchEstimate(ctx, code)
	if err == nil {
		return est, nil
	}
	t.logger.Debug("primary estimate failed",
		zap.String("code", code), zap.String("provider", t.primary.Name()), zap.Error(err))

	if t.secondary == nil || ctx.Err() != nil {
		return nil, err
	}
	est, err2 := t.secondary.FetchEstimate(ctx, code)
	if err2 != nil {
		t.logger.Debug("secondary estimate failed",
			zap.String("code", code), zap.String("provider", t.secondary.Name()), zap.Error(err2))
		return nil, core.Errorf(core.ErrNoData, "%s: %v; %s: %v",
			t.primary.Name(), err, t.secondary.Name(), err2)
	}
	return est, nil
}

func (t *TwoTier) topHoldings(ctx context.Context, code string) ([]core.Holding, error) {
	if t.holdings == nil {
		return nil, core.Errorf(core.ErrConfigMissing, "no holdings source")
	}
	all, err := t.holdings.FundHoldings(ctx, code)
	if err != nil {
		t.logger.Debug("holdings lookup failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	if len(all) == 0 {
		return nil, core.Errorf(core.ErrNotFound, "no stock holdings for %s", code)
	}
	if len(all) > MaxHoldings {
		all = all[:MaxHoldings]
	}

	holdings := make([]core.Holding, len(all))
	for i, h := range all {
		if IsPlaceholderName(h.StockName) {
			h.StockName = t.resolveName(ctx, h.StockCode)
		}
		holdings[i] = h
	}
	return holdings, nil
}

func (t *TwoTier) resolveName(ctx context.Context, code string) string {
	if t.names == nil {
		return namecache.Placeholder(code)
	}
	return t.names.Name(ctx, code)
}

// IsPlaceholderName reports whether a disclosed holding name carries no
// real information and should be looked up.
func IsPlaceholderName(name string) bool {
	return name == "" ||
		name == "nan" ||
		strings.HasPrefix(name, "股票") ||
		utf8.RuneCountInString(name) < 2
}

// roundPositive rounds a net value to 4 places; non-positive values are
// reported as 0 and rendered as null.
func roundPositive(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return Round(v, 4)
}
