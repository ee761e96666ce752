// Package orchestrator resolves a watch list under a concurrency policy,
// producing exactly one outcome per asset.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/fundwatch/internal/core"
	"github.com/newthinker/fundwatch/internal/valuation"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Observer is called once per outcome, from the goroutine that produced it.
type Observer func(out core.Outcome, elapsed time.Duration)

// Orchestrator dispatches assets to a resolver.
type Orchestrator struct {
	resolver valuation.Resolver
	policy   Policy
	logger   *zap.Logger
	observer Observer
}

// New creates an orchestrator.
func New(resolver valuation.Resolver, policy Policy, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		resolver: resolver,
		policy:   policy,
		logger:   logger,
	}
}

// OnOutcome registers an observer. It must be safe for concurrent use
// under the parallel policy.
func (o *Orchestrator) OnOutcome(fn Observer) {
	o.observer = fn
}

// Policy returns the dispatch policy.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Run resolves every asset and returns the outcomes in completion order.
// Once ctx is cancelled the remaining assets get a CANCELLED failure.
func (o *Orchestrator) Run(ctx context.Context, assets []core.Asset) []core.Outcome {
	o.logger.Debug("dispatching assets",
		zap.Int("assets", len(assets)),
		zap.Stringer("policy", o.policy),
	)

	if o.policy.Mode == ModeSequential {
		return o.runSequential(ctx, assets)
	}
	return o.runParallel(ctx, assets)
}

func (o *Orchestrator) runParallel(ctx context.Context, assets []core.Asset) []core.Outcome {
	width := o.policy.Width
	if width <= 0 {
		width = DefaultWidth
	}

	var (
		mu       sync.Mutex
		outcomes = make([]core.Outcome, 0, len(assets))
	)
	p := pool.New().WithMaxGoroutines(width)
	for _, a := range assets {
		p.Go(func() {
			out := o.resolve(ctx, a)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		})
	}
	p.Wait()
	return outcomes
}

func (o *Orchestrator) runSequential(ctx context.Context, assets []core.Asset) []core.Outcome {
	outcomes := make([]core.Outcome, 0, len(assets))
	for i, a := range assets {
		outcomes = append(outcomes, o.resolve(ctx, a))
		if i < len(assets)-1 && o.policy.Pace > 0 {
			sleep(ctx, o.policy.Pace)
		}
	}
	return outcomes
}

// resolve runs one task. A panicking resolver yields a failure instead of
// taking the run down.
func (o *Orchestrator) resolve(ctx context.Context, a core.Asset) (out core.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("resolver panicked", zap.String("code", a.Code), zap.Any("panic", r))
			out = core.Failure(a, core.Quote{}, core.Errorf(core.ErrProviderFailed, "panic: %v", r))
		}
		o.report(out, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return core.Failure(a, core.Quote{}, core.WrapError(core.ErrCancelled, err))
	}

	out = o.resolver.Resolve(ctx, a)
	if out.Asset.Code == "" {
		out.Asset = a
	}
	if !out.OK() && ctx.Err() != nil {
		out.Err = core.WrapError(core.ErrCancelled, fmt.Errorf("%s: %w", a.Code, out.Err))
	}
	return out
}

func (o *Orchestrator) report(out core.Outcome, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("code", out.Asset.Code),
		zap.String("class", string(out.Asset.Class)),
		zap.Duration("elapsed", elapsed),
	}
	if out.OK() {
		o.logger.Info("asset resolved", append(fields,
			zap.Float64("change_pct", out.Quote.ChangePct),
			zap.String("source", out.Quote.Source),
		)...)
	} else {
		o.logger.Warn("asset failed", append(fields, zap.Error(out.Err))...)
	}
	if o.observer != nil {
		o.observer(out, elapsed)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
