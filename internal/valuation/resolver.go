// Package valuation derives a quote for each watch list asset using the
// strategy that fits its class.
package valuation

import (
	"context"
	"sort"
	"sync"

	"github.com/newthinker/fundwatch/internal/core"
	"github.com/shopspring/decimal"
)

// Resolver produces exactly one outcome for an asset. Failures are
// reported in the outcome, never by panicking or blocking past ctx.
type Resolver interface {
	Resolve(ctx context.Context, a core.Asset) core.Outcome
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, a core.Asset) core.Outcome

func (f ResolverFunc) Resolve(ctx context.Context, a core.Asset) core.Outcome {
	return f(ctx, a)
}

// Options tune how resolvers judge upstream values.
type Options struct {
	// ZeroIsMissing treats an exact 0 change as "no data" rather than a
	// flat session.
	ZeroIsMissing bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{ZeroIsMissing: true}
}

func (o Options) missing(change float64) bool {
	return o.ZeroIsMissing && change == 0
}

// Round rounds v half away from zero to the given decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Registry maps asset classes to resolvers. It is itself a Resolver that
// dispatches on the asset class.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[core.AssetClass]Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resolvers: make(map[core.AssetClass]Resolver),
	}
}

// Register sets the resolver for one or more classes.
func (r *Registry) Register(res Resolver, classes ...core.AssetClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range classes {
		r.resolvers[c] = res
	}
}

// Get retrieves the resolver for a class.
func (r *Registry) Get(class core.AssetClass) (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolvers[class]
	return res, ok
}

// Classes returns the registered classes in sorted order.
func (r *Registry) Classes() []core.AssetClass {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]core.AssetClass, 0, len(r.resolvers))
	for c := range r.resolvers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Resolve dispatches a to the resolver registered for its class.
func (r *Registry) Resolve(ctx context.Context, a core.Asset) core.Outcome {
	res, ok := r.Get(a.Class)
	if !ok {
		return core.Failure(a, core.Quote{}, core.Errorf(core.ErrConfigInvalid, "no resolver for class %q", a.Class))
	}
	return res.Resolve(ctx, a)
}
