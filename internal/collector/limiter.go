package collector

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces requests per provider. Providers without a configured rate
// are not limited.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewLimiter creates a limiter from requests-per-second values keyed by
// provider name. Non-positive rates mean unlimited.
func NewLimiter(rps map[string]float64) *Limiter {
	l := &Limiter{limiters: make(map[string]*rate.Limiter, len(rps))}
	for name, r := range rps {
		l.Set(name, r)
	}
	return l
}

// Set replaces the rate for a provider.
func (l *Limiter) Set(provider string, rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rps <= 0 {
		delete(l.limiters, provider)
		return
	}
	l.limiters[provider] = rate.NewLimiter(rate.Limit(rps), 1)
}

// Wait blocks until a request to provider is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	limiter, ok := l.limiters[provider]
	l.mu.RUnlock()

	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
