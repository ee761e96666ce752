// Package namecache resolves A-share stock codes to display names for the
// duration of one run.
package namecache

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when neither the bulk table nor the instrument
// lookup knows the code.
var ErrNotFound = core.ErrNotFound

// Entry is a resolved stock. Price and ChangePct are 0 when the name came
// from the instrument lookup.
type Entry struct {
	Name      string
	Price     float64
	ChangePct float64
}

// Stats summarises cache activity.
type Stats struct {
	Lookups int // remote resolutions attempted
	Hits    int // answered from memory
	Misses  int // lookups that ended in ErrNotFound
	Size    int
}

// Cache memoizes successful resolutions. Concurrent callers for the same
// code share one in-flight lookup. Failures are not cached.
type Cache struct {
	table  collector.SpotTable
	info   collector.InstrumentInfo
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	stats   Stats
	group   singleflight.Group
}

// New creates an empty cache. Either source may be nil.
func New(table collector.SpotTable, info collector.InstrumentInfo, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		table:   table,
		info:    info,
		logger:  logger,
		entries: make(map[string]Entry),
	}
}

// Resolve returns the entry for code, looking it up remotely at most once
// per cache while the result is a success.
func (c *Cache) Resolve(ctx context.Context, code string) (Entry, error) {
	c.mu.Lock()
	if e, ok := c.entries[code]; ok {
		c.stats.Hits++
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	v, err, shared := c.group.Do(code, func() (any, error) {
		// A caller that lost the race may arrive after the entry was stored.
		c.mu.RLock()
		e, ok := c.entries[code]
		c.mu.RUnlock()
		if ok {
			return e, nil
		}

		c.mu.Lock()
		c.stats.Lookups++
		c.mu.Unlock()

		e, err := c.lookup(ctx, code)
		if err != nil {
			c.mu.Lock()
			c.stats.Misses++
			c.mu.Unlock()
			return Entry{}, err
		}

		c.mu.Lock()
		c.entries[code] = e
		c.mu.Unlock()
		return e, nil
	})
	if shared {
		c.logger.Debug("shared name lookup", zap.String("code", code))
	}
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

func (c *Cache) lookup(ctx context.Context, code string) (Entry, error) {
	if c.table != nil {
		row, err := c.table.Row(ctx, code)
		if err == nil && row.Name != "" {
			return Entry{Name: row.Name, Price: row.Price, ChangePct: row.ChangePct}, nil
		}
		if err != nil {
			c.logger.Debug("spot table lookup failed", zap.String("code", code), zap.Error(err))
		}
	}

	if c.info != nil {
		name, err := c.info.InstrumentName(ctx, code)
		if err == nil && name != "" {
			return Entry{Name: name}, nil
		}
		if err != nil {
			c.logger.Debug("instrument lookup failed", zap.String("code", code), zap.Error(err))
		}
	}

	return Entry{}, core.Errorf(ErrNotFound, "no name for %s", code)
}

// Name resolves code to a display name, or Placeholder(code) when it
// cannot be resolved.
func (c *Cache) Name(ctx context.Context, code string) string {
	e, err := c.Resolve(ctx, code)
	if err != nil {
		return Placeholder(code)
	}
	return e.Name
}

// Placeholder is the display name used for unresolvable codes.
func Placeholder(code string) string {
	return fmt.Sprintf("未知(%s)", code)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}
