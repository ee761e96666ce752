package namecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	rows  map[string]collector.SpotRow
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeTable) Row(ctx context.Context, code string) (collector.SpotRow, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return collector.SpotRow{}, f.err
	}
	row, ok := f.rows[code]
	if !ok {
		return collector.SpotRow{}, core.ErrNotFound
	}
	return row, nil
}

type fakeInfo struct {
	names map[string]string
	calls atomic.Int32
}

func (f *fakeInfo) InstrumentName(ctx context.Context, code string) (string, error) {
	f.calls.Add(1)
	name, ok := f.names[code]
	if !ok {
		return "", core.ErrNotFound
	}
	return name, nil
}

func TestCache_Resolve_FromTable(t *testing.T) {
	table := &fakeTable{rows: map[string]collector.SpotRow{
		"600519": {Code: "600519", Name: "贵州茅台", Price: 1700, ChangePct: 1.2},
	}}
	info := &fakeInfo{}
	c := New(table, info, nil)

	e, err := c.Resolve(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, Entry{Name: "贵州茅台", Price: 1700, ChangePct: 1.2}, e)
	assert.Equal(t, int32(0), info.calls.Load(), "secondary lookup should not run")
}

func TestCache_Resolve_FallsBackToInstrumentInfo(t *testing.T) {
	tests := []struct {
		name  string
		table *fakeTable
	}{
		{"missing row", &fakeTable{rows: map[string]collector.SpotRow{}}},
		{"table error", &fakeTable{err: core.ErrProviderTimeout}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &fakeInfo{names: map[string]string{"688012": "中微公司"}}
			c := New(tt.table, info, nil)

			e, err := c.Resolve(context.Background(), "688012")
			require.NoError(t, err)
			assert.Equal(t, "中微公司", e.Name)
			assert.Zero(t, e.Price)
			assert.Zero(t, e.ChangePct)
		})
	}
}

func TestCache_Resolve_NotFound(t *testing.T) {
	table := &fakeTable{rows: map[string]collector.SpotRow{}}
	info := &fakeInfo{names: map[string]string{}}
	c := New(table, info, nil)

	_, err := c.Resolve(context.Background(), "999999")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "未知(999999)", c.Name(context.Background(), "999999"))

	// failures are not memoized
	_, _ = c.Resolve(context.Background(), "999999")
	assert.Equal(t, int32(3), table.calls.Load())

	stats := c.Stats()
	assert.Equal(t, 3, stats.Lookups)
	assert.Equal(t, 3, stats.Misses)
	assert.Equal(t, 0, stats.Size)
}

func TestCache_Resolve_MemoizesSuccess(t *testing.T) {
	table := &fakeTable{rows: map[string]collector.SpotRow{
		"000858": {Code: "000858", Name: "五粮液"},
	}}
	c := New(table, nil, nil)

	for i := 0; i < 5; i++ {
		assert.Equal(t, "五粮液", c.Name(context.Background(), "000858"))
	}

	assert.Equal(t, int32(1), table.calls.Load())
	stats := c.Stats()
	assert.Equal(t, 1, stats.Lookups)
	assert.Equal(t, 4, stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestCache_Resolve_ConcurrentCallersLookUpOnce(t *testing.T) {
	table := &fakeTable{
		rows:  map[string]collector.SpotRow{"600519": {Code: "600519", Name: "贵州茅台"}},
		delay: 20 * time.Millisecond,
	}
	c := New(table, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.Resolve(context.Background(), "600519")
			assert.NoError(t, err)
			assert.Equal(t, "贵州茅台", e.Name)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), table.calls.Load())
	assert.Equal(t, 1, c.Stats().Lookups)
}

func TestCache_NilSources(t *testing.T) {
	c := New(nil, nil, nil)
	_, err := c.Resolve(context.Background(), "600519")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "未知(600519)", Placeholder("600519"))
}
