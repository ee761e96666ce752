package eastmoney

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"resty.dev/v3"
)

const (
	// Name is the provider name used for rate limiting and source labels.
	Name = "eastmoney"

	DefaultSpotURL  = "https://82.push2.eastmoney.com"
	DefaultQuoteURL = "https://push2.eastmoney.com"
	DefaultFundURL  = "https://fundmobapi.eastmoney.com"

	defaultSpotTTL  = 30 * time.Second
	defaultPageSize = 100
)

// Config holds Eastmoney endpoint settings.
type Config struct {
	SpotURL    string
	QuoteURL   string
	FundURL    string
	Timeout    time.Duration
	RetryCount int
	SpotTTL    time.Duration // how long one bulk table download is reused
	PageSize   int
}

// Eastmoney implements the A-share and fund data sources backed by the
// Eastmoney public APIs.
type Eastmoney struct {
	spot    *resty.Client
	quote   *resty.Client
	fund    *resty.Client
	limiter *collector.Limiter
	logger  *zap.Logger

	ttl      time.Duration
	pageSize int
	now      func() time.Time

	mu        sync.RWMutex
	rows      map[string]collector.SpotRow
	fetchedAt time.Time
	inflight  singleflight.Group
}

// New creates a new Eastmoney collector. limiter may be nil.
func New(cfg Config, limiter *collector.Limiter, log *zap.Logger) *Eastmoney {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SpotURL == "" {
		cfg.SpotURL = DefaultSpotURL
	}
	if cfg.QuoteURL == "" {
		cfg.QuoteURL = DefaultQuoteURL
	}
	if cfg.FundURL == "" {
		cfg.FundURL = DefaultFundURL
	}
	if cfg.SpotTTL <= 0 {
		cfg.SpotTTL = defaultSpotTTL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	httpCfg := func(base string) collector.HTTPConfig {
		return collector.HTTPConfig{BaseURL: base, Timeout: cfg.Timeout, RetryCount: cfg.RetryCount}
	}

	return &Eastmoney{
		spot:     collector.NewHTTPClient(httpCfg(cfg.SpotURL), log),
		quote:    collector.NewHTTPClient(httpCfg(cfg.QuoteURL), log),
		fund:     collector.NewHTTPClient(httpCfg(cfg.FundURL), log),
		limiter:  limiter,
		logger:   log,
		ttl:      cfg.SpotTTL,
		pageSize: cfg.PageSize,
		now:      time.Now,
	}
}

func (e *Eastmoney) Name() string {
	return Name
}

// get performs a rate-limited GET and returns the body of a 2xx response.
func (e *Eastmoney) get(ctx context.Context, client *resty.Client, path string, params map[string]string) ([]byte, error) {
	if err := e.limiter.Wait(ctx, Name); err != nil {
		return nil, collector.ClassifyError(Name, err)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Referer", "https://quote.eastmoney.com/").
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, collector.ClassifyError(Name, err)
	}
	if !resp.IsSuccess() {
		return nil, collector.ClassifyStatus(Name, resp.StatusCode())
	}
	return []byte(resp.String()), nil
}

// parseCode converts 600519.SH or 600519 to (600519, 1) for Eastmoney secids.
// Shanghai = 1, Shenzhen and Beijing = 0
func parseCode(symbol string) (code, market string) {
	code, suffix, found := strings.Cut(strings.ToUpper(symbol), ".")
	if found {
		switch suffix {
		case "SH", "SS":
			return code, "1"
		case "SZ", "BJ":
			return code, "0"
		}
	}

	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "9"), strings.HasPrefix(code, "5"):
		return code, "1"
	default:
		return code, "0"
	}
}

func notFound(format string, args ...any) error {
	return core.Errorf(core.ErrNotFound, format, args...)
}
