package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	// BaseURL is the Yahoo Finance chart API root.
	BaseURL = "https://query1.finance.yahoo.com"
	name    = "yahoo"
)

// validSymbol matches symbols like AAPL, ^NDX, GC=F, 600519.SS, 0700.HK
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9]{1,10}(=F|\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance collector for equities, indices and
// commodity futures.
type Yahoo struct {
	client *resty.Client
}

// New creates a new Yahoo collector
func New(cfg collector.HTTPConfig, log *zap.Logger) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	return &Yahoo{client: collector.NewHTTPClient(cfg, log)}
}

func (y *Yahoo) Name() string {
	return name
}

// FetchQuote reads the regular market price and previous close from the
// chart meta block.
func (y *Yahoo) FetchQuote(ctx context.Context, symbol string) (*collector.Tick, error) {
	result, err := y.chart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	prevClose := meta.ChartPreviousClose
	if prevClose == 0 {
		prevClose = meta.PreviousClose
	}
	if meta.RegularMarketPrice <= 0 || prevClose <= 0 {
		return nil, core.Errorf(core.ErrNoData, "%s: incomplete quote for %s", name, symbol)
	}

	var at time.Time
	if meta.RegularMarketTime > 0 {
		at = time.Unix(meta.RegularMarketTime, 0)
	}

	return &collector.Tick{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		PrevClose: prevClose,
		ChangePct: (meta.RegularMarketPrice - prevClose) / prevClose * 100,
		Time:      at,
		Source:    name,
	}, nil
}

// FetchCloses returns up to days most recent daily closes, oldest first.
// Missing bars are skipped.
func (y *Yahoo) FetchCloses(ctx context.Context, symbol string, days int) ([]float64, error) {
	result, err := y.chart(ctx, symbol, "1d", "5d")
	if err != nil {
		return nil, err
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s: no bars for %s", name, symbol)
	}

	closes := make([]float64, 0, len(result.Indicators.Quote[0].Close))
	for _, c := range result.Indicators.Quote[0].Close {
		if c == nil {
			continue // Skip missing data
		}
		closes = append(closes, *c)
	}
	if days > 0 && len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

func (y *Yahoo) chart(ctx context.Context, symbol, interval, rng string) (*chartResult, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrPayloadInvalid, err)
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": interval,
			"range":    rng,
		}).
		Get("/v8/finance/chart/" + url.PathEscape(symbol))
	if err != nil {
		return nil, collector.ClassifyError(name, err)
	}
	if !resp.IsSuccess() {
		return nil, collector.ClassifyStatus(name, resp.StatusCode())
	}

	var result chartResponse
	if err := json.Unmarshal([]byte(resp.String()), &result); err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: decoding response: %v", name, err)
	}
	if result.Chart.Error != nil {
		return nil, core.Errorf(core.ErrProviderFailed, "%s: %s", name, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s: no data for symbol %s", name, symbol)
	}
	return &result.Chart.Result[0], nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	PreviousClose      float64 `json:"previousClose"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Close []*float64 `json:"close"`
}
