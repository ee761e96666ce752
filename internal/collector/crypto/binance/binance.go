package binance

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	// BaseURL is the Binance spot REST API root.
	BaseURL = "https://api.binance.com"
	name    = "binance"
)

// Binance implements the crypto Provider interface for Binance exchange
type Binance struct {
	client *resty.Client
}

// New creates a new Binance provider
func New(cfg collector.HTTPConfig, log *zap.Logger) *Binance {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	return &Binance{client: collector.NewHTTPClient(cfg, log)}
}

func (b *Binance) Name() string {
	return name
}

// FetchQuote fetches the 24h rolling ticker from Binance
func (b *Binance) FetchQuote(ctx context.Context, symbol string) (*collector.Tick, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("symbol", symbol).
		Get("/api/v3/ticker/24hr")
	if err != nil {
		return nil, collector.ClassifyError(name, err)
	}
	if !resp.IsSuccess() {
		return nil, collector.ClassifyStatus(name, resp.StatusCode())
	}

	var result ticker24hr
	if err := json.Unmarshal([]byte(resp.String()), &result); err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: decoding response: %v", name, err)
	}

	price, err := strconv.ParseFloat(result.LastPrice, 64)
	if err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: last price %q", name, result.LastPrice)
	}
	changePercent, err := strconv.ParseFloat(result.PriceChangePercent, 64)
	if err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: change percent %q", name, result.PriceChangePercent)
	}
	prevClose, _ := strconv.ParseFloat(result.PrevClosePrice, 64)

	var at time.Time
	if result.CloseTime > 0 {
		at = time.UnixMilli(result.CloseTime)
	}

	return &collector.Tick{
		Symbol:    symbol,
		Price:     price,
		PrevClose: prevClose,
		ChangePct: changePercent,
		Time:      at,
		Source:    name,
	}, nil
}

// Binance API response types
type ticker24hr struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	CloseTime          int64  `json:"closeTime"`
}
