package okx

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/collector/crypto"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	// BaseURL is the OKX public REST API root.
	BaseURL = "https://www.okx.com"
	name    = "okx"
)

// OKX implements the crypto Provider interface for OKX exchange
type OKX struct {
	client *resty.Client
}

// New creates a new OKX provider
func New(cfg collector.HTTPConfig, log *zap.Logger) *OKX {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	return &OKX{client: collector.NewHTTPClient(cfg, log)}
}

func (o *OKX) Name() string {
	return name
}

// toInstID converts normalized symbol to OKX instrument ID
// BTCUSDT -> BTC-USDT
func toInstID(symbol string) string {
	base, quote := crypto.ParseSymbol(symbol)
	return base + "-" + quote
}

// FetchQuote fetches the ticker from OKX. OKX reports no change percent, so
// it is derived from the 24h open.
func (o *OKX) FetchQuote(ctx context.Context, symbol string) (*collector.Tick, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("instId", toInstID(symbol)).
		Get("/api/v5/market/ticker")
	if err != nil {
		return nil, collector.ClassifyError(name, err)
	}
	if !resp.IsSuccess() {
		return nil, collector.ClassifyStatus(name, resp.StatusCode())
	}

	var result tickerResponse
	if err := json.Unmarshal([]byte(resp.String()), &result); err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: decoding response: %v", name, err)
	}
	if result.Code != "0" || len(result.Data) == 0 {
		return nil, core.Errorf(core.ErrProviderFailed, "%s: code %s: %s", name, result.Code, result.Msg)
	}

	data := result.Data[0]
	price, err := strconv.ParseFloat(data.Last, 64)
	if err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: last price %q", name, data.Last)
	}
	open, _ := strconv.ParseFloat(data.Open24h, 64)
	ts, _ := strconv.ParseInt(data.Ts, 10, 64)

	var at time.Time
	if ts > 0 {
		at = time.UnixMilli(ts)
	}

	changePercent := 0.0
	if open > 0 {
		changePercent = (price - open) / open * 100
	}

	return &collector.Tick{
		Symbol:    symbol,
		Price:     price,
		PrevClose: open,
		ChangePct: changePercent,
		Time:      at,
		Source:    name,
	}, nil
}

// OKX API response types
type tickerResponse struct {
	Code string       `json:"code"`
	Msg  string       `json:"msg"`
	Data []tickerData `json:"data"`
}

type tickerData struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	Open24h string `json:"open24h"`
	Ts      string `json:"ts"`
}
