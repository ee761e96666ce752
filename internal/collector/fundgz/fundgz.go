// Package fundgz reads real-time open-end fund estimates from the
// Tiantian fund JSONP feed.
package fundgz

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	// Name is the provider name used for rate limiting.
	Name = "fundgz"

	// Source labels estimates coming from this feed.
	Source = "天天基金实时"

	BaseURL        = "http://fundgz.1234567.com.cn"
	DefaultTimeout = 5 * time.Second
)

var (
	jsonpPrefix = []byte("jsonpgz(")
	jsonpSuffix = []byte(");")
)

// Payload is the object wrapped by the JSONP callback. Every value is sent
// as a string.
type Payload struct {
	Code       string `json:"fundcode"`
	Name       string `json:"name"`
	NetDate    string `json:"jzrq"`
	NetValue   string `json:"dwjz"`
	EstValue   string `json:"gsz"`
	ChangePct  string `json:"gszzl"`
	UpdateTime string `json:"gztime"`
}

// Decode strips the jsonpgz(...); wrapper and decodes the payload. Leading
// and trailing whitespace is tolerated; anything else around the object is
// rejected.
func Decode(body []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, jsonpPrefix) || !bytes.HasSuffix(trimmed, jsonpSuffix) ||
		len(trimmed) < len(jsonpPrefix)+len(jsonpSuffix) {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: body is not a jsonpgz callback", Name)
	}
	inner := bytes.TrimSpace(trimmed[len(jsonpPrefix) : len(trimmed)-len(jsonpSuffix)])
	if len(inner) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s: empty callback", Name)
	}

	var p Payload
	if err := json.Unmarshal(inner, &p); err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: decoding payload: %v", Name, err)
	}
	return &p, nil
}

// Estimate converts the payload into a fund estimate. The change field is
// required; value fields that fail to parse read as 0.
func (p *Payload) Estimate(code string) (*collector.FundEstimate, error) {
	change, err := strconv.ParseFloat(strings.TrimSpace(p.ChangePct), 64)
	if err != nil {
		return nil, core.Errorf(core.ErrNoData, "%s: no estimate change for %s", Name, code)
	}
	return &collector.FundEstimate{
		Code:       code,
		ChangePct:  change,
		NetValue:   parseValue(p.NetValue),
		EstValue:   parseValue(p.EstValue),
		UpdateTime: p.UpdateTime,
		Source:     Source,
	}, nil
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// Client fetches fund estimates from the feed.
type Client struct {
	client  *resty.Client
	limiter *collector.Limiter
	logger  *zap.Logger
}

// New creates a feed client. A zero timeout means DefaultTimeout; limiter
// may be nil.
func New(cfg collector.HTTPConfig, limiter *collector.Limiter, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		client:  collector.NewHTTPClient(cfg, log),
		limiter: limiter,
		logger:  log,
	}
}

func (c *Client) Name() string {
	return Name
}

// FetchEstimate implements collector.FundEstimator.
func (c *Client) FetchEstimate(ctx context.Context, code string) (*collector.FundEstimate, error) {
	if err := c.limiter.Wait(ctx, Name); err != nil {
		return nil, collector.ClassifyError(Name, err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		Get("/js/" + code + ".js")
	if err != nil {
		return nil, collector.ClassifyError(Name, err)
	}
	if !resp.IsSuccess() {
		return nil, collector.ClassifyStatus(Name, resp.StatusCode())
	}

	p, err := Decode([]byte(resp.String()))
	if err != nil {
		c.logger.Debug("undecodable fund estimate", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return p.Estimate(code)
}
