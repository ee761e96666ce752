package app

import (
	"fmt"

	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/collector/crypto"
	"github.com/newthinker/fundwatch/internal/collector/crypto/binance"
	"github.com/newthinker/fundwatch/internal/collector/crypto/okx"
	"github.com/newthinker/fundwatch/internal/collector/eastmoney"
	"github.com/newthinker/fundwatch/internal/collector/fundgz"
	"github.com/newthinker/fundwatch/internal/collector/yahoo"
	"github.com/newthinker/fundwatch/internal/config"
	"github.com/newthinker/fundwatch/internal/core"
	"github.com/newthinker/fundwatch/internal/storage/archive"
	"go.uber.org/zap"
)

// Sources are the upstream capabilities the valuation strategies draw on.
// A nil capability leaves the classes that need it unresolvable.
type Sources struct {
	Crypto collector.QuoteSource // crypto 24h tickers
	Quotes collector.QuoteSource // indices, US stocks, commodities
	Closes collector.CloseSource

	Spot     collector.SpotTable
	Info     collector.InstrumentInfo
	Holdings collector.HoldingsSource

	PrimaryEstimator   collector.FundEstimator
	SecondaryEstimator collector.FundEstimator
}

// NewSources builds the production providers. Providers sharing an upstream
// share one rate limiter.
func NewSources(cfg config.ProvidersConfig, log *zap.Logger) *Sources {
	if log == nil {
		log = zap.NewNop()
	}
	limiter := collector.NewLimiter(cfg.RateLimits)

	y := yahoo.New(httpConfig(cfg.Yahoo), log)
	em := eastmoney.New(eastmoney.Config{
		SpotURL:    cfg.Eastmoney.SpotURL,
		QuoteURL:   cfg.Eastmoney.QuoteURL,
		FundURL:    cfg.Eastmoney.FundURL,
		Timeout:    cfg.Eastmoney.Timeout,
		RetryCount: cfg.Eastmoney.RetryCount,
		SpotTTL:    cfg.Eastmoney.SpotTTL,
		PageSize:   cfg.Eastmoney.PageSize,
	}, limiter, log)
	gz := fundgz.New(httpConfig(cfg.Fundgz), limiter, log)

	var exchanges []crypto.Provider
	for _, name := range cfg.Crypto.Providers {
		switch name {
		case "binance":
			exchanges = append(exchanges, binance.New(httpConfig(cfg.Crypto.Binance), log))
		case "okx":
			exchanges = append(exchanges, okx.New(httpConfig(cfg.Crypto.OKX), log))
		default:
			log.Warn("unknown crypto provider ignored", zap.String("provider", name))
		}
	}

	return &Sources{
		Crypto:             crypto.New(exchanges, cfg.Crypto.QuoteCurrency, log),
		Quotes:             y,
		Closes:             y,
		Spot:               em,
		Info:               em,
		Holdings:           em,
		PrimaryEstimator:   gz,
		SecondaryEstimator: em,
	}
}

func httpConfig(c config.HTTPConfig) collector.HTTPConfig {
	return collector.HTTPConfig{
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		RetryCount: c.RetryCount,
	}
}

// NewMirror builds the snapshot destinations: every local directory and,
// when enabled, the S3 bucket.
func NewMirror(cfg config.StorageConfig, log *zap.Logger) (*archive.Mirror, error) {
	var stores []archive.Storage
	for _, dir := range cfg.Local {
		fs, err := archive.NewLocalFS(dir)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("local storage %s: %w", dir, err))
		}
		stores = append(stores, fs)
	}
	if cfg.S3.Enabled {
		bucket, err := archive.NewS3(archive.S3Config{
			Bucket:       cfg.S3.Bucket,
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			Prefix:       cfg.S3.Prefix,
			CacheControl: cfg.S3.CacheControl,
		})
		if err != nil {
			return nil, core.WrapError(core.ErrConfigMissing, err)
		}
		stores = append(stores, bucket)
	}
	if len(stores) == 0 {
		return nil, core.Errorf(core.ErrConfigMissing, "no snapshot storage configured")
	}
	return archive.NewMirror(log, stores...), nil
}
