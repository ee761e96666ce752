package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/fundwatch/internal/core"
	"github.com/spf13/viper"
)

// Run kinds
const (
	RunFunds  = "funds"
	RunGlobal = "global"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Runs      RunsConfig      `mapstructure:"runs"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RunsConfig struct {
	Funds  RunConfig `mapstructure:"funds"`
	Global RunConfig `mapstructure:"global"`
}

// RunConfig controls how one kind of run dispatches its watch list and
// where it writes the snapshot.
type RunConfig struct {
	Policy  string        `mapstructure:"policy"` // "parallel" or "sequential"
	Workers int           `mapstructure:"workers"`
	Pace    time.Duration `mapstructure:"pace"`
	Output  string        `mapstructure:"output"`
}

type EngineConfig struct {
	// ZeroIsMissing treats an exact 0 change from upstream as "no data".
	ZeroIsMissing bool `mapstructure:"zero_is_missing"`
}

type ProvidersConfig struct {
	Yahoo      HTTPConfig         `mapstructure:"yahoo"`
	Fundgz     HTTPConfig         `mapstructure:"fundgz"`
	Eastmoney  EastmoneyConfig    `mapstructure:"eastmoney"`
	Crypto     CryptoConfig       `mapstructure:"crypto"`
	RateLimits map[string]float64 `mapstructure:"rate_limits"` // requests per second by provider
}

type HTTPConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

type EastmoneyConfig struct {
	SpotURL    string        `mapstructure:"spot_url"`
	QuoteURL   string        `mapstructure:"quote_url"`
	FundURL    string        `mapstructure:"fund_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	SpotTTL    time.Duration `mapstructure:"spot_ttl"`
	PageSize   int           `mapstructure:"page_size"`
}

type CryptoConfig struct {
	Providers     []string   `mapstructure:"providers"` // fallback order
	QuoteCurrency string     `mapstructure:"quote_currency"`
	Binance       HTTPConfig `mapstructure:"binance"`
	OKX           HTTPConfig `mapstructure:"okx"`
}

type StorageConfig struct {
	Local []string `mapstructure:"local"` // directories every snapshot is written to
	S3    S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Enabled      bool   `mapstructure:"enabled"`
	Bucket       string `mapstructure:"bucket"`
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	Prefix       string `mapstructure:"prefix"`
	CacheControl string `mapstructure:"cache_control"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"` // node-exporter textfile path; empty disables export
}

type WatchlistConfig struct {
	Funds  []FundItem  `mapstructure:"funds"`
	Assets []AssetItem `mapstructure:"assets"`
}

// FundItem is an open-end fund valued through the real-time estimate feeds.
type FundItem struct {
	Code string `mapstructure:"code"`
	Name string `mapstructure:"name"`
}

// AssetItem is an entry of the global watch list.
type AssetItem struct {
	Code      string   `mapstructure:"code"`
	Name      string   `mapstructure:"name"`
	Type      string   `mapstructure:"type"`
	Symbol    string   `mapstructure:"symbol"`
	Benchmark string   `mapstructure:"benchmark"`
	Holdings  []string `mapstructure:"holdings"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Runs: RunsConfig{
			Funds: RunConfig{
				Policy:  "sequential",
				Workers: 10,
				Pace:    300 * time.Millisecond,
				Output:  "funds.json",
			},
			Global: RunConfig{
				Policy:  "parallel",
				Workers: 10,
				Pace:    300 * time.Millisecond,
				Output:  "global_assets.json",
			},
		},
		Engine: EngineConfig{
			ZeroIsMissing: true,
		},
		Providers: ProvidersConfig{
			Yahoo:  HTTPConfig{Timeout: 10 * time.Second, RetryCount: 1},
			Fundgz: HTTPConfig{Timeout: 5 * time.Second},
			Eastmoney: EastmoneyConfig{
				Timeout:    10 * time.Second,
				RetryCount: 1,
				SpotTTL:    30 * time.Second,
				PageSize:   100,
			},
			Crypto: CryptoConfig{
				Providers:     []string{"binance", "okx"},
				QuoteCurrency: "USDT",
				Binance:       HTTPConfig{Timeout: 10 * time.Second, RetryCount: 1},
				OKX:           HTTPConfig{Timeout: 10 * time.Second, RetryCount: 1},
			},
			RateLimits: map[string]float64{
				"eastmoney": 5,
				"fundgz":    5,
			},
		},
		Storage: StorageConfig{
			Local: []string{"data", "public/data"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Run returns the settings of a run kind.
func (c *Config) Run(kind string) (RunConfig, error) {
	switch kind {
	case RunFunds:
		return c.Runs.Funds, nil
	case RunGlobal:
		return c.Runs.Global, nil
	default:
		return RunConfig{}, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown run %q", kind))
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	for kind, run := range map[string]RunConfig{RunFunds: c.Runs.Funds, RunGlobal: c.Runs.Global} {
		if err := run.validate(kind); err != nil {
			return err
		}
	}

	if len(c.Storage.Local) == 0 && !c.Storage.S3.Enabled {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("at least one storage destination is required"))
	}
	if c.Storage.S3.Enabled && c.Storage.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when s3 storage is enabled"))
	}

	for _, name := range c.Providers.Crypto.Providers {
		if name != "binance" && name != "okx" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown crypto provider %q", name))
		}
	}
	for name, rps := range c.Providers.RateLimits {
		if rps < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("rate limit for %s cannot be negative, got %f", name, rps))
		}
	}

	if _, err := c.FundAssets(); err != nil {
		return err
	}
	if _, err := c.GlobalAssets(); err != nil {
		return err
	}
	return nil
}

func (r RunConfig) validate(kind string) error {
	switch r.Policy {
	case "", "parallel", "sequential":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("runs.%s.policy must be parallel or sequential, got %q", kind, r.Policy))
	}
	if r.Workers < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("runs.%s.workers cannot be negative, got %d", kind, r.Workers))
	}
	if r.Pace < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("runs.%s.pace cannot be negative, got %s", kind, r.Pace))
	}
	if r.Output == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("runs.%s.output is required", kind))
	}
	return nil
}
