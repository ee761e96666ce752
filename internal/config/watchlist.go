package config

import (
	"fmt"
	"strings"

	"github.com/newthinker/fundwatch/internal/core"
)

// FundAssets converts the fund watch list. Every fund is valued through the
// real-time estimate feeds.
func (c *Config) FundAssets() ([]core.Asset, error) {
	seen := make(map[string]struct{}, len(c.Watchlist.Funds))
	assets := make([]core.Asset, 0, len(c.Watchlist.Funds))

	for i, f := range c.Watchlist.Funds {
		code := strings.TrimSpace(f.Code)
		if code == "" {
			return nil, invalid("watchlist.funds[%d]: code is required", i)
		}
		if _, dup := seen[code]; dup {
			return nil, invalid("watchlist.funds: duplicate code %s", code)
		}
		seen[code] = struct{}{}

		assets = append(assets, core.Asset{
			Code:  code,
			Name:  nameOr(f.Name, code),
			Class: core.ClassFundDirect,
		})
	}
	return assets, nil
}

// GlobalAssets converts the global watch list, checking that each entry
// carries what its class needs.
func (c *Config) GlobalAssets() ([]core.Asset, error) {
	seen := make(map[string]struct{}, len(c.Watchlist.Assets))
	assets := make([]core.Asset, 0, len(c.Watchlist.Assets))

	for i, item := range c.Watchlist.Assets {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			return nil, invalid("watchlist.assets[%d]: code is required", i)
		}
		if _, dup := seen[code]; dup {
			return nil, invalid("watchlist.assets: duplicate code %s", code)
		}
		seen[code] = struct{}{}

		class := core.AssetClass(strings.ToLower(strings.TrimSpace(item.Type)))
		if !class.IsValid() {
			return nil, invalid("watchlist.assets[%s]: unknown type %q", code, item.Type)
		}

		a := core.Asset{
			Code:      code,
			Name:      nameOr(item.Name, code),
			Class:     class,
			Symbol:    strings.TrimSpace(item.Symbol),
			Benchmark: strings.TrimSpace(item.Benchmark),
			Holdings:  append([]string(nil), item.Holdings...),
		}

		switch class {
		case core.ClassCrypto, core.ClassStockUS, core.ClassIndex, core.ClassCommodity:
			if a.Symbol == "" {
				a.Symbol = code
			}
		case core.ClassFundQDII:
			if a.Benchmark == "" {
				return nil, missing("watchlist.assets[%s]: benchmark required for fund_qdii", code)
			}
		case core.ClassFundCN:
			if len(a.Holdings) == 0 {
				return nil, missing("watchlist.assets[%s]: holdings required for fund_cn", code)
			}
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// Assets returns the watch list of a run kind.
func (c *Config) Assets(kind string) ([]core.Asset, error) {
	switch kind {
	case RunFunds:
		return c.FundAssets()
	case RunGlobal:
		return c.GlobalAssets()
	default:
		return nil, invalid("unknown run %q", kind)
	}
}

func nameOr(name, code string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return code
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
}

func missing(format string, args ...any) error {
	return core.WrapError(core.ErrConfigMissing, fmt.Errorf(format, args...))
}
