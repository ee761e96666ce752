package eastmoney

import (
	"context"
	"strconv"
	"strings"

	"github.com/newthinker/fundwatch/internal/core"
	"github.com/tidwall/gjson"
)

var mobileParams = map[string]string{
	"deviceid": "Wap",
	"plat":     "Wap",
	"product":  "EFund",
	"version":  "2.0.0",
}

func withMobileParams(extra map[string]string) map[string]string {
	params := make(map[string]string, len(mobileParams)+len(extra))
	for k, v := range mobileParams {
		params[k] = v
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

// FundHoldings returns the fund's latest disclosed stock holdings in the
// order the provider reports them (largest weight first).
func (e *Eastmoney) FundHoldings(ctx context.Context, fundCode string) ([]core.Holding, error) {
	body, err := e.get(ctx, e.fund, "/FundMNewApi/FundMNInverstPosition",
		withMobileParams(map[string]string{"FCODE": fundCode}))
	if err != nil {
		return nil, err
	}
	return parseHoldings(fundCode, body)
}

func parseHoldings(fundCode string, body []byte) ([]core.Holding, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: holdings for %s are not JSON", Name, fundCode)
	}
	if errCode := gjson.GetBytes(body, "ErrCode").Int(); errCode != 0 {
		return nil, core.Errorf(core.ErrProviderFailed, "%s: holdings for %s: %s",
			Name, fundCode, gjson.GetBytes(body, "ErrMsg").String())
	}

	stocks := gjson.GetBytes(body, "Datas.fundStocks")
	if !stocks.IsArray() || len(stocks.Array()) == 0 {
		return nil, notFound("%s: no stock holdings for %s", Name, fundCode)
	}

	holdings := make([]core.Holding, 0, len(stocks.Array()))
	for _, s := range stocks.Array() {
		code := strings.TrimSpace(s.Get("GPDM").String())
		if code == "" {
			continue
		}
		weight, _ := strconv.ParseFloat(s.Get("JZBL").String(), 64)
		holdings = append(holdings, core.Holding{
			StockCode: code,
			StockName: strings.TrimSpace(s.Get("GPJC").String()),
			WeightPct: weight,
		})
	}
	return holdings, nil
}
