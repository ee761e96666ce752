package eastmoney

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/newthinker/fundwatch/internal/collector"
	"github.com/newthinker/fundwatch/internal/core"
)

// EstimateSource labels estimates coming from this provider.
const EstimateSource = "eastmoney估值"

// Column alternates, tried in order. The endpoint has shipped both
// spellings over time.
var (
	changeColumns   = []string{"$.Datas[0].GSZZL", "$.Datas[0].gszzl"}
	netValueColumns = []string{"$.Datas[0].NAV", "$.Datas[0].DWJZ", "$.Datas[0].dwjz"}
	estValueColumns = []string{"$.Datas[0].GSZ", "$.Datas[0].gsz"}
	timeColumns     = []string{"$.Datas[0].GZTIME", "$.Datas[0].gztime", "$.Datas[0].PDATE"}
)

// FetchEstimate reads the fund estimate from the mobile fund info endpoint.
// Missing value columns are reported as 0; the change column is required.
func (e *Eastmoney) FetchEstimate(ctx context.Context, code string) (*collector.FundEstimate, error) {
	body, err := e.get(ctx, e.fund, "/FundMNewApi/FundMNFInfo",
		withMobileParams(map[string]string{
			"FCODES":    code,
			"pageIndex": "1",
			"pageSize":  "1",
		}))
	if err != nil {
		return nil, err
	}
	return parseEstimate(code, body)
}

func parseEstimate(code string, body []byte) (*collector.FundEstimate, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, core.Errorf(core.ErrPayloadInvalid, "%s: estimate for %s: %v", Name, code, err)
	}

	change, ok := lookupFloat(doc, changeColumns)
	if !ok {
		return nil, core.Errorf(core.ErrNoData, "%s: no estimate change for %s", Name, code)
	}
	netValue, _ := lookupFloat(doc, netValueColumns)
	estValue, _ := lookupFloat(doc, estValueColumns)
	updateTime, _ := lookupString(doc, timeColumns)

	return &collector.FundEstimate{
		Code:       code,
		ChangePct:  change,
		NetValue:   netValue,
		EstValue:   estValue,
		UpdateTime: updateTime,
		Source:     EstimateSource,
	}, nil
}

// lookup returns the first non-null value among the JSONPath alternates.
func lookup(doc any, paths []string) (any, bool) {
	for _, path := range paths {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			continue
		}
		// jsonpath may answer a list of one
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				continue
			}
			v = list[0]
		}
		if v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupFloat(doc any, paths []string) (float64, bool) {
	v, ok := lookup(doc, paths)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func lookupString(doc any, paths []string) (string, bool) {
	v, ok := lookup(doc, paths)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
