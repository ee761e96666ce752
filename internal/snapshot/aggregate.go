// Package snapshot turns per-asset outcomes into the persisted snapshot
// documents.
package snapshot

import (
	"github.com/newthinker/fundwatch/internal/core"
)

// Group keys of the global snapshot, in display order.
const (
	GroupCrypto    = "crypto"
	GroupIndex     = "index"
	GroupStockUS   = "stock_us"
	GroupCommodity = "commodity"
	GroupFundQDII  = "fund_qdii"
	GroupFundCN    = "fund_cn"
)

// GroupKeys lists every group. All of them are present in a snapshot, even
// when empty.
var GroupKeys = []string{GroupCrypto, GroupIndex, GroupStockUS, GroupCommodity, GroupFundQDII, GroupFundCN}

// GroupOf returns the group key for an asset class. Directly estimated
// funds share the domestic fund group.
func GroupOf(class core.AssetClass) string {
	switch class {
	case core.ClassCrypto:
		return GroupCrypto
	case core.ClassIndex:
		return GroupIndex
	case core.ClassStockUS:
		return GroupStockUS
	case core.ClassCommodity:
		return GroupCommodity
	case core.ClassFundQDII:
		return GroupFundQDII
	default:
		return GroupFundCN
	}
}

// Result is the aggregated view of one run.
type Result struct {
	Outcomes []core.Outcome // watch list order
	Total    int
	Success  int
	Groups   map[string][]core.Outcome
}

// Aggregate reorders outcomes into watch list order, counts successes and
// partitions them by group. An asset without an outcome gets a NO_DATA
// failure; outcomes for codes outside the watch list are dropped.
func Aggregate(assets []core.Asset, outcomes []core.Outcome) Result {
	byCode := make(map[string]core.Outcome, len(outcomes))
	for _, o := range outcomes {
		if _, dup := byCode[o.Asset.Code]; !dup {
			byCode[o.Asset.Code] = o
		}
	}

	res := Result{
		Outcomes: make([]core.Outcome, 0, len(assets)),
		Total:    len(assets),
		Groups:   make(map[string][]core.Outcome, len(GroupKeys)),
	}
	for _, key := range GroupKeys {
		res.Groups[key] = []core.Outcome{}
	}

	for _, a := range assets {
		o, ok := byCode[a.Code]
		if !ok {
			o = core.Failure(a, core.Quote{}, core.Errorf(core.ErrNoData, "no outcome recorded for %s", a.Code))
		}
		o.Asset = a
		if o.OK() {
			res.Success++
		}
		res.Outcomes = append(res.Outcomes, o)
		key := GroupOf(a.Class)
		res.Groups[key] = append(res.Groups[key], o)
	}
	return res
}
