package snapshot

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/newthinker/fundwatch/internal/core"
)

// TimeLayout formats generated_at.
const TimeLayout = "2006-01-02 15:04:05"

// Beijing is the fixed UTC+8 zone snapshots are stamped in, independent of
// the host zone and of tzdata availability.
var Beijing = time.FixedZone("UTC+8", 8*60*60)

// AssetRecord is one asset of the global snapshot.
type AssetRecord struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Market       string  `json:"market"`
	Price        float64 `json:"price"`
	ChangePct    float64 `json:"change_pct"`
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
	Source       string  `json:"source,omitempty"`
	AsOf         string  `json:"as_of,omitempty"`
	Constituents int     `json:"constituents,omitempty"`
}

// HoldingRecord is one disclosed fund holding.
type HoldingRecord struct {
	Name  string  `json:"name"`
	Ratio float64 `json:"ratio"`
	Code  string  `json:"code"`
}

// FundRecord is one fund of the fund snapshot. NetValue and EstValue are
// null when unknown.
type FundRecord struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	ChangePct  float64         `json:"change_pct"`
	NetValue   *float64        `json:"net_value"`
	EstValue   *float64        `json:"est_value"`
	UpdateTime string          `json:"update_time"`
	DataSource string          `json:"data_source"`
	Holdings   []HoldingRecord `json:"holdings"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
}

// GlobalSnapshot is the document of a global run.
type GlobalSnapshot struct {
	GeneratedAt  string                   `json:"generated_at"`
	TotalCount   int                      `json:"total_count"`
	SuccessCount int                      `json:"success_count"`
	Assets       []AssetRecord            `json:"assets"`
	Grouped      map[string][]AssetRecord `json:"grouped"`
}

// FundSnapshot is the document of a fund run.
type FundSnapshot struct {
	GeneratedAt  string       `json:"generated_at"`
	TotalCount   int          `json:"total_count"`
	SuccessCount int          `json:"success_count"`
	Funds        []FundRecord `json:"funds"`
}

// Assembler stamps aggregated results into snapshot documents.
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates an assembler. A nil clock means time.Now.
func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now}
}

func (a *Assembler) stamp() string {
	return a.now().In(Beijing).Format(TimeLayout)
}

// Global builds the global snapshot.
func (a *Assembler) Global(res Result) *GlobalSnapshot {
	snap := &GlobalSnapshot{
		GeneratedAt:  a.stamp(),
		TotalCount:   res.Total,
		SuccessCount: res.Success,
		Assets:       make([]AssetRecord, 0, len(res.Outcomes)),
		Grouped:      make(map[string][]AssetRecord, len(GroupKeys)),
	}
	for _, o := range res.Outcomes {
		snap.Assets = append(snap.Assets, assetRecord(o))
	}
	for _, key := range GroupKeys {
		group := make([]AssetRecord, 0, len(res.Groups[key]))
		for _, o := range res.Groups[key] {
			group = append(group, assetRecord(o))
		}
		snap.Grouped[key] = group
	}
	return snap
}

// Funds builds the fund snapshot.
func (a *Assembler) Funds(res Result) *FundSnapshot {
	snap := &FundSnapshot{
		GeneratedAt:  a.stamp(),
		TotalCount:   res.Total,
		SuccessCount: res.Success,
		Funds:        make([]FundRecord, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		snap.Funds = append(snap.Funds, fundRecord(o))
	}
	return snap
}

func assetRecord(o core.Outcome) AssetRecord {
	return AssetRecord{
		Code:         o.Asset.Code,
		Name:         o.Asset.Name,
		Market:       string(o.Asset.Class),
		Price:        o.Quote.PriceOrZero(),
		ChangePct:    o.Quote.ChangePct,
		Success:      o.OK(),
		Error:        errorString(o.Err),
		Source:       o.Quote.Source,
		AsOf:         o.Quote.AsOf,
		Constituents: o.Constituents,
	}
}

func fundRecord(o core.Outcome) FundRecord {
	rec := FundRecord{
		Code:      o.Asset.Code,
		Name:      o.Asset.Name,
		ChangePct: o.Quote.ChangePct,
		Holdings:  make([]HoldingRecord, 0, len(o.Holdings)),
		Success:   o.OK(),
		Error:     errorString(o.Err),
	}
	if o.Fund != nil {
		rec.NetValue = positive(o.Fund.NetValue)
		rec.EstValue = positive(o.Fund.EstValue)
		rec.UpdateTime = o.Fund.UpdateTime
		rec.DataSource = o.Fund.DataSource
	} else {
		rec.DataSource = o.Quote.Source
		rec.UpdateTime = o.Quote.AsOf
	}
	for _, h := range o.Holdings {
		rec.Holdings = append(rec.Holdings, HoldingRecord{
			Name:  h.StockName,
			Ratio: h.WeightPct,
			Code:  h.StockCode,
		})
	}
	return rec
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Encode renders a snapshot as indented JSON with non-ASCII text kept
// readable.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
