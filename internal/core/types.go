package core

// AssetClass identifies how an asset's valuation is derived.
type AssetClass string

const (
	ClassFundDirect AssetClass = "fund_direct" // open-end fund with a real-time estimation feed
	ClassFundQDII   AssetClass = "fund_qdii"   // proxied by a foreign benchmark index
	ClassFundCN     AssetClass = "fund_cn"     // proxied by a fixed basket of A-share constituents
	ClassStockUS    AssetClass = "stock_us"
	ClassIndex      AssetClass = "index"
	ClassCommodity  AssetClass = "commodity"
	ClassCrypto     AssetClass = "crypto"
)

// Classes lists every known asset class.
var Classes = []AssetClass{
	ClassFundDirect,
	ClassFundQDII,
	ClassFundCN,
	ClassStockUS,
	ClassIndex,
	ClassCommodity,
	ClassCrypto,
}

// IsValid reports whether c is a known asset class.
func (c AssetClass) IsValid() bool {
	for _, known := range Classes {
		if c == known {
			return true
		}
	}
	return false
}

// Asset is an immutable watch list entry.
type Asset struct {
	Code      string
	Name      string
	Class     AssetClass
	Symbol    string   // provider symbol for direct lookups
	Benchmark string   // benchmark symbol for QDII funds
	Holdings  []string // constituent codes for holdings-proxy funds
}

// Quote is the result of a successful resolution.
type Quote struct {
	Price     *float64 // nil when the strategy never produces an absolute price
	ChangePct float64
	AsOf      string // provider timestamp, format varies by provider
	Source    string
}

// PriceOrZero returns the quote price, or 0 when it has none.
func (q Quote) PriceOrZero() float64 {
	if q.Price == nil {
		return 0
	}
	return *q.Price
}

// Holding is one constituent line of a fund's disclosed portfolio.
type Holding struct {
	StockCode string
	StockName string
	WeightPct float64
}

// FundValuation carries the extra fields produced by the two-tier fund feed.
type FundValuation struct {
	NetValue   float64
	EstValue   float64
	UpdateTime string
	DataSource string
}

// Outcome is the per-asset result of one run. Exactly one is produced per
// asset; Err is nil on success.
type Outcome struct {
	Asset        Asset
	Quote        Quote
	Holdings     []Holding
	Fund         *FundValuation
	Constituents int // holdings-proxy only: constituents that contributed
	Err          error
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Success builds a successful outcome.
func Success(a Asset, q Quote) Outcome {
	return Outcome{Asset: a, Quote: q}
}

// Failure builds a failed outcome. The quote is kept so partial values
// (e.g. a zero price) still reach the snapshot.
func Failure(a Asset, q Quote, err error) Outcome {
	if err == nil {
		err = ErrNoData
	}
	return Outcome{Asset: a, Quote: q, Err: err}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
