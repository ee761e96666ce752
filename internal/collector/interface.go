package collector

import (
	"context"
	"time"

	"github.com/newthinker/fundwatch/internal/core"
)

// Tick is a provider's view of one instrument at one point in time.
type Tick struct {
	Symbol    string
	Price     float64
	PrevClose float64
	ChangePct float64
	Time      time.Time
	Source    string
}

// QuoteSource fetches real-time ticks by provider symbol.
type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*Tick, error)
}

// CloseSource returns the most recent daily closes, oldest first.
type CloseSource interface {
	FetchCloses(ctx context.Context, symbol string, days int) ([]float64, error)
}

// SpotRow is one row of the bulk A-share real-time quote table.
type SpotRow struct {
	Code      string
	Name      string
	Price     float64
	ChangePct float64
}

// SpotTable looks up rows of the bulk A-share real-time quote table.
type SpotTable interface {
	Row(ctx context.Context, code string) (SpotRow, error)
}

// InstrumentInfo looks up a single instrument's display name.
type InstrumentInfo interface {
	InstrumentName(ctx context.Context, code string) (string, error)
}

// FundEstimate is a real-time fund valuation estimate.
type FundEstimate struct {
	Code       string
	ChangePct  float64
	NetValue   float64
	EstValue   float64
	UpdateTime string
	Source     string
}

// FundEstimator returns the real-time estimate of an open-end fund.
type FundEstimator interface {
	Name() string
	FetchEstimate(ctx context.Context, code string) (*FundEstimate, error)
}

// HoldingsSource returns a fund's disclosed stock holdings, largest first.
type HoldingsSource interface {
	FundHoldings(ctx context.Context, code string) ([]core.Holding, error)
}
