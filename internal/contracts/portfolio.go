package contracts

import "time"

// Side is the simulation state derived from a PortfolioState.
type Side string

const (
	SideFlat  Side = "FLAT"
	SideLong  Side = "LONG_SPREAD"  // long asset1, short asset2
	SideShort Side = "SHORT_SPREAD" // short asset1, long asset2
)

// PortfolioState is the book carried from one simulated date to the next.
// Capital changes only when a trade closes.
// ⭐ SSOT: Backtest 상태
type PortfolioState struct {
	Capital   float64 `json:"capital"`
	Asset1Qty float64 `json:"asset1_qty"`
	Asset2Qty float64 `json:"asset2_qty"`
	InTrade   bool    `json:"in_trade"`
}

// NewPortfolioState returns a flat book holding initialCapital.
func NewPortfolioState(initialCapital float64) PortfolioState {
	return PortfolioState{Capital: initialCapital}
}

// Side returns FLAT, LONG_SPREAD or SHORT_SPREAD.
func (s PortfolioState) Side() Side {
	switch {
	case !s.InTrade:
		return SideFlat
	case s.Asset1Qty > 0:
		return SideLong
	default:
		return SideShort
	}
}

// MarkToMarket returns capital plus the open legs valued at p1, p2.
func (s PortfolioState) MarkToMarket(p1, p2 float64) float64 {
	if !s.InTrade {
		return s.Capital
	}
	return s.Capital + s.Asset1Qty*p1 + s.Asset2Qty*p2
}

// ValuePoint is one entry of the portfolio value series.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PortfolioValueSeries is append-only and in date order.
type PortfolioValueSeries []ValuePoint

// Values returns the bare values.
func (s PortfolioValueSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Final returns the last value, or 0 for an empty series.
func (s PortfolioValueSeries) Final() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}

// Trade is one round trip (or an open position at the end of a run).
type Trade struct {
	Side       Side       `json:"side"`
	EntryDate  time.Time  `json:"entry_date"`
	ExitDate   *time.Time `json:"exit_date,omitempty"`
	EntryZ     float64    `json:"entry_z"`
	Asset1Qty  float64    `json:"asset1_qty"`
	Asset2Qty  float64    `json:"asset2_qty"`
	EntryPrice [2]float64 `json:"entry_price"`
	ExitPrice  [2]float64 `json:"exit_price"`
	PnL        float64    `json:"pnl"`
}

// IsOpen reports whether the trade had not closed by the final date.
func (t Trade) IsOpen() bool { return t.ExitDate == nil }
