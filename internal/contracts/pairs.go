package contracts

import "time"

// Pair is a cointegration finding retained by the screener.
// ⭐ SSOT: S1 → S2 페어 전달
type Pair struct {
	Asset1     string   `json:"asset1"`
	Asset2     string   `json:"asset2"`
	PValue     float64  `json:"p_value"`
	TestStat   float64  `json:"test_stat"`
	HedgeRatio *float64 `json:"hedge_ratio,omitempty"`
}

// Label is "ASSET1/ASSET2".
func (p Pair) Label() string { return p.Asset1 + "/" + p.Asset2 }

// SpreadSeries is p1 - β·p2 on the aligned dates, with β fixed for the
// whole history.
type SpreadSeries struct {
	Asset1     string
	Asset2     string
	Dates      []time.Time
	Values     []float64
	HedgeRatio float64
	Intercept  float64
}

// Len returns the number of spread observations.
func (s *SpreadSeries) Len() int { return len(s.Values) }
