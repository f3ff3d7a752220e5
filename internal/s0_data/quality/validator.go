package quality

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
)

// Gate checks a price matrix before it reaches the screener.
type Gate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinTickerCoverage float64 `yaml:"min_ticker_coverage"` // 0.9
	MinTickers        int     `yaml:"min_tickers"`         // 2
}

// DefaultConfig returns the thresholds used by the CLI.
func DefaultConfig() Config {
	return Config{
		MinTickerCoverage: 0.9,
		MinTickers:        2,
	}
}

// Snapshot summarizes one matrix.
type Snapshot struct {
	Start        time.Time
	End          time.Time
	Dates        int
	Tickers      int
	Coverage     map[string]float64
	NonPositive  map[string]int // tickers with price <= 0 observations
	LowCoverage  []string       // below MinTickerCoverage, sorted
	QualityScore float64        // mean coverage
	Passed       bool
}

// NewGate creates a new Gate instance
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check computes the snapshot. It never mutates the matrix.
// ⭐ SSOT: S0 → S1 품질 검증
func (g *Gate) Check(m *contracts.PriceMatrix) *Snapshot {
	snap := &Snapshot{
		Coverage:    map[string]float64{},
		NonPositive: map[string]int{},
	}
	if m.IsEmpty() {
		return snap
	}

	snap.Start = m.Dates[0]
	snap.End = m.Dates[len(m.Dates)-1]
	snap.Dates = m.Len()
	snap.Tickers = len(m.Tickers)
	snap.Coverage = m.Coverage()

	total := 0.0
	for _, t := range m.Tickers {
		cov := snap.Coverage[t]
		total += cov
		if cov < g.config.MinTickerCoverage {
			snap.LowCoverage = append(snap.LowCoverage, t)
		}
		for _, v := range m.Columns[t] {
			if !math.IsNaN(v) && v <= 0 {
				snap.NonPositive[t]++
			}
		}
	}
	sort.Strings(snap.LowCoverage)
	snap.QualityScore = total / float64(len(m.Tickers))

	// 결측 많은 종목은 경고만, 종목 수가 부족하면 실패
	snap.Passed = snap.Tickers >= g.config.MinTickers
	return snap
}
