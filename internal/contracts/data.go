package contracts

import (
	"fmt"
	"math"
	"time"
)

// PriceMatrix is a daily close table: ascending unique dates by ticker.
// Missing observations are NaN. The core treats it as read-only.
// ⭐ SSOT: S0 → S1/S2/Backtest 가격 데이터 전달
type PriceMatrix struct {
	Dates   []time.Time
	Tickers []string             // column order, used for pair enumeration
	Columns map[string][]float64 // len(Columns[t]) == len(Dates)
}

// NewPriceMatrix builds a matrix from columns listed in ticker order.
func NewPriceMatrix(dates []time.Time, tickers []string, columns map[string][]float64) (*PriceMatrix, error) {
	m := &PriceMatrix{Dates: dates, Tickers: tickers, Columns: columns}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks date ordering and column shapes.
func (m *PriceMatrix) Validate() error {
	for i := 1; i < len(m.Dates); i++ {
		if !m.Dates[i].After(m.Dates[i-1]) {
			return fmt.Errorf("%w: %s follows %s", ErrUnsortedDates,
				m.Dates[i].Format("2006-01-02"), m.Dates[i-1].Format("2006-01-02"))
		}
	}
	for _, t := range m.Tickers {
		col, ok := m.Columns[t]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingTicker, t)
		}
		if len(col) != len(m.Dates) {
			return fmt.Errorf("%w: column %s has %d rows, want %d", ErrMisaligned, t, len(col), len(m.Dates))
		}
	}
	return nil
}

// Len returns the number of dates.
func (m *PriceMatrix) Len() int { return len(m.Dates) }

// IsEmpty reports whether the matrix has no dates or no tickers.
func (m *PriceMatrix) IsEmpty() bool {
	return m == nil || len(m.Dates) == 0 || len(m.Tickers) == 0
}

// Column returns a ticker's prices.
func (m *PriceMatrix) Column(ticker string) ([]float64, error) {
	col, ok := m.Columns[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTicker, ticker)
	}
	return col, nil
}

// Series returns a ticker's prices with the matrix dates.
func (m *PriceMatrix) Series(ticker string) (Series, error) {
	col, err := m.Column(ticker)
	if err != nil {
		return Series{}, err
	}
	return Series{Dates: m.Dates, Values: col}, nil
}

// Coverage returns the share of non-missing observations per ticker.
func (m *PriceMatrix) Coverage() map[string]float64 {
	out := make(map[string]float64, len(m.Tickers))
	if len(m.Dates) == 0 {
		return out
	}
	for _, t := range m.Tickers {
		present := 0
		for _, v := range m.Columns[t] {
			if !math.IsNaN(v) {
				present++
			}
		}
		out[t] = float64(present) / float64(len(m.Dates))
	}
	return out
}

// Series is one dated sequence of values.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Values) }

// AlignedPair holds two price series restricted to the dates on which
// both are present. Both slices share Dates.
type AlignedPair struct {
	Asset1 string
	Asset2 string
	Dates  []time.Time
	Price1 []float64
	Price2 []float64
}

// Len returns the number of aligned observations.
func (p *AlignedPair) Len() int { return len(p.Dates) }

// Label is "ASSET1/ASSET2", used in logs and reports.
func (p *AlignedPair) Label() string { return p.Asset1 + "/" + p.Asset2 }
