package audit

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/logger"
)

var sample = []float64{100, 110, 99, 108.9, 103.455, 113.8005}

func series(values []float64) contracts.PortfolioValueSeries {
	out := make(contracts.PortfolioValueSeries, len(values))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		out[i] = contracts.ValuePoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestReturns(t *testing.T) {
	r := Returns(sample)
	require.Len(t, r, 5)
	want := []float64{0.1, -0.1, 0.1, -0.05, 0.1}
	for i := range want {
		assert.InDelta(t, want[i], r[i], 1e-12)
	}
	assert.Nil(t, Returns([]float64{1}))
}

func TestRatios(t *testing.T) {
	r := Returns(sample)

	assert.InDelta(t, 5.4627928080019625, SharpeRatio(r, 0, 252), 1e-9)
	assert.InDelta(t, 19.049409439665055, SortinoRatio(r, 0, 252), 1e-6)
	assert.InDelta(t, 1.3839075113604962, Volatility(r, 252), 1e-9)
	assert.InDelta(t, -0.1, MaxDrawdown(sample), 1e-12)
	assert.InDelta(t, 0.138005, TotalReturn(sample), 1e-12)
}

func TestRatiosUndefined(t *testing.T) {
	flat := []float64{0, 0, 0}
	assert.True(t, math.IsNaN(SharpeRatio(flat, 0, 252)))
	assert.True(t, math.IsNaN(SortinoRatio(flat, 0, 252)))
	assert.Equal(t, 0.0, Volatility(flat, 252))

	// single downside observation has zero dispersion
	assert.True(t, math.IsNaN(SortinoRatio([]float64{0.1, -0.1, 0.1}, 0, 252)))

	assert.True(t, math.IsNaN(SharpeRatio(nil, 0, 252)))
	assert.True(t, math.IsNaN(Volatility(nil, 252)))
	assert.True(t, math.IsNaN(MaxDrawdown(nil)))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
}

func TestRiskFreeRateLowersSharpe(t *testing.T) {
	r := Returns(sample)
	assert.Less(t, SharpeRatio(r, 0.05, 252), SharpeRatio(r, 0, 252))
}

func TestAnalyze(t *testing.T) {
	exit := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	trades := []contracts.Trade{
		{PnL: 300, ExitDate: &exit},
		{PnL: -100, ExitDate: &exit},
		{PnL: 50}, // open
	}

	a := NewAnalyzer(ConfigFromStrategy(strategyconfig.Default().Analysis), logger.NewNop())
	report, err := a.Analyze(series(sample), trades)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Observations)
	assert.Equal(t, 100.0, report.InitialValue)
	assert.Equal(t, 113.8005, report.FinalValue)
	assert.InDelta(t, 0.138005, report.TotalReturn, 1e-12)
	assert.Equal(t, 3, report.Trades)
	assert.Equal(t, 2, report.ClosedTrades)
	assert.Equal(t, 0.5, report.WinRate)
	assert.Equal(t, 300.0, report.AvgWin)
	assert.Equal(t, -100.0, report.AvgLoss)
	assert.Equal(t, 3.0, report.ProfitFactor)
	assert.Contains(t, report.ToSummary(), "Total Return: 13.80%")

	data, err := report.ToJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-01-01", decoded["start_date"])
}

func TestAnalyzeNoTrades(t *testing.T) {
	a := NewAnalyzer(Config{}, logger.NewNop())
	report, err := a.Analyze(series([]float64{100000, 100000, 100000}), nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.TotalReturn)
	assert.True(t, math.IsNaN(report.Sharpe))
	assert.True(t, math.IsNaN(report.Sortino))
	assert.True(t, math.IsNaN(report.WinRate))

	// NaN metrics must still encode
	data, err := report.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sharpe": null`)

	_, err = a.Analyze(nil, nil)
	assert.ErrorIs(t, err, contracts.ErrEmptyMatrix)
}
