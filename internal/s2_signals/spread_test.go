package s2_signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pairlab/internal/contracts"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestFitHedgeRatioExactLinear(t *testing.T) {
	s2 := []float64{10, 12, 11, 15, 14, 18, 17}
	s1 := make([]float64, len(s2))
	for i, v := range s2 {
		s1[i] = 3 + 2*v
	}

	fit, err := FitHedgeRatio(s1, s2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Beta, 1e-9)
	assert.InDelta(t, 3.0, fit.Intercept, 1e-9)

	pair := &contracts.AlignedPair{Asset1: "A", Asset2: "B", Dates: dates(len(s1)), Price1: s1, Price2: s2}
	spread, err := BuildSpread(pair)
	require.NoError(t, err)
	require.Equal(t, len(s1), spread.Len())
	for _, v := range spread.Values {
		assert.InDelta(t, 3.0, v, 1e-8)
	}
	assert.InDelta(t, 3.0, spread.Intercept, 1e-9)
	assert.Equal(t, "A", spread.Asset1)
}

func TestFitHedgeRatioErrors(t *testing.T) {
	tests := []struct {
		name    string
		s1, s2  []float64
		wantErr error
	}{
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}, contracts.ErrMisaligned},
		{"too short", []float64{1}, []float64{2}, contracts.ErrDegenerate},
		{"constant regressor", []float64{1, 2, 3}, []float64{5, 5, 5}, contracts.ErrDegenerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitHedgeRatio(tt.s1, tt.s2)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildSpreadWrapsPairLabel(t *testing.T) {
	pair := &contracts.AlignedPair{Asset1: "A", Asset2: "B", Dates: dates(3),
		Price1: []float64{1, 2, 3}, Price2: []float64{4, 4, 4}}

	_, err := BuildSpread(pair)
	require.ErrorIs(t, err, contracts.ErrDegenerate)
	assert.Contains(t, err.Error(), "A/B")
}

func TestApplyHedgeRatio(t *testing.T) {
	pair := &contracts.AlignedPair{Asset1: "A", Asset2: "B", Dates: dates(3),
		Price1: []float64{100, 101, 99}, Price2: []float64{50, 50.5, 49.5}}

	s := ApplyHedgeRatio(pair, 1.5)
	assert.Equal(t, []float64{25, 25.25, 24.75}, s.Values)
	assert.Equal(t, 1.5, s.HedgeRatio)
	assert.Equal(t, pair.Dates, s.Dates)
}
