package s0_data

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pairlab/internal/contracts"
)

func TestAlign(t *testing.T) {
	nan := math.NaN()
	dates := []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4), day(2024, 1, 5)}
	m, err := contracts.NewPriceMatrix(dates, []string{"A", "B"}, map[string][]float64{
		"A": {1, nan, 3, 4},
		"B": {10, 20, nan, 40},
	})
	require.NoError(t, err)

	pair, err := Align(m, "A", "B")
	require.NoError(t, err)

	assert.Equal(t, "A", pair.Asset1)
	assert.Equal(t, []time.Time{dates[0], dates[3]}, pair.Dates)
	assert.Equal(t, []float64{1, 4}, pair.Price1)
	assert.Equal(t, []float64{10, 40}, pair.Price2)

	again := AlignSeries("A", contracts.Series{Dates: pair.Dates, Values: pair.Price1},
		"B", contracts.Series{Dates: pair.Dates, Values: pair.Price2})
	assert.Equal(t, pair, again)
}

func TestAlignErrors(t *testing.T) {
	_, err := Align(nil, "A", "B")
	assert.ErrorIs(t, err, contracts.ErrEmptyMatrix)

	m, err := contracts.NewPriceMatrix([]time.Time{day(2024, 1, 2)}, []string{"A"}, map[string][]float64{"A": {1}})
	require.NoError(t, err)

	_, err = Align(m, "A", "Z")
	assert.ErrorIs(t, err, contracts.ErrMissingTicker)
}

func TestAlignSeriesDisjointDates(t *testing.T) {
	s1 := contracts.Series{Dates: []time.Time{day(2024, 1, 2), day(2024, 1, 4)}, Values: []float64{1, 2}}
	s2 := contracts.Series{Dates: []time.Time{day(2024, 1, 3), day(2024, 1, 4), day(2024, 1, 5)}, Values: []float64{7, 8, 9}}

	pair := AlignSeries("A", s1, "B", s2)
	assert.Equal(t, 1, pair.Len())
	assert.Equal(t, []float64{2}, pair.Price1)
	assert.Equal(t, []float64{8}, pair.Price2)
}

func TestMergeSeries(t *testing.T) {
	series := map[string]contracts.Series{
		"A": {Dates: []time.Time{day(2024, 1, 3), day(2024, 1, 4)}, Values: []float64{1, 2}},
		"B": {Dates: []time.Time{day(2024, 1, 2)}, Values: []float64{5}},
		"C": {},
	}

	m, err := MergeSeries([]string{"B", "A", "C"}, series)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, m.Tickers)
	assert.Equal(t, []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4)}, m.Dates)
	assert.True(t, math.IsNaN(m.Columns["A"][0]))
	assert.Equal(t, 2.0, m.Columns["A"][2])

	_, err = MergeSeries([]string{"C"}, series)
	assert.ErrorIs(t, err, contracts.ErrEmptyMatrix)
}
