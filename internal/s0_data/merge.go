package s0_data

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
)

// MergeSeries builds a matrix on the union of all series dates, in the
// given ticker order. Dates a ticker lacks become NaN; tickers with no
// observation at all are left out.
func MergeSeries(tickers []string, series map[string]contracts.Series) (*contracts.PriceMatrix, error) {
	dateSet := make(map[time.Time]struct{})
	for _, t := range tickers {
		for _, d := range series[t].Dates {
			dateSet[d] = struct{}{}
		}
	}
	if len(dateSet) == 0 {
		return nil, contracts.ErrEmptyMatrix
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	kept := make([]string, 0, len(tickers))
	columns := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		s, ok := series[t]
		if !ok || s.Len() == 0 {
			continue
		}
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for k, d := range s.Dates {
			col[index[d]] = s.Values[k]
		}
		if allMissing(col) {
			continue
		}
		kept = append(kept, t)
		columns[t] = col
	}

	return contracts.NewPriceMatrix(dates, kept, columns)
}
