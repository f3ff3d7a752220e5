package s0_data

import (
	"math"

	"github.com/wonny/pairlab/internal/contracts"
)

// Align drops each ticker's missing observations and intersects the
// remaining dates. The screener, the spread model and the pipeline all
// align through this function.
func Align(m *contracts.PriceMatrix, asset1, asset2 string) (*contracts.AlignedPair, error) {
	if m.IsEmpty() {
		return nil, contracts.ErrEmptyMatrix
	}
	s1, err := m.Series(asset1)
	if err != nil {
		return nil, err
	}
	s2, err := m.Series(asset2)
	if err != nil {
		return nil, err
	}
	return AlignSeries(asset1, s1, asset2, s2), nil
}

// AlignSeries intersects two ascending series on their non-missing dates.
// Aligning an already aligned pair returns it unchanged.
func AlignSeries(asset1 string, s1 contracts.Series, asset2 string, s2 contracts.Series) *contracts.AlignedPair {
	out := &contracts.AlignedPair{Asset1: asset1, Asset2: asset2}

	i, j := 0, 0
	for i < len(s1.Dates) && j < len(s2.Dates) {
		d1, d2 := s1.Dates[i], s2.Dates[j]
		switch {
		case d1.Before(d2):
			i++
		case d2.Before(d1):
			j++
		default:
			v1, v2 := s1.Values[i], s2.Values[j]
			if !math.IsNaN(v1) && !math.IsNaN(v2) {
				out.Dates = append(out.Dates, d1)
				out.Price1 = append(out.Price1, v1)
				out.Price2 = append(out.Price2, v2)
			}
			i++
			j++
		}
	}
	return out
}
