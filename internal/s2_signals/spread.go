package s2_signals

import (
	"fmt"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/stats"
)

// HedgeFit is the OLS fit of asset1 on a constant and asset2.
type HedgeFit struct {
	Beta      float64
	Intercept float64
}

// FitHedgeRatio regresses s1 on an intercept and s2.
// ⭐ SSOT: 헤지 비율 추정은 여기서만
func FitHedgeRatio(s1, s2 []float64) (HedgeFit, error) {
	if len(s1) != len(s2) {
		return HedgeFit{}, fmt.Errorf("%w: %d vs %d observations", contracts.ErrMisaligned, len(s1), len(s2))
	}
	if len(s1) < 2 {
		return HedgeFit{}, fmt.Errorf("%w: need at least 2 observations, got %d", contracts.ErrDegenerate, len(s1))
	}
	if isConstant(s2) {
		return HedgeFit{}, fmt.Errorf("%w: regressor is constant", contracts.ErrDegenerate)
	}

	res, err := stats.OLS(s1, [][]float64{s2}, true)
	if err != nil {
		return HedgeFit{}, fmt.Errorf("hedge regression: %w", err)
	}
	return HedgeFit{Intercept: res.Params[0], Beta: res.Params[1]}, nil
}

// BuildSpread fits β once over the whole aligned history and returns
// p1 - β·p2. The intercept is reported but not subtracted.
func BuildSpread(pair *contracts.AlignedPair) (*contracts.SpreadSeries, error) {
	fit, err := FitHedgeRatio(pair.Price1, pair.Price2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pair.Label(), err)
	}
	s := ApplyHedgeRatio(pair, fit.Beta)
	s.Intercept = fit.Intercept
	return s, nil
}

// ApplyHedgeRatio computes the spread for a caller-fixed β.
func ApplyHedgeRatio(pair *contracts.AlignedPair, beta float64) *contracts.SpreadSeries {
	values := make([]float64, pair.Len())
	for i := range values {
		values[i] = pair.Price1[i] - beta*pair.Price2[i]
	}
	return &contracts.SpreadSeries{
		Asset1:     pair.Asset1,
		Asset2:     pair.Asset2,
		Dates:      pair.Dates,
		Values:     values,
		HedgeRatio: beta,
	}
}

func isConstant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
