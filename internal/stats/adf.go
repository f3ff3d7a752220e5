package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/pairlab/internal/contracts"
)

// ADFResult is an augmented Dickey-Fuller test without constant or trend.
type ADFResult struct {
	Stat    float64 // t-value of the lagged level coefficient
	UsedLag int     // number of lagged differences in the final regression
	NObs    int     // observations in the final regression
	MaxLag  int
}

// DefaultMaxLag is the Schwert rule ceil(12·(n/100)^¼), capped at n/2-1.
func DefaultMaxLag(n int) int {
	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - 1; maxLag > limit {
		maxLag = limit
	}
	return maxLag
}

// ADF runs the Dickey-Fuller regression
//
//	Δx[t] = γ·x[t-1] + Σ_{i=1..p} φ_i·Δx[t-i] + e[t]
//
// choosing p in [0, maxLag] by minimum AIC over a common sample, then
// refitting with the chosen p on the largest sample it allows. A
// negative maxLag selects DefaultMaxLag.
func ADF(x []float64, maxLag int) (*ADFResult, error) {
	n := len(x)
	if maxLag < 0 {
		maxLag = DefaultMaxLag(n)
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: sample of %d is too short for ADF", contracts.ErrInsufficientData, n)
	}

	diff := make([]float64, n-1)
	for i := range diff {
		diff[i] = x[i+1] - x[i]
	}

	bestLag := 0
	if maxLag > 0 {
		rows := len(diff) - maxLag
		bestAIC := math.Inf(1)
		found := false
		for lag := 0; lag <= maxLag; lag++ {
			// every candidate needs a residual degree of freedom
			if rows-(lag+1) < 1 {
				break
			}
			y, cols := adfDesign(x, diff, maxLag, lag)
			res, err := OLS(y, cols, false)
			if err != nil {
				if errors.Is(err, contracts.ErrSingular) {
					continue
				}
				return nil, err
			}
			if aic := res.AIC(); aic < bestAIC {
				bestAIC = aic
				bestLag = lag
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: no admissible ADF lag", contracts.ErrDegenerate)
		}
	}

	y, cols := adfDesign(x, diff, bestLag, bestLag)
	res, err := OLS(y, cols, false)
	if err != nil {
		return nil, err
	}
	if res.SSR == 0 {
		return nil, fmt.Errorf("%w: ADF regression fits exactly", contracts.ErrDegenerate)
	}

	return &ADFResult{
		Stat:    res.TValues[0],
		UsedLag: bestLag,
		NObs:    res.NObs,
		MaxLag:  maxLag,
	}, nil
}

// adfDesign builds the sample starting at t = start (so that start lags of
// the difference exist) with the lagged level plus lag lagged differences.
func adfDesign(x, diff []float64, start, lag int) ([]float64, [][]float64) {
	rows := len(diff) - start
	y := make([]float64, rows)
	cols := make([][]float64, lag+1)
	for j := range cols {
		cols[j] = make([]float64, rows)
	}
	for r := 0; r < rows; r++ {
		t := start + r
		y[r] = diff[t]
		cols[0][r] = x[t]
		for i := 1; i <= lag; i++ {
			cols[i][r] = diff[t-i]
		}
	}
	return y, cols
}
