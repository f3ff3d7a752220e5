package stats

import (
	"fmt"
	"math"

	"github.com/wonny/pairlab/internal/contracts"
)

// collinearTol marks the first-step fit as perfect: R² ≥ 1 - 100·√eps.
var collinearTol = 1 - 100*math.Sqrt(2.220446049250313e-16)

// CointResult is an Engle-Granger two-step cointegration test.
type CointResult struct {
	Stat       float64    // ADF statistic of the first-step residuals
	PValue     float64    // MacKinnon asymptotic p-value, N=2 with constant
	CritValues [3]float64 // 1%, 5%, 10% at T = len(y)-1 (finite sample)
	HedgeRatio float64    // slope of y on x
	Intercept  float64
	UsedLag    int
	NObs       int
	Collinear  bool // y and x are (almost) perfectly collinear
}

// Coint tests y and x for cointegration: OLS of y on a constant and x,
// then ADF (no constant, AIC lag choice) on the residuals. Perfectly
// collinear inputs yield Stat -Inf and PValue 0.
func Coint(y, x []float64) (*CointResult, error) {
	if len(y) != len(x) {
		return nil, fmt.Errorf("%w: %d vs %d observations", contracts.ErrMisaligned, len(y), len(x))
	}

	first, err := OLS(y, [][]float64{x}, true)
	if err != nil {
		return nil, fmt.Errorf("cointegrating regression: %w", err)
	}
	if math.IsNaN(first.RSquared) {
		return nil, fmt.Errorf("%w: dependent series is constant", contracts.ErrDegenerate)
	}

	res := &CointResult{
		CritValues: MacKinnonCritN(2, len(y)-1),
		Intercept:  first.Params[0],
		HedgeRatio: first.Params[1],
		NObs:       first.NObs,
	}

	if first.RSquared >= collinearTol {
		res.Collinear = true
		res.Stat = math.Inf(-1)
		res.PValue = 0
		return res, nil
	}

	adf, err := ADF(first.Residuals, -1)
	if err != nil {
		return nil, fmt.Errorf("residual unit-root test: %w", err)
	}

	res.Stat = adf.Stat
	res.UsedLag = adf.UsedLag
	res.PValue = MacKinnonP(adf.Stat, 2)
	return res, nil
}
