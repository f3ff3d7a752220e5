// Package stats holds the regression and unit-root routines behind the
// pair screener and the spread model.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/pairlab/internal/contracts"
)

// OLSResult is a fitted least-squares regression.
type OLSResult struct {
	Params    []float64 // one per design column
	StdErrors []float64
	TValues   []float64
	Residuals []float64
	SSR       float64 // sum of squared residuals
	RSquared  float64 // centered when the design has an intercept
	NObs      int
	DFResid   int
}

// OLS regresses y on the given design columns. Pass withConst to prepend
// an intercept column. Each column must have len(y) rows.
func OLS(y []float64, columns [][]float64, withConst bool) (*OLSResult, error) {
	n := len(y)
	k := len(columns)
	if withConst {
		k++
	}
	if k == 0 {
		return nil, fmt.Errorf("%w: no regressors", contracts.ErrDegenerate)
	}
	if n <= k {
		return nil, fmt.Errorf("%w: %d observations for %d regressors", contracts.ErrDegenerate, n, k)
	}
	for j, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("%w: column %d has %d rows, want %d", contracts.ErrMisaligned, j, len(col), n)
		}
	}

	X := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		j := 0
		if withConst {
			X.Set(i, 0, 1)
			j = 1
		}
		for _, col := range columns {
			X.Set(i, j, col[i])
			j++
		}
	}
	Y := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(X)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, Y); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrSingular, err)
	}

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	res := &OLSResult{
		Params:    make([]float64, k),
		StdErrors: make([]float64, k),
		TValues:   make([]float64, k),
		Residuals: make([]float64, n),
		NObs:      n,
		DFResid:   n - k,
	}

	for i := 0; i < n; i++ {
		e := y[i] - fitted.AtVec(i)
		res.Residuals[i] = e
		res.SSR += e * e
	}

	sigma2 := res.SSR / float64(res.DFResid)
	for j := 0; j < k; j++ {
		res.Params[j] = beta.AtVec(j)
		res.StdErrors[j] = math.Sqrt(sigma2 * xtxInv.At(j, j))
		res.TValues[j] = res.Params[j] / res.StdErrors[j]
	}

	res.RSquared = rSquared(y, res.SSR, withConst)
	return res, nil
}

// AIC returns the Akaike information criterion of a Gaussian likelihood,
// counting every estimated coefficient.
func (r *OLSResult) AIC() float64 {
	n := float64(r.NObs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(r.SSR/n) + 1)
	return -2*llf + 2*float64(len(r.Params))
}

func rSquared(y []float64, ssr float64, centered bool) float64 {
	var tss float64
	if centered {
		var mean float64
		for _, v := range y {
			mean += v
		}
		mean /= float64(len(y))
		for _, v := range y {
			tss += (v - mean) * (v - mean)
		}
	} else {
		for _, v := range y {
			tss += v * v
		}
	}
	if tss == 0 {
		return math.NaN()
	}
	return 1 - ssr/tss
}
