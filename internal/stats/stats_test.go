package stats

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pairlab/internal/contracts"
)

func randomWalk(r *rand.Rand, n int, start float64) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		v += r.NormFloat64()
		out[i] = v
	}
	return out
}

func TestOLSExactFit(t *testing.T) {
	x := []float64{10, 11, 13, 12, 15, 18, 17}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3 + 2*v
	}

	res, err := OLS(y, [][]float64{x}, true)
	require.NoError(t, err)

	assert.InDelta(t, 3, res.Params[0], 1e-9)
	assert.InDelta(t, 2, res.Params[1], 1e-9)
	assert.InDelta(t, 0, res.SSR, 1e-12)
	assert.InDelta(t, 1, res.RSquared, 1e-12)
	assert.Equal(t, 5, res.DFResid)
}

func TestOLSStandardErrors(t *testing.T) {
	// y = 1 + x with residuals (+1, -1, -1, +1) around the line
	x := []float64{0, 1, 2, 3}
	y := []float64{2, 1, 2, 5}

	res, err := OLS(y, [][]float64{x}, true)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Params[0], 1e-12)
	assert.InDelta(t, 1.0, res.Params[1], 1e-12)
	// SSR = 4, sigma² = 2, var(slope) = sigma²/Sxx = 2/5
	assert.InDelta(t, 4.0, res.SSR, 1e-12)
	assert.InDelta(t, math.Sqrt(0.4), res.StdErrors[1], 1e-12)
	assert.InDelta(t, 1.0/math.Sqrt(0.4), res.TValues[1], 1e-9)
}

func TestOLSErrors(t *testing.T) {
	_, err := OLS([]float64{1, 2}, [][]float64{{1, 2}}, true)
	assert.ErrorIs(t, err, contracts.ErrDegenerate, "n must exceed k")

	_, err = OLS([]float64{1, 2, 3}, [][]float64{{1, 2}}, false)
	assert.ErrorIs(t, err, contracts.ErrMisaligned)

	_, err = OLS([]float64{1, 2, 3, 4}, [][]float64{{5, 5, 5, 5}}, true)
	assert.Error(t, err, "constant regressor duplicates the intercept")
}

func TestAIC(t *testing.T) {
	res := &OLSResult{NObs: 10, SSR: 10, Params: []float64{1, 2}}
	// llf = -5·(log 2π + 0 + 1)
	want := 10*(math.Log(2*math.Pi)+1) + 4
	assert.InDelta(t, want, res.AIC(), 1e-12)
}

func TestDefaultMaxLag(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{100, 12},
		{500, 18},
		{20, 9},
		{4, 1},
		{2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultMaxLag(tt.n), "n=%d", tt.n)
	}
}

func TestMacKinnonCritN(t *testing.T) {
	assert.Equal(t, [3]float64{-3.89644, -3.33613, -3.04445}, MacKinnonCrit(2))

	// T = 99, N = 2
	crit := MacKinnonCritN(2, 99)
	assert.InDelta(t, -4.01049, crit[0], 1e-5)
	assert.InDelta(t, -3.39854, crit[1], 1e-5)
	assert.InDelta(t, -3.08757, crit[2], 1e-5)

	// finite-sample values are more negative and converge to the asymptote
	big := MacKinnonCritN(2, 100000)
	for i := range crit {
		assert.Less(t, crit[i], big[i])
		assert.InDelta(t, MacKinnonCrit(2)[i], big[i], 1e-3)
	}

	assert.True(t, math.IsNaN(MacKinnonCritN(7, 100)[0]))
}

func TestMacKinnonP(t *testing.T) {
	assert.InDelta(t, 0.0495, MacKinnonP(-3.34, 2), 5e-4)
	assert.InDelta(t, 0.5286, MacKinnonP(-2.0, 2), 5e-4)
	assert.Equal(t, 1.0, MacKinnonP(3.0, 2))
	assert.Equal(t, 0.0, MacKinnonP(-25, 2))
	assert.Equal(t, 0.0, MacKinnonP(math.Inf(-1), 2))
	assert.True(t, math.IsNaN(MacKinnonP(-3, 0)))

	// the 5% critical value maps close to p = 0.05
	crit := MacKinnonCrit(2)
	assert.InDelta(t, 0.05, MacKinnonP(crit[1], 2), 0.005)

	prev := -1.0
	for s := -15.0; s <= 2.5; s += 0.25 {
		p := MacKinnonP(s, 2)
		assert.GreaterOrEqual(t, p, prev, "p-value must not decrease at stat=%v", s)
		prev = p
	}
}

func TestPolyval(t *testing.T) {
	assert.Equal(t, 1.0+2*3+3*9, polyval([]float64{1, 2, 3}, 3))
}

func TestADFWhiteNoiseRejectsUnitRoot(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	x := make([]float64, 500)
	for i := range x {
		x[i] = r.NormFloat64()
	}

	res, err := ADF(x, -1)
	require.NoError(t, err)

	assert.Less(t, res.Stat, -5.0)
	assert.Equal(t, 18, res.MaxLag)
	assert.LessOrEqual(t, res.UsedLag, res.MaxLag)
	assert.Equal(t, len(x)-1-res.UsedLag, res.NObs)
}

func TestADFFixedLag(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	x := make([]float64, 200)
	for i := range x {
		x[i] = r.NormFloat64()
	}

	res, err := ADF(x, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.UsedLag)
	assert.Equal(t, 199, res.NObs)
}

func TestCointCointegratedPair(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 43))
	x := randomWalk(r, 500, 100)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 5 + 2*v + r.NormFloat64()
	}

	res, err := Coint(y, x)
	require.NoError(t, err)

	assert.False(t, res.Collinear)
	assert.Less(t, res.PValue, 0.01)
	assert.Less(t, res.Stat, res.CritValues[0])
	assert.Equal(t, MacKinnonCritN(2, len(y)-1), res.CritValues)
	assert.InDelta(t, 2, res.HedgeRatio, 0.05)
}

func TestCointExactLinearRelation(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	x := randomWalk(r, 100, 50)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3 + 2*v
	}

	res, err := Coint(y, x)
	require.NoError(t, err)

	assert.True(t, res.Collinear)
	assert.True(t, math.IsInf(res.Stat, -1))
	assert.Equal(t, 0.0, res.PValue)
	assert.InDelta(t, 2, res.HedgeRatio, 1e-9)
}

func TestCointIndependentRandomWalks(t *testing.T) {
	retained := 0
	for seed := uint64(1); seed <= 20; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*7+1))
		x := randomWalk(r, 500, 100)
		y := randomWalk(r, 500, 100)

		res, err := Coint(y, x)
		require.NoError(t, err)
		if res.PValue < 0.05 {
			retained++
		}
	}

	// ~5% of independent walks test as cointegrated by chance
	assert.LessOrEqual(t, retained, 4)
}

func TestCointErrors(t *testing.T) {
	_, err := Coint([]float64{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, contracts.ErrMisaligned)

	_, err = Coint([]float64{4, 4, 4, 4, 4}, []float64{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, contracts.ErrDegenerate)
}
