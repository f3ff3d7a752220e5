package contracts

import "errors"

// ⭐ SSOT: 에러 분류는 여기서만 정의
//
// Input errors abort the affected pair only. Insufficient data is a skip.
// Numerical degeneracy means "no finding". Contract violations are
// programming mistakes and fail loudly.
var (
	// Input
	ErrEmptyMatrix   = errors.New("price matrix is empty")
	ErrMissingTicker = errors.New("ticker not in price matrix")

	// Skip
	ErrInsufficientData = errors.New("insufficient aligned observations")

	// Numerical
	ErrDegenerate = errors.New("degenerate regression")
	ErrSingular   = errors.New("singular design matrix")

	// Contract
	ErrMisaligned    = errors.New("series are not aligned")
	ErrUnsortedDates = errors.New("dates are not strictly ascending")
)
