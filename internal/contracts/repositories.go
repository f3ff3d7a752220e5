package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만
// Every store is optional. A nil store means "do not persist".

// PriceRepository stores daily closes (PostgreSQL).
type PriceRepository interface {
	SaveMatrix(ctx context.Context, m *PriceMatrix) (int, error)
	LoadMatrix(ctx context.Context, tickers []string, from, to time.Time) (*PriceMatrix, error)
}

// PairFinding is one evaluated pair of a screening run.
type PairFinding struct {
	Asset1       string        `json:"asset1"`
	Asset2       string        `json:"asset2"`
	Status       FindingStatus `json:"status"`
	PValue       *float64      `json:"p_value,omitempty"`
	TestStat     *float64      `json:"test_stat,omitempty"`
	HedgeRatio   *float64      `json:"hedge_ratio,omitempty"`
	Observations int           `json:"observations"`
	Reason       string        `json:"reason,omitempty"`
}

// FindingStatus separates skipped, failed and not-significant pairs.
type FindingStatus string

const (
	FindingSignificant    FindingStatus = "significant"
	FindingNotSignificant FindingStatus = "not_significant"
	FindingSkipped        FindingStatus = "skipped"
	FindingFailed         FindingStatus = "failed"
)

// PairRepository stores screening findings (PostgreSQL).
type PairRepository interface {
	SaveFindings(ctx context.Context, runID string, findings []PairFinding) error
	SignificantPairs(ctx context.Context, runID string) ([]Pair, error)
}

// BacktestRun summarises one simulated pair.
type BacktestRun struct {
	RunID          string
	Asset1         string
	Asset2         string
	HedgeRatio     float64
	InitialCapital float64
	FinalValue     float64
	TotalReturn    float64
	Sharpe         float64
	Sortino        float64
	MaxDrawdown    float64
	Volatility     float64
	Trades         int
	Interruptions  int
	ConfigHash     string
	StartDate      time.Time
	EndDate        time.Time
}

// BacktestRepository stores run summaries (PostgreSQL).
type BacktestRepository interface {
	SaveRun(ctx context.Context, run *BacktestRun) error
	GetRun(ctx context.Context, runID, asset1, asset2 string) (*BacktestRun, error)
}

// ValueStore stores portfolio value series (ClickHouse).
type ValueStore interface {
	SaveValues(ctx context.Context, runID, asset1, asset2 string, values PortfolioValueSeries, inTrade []bool) error
	LoadValues(ctx context.Context, runID, asset1, asset2 string) (PortfolioValueSeries, error)
}
