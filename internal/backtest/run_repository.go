package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pairlab/internal/contracts"
)

// ErrRunNotFound is returned by GetRun for an unknown key.
var ErrRunNotFound = errors.New("backtest run not found")

// RunRepository handles backtest run persistence
// ⭐ SSOT: 백테스트 결과 요약 저장/조회는 여기서만
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

var _ contracts.BacktestRepository = (*RunRepository)(nil)

// SaveRun upserts one run summary. NaN metrics are stored as NULL.
func (r *RunRepository) SaveRun(ctx context.Context, run *contracts.BacktestRun) error {
	query := `
		INSERT INTO backtest_runs (
			run_id, asset1, asset2, hedge_ratio, initial_capital, final_value, total_return,
			sharpe, sortino, max_drawdown, volatility, trades, interruptions,
			config_hash, start_date, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (run_id, asset1, asset2) DO UPDATE SET
			hedge_ratio = EXCLUDED.hedge_ratio,
			initial_capital = EXCLUDED.initial_capital,
			final_value = EXCLUDED.final_value,
			total_return = EXCLUDED.total_return,
			sharpe = EXCLUDED.sharpe,
			sortino = EXCLUDED.sortino,
			max_drawdown = EXCLUDED.max_drawdown,
			volatility = EXCLUDED.volatility,
			trades = EXCLUDED.trades,
			interruptions = EXCLUDED.interruptions,
			config_hash = EXCLUDED.config_hash,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date
	`

	_, err := r.pool.Exec(ctx, query,
		run.RunID, run.Asset1, run.Asset2, run.HedgeRatio, run.InitialCapital, run.FinalValue, run.TotalReturn,
		nullable(run.Sharpe), nullable(run.Sortino), nullable(run.MaxDrawdown), nullable(run.Volatility),
		run.Trades, run.Interruptions, run.ConfigHash, run.StartDate, run.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}
	return nil
}

// GetRun loads one run summary.
func (r *RunRepository) GetRun(ctx context.Context, runID, asset1, asset2 string) (*contracts.BacktestRun, error) {
	query := `
		SELECT run_id, asset1, asset2, hedge_ratio, initial_capital, final_value, total_return,
		       sharpe, sortino, max_drawdown, volatility, trades, interruptions,
		       config_hash, start_date, end_date
		FROM backtest_runs
		WHERE run_id = $1 AND asset1 = $2 AND asset2 = $3
	`

	var (
		run                                   contracts.BacktestRun
		sharpe, sortino, maxDrawdown, volatil *float64
	)
	err := r.pool.QueryRow(ctx, query, runID, asset1, asset2).Scan(
		&run.RunID, &run.Asset1, &run.Asset2, &run.HedgeRatio, &run.InitialCapital, &run.FinalValue, &run.TotalReturn,
		&sharpe, &sortino, &maxDrawdown, &volatil, &run.Trades, &run.Interruptions,
		&run.ConfigHash, &run.StartDate, &run.EndDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s/%s", ErrRunNotFound, runID, asset1, asset2)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest run: %w", err)
	}

	run.Sharpe = orNaN(sharpe)
	run.Sortino = orNaN(sortino)
	run.MaxDrawdown = orNaN(maxDrawdown)
	run.Volatility = orNaN(volatil)
	return &run, nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
