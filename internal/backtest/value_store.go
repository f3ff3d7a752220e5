package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/pkg/clickhouse"
)

// ValueStore keeps portfolio value series in ClickHouse
// ⭐ SSOT: 일별 포트폴리오 가치 시계열 저장은 여기서만
type ValueStore struct {
	conn *clickhouse.Conn
}

// NewValueStore creates a new value store
func NewValueStore(conn *clickhouse.Conn) *ValueStore {
	return &ValueStore{conn: conn}
}

var _ contracts.ValueStore = (*ValueStore)(nil)

// SaveValues appends the series in one batch. inTrade may be nil.
func (s *ValueStore) SaveValues(ctx context.Context, runID, asset1, asset2 string, values contracts.PortfolioValueSeries, inTrade []bool) error {
	if len(values) == 0 {
		return nil
	}
	if inTrade != nil && len(inTrade) != len(values) {
		return fmt.Errorf("%w: %d values vs %d position flags", contracts.ErrMisaligned, len(values), len(inTrade))
	}

	batch, err := s.conn.PrepareBatch(ctx,
		"INSERT INTO portfolio_values (run_id, asset1, asset2, trade_date, value, in_trade)")
	if err != nil {
		return fmt.Errorf("prepare value batch: %w", err)
	}

	for i, p := range values {
		var held uint8
		if inTrade != nil && inTrade[i] {
			held = 1
		}
		if err := batch.Append(runID, asset1, asset2, p.Date, p.Value, held); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append value %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send value batch: %w", err)
	}
	return nil
}

// LoadValues reads one series back in date order.
func (s *ValueStore) LoadValues(ctx context.Context, runID, asset1, asset2 string) (contracts.PortfolioValueSeries, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT trade_date, value
		FROM portfolio_values FINAL
		WHERE run_id = ? AND asset1 = ? AND asset2 = ?
		ORDER BY trade_date`,
		runID, asset1, asset2,
	)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	var out contracts.PortfolioValueSeries
	for rows.Next() {
		var (
			date  time.Time
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		out = append(out, contracts.ValuePoint{Date: date.UTC(), Value: value})
	}
	return out, rows.Err()
}
