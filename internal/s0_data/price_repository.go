package s0_data

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pairlab/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

var _ contracts.PriceRepository = (*PriceRepository)(nil)

const upsertPriceSQL = `
	INSERT INTO daily_prices (ticker, trade_date, adj_close)
	VALUES ($1, $2, $3)
	ON CONFLICT (ticker, trade_date) DO UPDATE SET
		adj_close = EXCLUDED.adj_close,
		updated_at = now()
`

// SaveMatrix upserts every non-missing observation, one batch per ticker.
func (r *PriceRepository) SaveMatrix(ctx context.Context, m *contracts.PriceMatrix) (int, error) {
	saved := 0
	for _, ticker := range m.Tickers {
		batch := &pgx.Batch{}
		for i, v := range m.Columns[ticker] {
			if math.IsNaN(v) {
				continue
			}
			batch.Queue(upsertPriceSQL, ticker, m.Dates[i], v)
		}
		if batch.Len() == 0 {
			continue
		}

		if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
			return saved, fmt.Errorf("save prices for %s: %w", ticker, err)
		}
		saved += batch.Len()
	}
	return saved, nil
}

// LoadMatrix reads closes for tickers within [from, to] into a matrix on
// the union of their dates. An empty tickers list loads every ticker.
func (r *PriceRepository) LoadMatrix(ctx context.Context, tickers []string, from, to time.Time) (*contracts.PriceMatrix, error) {
	query := `
		SELECT ticker, trade_date, adj_close
		FROM daily_prices
		WHERE trade_date BETWEEN $1 AND $2
		  AND (cardinality($3::text[]) = 0 OR ticker = ANY($3))
		ORDER BY ticker, trade_date
	`

	if tickers == nil {
		tickers = []string{}
	}
	rows, err := r.pool.Query(ctx, query, from, to, tickers)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	series := make(map[string]contracts.Series)
	var order []string
	for rows.Next() {
		var (
			ticker string
			date   time.Time
			price  float64
		)
		if err := rows.Scan(&ticker, &date, &price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		s, ok := series[ticker]
		if !ok {
			order = append(order, ticker)
		}
		s.Dates = append(s.Dates, date.UTC())
		s.Values = append(s.Values, price)
		series[ticker] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tickers) > 0 {
		order = orderLike(tickers, series)
	}
	return MergeSeries(order, series)
}

// orderLike keeps the caller's ticker order for tickers that had rows.
func orderLike(tickers []string, series map[string]contracts.Series) []string {
	out := make([]string, 0, len(series))
	for _, t := range tickers {
		if _, ok := series[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
