package s1_pairs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pairlab/internal/contracts"
)

// Repository handles pair finding persistence
// ⭐ SSOT: 페어 스크리닝 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new pair repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.PairRepository = (*Repository)(nil)

// SaveFindings stores every finding of a run in one batch.
func (r *Repository) SaveFindings(ctx context.Context, runID string, findings []contracts.PairFinding) error {
	if len(findings) == 0 {
		return nil
	}

	query := `
		INSERT INTO pair_findings (
			run_id, asset1, asset2, status, p_value, test_stat, hedge_ratio, observations, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id, asset1, asset2) DO UPDATE SET
			status = EXCLUDED.status,
			p_value = EXCLUDED.p_value,
			test_stat = EXCLUDED.test_stat,
			hedge_ratio = EXCLUDED.hedge_ratio,
			observations = EXCLUDED.observations,
			reason = EXCLUDED.reason
	`

	batch := &pgx.Batch{}
	for _, f := range findings {
		batch.Queue(query,
			runID, f.Asset1, f.Asset2, string(f.Status),
			f.PValue, f.TestStat, f.HedgeRatio, f.Observations, f.Reason,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save pair findings: %w", err)
	}
	return nil
}

// SignificantPairs returns the retained pairs of a run, best first.
func (r *Repository) SignificantPairs(ctx context.Context, runID string) ([]contracts.Pair, error) {
	query := `
		SELECT asset1, asset2, p_value, test_stat, hedge_ratio
		FROM pair_findings
		WHERE run_id = $1 AND status = $2
		ORDER BY p_value, asset1, asset2
	`

	rows, err := r.pool.Query(ctx, query, runID, string(contracts.FindingSignificant))
	if err != nil {
		return nil, fmt.Errorf("failed to query significant pairs: %w", err)
	}
	defer rows.Close()

	var pairs []contracts.Pair
	for rows.Next() {
		var p contracts.Pair
		if err := rows.Scan(&p.Asset1, &p.Asset2, &p.PValue, &p.TestStat, &p.HedgeRatio); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
