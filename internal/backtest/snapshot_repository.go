package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/pairlab/internal/strategyconfig"
)

// ErrSnapshotNotFound is returned by GetSnapshot for an unknown run.
var ErrSnapshotNotFound = errors.New("strategy snapshot not found")

// SaveSnapshot stores the config once per hash and links runID to it.
func (r *RunRepository) SaveSnapshot(ctx context.Context, runID string, snap *strategyconfig.DecisionSnapshot) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO strategy_snapshots (config_hash, strategy_id, config_yaml, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_hash) DO NOTHING
	`, snap.ConfigHash, snap.StrategyID, snap.ConfigYAML, snap.CreatedAt)
	batch.Queue(`
		INSERT INTO run_snapshots (run_id, config_hash)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET config_hash = EXCLUDED.config_hash
	`, runID, snap.ConfigHash)

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save strategy snapshot: %w", err)
		}
	}
	return nil
}

// GetSnapshot returns the config a run was produced with.
func (r *RunRepository) GetSnapshot(ctx context.Context, runID string) (*strategyconfig.DecisionSnapshot, error) {
	query := `
		SELECT s.config_hash, s.strategy_id, s.config_yaml, s.created_at
		FROM run_snapshots rs
		JOIN strategy_snapshots s ON s.config_hash = rs.config_hash
		WHERE rs.run_id = $1
	`

	var snap strategyconfig.DecisionSnapshot
	err := r.pool.QueryRow(ctx, query, runID).Scan(&snap.ConfigHash, &snap.StrategyID, &snap.ConfigYAML, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy snapshot: %w", err)
	}
	return &snap, nil
}
