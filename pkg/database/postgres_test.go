package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pairlab/pkg/config"
	"github.com/wonny/pairlab/pkg/database"
	"github.com/wonny/pairlab/pkg/database/dbtest"
)

func TestOpenRequiresURL(t *testing.T) {
	_, err := database.Open(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestOpenRejectsMalformedURL(t *testing.T) {
	_, err := database.Open(context.Background(), config.DatabaseConfig{URL: "postgres://%zz"})
	assert.Error(t, err)
}

func TestHealthCheckAndMigrate(t *testing.T) {
	db := dbtest.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))

	// A second run must be a no-op.
	files, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_strategy_snapshots.sql"}, files)

	var n int
	err = db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name IN ('daily_prices','pair_findings','backtest_runs','strategy_snapshots','run_snapshots')`,
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
