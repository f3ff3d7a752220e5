package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wonny/pairlab/internal/backtest"
	"github.com/wonny/pairlab/internal/brain"
	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/external/wikipedia"
	"github.com/wonny/pairlab/internal/external/yahoo"
	"github.com/wonny/pairlab/internal/observability"
	"github.com/wonny/pairlab/internal/s0_data"
	"github.com/wonny/pairlab/internal/s0_data/collector"
	"github.com/wonny/pairlab/internal/s1_pairs"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/clickhouse"
	"github.com/wonny/pairlab/pkg/config"
	"github.com/wonny/pairlab/pkg/database"
	"github.com/wonny/pairlab/pkg/httputil"
	"github.com/wonny/pairlab/pkg/logger"
	"github.com/wonny/pairlab/pkg/redis"
)

// appEnv bundles what every command needs: environment config, logger,
// strategy config and metrics.
type appEnv struct {
	cfg          *config.Config
	log          *logger.Logger
	strategy     *strategyconfig.Config
	strategyYAML []byte
	metrics      *observability.Metrics

	closers []func()
}

func loadEnv() (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	path := strategyFile
	if path == "" {
		path = cfg.Data.StrategyConfig
	}
	strategy, raw, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy config %q: %w", path, err)
	}

	return &appEnv{
		cfg:          cfg,
		log:          log,
		strategy:     strategy,
		strategyYAML: raw,
		metrics:      observability.NewMetrics(observability.DefaultNamespace),
	}, nil
}

func (e *appEnv) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// openStores connects whatever persistence is configured. Unset
// DATABASE_URL / CLICKHOUSE_DSN leave the matching store nil.
func (e *appEnv) openStores(ctx context.Context) (brain.Stores, *database.DB, error) {
	var stores brain.Stores
	var db *database.DB

	if e.cfg.Database.Enabled() {
		var err error
		db, err = database.Open(ctx, e.cfg.Database)
		if err != nil {
			return stores, nil, fmt.Errorf("connect to database: %w", err)
		}
		e.closers = append(e.closers, db.Close)
		if _, err := db.Migrate(ctx); err != nil {
			return stores, nil, fmt.Errorf("migrate database: %w", err)
		}
		runs := backtest.NewRunRepository(db.Pool)
		stores.Pairs = s1_pairs.NewRepository(db.Pool)
		stores.Runs = runs
		stores.Snapshots = runs
	}

	if e.cfg.ClickHouse.Enabled() {
		conn, err := clickhouse.Open(ctx, e.cfg.ClickHouse.DSN)
		if err != nil {
			return stores, db, fmt.Errorf("connect to clickhouse: %w", err)
		}
		e.closers = append(e.closers, func() { _ = conn.Close() })
		if err := conn.Migrate(ctx); err != nil {
			return stores, db, fmt.Errorf("migrate clickhouse: %w", err)
		}
		stores.Values = backtest.NewValueStore(conn)
	}

	return stores, db, nil
}

// newCollector wires Wikipedia, Yahoo and the optional Redis cache.
func (e *appEnv) newCollector() (*collector.Collector, error) {
	httpClient := httputil.New(e.cfg, e.log)

	rc, err := redis.New(e.cfg)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() { _ = rc.Close() })

	return collector.NewCollector(
		yahoo.NewClient(httpClient, e.log, e.cfg.Fetch.YahooBaseURL),
		wikipedia.NewClient(httpClient, e.log, e.cfg.Fetch.SP500URL),
		redis.NewCache(rc, "pairlab"),
		e.log,
	).WithRateLimiter(redis.NewRateLimiter(rc, "pairlab")), nil
}

// collect downloads tickers (the S&P 500 list when empty) and records
// per-ticker outcomes in metrics.
func (e *appEnv) collect(ctx context.Context, tickers []string, from, to time.Time) (*collector.Result, error) {
	col, err := e.newCollector()
	if err != nil {
		return nil, err
	}

	if len(tickers) == 0 {
		tickers, err = col.Universe(ctx)
		if err != nil {
			return nil, err
		}
		PrintInfo(fmt.Sprintf("Found %d tickers", len(tickers)))
	}

	res, err := col.Collect(ctx, tickers, from, to, collector.Config{Workers: e.cfg.Fetch.Workers})
	if err != nil {
		return nil, err
	}

	for _, f := range res.Fetches {
		outcome := "ok"
		switch {
		case f.Error != nil:
			outcome = "failed"
		case f.Cached:
			outcome = "cached"
		}
		e.metrics.TickersFetched.WithLabelValues(outcome).Inc()
	}
	return res, nil
}

// loadPrices reads the price CSV, downloading it first when missing and
// download is true.
func (e *appEnv) loadPrices(ctx context.Context, download bool, from, to time.Time) (*contracts.PriceMatrix, error) {
	path := e.cfg.Data.PricesPath()

	if _, err := os.Stat(path); os.IsNotExist(err) && download {
		PrintWarning(fmt.Sprintf("Historical data not found at %s, downloading", path))
		res, err := e.collect(ctx, nil, from, to)
		if err != nil {
			return nil, fmt.Errorf("download prices: %w", err)
		}
		if err := s0_data.SavePriceCSV(path, res.Matrix); err != nil {
			return nil, fmt.Errorf("save prices: %w", err)
		}
		printCollectResult(res, path)
	}

	m, report, err := s0_data.ReadPriceCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load prices %s: %w", path, err)
	}
	e.log.WithFields(map[string]interface{}{
		"path":            path,
		"dates":           m.Len(),
		"tickers":         len(m.Tickers),
		"metadata_rows":   report.MetadataRows,
		"coerced_cells":   report.CoercedCells,
		"dropped_columns": len(report.DroppedColumns),
	}).Info("Price data loaded")
	return m, nil
}

func (e *appEnv) writeMetrics() {
	if e.cfg.MetricsTextfile == "" {
		return
	}
	if err := e.metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
		e.log.WithError(err).Warn("Failed to write metrics textfile")
	}
}

func printCollectResult(res *collector.Result, path string) {
	PrintSuccess(fmt.Sprintf("Downloaded %d tickers (%d dates)", len(res.Matrix.Tickers), res.Matrix.Len()))
	if len(res.Failed) > 0 {
		PrintWarning(fmt.Sprintf("Failed to download %d tickers: %s", len(res.Failed), strings.Join(res.Failed, ", ")))
	}
	PrintSuccess("Saved to " + path)
}

// parsePair parses "A,B" or "A/B".
func parsePair(s string) ([]string, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' })
	if len(fields) != 2 {
		return nil, fmt.Errorf("pair must be two tickers like AMZN,NVDA, got %q", s)
	}
	return []string{strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])}, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	d, ok := s0_data.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s %q (YYYY-MM-DD)", name, value)
	}
	return d, nil
}
