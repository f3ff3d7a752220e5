package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/s0_data"
	"github.com/wonny/pairlab/pkg/logger"
	"github.com/wonny/pairlab/pkg/redis"
)

// PriceSource downloads one ticker's daily closes.
type PriceSource interface {
	FetchDailyCloses(ctx context.Context, ticker string, from, to time.Time) (contracts.Series, error)
}

// UniverseSource lists the tickers to collect.
type UniverseSource interface {
	FetchSP500Tickers(ctx context.Context) ([]string, error)
}

// Collector orchestrates price collection from external sources
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	prices   PriceSource
	universe UniverseSource
	cache    *redis.Cache
	quota    *redis.RateLimiter
	logger   *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance. cache may be nil.
func NewCollector(prices PriceSource, universe UniverseSource, cache *redis.Cache, log *logger.Logger) *Collector {
	return &Collector{
		prices:   prices,
		universe: universe,
		cache:    cache,
		logger:   log.WithModule("collector"),
	}
}

// WithRateLimiter makes every download take a slot from the shared
// Yahoo quota first. Cache hits are free.
func (c *Collector) WithRateLimiter(rl *redis.RateLimiter) *Collector {
	c.quota = rl
	return c
}

// FetchResult represents the result of a fetch operation
type FetchResult struct {
	Ticker     string
	PriceCount int
	Cached     bool
	Error      error
}

// Result is the merged matrix plus per-ticker outcomes.
type Result struct {
	Matrix  *contracts.PriceMatrix
	Fetches []FetchResult
	Failed  []string
}

// Universe returns the constituent list, served from cache when possible.
func (c *Collector) Universe(ctx context.Context) ([]string, error) {
	key := redis.UniverseKey("sp500")

	var tickers []string
	if c.cache != nil {
		if hit, err := c.cache.Get(ctx, key, &tickers); err != nil {
			c.logger.WithError(err).Warn("Universe cache read failed")
		} else if hit && len(tickers) > 0 {
			return tickers, nil
		}
	}

	tickers, err := c.universe.FetchSP500Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, tickers, redis.TTLLong); err != nil {
			c.logger.WithError(err).Warn("Universe cache write failed")
		}
	}
	return tickers, nil
}

// Collect downloads every ticker over [from, to] and merges the successes
// on the union of dates. Failed tickers are reported, not fatal.
func (c *Collector) Collect(ctx context.Context, tickers []string, from, to time.Time, cfg Config) (*Result, error) {
	if len(tickers) == 0 {
		return nil, contracts.ErrEmptyMatrix
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker_count": len(tickers),
		"from":         from.Format("2006-01-02"),
		"to":           to.Format("2006-01-02"),
		"workers":      workers,
	}).Info("Starting price collection")

	type fetched struct {
		result FetchResult
		series contracts.Series
	}

	resultCh := make(chan fetched, len(tickers))
	tickerCh := make(chan string, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for ticker := range tickerCh {
				select {
				case <-ctx.Done():
					resultCh <- fetched{result: FetchResult{Ticker: ticker, Error: ctx.Err()}}
					continue
				default:
				}
				series, cached, err := c.fetchOne(ctx, ticker, from, to)
				if err != nil {
					c.logger.WithError(err).WithFields(map[string]interface{}{
						"worker": workerID,
						"ticker": ticker,
					}).Warn("Failed to fetch prices")
				}
				resultCh <- fetched{
					result: FetchResult{Ticker: ticker, PriceCount: series.Len(), Cached: cached, Error: err},
					series: series,
				}
			}
		}(i)
	}

	for _, t := range tickers {
		tickerCh <- t
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	series := make(map[string]contracts.Series, len(tickers))
	res := &Result{Fetches: make([]FetchResult, 0, len(tickers))}
	for f := range resultCh {
		res.Fetches = append(res.Fetches, f.result)
		if f.result.Error != nil {
			res.Failed = append(res.Failed, f.result.Ticker)
			continue
		}
		series[f.result.Ticker] = f.series
	}
	sort.Strings(res.Failed)
	sort.Slice(res.Fetches, func(i, j int) bool { return res.Fetches[i].Ticker < res.Fetches[j].Ticker })

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(series),
		"failed":  len(res.Failed),
		"total":   len(tickers),
	}).Info("Price collection completed")

	matrix, err := s0_data.MergeSeries(tickers, series)
	if err != nil {
		return nil, fmt.Errorf("merge series: %w", err)
	}
	res.Matrix = matrix
	return res, nil
}

func (c *Collector) fetchOne(ctx context.Context, ticker string, from, to time.Time) (contracts.Series, bool, error) {
	key := redis.SeriesKey(ticker, from, to)

	if c.cache != nil {
		var s contracts.Series
		hit, err := c.cache.Get(ctx, key, &s)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Series cache read failed")
		} else if hit {
			return s, true, nil
		}
	}

	if c.quota != nil {
		if err := c.quota.Wait(ctx, redis.YahooRateLimit); err != nil {
			return contracts.Series{}, false, fmt.Errorf("wait for download quota: %w", err)
		}
	}

	s, err := c.prices.FetchDailyCloses(ctx, ticker, from, to)
	if err != nil {
		return contracts.Series{}, false, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, s, redis.TTLDaily); err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Series cache write failed")
		}
	}
	return s, false, nil
}
