package s1_pairs

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/s0_data"
	"github.com/wonny/pairlab/internal/stats"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/logger"
)

// Skip and failure reasons recorded on findings.
const (
	ReasonTooShort   = "too_short"
	ReasonDegenerate = "degenerate"
	ReasonSingular   = "singular"
	ReasonError      = "error"
)

// ScreenerConfig holds the cointegration screening parameters
// SSOT: config/strategy/sp500_pairs.yaml screening
type ScreenerConfig struct {
	SignificanceLevel float64 // p < 이 값이면 채택 (예: 0.05)
	MinObservations   int     // 정렬 후 최소 관측치 (예: 20)
	Workers           int     // 0 = runtime.NumCPU()
}

// ConfigFromStrategy maps the screening section of a strategy config.
func ConfigFromStrategy(cfg strategyconfig.Screening) ScreenerConfig {
	return ScreenerConfig{
		SignificanceLevel: cfg.SignificanceLevel,
		MinObservations:   cfg.MinObservations,
		Workers:           cfg.Workers,
	}
}

// Screener runs Engle-Granger tests over every unordered ticker pair
// ⭐ SSOT: S1 페어 스크리닝 로직은 여기서만
type Screener struct {
	config ScreenerConfig
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(config ScreenerConfig, log *logger.Logger) *Screener {
	return &Screener{
		config: config,
		logger: log.WithModule("s1_pairs"),
	}
}

// ScreenResult holds retained pairs and the outcome of every evaluation.
type ScreenResult struct {
	Pairs          []contracts.Pair        // p ascending, ties by asset names
	Findings       []contracts.PairFinding // matrix column order
	Evaluated      int
	Significant    int
	NotSignificant int
	Skipped        int
	Failed         int
}

type pairJob struct {
	seq    int
	asset1 string
	asset2 string
}

type pairOutcome struct {
	seq     int
	finding contracts.PairFinding
}

// Screen evaluates all N·(N-1)/2 pairs. Per-pair problems become findings;
// only cancellation or an empty matrix abort the scan.
func (s *Screener) Screen(ctx context.Context, m *contracts.PriceMatrix) (*ScreenResult, error) {
	if m.IsEmpty() {
		return nil, contracts.ErrEmptyMatrix
	}

	var jobs []pairJob
	for i := 0; i < len(m.Tickers); i++ {
		for j := i + 1; j < len(m.Tickers); j++ {
			jobs = append(jobs, pairJob{seq: len(jobs), asset1: m.Tickers[i], asset2: m.Tickers[j]})
		}
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	s.logger.WithFields(map[string]interface{}{
		"tickers": len(m.Tickers),
		"pairs":   len(jobs),
		"workers": workers,
		"alpha":   s.config.SignificanceLevel,
	}).Info("Starting pair screening")

	jobCh := make(chan pairJob)
	outCh := make(chan pairOutcome, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				outCh <- pairOutcome{seq: job.seq, finding: s.evaluate(m, job.asset1, job.asset2)}
			}
		}()
	}

	// 취소되면 남은 작업은 보내지 않음
	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobCh <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	findings := make([]contracts.PairFinding, len(jobs))
	done := 0
	for out := range outCh {
		findings[out.seq] = out.finding
		done++
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("screening interrupted after %d/%d pairs: %w", done, len(jobs), err)
	}

	res := summarize(findings)

	s.logger.WithFields(map[string]interface{}{
		"evaluated":       res.Evaluated,
		"significant":     res.Significant,
		"not_significant": res.NotSignificant,
		"skipped":         res.Skipped,
		"failed":          res.Failed,
	}).Info("Pair screening completed")

	return res, nil
}

// evaluate tests one pair. It never returns an error: problems are
// recorded on the finding.
func (s *Screener) evaluate(m *contracts.PriceMatrix, asset1, asset2 string) contracts.PairFinding {
	f := contracts.PairFinding{Asset1: asset1, Asset2: asset2}

	pair, err := s0_data.Align(m, asset1, asset2)
	if err != nil {
		f.Status = contracts.FindingFailed
		f.Reason = ReasonError
		return f
	}
	f.Observations = pair.Len()

	if pair.Len() < s.config.MinObservations {
		f.Status = contracts.FindingSkipped
		f.Reason = ReasonTooShort
		return f
	}

	res, err := stats.Coint(pair.Price1, pair.Price2)
	if err != nil {
		f.Status = contracts.FindingFailed
		f.Reason = failureReason(err)
		s.logger.WithError(err).WithField("pair", pair.Label()).Debug("Cointegration test failed")
		return f
	}

	p, stat, beta := res.PValue, res.Stat, res.HedgeRatio
	f.PValue, f.TestStat, f.HedgeRatio = &p, &stat, &beta

	if p < s.config.SignificanceLevel {
		f.Status = contracts.FindingSignificant
	} else {
		f.Status = contracts.FindingNotSignificant
	}
	return f
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, contracts.ErrSingular):
		return ReasonSingular
	case errors.Is(err, contracts.ErrDegenerate), errors.Is(err, contracts.ErrInsufficientData):
		return ReasonDegenerate
	default:
		return ReasonError
	}
}

func summarize(findings []contracts.PairFinding) *ScreenResult {
	res := &ScreenResult{Findings: findings, Evaluated: len(findings)}
	for _, f := range findings {
		switch f.Status {
		case contracts.FindingSignificant:
			res.Significant++
			res.Pairs = append(res.Pairs, contracts.Pair{
				Asset1:     f.Asset1,
				Asset2:     f.Asset2,
				PValue:     *f.PValue,
				TestStat:   *f.TestStat,
				HedgeRatio: f.HedgeRatio,
			})
		case contracts.FindingNotSignificant:
			res.NotSignificant++
		case contracts.FindingSkipped:
			res.Skipped++
		case contracts.FindingFailed:
			res.Failed++
		}
	}
	SortPairs(res.Pairs)
	return res
}

// SortPairs orders pairs by ascending p-value, then by asset names.
func SortPairs(pairs []contracts.Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.PValue != b.PValue {
			return a.PValue < b.PValue
		}
		if a.Asset1 != b.Asset1 {
			return a.Asset1 < b.Asset1
		}
		return a.Asset2 < b.Asset2
	})
}
