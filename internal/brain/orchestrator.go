package brain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/pairlab/internal/audit"
	"github.com/wonny/pairlab/internal/backtest"
	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/observability"
	"github.com/wonny/pairlab/internal/s0_data"
	"github.com/wonny/pairlab/internal/s0_data/quality"
	"github.com/wonny/pairlab/internal/s1_pairs"
	"github.com/wonny/pairlab/internal/s2_signals"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/logger"
)

// Skip reasons for selected pairs that were not backtested.
const (
	SkipTooShort   = "too_short"
	SkipDegenerate = "degenerate"
	SkipMissing    = "missing_ticker"
	SkipError      = "error"
)

// ErrQualityGate is returned when the matrix fails the quality gate.
var ErrQualityGate = errors.New("quality gate failed")

// SnapshotStore records the strategy config behind a run.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, runID string, snap *strategyconfig.DecisionSnapshot) error
}

// Stores groups the optional persistence backends. A nil field disables
// that store.
type Stores struct {
	Pairs     contracts.PairRepository
	Runs      contracts.BacktestRepository
	Values    contracts.ValueStore
	Snapshots SnapshotStore
}

// Orchestrator coordinates the pipeline
// S0 quality → S1 pairs → S2 signals → S3 backtest → S4 audit
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	config     *strategyconfig.Config
	configHash string

	qualityGate *quality.Gate
	screener    *s1_pairs.Screener
	generator   *s2_signals.Generator
	engine      *backtest.Engine
	analyzer    *audit.Analyzer

	stores  Stores
	metrics *observability.Metrics
	logger  *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string
	ForcePair  []string // [asset1, asset2]; skips screening when set
	MaxPairs   int      // 0 = strategy config
	ConfigYAML []byte   // raw strategy file, stored with the snapshot
}

// PairResult is the outcome of one selected pair.
type PairResult struct {
	Pair     contracts.Pair
	Aligned  int
	Spread   *contracts.SpreadSeries
	Signals  *contracts.SignalSeries
	Backtest *backtest.Result
	Report   *audit.PerformanceReport
	Skipped  bool
	Reason   string
	Error    error
}

// Completed reports whether the pair was simulated and analyzed.
func (r *PairResult) Completed() bool {
	return r.Report != nil
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	ConfigHash      string
	CompletedStages []contracts.Stage
	Quality         *quality.Snapshot
	Screen          *s1_pairs.ScreenResult // nil when a pair was forced
	Selected        []contracts.Pair
	UsedFallback    bool
	Pairs           []PairResult
	Warnings        []string
	Success         bool
	Duration        time.Duration
}

// Completed returns the pairs that produced a performance report.
func (r *RunResult) Completed() []PairResult {
	var out []PairResult
	for _, p := range r.Pairs {
		if p.Completed() {
			out = append(out, p)
		}
	}
	return out
}

// NewOrchestrator builds every stage from one strategy config.
// metrics may be nil.
func NewOrchestrator(cfg *strategyconfig.Config, stores Stores, metrics *observability.Metrics, log *logger.Logger) (*Orchestrator, error) {
	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	return &Orchestrator{
		config:      cfg,
		configHash:  hash,
		qualityGate: quality.NewGate(quality.DefaultConfig()),
		screener:    s1_pairs.NewScreener(s1_pairs.ConfigFromStrategy(cfg.Screening), log),
		generator:   s2_signals.NewGenerator(s2_signals.ConfigFromStrategy(cfg.Signals), log),
		engine:      backtest.NewEngine(backtest.ConfigFromStrategy(cfg.Backtest), log),
		analyzer:    audit.NewAnalyzer(audit.ConfigFromStrategy(cfg.Analysis), log),
		stores:      stores,
		metrics:     metrics,
		logger:      log.WithModule("brain"),
	}, nil
}

// ConfigHash returns the hash stored with every persisted run.
func (o *Orchestrator) ConfigHash() string {
	return o.configHash
}

// Run executes the pipeline over m. Errors before pair selection abort the
// run; a failing pair is recorded in its PairResult and the others go on.
func (o *Orchestrator) Run(ctx context.Context, m *contracts.PriceMatrix, config RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}

	result := &RunResult{
		RunID:      config.RunID,
		ConfigHash: o.configHash,
	}
	for _, w := range strategyconfig.Warnings(o.config) {
		o.logger.WithField("run_id", config.RunID).Warn(w)
		result.Warnings = append(result.Warnings, w)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      config.RunID,
		"config_hash": o.configHash,
		"forced":      len(config.ForcePair) > 0,
	}).Info("Starting pipeline run")

	err := o.run(ctx, m, config, result)
	result.Duration = time.Since(startTime)
	if err != nil {
		o.countRun("failure")
		o.logger.WithError(err).WithField("run_id", config.RunID).Error("Pipeline run failed")
		return result, err
	}

	result.Success = len(result.Completed()) > 0
	if result.Success {
		o.countRun("success")
	} else {
		o.countRun("empty")
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":    config.RunID,
		"duration":  result.Duration.Seconds(),
		"selected":  len(result.Selected),
		"completed": len(result.Completed()),
	}).Info("Pipeline run completed")

	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, m *contracts.PriceMatrix, config RunConfig, result *RunResult) error {
	if m.IsEmpty() {
		return contracts.ErrEmptyMatrix
	}

	// S0: Data Quality Gate
	snapshot := o.qualityGate.Check(m)
	result.Quality = snapshot
	if !snapshot.Passed {
		return fmt.Errorf("%s failed: %w: %d tickers, score=%.2f",
			contracts.StageData.ShortName(), ErrQualityGate, snapshot.Tickers, snapshot.QualityScore)
	}
	if len(snapshot.LowCoverage) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("low coverage: %v", snapshot.LowCoverage))
	}
	if err := o.saveSnapshot(ctx, config); err != nil {
		return err
	}
	result.CompletedStages = append(result.CompletedStages, contracts.StageData)

	// S1: Pair selection
	selected, fallback, err := o.selectPairs(ctx, m, config, result)
	if err != nil {
		return fmt.Errorf("%s failed: %w", contracts.StagePairs.ShortName(), err)
	}
	result.Selected = selected
	result.UsedFallback = fallback
	result.CompletedStages = append(result.CompletedStages, contracts.StagePairs)

	// S2 → S4 per pair
	for _, pair := range selected {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}
		pr := o.runPair(ctx, m, config.RunID, pair)
		if !pr.Completed() {
			o.countSkip(pr.Reason)
		}
		result.Pairs = append(result.Pairs, pr)
	}
	if len(result.Completed()) > 0 {
		result.CompletedStages = append(result.CompletedStages,
			contracts.StageSignals, contracts.StageBacktest, contracts.StageAudit)
	}
	return nil
}

func (o *Orchestrator) saveSnapshot(ctx context.Context, config RunConfig) error {
	if o.stores.Snapshots == nil {
		return nil
	}
	snap, err := strategyconfig.NewDecisionSnapshot(o.config, config.ConfigYAML)
	if err != nil {
		return fmt.Errorf("build strategy snapshot: %w", err)
	}
	if err := o.stores.Snapshots.SaveSnapshot(ctx, config.RunID, snap); err != nil {
		return fmt.Errorf("save strategy snapshot: %w", err)
	}
	return nil
}

// selectPairs returns the forced pair, the best screened pairs, or the
// fallback pair when screening retained nothing.
func (o *Orchestrator) selectPairs(ctx context.Context, m *contracts.PriceMatrix, config RunConfig, result *RunResult) ([]contracts.Pair, bool, error) {
	if len(config.ForcePair) > 0 {
		if len(config.ForcePair) != 2 || config.ForcePair[0] == config.ForcePair[1] {
			return nil, false, fmt.Errorf("forced pair needs two distinct tickers, got %v", config.ForcePair)
		}
		return []contracts.Pair{unscoredPair(config.ForcePair[0], config.ForcePair[1])}, false, nil
	}

	screenStart := time.Now()
	screen, err := o.screener.Screen(ctx, m)
	if err != nil {
		return nil, false, fmt.Errorf("screen pairs: %w", err)
	}
	result.Screen = screen
	o.observeScreen(screen, time.Since(screenStart))

	if o.stores.Pairs != nil {
		if err := o.stores.Pairs.SaveFindings(ctx, config.RunID, screen.Findings); err != nil {
			return nil, false, fmt.Errorf("save pair findings: %w", err)
		}
	}

	maxPairs := config.MaxPairs
	if maxPairs <= 0 {
		maxPairs = o.config.Backtest.MaxPairs
	}
	if len(screen.Pairs) > 0 {
		n := min(maxPairs, len(screen.Pairs))
		return screen.Pairs[:n], false, nil
	}

	fb := o.config.Backtest.FallbackPair
	if len(fb) != 2 {
		o.logger.Warn("No cointegrated pairs and no fallback pair configured")
		return nil, false, nil
	}
	o.logger.WithFields(map[string]interface{}{
		"asset1": fb[0],
		"asset2": fb[1],
	}).Warn("No cointegrated pairs found, using fallback pair")
	return []contracts.Pair{unscoredPair(fb[0], fb[1])}, true, nil
}

func (o *Orchestrator) runPair(ctx context.Context, m *contracts.PriceMatrix, runID string, pair contracts.Pair) PairResult {
	pr := PairResult{Pair: pair}
	log := o.logger.WithField("pair", pair.Label())

	aligned, err := s0_data.Align(m, pair.Asset1, pair.Asset2)
	if err != nil {
		return skip(pr, SkipMissing, err)
	}
	pr.Aligned = aligned.Len()
	if aligned.Len() < o.config.Signals.MinObservations {
		return skip(pr, SkipTooShort, fmt.Errorf("%w: %d < %d", contracts.ErrInsufficientData,
			aligned.Len(), o.config.Signals.MinObservations))
	}

	spread, err := s2_signals.BuildSpread(aligned)
	if err != nil {
		if errors.Is(err, contracts.ErrDegenerate) {
			return skip(pr, SkipDegenerate, err)
		}
		return fail(pr, err)
	}
	pr.Spread = spread
	if pr.Pair.HedgeRatio == nil {
		beta := spread.HedgeRatio
		pr.Pair.HedgeRatio = &beta
	}

	signals, err := o.generator.Generate(spread)
	if err != nil {
		return fail(pr, fmt.Errorf("generate signals: %w", err))
	}
	pr.Signals = signals

	res, err := o.engine.Run(ctx, m, signals, pair.Asset1, pair.Asset2)
	if err != nil {
		return fail(pr, fmt.Errorf("backtest: %w", err))
	}
	pr.Backtest = res

	report, err := o.analyzer.Analyze(res.Values, res.Trades)
	if err != nil {
		return fail(pr, fmt.Errorf("analyze: %w", err))
	}
	pr.Report = report
	o.observeBacktest(pair, res)

	if err := o.persist(ctx, runID, spread, res, report); err != nil {
		// 결과는 유지, 저장 실패만 기록
		pr.Error = err
		log.WithError(err).Warn("Failed to persist backtest")
	}

	log.WithFields(map[string]interface{}{
		"hedge_ratio":  spread.HedgeRatio,
		"final_value":  report.FinalValue,
		"total_return": report.TotalReturn,
		"trades":       report.Trades,
	}).Info("Pair backtest completed")

	return pr
}

func (o *Orchestrator) persist(ctx context.Context, runID string, spread *contracts.SpreadSeries, res *backtest.Result, report *audit.PerformanceReport) error {
	if o.stores.Runs != nil {
		run := &contracts.BacktestRun{
			RunID:          runID,
			Asset1:         res.Asset1,
			Asset2:         res.Asset2,
			HedgeRatio:     spread.HedgeRatio,
			InitialCapital: res.InitialCapital,
			FinalValue:     report.FinalValue,
			TotalReturn:    report.TotalReturn,
			Sharpe:         report.Sharpe,
			Sortino:        report.Sortino,
			MaxDrawdown:    report.MaxDrawdown,
			Volatility:     report.Volatility,
			Trades:         len(res.Trades),
			Interruptions:  len(res.Interruptions),
			ConfigHash:     o.configHash,
			StartDate:      report.StartDate,
			EndDate:        report.EndDate,
		}
		if err := o.stores.Runs.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save backtest run: %w", err)
		}
	}
	if o.stores.Values != nil {
		if err := o.stores.Values.SaveValues(ctx, runID, res.Asset1, res.Asset2, res.Values, res.InTrade); err != nil {
			return fmt.Errorf("save portfolio values: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) observeScreen(screen *s1_pairs.ScreenResult, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}
	for _, f := range screen.Findings {
		o.metrics.PairsEvaluated.WithLabelValues(string(f.Status)).Inc()
	}
	o.metrics.ScreenDuration.Observe(elapsed.Seconds())
}

func (o *Orchestrator) observeBacktest(pair contracts.Pair, res *backtest.Result) {
	if o.metrics == nil {
		return
	}
	o.metrics.BacktestDays.Add(float64(len(res.Values)))
	o.metrics.BacktestInterruptions.Add(float64(len(res.Interruptions)))
	for _, t := range res.Trades {
		o.metrics.TradesSimulated.WithLabelValues(string(t.Side)).Inc()
	}
	o.metrics.FinalValue.WithLabelValues(pair.Label()).Set(res.FinalValue())
}

func (o *Orchestrator) countSkip(reason string) {
	if o.metrics != nil {
		o.metrics.PairsSkipped.WithLabelValues(reason).Inc()
	}
}

func (o *Orchestrator) countRun(status string) {
	if o.metrics != nil {
		o.metrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	}
}

func unscoredPair(asset1, asset2 string) contracts.Pair {
	return contracts.Pair{
		Asset1:   asset1,
		Asset2:   asset2,
		PValue:   math.NaN(),
		TestStat: math.NaN(),
	}
}

func skip(pr PairResult, reason string, err error) PairResult {
	pr.Skipped = true
	pr.Reason = reason
	pr.Error = err
	return pr
}

func fail(pr PairResult, err error) PairResult {
	pr.Reason = SkipError
	pr.Error = err
	return pr
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().UTC().Format("20060102_150405"), uuid.NewString()[:8])
}
