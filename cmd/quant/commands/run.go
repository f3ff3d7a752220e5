package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pairlab/internal/backtest"
	"github.com/wonny/pairlab/internal/brain"
	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/s1_pairs"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행 (S0 → S4)",
	Long: `Brain Orchestrator로 전체 파이프라인을 실행합니다.

S0 Data → S1 Pairs → S2 Signals → S3 Backtest → S4 Audit

각 단계:
- S0: 가격 CSV 로드 (없으면 다운로드), 품질 검사
- S1: 공적분 스크리닝, 상위 backtest.max_pairs 페어 선택
      (유의한 페어가 없으면 backtest.fallback_pair)
- S2: 헤지 비율, 스프레드, 롤링 z-score 시그널
- S3: 일별 백테스트, 포트폴리오 가치 CSV 저장
- S4: 성과 지표 (Sharpe, Sortino, MDD, 변동성)

Example:
  go run ./cmd/quant run
  go run ./cmd/quant run --strategy config/strategy/sp500_pairs.yaml
  go run ./cmd/quant run --start 2015-01-01 --end 2024-12-31`,
	RunE: runPipeline,
}

var (
	runStart string
	runEnd   string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runStart, "start", "2010-01-01", "다운로드 시작일 (가격 CSV가 없을 때)")
	runCmd.Flags().StringVar(&runEnd, "end", time.Now().Format("2006-01-02"), "다운로드 종료일 (가격 CSV가 없을 때)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.close()
	ctx := cmd.Context()

	from, err := parseDateFlag("start", runStart)
	if err != nil {
		return err
	}
	to, err := parseDateFlag("end", runEnd)
	if err != nil {
		return err
	}

	m, err := env.loadPrices(ctx, true, from, to)
	if err != nil {
		return err
	}

	result, err := executePipeline(ctx, env, brain.RunConfig{RunID: brain.GenerateRunID()}, m)
	if err != nil {
		return err
	}

	if result.Screen != nil {
		printScreenSummary(result.Screen)
		if err := s1_pairs.SaveReportCSV(env.cfg.Data.PairsPath(), result.Screen.Pairs); err != nil {
			return fmt.Errorf("save pair report: %w", err)
		}
	}
	if result.UsedFallback {
		PrintWarning(fmt.Sprintf("No cointegrated pairs found. Using fallback pair %s", result.Selected[0].Label()))
	}

	return finishRun(env, result)
}

// finishRun prints every pair, saves value CSVs and writes metrics.
func finishRun(env *appEnv, result *brain.RunResult) error {
	completed := result.Completed()
	for _, pr := range result.Pairs {
		printPairResult(pr)
		if !pr.Completed() {
			continue
		}
		path := valuesPath(env.cfg.Data.ValuesPath(), pr.Pair.Asset1, pr.Pair.Asset2, len(completed) > 1)
		if err := backtest.SaveValueCSV(path, pr.Backtest.Values); err != nil {
			return fmt.Errorf("save portfolio values: %w", err)
		}
		PrintSuccess("Portfolio value saved to " + path)
	}

	env.writeMetrics()

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Run %s: %d/%d pairs completed in %.2fs\n",
		result.RunID, len(completed), len(result.Pairs), result.Duration.Seconds())
	PrintDoubleSeparator()

	if len(completed) == 0 {
		return fmt.Errorf("no pair could be backtested")
	}
	return nil
}

// executePipeline opens the configured stores and runs the orchestrator.
func executePipeline(ctx context.Context, env *appEnv, rc brain.RunConfig, m *contracts.PriceMatrix) (*brain.RunResult, error) {
	stores, _, err := env.openStores(ctx)
	if err != nil {
		return nil, err
	}
	orch, err := brain.NewOrchestrator(env.strategy, stores, env.metrics, env.log)
	if err != nil {
		return nil, err
	}

	PrintDoubleSeparator()
	fmt.Printf("  Pipeline run %s\n", rc.RunID)
	PrintSeparator()
	PrintKeyValue("Strategy", fmt.Sprintf("%s v%s", env.strategy.Meta.StrategyID, env.strategy.Meta.Version), 11)
	PrintKeyValue("Config hash", orch.ConfigHash()[:12], 11)
	PrintKeyValue("Prices", fmt.Sprintf("%d tickers x %d dates", len(m.Tickers), m.Len()), 11)
	if len(rc.ForcePair) == 2 {
		PrintKeyValue("Pair", strings.Join(rc.ForcePair, "/"), 11)
	}
	PrintKeyValue("Persist", persistTargets(stores), 11)
	PrintSeparator()

	rc.ConfigYAML = env.strategyYAML
	result, err := orch.Run(ctx, m, rc)
	if err != nil {
		env.writeMetrics()
		return nil, fmt.Errorf("pipeline run failed: %w", err)
	}
	for _, w := range result.Warnings {
		PrintWarning(w)
	}
	return result, nil
}

func persistTargets(stores brain.Stores) string {
	var targets []string
	if stores.Pairs != nil {
		targets = append(targets, "postgres")
	}
	if stores.Values != nil {
		targets = append(targets, "clickhouse")
	}
	if len(targets) == 0 {
		return "off"
	}
	return strings.Join(targets, ", ")
}

func printPairResult(pr brain.PairResult) {
	fmt.Println()
	PrintSeparator()
	fmt.Printf("  Pair %s\n", pr.Pair.Label())
	PrintSeparator()

	if !pr.Completed() {
		PrintError(fmt.Sprintf("Skipping pair %s (%s): %v", pr.Pair.Label(), pr.Reason, pr.Error))
		return
	}
	if pr.Error != nil {
		PrintWarning(pr.Error.Error())
	}

	bt := pr.Backtest
	PrintKeyValue("Hedge ratio", FormatNumber(pr.Spread.HedgeRatio, 4), 14)
	PrintKeyValue("Aligned days", fmt.Sprintf("%d", pr.Aligned), 14)
	PrintKeyValue("Trades", fmt.Sprintf("%d (%d closed)", len(bt.Trades), len(bt.ClosedTrades())), 14)
	if len(bt.Interruptions) > 0 {
		PrintKeyValue("Missing days", fmt.Sprintf("%d", len(bt.Interruptions)), 14)
	}
	for _, w := range bt.Warnings {
		PrintWarning(w)
	}
	fmt.Println()
	fmt.Println(pr.Report.ToSummary())
}

// valuesPath returns base for a single pair, otherwise base with the
// pair appended to the file name.
func valuesPath(base, asset1, asset2 string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + asset1 + "_" + asset2 + ext
}
