package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pairlab/internal/brain"
	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/s1_pairs"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "S1 공적분 페어 스크리닝",
	Long: `가격 CSV의 모든 종목 쌍에 Engle-Granger 공적분 검정을 실행합니다.

이 명령어는:
- 종목 쌍별 결측 제거 후 날짜 교집합 정렬
- 정렬 길이가 screening.min_observations 미만이면 건너뜀
- p-value < screening.significance_level 인 쌍만 채택
- p-value 오름차순으로 리포트 CSV 저장
- DATABASE_URL 설정 시 전체 평가 결과를 pair_findings에 저장

Example:
  go run ./cmd/quant screen
  go run ./cmd/quant screen --top 20
  go run ./cmd/quant screen --strategy config/strategy/sp500_pairs.yaml`,
	RunE: runScreen,
}

var (
	screenTop int
	screenOut string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().IntVar(&screenTop, "top", 10, "출력할 상위 페어 수")
	screenCmd.Flags().StringVar(&screenOut, "out", "", "리포트 CSV (기본: DATA_DIR/PAIRS_FILE)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.close()
	ctx := cmd.Context()

	m, err := env.loadPrices(ctx, false, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	PrintDoubleSeparator()
	fmt.Println("  S1 Pair Screening")
	PrintSeparator()
	PrintKeyValue("Tickers", fmt.Sprintf("%d (%d pairs)", len(m.Tickers), len(m.Tickers)*(len(m.Tickers)-1)/2), 12)
	PrintKeyValue("Dates", fmt.Sprintf("%d", m.Len()), 12)
	PrintKeyValue("Significance", fmt.Sprintf("%g", env.strategy.Screening.SignificanceLevel), 12)
	PrintSeparator()

	start := time.Now()
	screener := s1_pairs.NewScreener(s1_pairs.ConfigFromStrategy(env.strategy.Screening), env.log)
	res, err := screener.Screen(ctx, m)
	if err != nil {
		return err
	}
	env.metrics.ScreenDuration.Observe(time.Since(start).Seconds())
	for _, f := range res.Findings {
		env.metrics.PairsEvaluated.WithLabelValues(string(f.Status)).Inc()
	}

	printScreenSummary(res)

	out := screenOut
	if out == "" {
		out = env.cfg.Data.PairsPath()
	}
	if err := s1_pairs.SaveReportCSV(out, res.Pairs); err != nil {
		return fmt.Errorf("save pair report: %w", err)
	}
	PrintSuccess("Saved report to " + out)

	if env.cfg.Database.Enabled() {
		stores, _, err := env.openStores(ctx)
		if err != nil {
			return err
		}
		runID := brain.GenerateRunID()
		if err := stores.Pairs.SaveFindings(ctx, runID, res.Findings); err != nil {
			return fmt.Errorf("save pair findings: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Saved %d findings as %s", len(res.Findings), runID))
	}

	env.writeMetrics()
	return nil
}

func printScreenSummary(res *s1_pairs.ScreenResult) {
	fmt.Println()
	PrintKeyValue("Evaluated", fmt.Sprintf("%d", res.Evaluated), 15)
	PrintKeyValue("Significant", fmt.Sprintf("%d", res.Significant), 15)
	PrintKeyValue("Not significant", fmt.Sprintf("%d", res.NotSignificant), 15)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", res.Skipped), 15)
	PrintKeyValue("Failed", fmt.Sprintf("%d", res.Failed), 15)
	fmt.Println()

	if len(res.Pairs) == 0 {
		PrintWarning("No cointegrated pairs found")
		return
	}
	printPairTable(res.Pairs, screenTop)
}

func printPairTable(pairs []contracts.Pair, top int) {
	widths := []int{8, 8, 12, 10, 10}
	PrintTableHeader([]string{"Asset1", "Asset2", "P-value", "Stat", "Hedge"}, widths)
	for i, p := range pairs {
		if top > 0 && i >= top {
			fmt.Printf("   ... %d more\n", len(pairs)-top)
			break
		}
		PrintTableRow([]string{p.Asset1, p.Asset2, FormatNumber(p.PValue, 6), FormatNumber(p.TestStat, 3), FormatHedge(p.HedgeRatio)}, widths)
	}
	fmt.Println()
}
