package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pairlab/internal/s0_data/quality"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "S0 데이터 점검",
}

// dataCheckCmd represents the data check subcommand
var dataCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "가격 CSV 품질 검사",
	Long: `가격 CSV를 로드하고 품질 게이트를 실행합니다.

표시 정보:
- 기간, 날짜 수, 종목 수
- 종목별 커버리지 (결측 비율)
- 0 이하 가격이 있는 종목
- 품질 점수 (평균 커버리지)

Example:
  go run ./cmd/quant data check
  go run ./cmd/quant data check --min-coverage 0.95`,
	RunE: runDataCheck,
}

var dataMinCoverage float64

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataCheckCmd)

	dataCheckCmd.Flags().Float64Var(&dataMinCoverage, "min-coverage", quality.DefaultConfig().MinTickerCoverage, "종목별 최소 커버리지")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.close()

	m, err := env.loadPrices(cmd.Context(), false, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	qcfg := quality.DefaultConfig()
	qcfg.MinTickerCoverage = dataMinCoverage
	snap := quality.NewGate(qcfg).Check(m)

	PrintDoubleSeparator()
	fmt.Println("  S0 Data Quality")
	PrintSeparator()
	PrintKeyValue("Period", FormatPeriod(snap.Start, snap.End), 13)
	PrintKeyValue("Dates", fmt.Sprintf("%d", snap.Dates), 13)
	PrintKeyValue("Tickers", fmt.Sprintf("%d", snap.Tickers), 13)
	PrintKeyValue("Quality score", FormatPercent(snap.QualityScore), 13)
	PrintSeparator()

	if len(snap.LowCoverage) > 0 {
		fmt.Printf("\n⚠️  %d tickers below %.0f%% coverage\n", len(snap.LowCoverage), dataMinCoverage*100)
		widths := []int{8, 10}
		PrintTableHeader([]string{"Ticker", "Coverage"}, widths)
		for _, t := range snap.LowCoverage {
			PrintTableRow([]string{t, FormatPercent(snap.Coverage[t])}, widths)
		}
	}

	if len(snap.NonPositive) > 0 {
		tickers := make([]string, 0, len(snap.NonPositive))
		for t := range snap.NonPositive {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		fmt.Println()
		for _, t := range tickers {
			PrintWarning(fmt.Sprintf("%s has %d non-positive prices", t, snap.NonPositive[t]))
		}
	}

	fmt.Println()
	if !snap.Passed {
		PrintError(fmt.Sprintf("Quality gate failed: need at least %d tickers", qcfg.MinTickers))
		return fmt.Errorf("quality gate failed")
	}
	PrintSuccess("Quality gate passed")
	return nil
}
