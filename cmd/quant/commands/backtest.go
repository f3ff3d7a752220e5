package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pairlab/internal/brain"
	"github.com/wonny/pairlab/internal/s1_pairs"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "S2~S4 단일 페어 백테스트",
	Long: `한 페어에 대해 스프레드, 시그널, 일별 시뮬레이션, 성과 분석을 실행합니다.

페어 선택 순서:
  1. --pair
  2. 페어 리포트 CSV의 첫 행 (screen 결과, p-value 최소)
  3. backtest.fallback_pair

Example:
  go run ./cmd/quant backtest --pair AMZN,NVDA
  go run ./cmd/quant backtest
  go run ./cmd/quant backtest --pair KO/PEP --strategy config/strategy/sp500_pairs.yaml`,
	RunE: runBacktest,
}

var backtestPair string

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestPair, "pair", "", "페어 (예: AMZN,NVDA)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.close()
	ctx := cmd.Context()

	pair, err := choosePair(env)
	if err != nil {
		return err
	}

	m, err := env.loadPrices(ctx, false, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	result, err := executePipeline(ctx, env, brain.RunConfig{RunID: brain.GenerateRunID(), ForcePair: pair}, m)
	if err != nil {
		return err
	}
	return finishRun(env, result)
}

func choosePair(env *appEnv) ([]string, error) {
	if backtestPair != "" {
		return parsePair(backtestPair)
	}

	path := env.cfg.Data.PairsPath()
	pairs, err := s1_pairs.LoadReportCSV(path)
	switch {
	case err == nil && len(pairs) > 0:
		PrintInfo(fmt.Sprintf("Using best screened pair %s (p-value %s) from %s", pairs[0].Label(), FormatNumber(pairs[0].PValue, 4), path))
		return []string{pairs[0].Asset1, pairs[0].Asset2}, nil
	case err != nil && !os.IsNotExist(err):
		return nil, fmt.Errorf("read pair report: %w", err)
	}

	fb := env.strategy.Backtest.FallbackPair
	if len(fb) != 2 {
		return nil, fmt.Errorf("no --pair, no screened pairs in %s and no fallback_pair configured", path)
	}
	PrintWarning(fmt.Sprintf("No screened pairs, using fallback pair %s/%s", fb[0], fb[1]))
	return fb, nil
}
