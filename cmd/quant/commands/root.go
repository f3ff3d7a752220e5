package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "pairlab - 공적분 페어 트레이딩 리서치 도구",
	Long: `pairlab Unified CLI

S&P 500 종목에서 공적분 페어를 찾고 스프레드 z-score 전략을 백테스트합니다.

파이프라인:
  S0 Data → S1 Pairs → S2 Signals → S3 Backtest → S4 Audit

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant fetch --start 2020-01-01
  go run ./cmd/quant screen
  go run ./cmd/quant backtest --pair AMZN,NVDA
  go run ./cmd/quant analyze
  go run ./cmd/quant run --strategy config/strategy/sp500_pairs.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
