package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/pairlab/internal/audit"
	"github.com/wonny/pairlab/internal/backtest"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "S4 포트폴리오 가치 CSV 성과 분석",
	Long: `저장된 포트폴리오 가치 CSV에서 성과 지표를 계산합니다.

지표:
- Total Return
- Sharpe / Sortino Ratio (연율화, 252 거래일)
- Max Drawdown
- Volatility (연율화)

Example:
  go run ./cmd/quant analyze
  go run ./cmd/quant analyze --file data/portfolio_value.csv --json`,
	RunE: runAnalyze,
}

var (
	analyzeFile string
	analyzeJSON bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "포트폴리오 가치 CSV (기본: DATA_DIR/VALUES_FILE)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.close()

	path := analyzeFile
	if path == "" {
		path = env.cfg.Data.ValuesPath()
	}

	values, err := backtest.LoadValueCSV(path)
	if err != nil {
		return fmt.Errorf("load portfolio values %s: %w", path, err)
	}

	analyzer := audit.NewAnalyzer(audit.ConfigFromStrategy(env.strategy.Analysis), env.log)
	report, err := analyzer.Analyze(values, nil)
	if err != nil {
		return err
	}

	if analyzeJSON {
		data, err := report.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(report.ToSummary())
	return nil
}
