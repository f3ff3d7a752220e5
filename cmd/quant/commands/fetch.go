package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pairlab/internal/s0_data"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "S0 가격 데이터 수집",
	Long: `Wikipedia에서 S&P 500 구성 종목을, Yahoo Finance에서 일별 수정종가를 수집합니다.

이 명령어는:
- 구성 종목 조회 (--tickers 미지정 시)
- 종목별 일별 수정종가 다운로드 (워커 풀, 요청 간격 제한)
- REDIS_ENABLED=true 이면 종목별 시계열 캐시
- 날짜 합집합 기준으로 병합 후 CSV 저장
- DATABASE_URL 설정 + --save-db 이면 daily_prices 저장

Example:
  go run ./cmd/quant fetch
  go run ./cmd/quant fetch --start 2015-01-01 --end 2024-12-31
  go run ./cmd/quant fetch --tickers AAPL,MSFT,KO,PEP --out data/sample.csv`,
	RunE: runFetch,
}

var (
	fetchStart   string
	fetchEnd     string
	fetchTickers string
	fetchOut     string
	fetchSaveDB  bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchStart, "start", "2010-01-01", "시작일 (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", time.Now().Format("2006-01-02"), "종료일 (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTickers, "tickers", "", "쉼표로 구분한 종목 (기본: S&P 500 전체)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "출력 CSV (기본: DATA_DIR/PRICES_FILE)")
	fetchCmd.Flags().BoolVar(&fetchSaveDB, "save-db", false, "PostgreSQL daily_prices에도 저장")
}

func runFetch(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.close()
	ctx := cmd.Context()

	from, err := parseDateFlag("start", fetchStart)
	if err != nil {
		return err
	}
	to, err := parseDateFlag("end", fetchEnd)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("--end %s is before --start %s", fetchEnd, fetchStart)
	}

	var tickers []string
	for _, t := range strings.Split(fetchTickers, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tickers = append(tickers, t)
		}
	}

	out := fetchOut
	if out == "" {
		out = env.cfg.Data.PricesPath()
	}

	PrintDoubleSeparator()
	fmt.Println("  S0 Data Fetch")
	PrintSeparator()
	PrintKeyValue("Period", FormatPeriod(from, to), 8)
	if len(tickers) > 0 {
		PrintKeyValue("Tickers", strings.Join(tickers, ", "), 8)
	} else {
		PrintKeyValue("Tickers", "S&P 500", 8)
	}
	PrintKeyValue("Output", out, 8)
	PrintSeparator()

	res, err := env.collect(ctx, tickers, from, to)
	if err != nil {
		return fmt.Errorf("collect prices: %w", err)
	}
	if res.Matrix.IsEmpty() {
		return fmt.Errorf("failed to download any historical data")
	}

	if err := s0_data.SavePriceCSV(out, res.Matrix); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}
	printCollectResult(res, out)

	if fetchSaveDB {
		if !env.cfg.Database.Enabled() {
			return fmt.Errorf("--save-db requires DATABASE_URL")
		}
		_, db, err := env.openStores(ctx)
		if err != nil {
			return err
		}
		rows, err := s0_data.NewPriceRepository(db.Pool).SaveMatrix(ctx, res.Matrix)
		if err != nil {
			return fmt.Errorf("save prices to database: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Saved %d price rows to daily_prices", rows))
	}

	env.writeMetrics()
	return nil
}
