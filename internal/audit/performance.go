package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/logger"
)

// Config holds annualization settings
type Config struct {
	TradingDays  int     // 연환산 기준 거래일 (예: 252)
	RiskFreeRate float64 // 연 무위험 수익률
}

// ConfigFromStrategy maps the analysis section of a strategy config.
func ConfigFromStrategy(cfg strategyconfig.Analysis) Config {
	return Config{TradingDays: cfg.TradingDays, RiskFreeRate: cfg.RiskFreeRate}
}

// Analyzer computes performance metrics of a portfolio value series
// ⭐ SSOT: S4 성과 분석 로직은 여기서만
type Analyzer struct {
	config Config
	logger *logger.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(config Config, log *logger.Logger) *Analyzer {
	if config.TradingDays <= 0 {
		config.TradingDays = 252
	}
	return &Analyzer{
		config: config,
		logger: log.WithModule("audit"),
	}
}

// PerformanceReport represents performance analysis report.
// Undefined ratios are NaN.
type PerformanceReport struct {
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Observations int       `json:"observations"`
	InitialValue float64   `json:"initial_value"`
	FinalValue   float64   `json:"final_value"`

	// 수익률
	TotalReturn float64 `json:"total_return"`

	// 리스크 지표
	Volatility  float64 `json:"volatility"`
	Sharpe      float64 `json:"sharpe"`
	Sortino     float64 `json:"sortino"`
	MaxDrawdown float64 `json:"max_drawdown"`

	// 트레이딩 지표
	Trades       int     `json:"trades"`
	ClosedTrades int     `json:"closed_trades"`
	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
}

// Analyze computes every metric. trades may be nil.
func (a *Analyzer) Analyze(values contracts.PortfolioValueSeries, trades []contracts.Trade) (*PerformanceReport, error) {
	if len(values) == 0 {
		return nil, contracts.ErrEmptyMatrix
	}

	raw := values.Values()
	returns := Returns(raw)

	report := &PerformanceReport{
		StartDate:    values[0].Date,
		EndDate:      values[len(values)-1].Date,
		Observations: len(values),
		InitialValue: raw[0],
		FinalValue:   raw[len(raw)-1],
		TotalReturn:  TotalReturn(raw),
		Volatility:   Volatility(returns, a.config.TradingDays),
		Sharpe:       SharpeRatio(returns, a.config.RiskFreeRate, a.config.TradingDays),
		Sortino:      SortinoRatio(returns, a.config.RiskFreeRate, a.config.TradingDays),
		MaxDrawdown:  MaxDrawdown(raw),
		Trades:       len(trades),
	}

	closed := make([]contracts.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen() {
			closed = append(closed, t)
		}
	}
	report.ClosedTrades = len(closed)
	report.WinRate = WinRate(closed)
	report.AvgWin, report.AvgLoss = avgWinLoss(closed)
	report.ProfitFactor = profitFactor(closed)

	a.logger.WithFields(map[string]interface{}{
		"total_return": report.TotalReturn,
		"sharpe":       report.Sharpe,
		"max_drawdown": report.MaxDrawdown,
		"win_rate":     report.WinRate,
	}).Info("Performance analysis completed")

	return report, nil
}

// Returns is the simple period-over-period change, one shorter than values.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// TotalReturn is last/first - 1.
func TotalReturn(values []float64) float64 {
	if len(values) == 0 || values[0] == 0 {
		return math.NaN()
	}
	return (values[len(values)-1] - values[0]) / values[0]
}

// SharpeRatio annualizes mean excess return over its population std.
func SharpeRatio(returns []float64, riskFreeRate float64, tradingDays int) float64 {
	excess := excessReturns(returns, riskFreeRate, tradingDays)
	if len(excess) == 0 {
		return math.NaN()
	}
	mean, variance := stat.PopMeanVariance(excess, nil)
	if variance == 0 {
		return math.NaN()
	}
	return mean / math.Sqrt(variance) * math.Sqrt(float64(tradingDays))
}

// SortinoRatio uses the population std of negative excess returns only.
// NaN when there is no downside dispersion.
func SortinoRatio(returns []float64, riskFreeRate float64, tradingDays int) float64 {
	excess := excessReturns(returns, riskFreeRate, tradingDays)
	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return math.NaN()
	}
	_, variance := stat.PopMeanVariance(downside, nil)
	if variance == 0 {
		return math.NaN()
	}
	return stat.Mean(excess, nil) / math.Sqrt(variance) * math.Sqrt(float64(tradingDays))
}

// MaxDrawdown is the most negative (value - running peak) / running peak.
// Zero or negative; 0 for a series that never falls.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Volatility is the annualized population std of returns.
func Volatility(returns []float64, tradingDays int) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	_, variance := stat.PopMeanVariance(returns, nil)
	return math.Sqrt(variance) * math.Sqrt(float64(tradingDays))
}

// WinRate is the share of trades with positive P&L; NaN without trades.
func WinRate(trades []contracts.Trade) float64 {
	if len(trades) == 0 {
		return math.NaN()
	}
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

func excessReturns(returns []float64, riskFreeRate float64, tradingDays int) []float64 {
	daily := riskFreeRate / float64(tradingDays)
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - daily
	}
	return out
}

func avgWinLoss(trades []contracts.Trade) (float64, float64) {
	var sumWin, sumLoss float64
	var countWin, countLoss int
	for _, t := range trades {
		if t.PnL > 0 {
			sumWin += t.PnL
			countWin++
		} else if t.PnL < 0 {
			sumLoss += t.PnL
			countLoss++
		}
	}

	avgWin, avgLoss := 0.0, 0.0
	if countWin > 0 {
		avgWin = sumWin / float64(countWin)
	}
	if countLoss > 0 {
		avgLoss = sumLoss / float64(countLoss)
	}
	return avgWin, avgLoss
}

func profitFactor(trades []contracts.Trade) float64 {
	var totalWin, totalLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			totalWin += t.PnL
		} else if t.PnL < 0 {
			totalLoss += -t.PnL
		}
	}
	if totalLoss == 0 {
		return math.NaN()
	}
	return totalWin / totalLoss
}

// ToJSON encodes the report; NaN metrics become null.
func (r *PerformanceReport) ToJSON() ([]byte, error) {
	m := map[string]interface{}{
		"start_date":    r.StartDate.Format("2006-01-02"),
		"end_date":      r.EndDate.Format("2006-01-02"),
		"observations":  r.Observations,
		"initial_value": r.InitialValue,
		"final_value":   r.FinalValue,
		"total_return":  jsonFloat(r.TotalReturn),
		"volatility":    jsonFloat(r.Volatility),
		"sharpe":        jsonFloat(r.Sharpe),
		"sortino":       jsonFloat(r.Sortino),
		"max_drawdown":  jsonFloat(r.MaxDrawdown),
		"trades":        r.Trades,
		"closed_trades": r.ClosedTrades,
		"win_rate":      jsonFloat(r.WinRate),
		"avg_win":       r.AvgWin,
		"avg_loss":      r.AvgLoss,
		"profit_factor": jsonFloat(r.ProfitFactor),
	}
	return json.MarshalIndent(m, "", "  ")
}

func jsonFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// ToSummary 요약 문자열 출력
func (r *PerformanceReport) ToSummary() string {
	var summary string

	summary += fmt.Sprintf("=== Performance (%s ~ %s) ===\n",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	summary += fmt.Sprintf("Initial Value: %.2f\n", r.InitialValue)
	summary += fmt.Sprintf("Final Value: %.2f\n", r.FinalValue)
	summary += fmt.Sprintf("Total Return: %.2f%%\n", r.TotalReturn*100)
	summary += fmt.Sprintf("Sharpe Ratio: %.4f\n", r.Sharpe)
	summary += fmt.Sprintf("Sortino Ratio: %.4f\n", r.Sortino)
	summary += fmt.Sprintf("Max Drawdown: %.4f\n", r.MaxDrawdown)
	summary += fmt.Sprintf("Volatility (Annualized): %.4f\n", r.Volatility)
	summary += fmt.Sprintf("Trades: %d (closed %d, win rate %.2f%%)\n", r.Trades, r.ClosedTrades, r.WinRate*100)

	return summary
}
