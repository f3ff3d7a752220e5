package strategyconfig

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Screening ===
	if !inOpenUnit(cfg.Screening.SignificanceLevel) {
		return ValidationError{"screening.significance_level", "must be in (0, 1)"}
	}
	if cfg.Screening.MinObservations < 3 {
		return ValidationError{"screening.min_observations", "must be >= 3"}
	}
	if cfg.Screening.Workers < 0 {
		return ValidationError{"screening.workers", "must be >= 0"}
	}

	// === Signals ===
	if cfg.Signals.Window < 2 {
		return ValidationError{"signals.window", "must be >= 2"}
	}
	if !(cfg.Signals.EntryZScore > 0) || math.IsInf(cfg.Signals.EntryZScore, 0) {
		return ValidationError{"signals.entry_zscore", "must be > 0"}
	}
	if math.IsNaN(cfg.Signals.ExitZScore) || math.IsInf(cfg.Signals.ExitZScore, 0) {
		return ValidationError{"signals.exit_zscore", "must be finite"}
	}
	if cfg.Signals.MinObservations < cfg.Signals.Window {
		return ValidationError{"signals.min_observations", "must be >= signals.window"}
	}

	// === Backtest ===
	if !(cfg.Backtest.InitialCapital > 0) || math.IsInf(cfg.Backtest.InitialCapital, 0) {
		return ValidationError{"backtest.initial_capital", "must be > 0"}
	}
	if cfg.Backtest.MaxPairs < 1 {
		return ValidationError{"backtest.max_pairs", "must be >= 1"}
	}
	if n := len(cfg.Backtest.FallbackPair); n != 0 && n != 2 {
		return ValidationError{"backtest.fallback_pair", "must list exactly two tickers"}
	}
	if len(cfg.Backtest.FallbackPair) == 2 {
		a, b := strings.TrimSpace(cfg.Backtest.FallbackPair[0]), strings.TrimSpace(cfg.Backtest.FallbackPair[1])
		if a == "" || b == "" || a == b {
			return ValidationError{"backtest.fallback_pair", "tickers must be distinct and non-empty"}
		}
	}

	// === Analysis ===
	if cfg.Analysis.TradingDays <= 0 {
		return ValidationError{"analysis.trading_days", "must be > 0"}
	}

	return nil
}

func inOpenUnit(v float64) bool {
	return v > 0 && v < 1
}

// Warnings lists legal but suspicious settings. They never stop a run.
func Warnings(cfg *Config) []string {
	var out []string
	if math.Abs(cfg.Signals.ExitZScore) >= cfg.Signals.EntryZScore {
		// 청산 임계값이 진입 범위 밖: 진입 직후 청산되거나 청산이 거의 없음
		out = append(out, fmt.Sprintf("signals.exit_zscore %v is not inside ±entry_zscore %v",
			cfg.Signals.ExitZScore, cfg.Signals.EntryZScore))
	}
	return out
}
