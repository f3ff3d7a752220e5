package strategyconfig

import "time"

// Config는 페어 트레이딩 전략의 전체 설정
// ⭐ SSOT: window / z-score 임계값 / 유의수준 / 초기자본은 여기서만 정의
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Backtest  Backtest  `yaml:"backtest" json:"backtest"`
	Analysis  Analysis  `yaml:"analysis" json:"analysis"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Screening S1: 공적분 검정
type Screening struct {
	SignificanceLevel float64 `yaml:"significance_level" json:"significance_level"`
	MinObservations   int     `yaml:"min_observations" json:"min_observations"`
	Workers           int     `yaml:"workers" json:"workers"` // 0 = NumCPU
}

// Signals S2: 롤링 z-score
type Signals struct {
	Window          int     `yaml:"window" json:"window"`
	EntryZScore     float64 `yaml:"entry_zscore" json:"entry_zscore"`
	ExitZScore      float64 `yaml:"exit_zscore" json:"exit_zscore"`
	MinObservations int     `yaml:"min_observations" json:"min_observations"`
}

// Backtest S3: 시뮬레이션
type Backtest struct {
	InitialCapital float64  `yaml:"initial_capital" json:"initial_capital"`
	MaxPairs       int      `yaml:"max_pairs" json:"max_pairs"`
	FallbackPair   []string `yaml:"fallback_pair" json:"fallback_pair"` // 유의한 페어가 없을 때
}

// Analysis S4: 성과 지표
type Analysis struct {
	TradingDays  int     `yaml:"trading_days" json:"trading_days"`
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
}

// Default returns the reference parameters.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "sp500_pairs",
			Version:    "1",
		},
		Screening: Screening{
			SignificanceLevel: 0.05,
			MinObservations:   20,
		},
		Signals: Signals{
			Window:          60,
			EntryZScore:     2.0,
			ExitZScore:      0.0,
			MinObservations: 60,
		},
		Backtest: Backtest{
			InitialCapital: 100000,
			MaxPairs:       1,
			FallbackPair:   []string{"AMZN", "NVDA"},
		},
		Analysis: Analysis{
			TradingDays:  252,
			RiskFreeRate: 0.0,
		},
	}
}

// DecisionSnapshot ties a run to the exact configuration that produced it.
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}
