package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, DB row에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4
//   Data  Pairs  Signals  Backtest  Audit

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 가격 수집/로딩
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StagePairs S1: 공적분 페어 스크리닝
	// 위치: internal/s1_pairs/
	StagePairs Stage = "S1_PAIRS"

	// StageSignals S2: 스프레드/z-score 시그널
	// 위치: internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageBacktest S3: 일별 시뮬레이션
	// 위치: internal/backtest/
	StageBacktest Stage = "S3_BACKTEST"

	// StageAudit S4: 성과 분석
	// 위치: internal/audit/
	StageAudit Stage = "S4_AUDIT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StagePairs:
		return "S1"
	case StageSignals:
		return "S2"
	case StageBacktest:
		return "S3"
	case StageAudit:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StagePairs,
		StageSignals,
		StageBacktest,
		StageAudit,
	}
}
