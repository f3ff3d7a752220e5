package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/logger"
)

// GeneratorConfig holds z-score thresholds.
type GeneratorConfig struct {
	Window      int
	EntryZScore float64
	ExitZScore  float64
}

// ConfigFromStrategy maps the signals section of a strategy config.
func ConfigFromStrategy(cfg strategyconfig.Signals) GeneratorConfig {
	return GeneratorConfig{
		Window:      cfg.Window,
		EntryZScore: cfg.EntryZScore,
		ExitZScore:  cfg.ExitZScore,
	}
}

// Generator turns a spread into per-date trading flags
// ⭐ SSOT: 페어 트레이딩 시그널 생성은 여기서만
type Generator struct {
	config GeneratorConfig
	logger *logger.Logger
}

// NewGenerator creates a new signal generator
func NewGenerator(config GeneratorConfig, log *logger.Logger) *Generator {
	return &Generator{
		config: config,
		logger: log.WithModule("s2_signals"),
	}
}

// Generate scores every spread date against its trailing window.
// Dates without a defined z-score carry all-false flags.
func (g *Generator) Generate(spread *contracts.SpreadSeries) (*contracts.SignalSeries, error) {
	if g.config.Window < 2 {
		return nil, fmt.Errorf("window must be at least 2, got %d", g.config.Window)
	}
	// entry > 0 keeps long and short entries disjoint
	if !(g.config.EntryZScore > 0) || math.IsInf(g.config.EntryZScore, 0) {
		return nil, fmt.Errorf("entry z-score must be positive and finite, got %v", g.config.EntryZScore)
	}
	if math.IsNaN(g.config.ExitZScore) || math.IsInf(g.config.ExitZScore, 0) {
		return nil, fmt.Errorf("exit z-score must be finite, got %v", g.config.ExitZScore)
	}
	if len(spread.Dates) != len(spread.Values) {
		return nil, fmt.Errorf("%w: %d dates vs %d spread values",
			contracts.ErrMisaligned, len(spread.Dates), len(spread.Values))
	}

	n := spread.Len()
	zscores := make([]contracts.ZScore, n)
	signals := make([]contracts.DaySignal, n)

	defined, entries := 0, 0
	for i, ws := range RollingStats(spread.Values, g.config.Window) {
		z := zScore(spread.Values[i], ws)
		zscores[i] = z
		if !z.Valid {
			continue
		}
		defined++
		signals[i] = g.flags(z.Value)
		if signals[i].LongEntry || signals[i].ShortEntry {
			entries++
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"pair":          spread.Asset1 + "/" + spread.Asset2,
		"observations":  n,
		"defined":       defined,
		"entry_signals": entries,
	}).Debug("Generated signals")

	return contracts.NewSignalSeries(spread.Dates, zscores, signals), nil
}

func (g *Generator) flags(z float64) contracts.DaySignal {
	return contracts.DaySignal{
		LongEntry:  z < -g.config.EntryZScore,
		ShortEntry: z > g.config.EntryZScore,
		LongExit:   z >= g.config.ExitZScore,
		ShortExit:  z <= g.config.ExitZScore,
	}
}

func zScore(value float64, ws WindowStat) contracts.ZScore {
	// std 0 이면 z 정의 불가
	if !ws.Valid || ws.Std == 0 || math.IsNaN(ws.Std) {
		return contracts.ZScore{}
	}
	return contracts.ZScore{Value: (value - ws.Mean) / ws.Std, Valid: true}
}
