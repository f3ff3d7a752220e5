package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/strategyconfig"
	"github.com/wonny/pairlab/pkg/logger"
)

// Config holds backtest configuration
type Config struct {
	InitialCapital float64
}

// ConfigFromStrategy maps the backtest section of a strategy config.
func ConfigFromStrategy(cfg strategyconfig.Backtest) Config {
	return Config{InitialCapital: cfg.InitialCapital}
}

// Result holds one simulated pair
type Result struct {
	Asset1         string
	Asset2         string
	InitialCapital float64

	Values        contracts.PortfolioValueSeries // every matrix date
	InTrade       []bool                         // position held at the end of each date
	Trades        []contracts.Trade
	Interruptions []time.Time // dates with a missing price
	Warnings      []string
	FinalState    contracts.PortfolioState
}

// FinalValue returns the last recorded portfolio value.
func (r *Result) FinalValue() float64 { return r.Values.Final() }

// TotalReturn is final/initial - 1.
func (r *Result) TotalReturn() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return r.FinalValue()/r.InitialCapital - 1
}

// ClosedTrades returns the trades that were exited.
func (r *Result) ClosedTrades() []contracts.Trade {
	var out []contracts.Trade
	for _, t := range r.Trades {
		if !t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// Engine replays signals over the price matrix
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	config Config
	logger *logger.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(config Config, log *logger.Logger) *Engine {
	return &Engine{
		config: config,
		logger: log.WithModule("backtest"),
	}
}

// Run folds Step over every matrix date in order. Prices come from the
// full matrix, so dates where either asset is missing are carried and
// reported as interruptions.
func (e *Engine) Run(ctx context.Context, m *contracts.PriceMatrix, signals *contracts.SignalSeries, asset1, asset2 string) (*Result, error) {
	if m.IsEmpty() {
		return nil, contracts.ErrEmptyMatrix
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if signals == nil {
		return nil, fmt.Errorf("%w: no signal series", contracts.ErrMisaligned)
	}
	if len(signals.Signals) != len(signals.Dates) || len(signals.ZScores) != len(signals.Dates) {
		return nil, fmt.Errorf("%w: signal series has %d dates, %d signals, %d z-scores",
			contracts.ErrMisaligned, len(signals.Dates), len(signals.Signals), len(signals.ZScores))
	}
	if e.config.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", e.config.InitialCapital)
	}
	col1, err := m.Column(asset1)
	if err != nil {
		return nil, err
	}
	col2, err := m.Column(asset2)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"pair":            asset1 + "/" + asset2,
		"dates":           m.Len(),
		"initial_capital": e.config.InitialCapital,
	}).Info("Starting backtest")

	res := &Result{
		Asset1:         asset1,
		Asset2:         asset2,
		InitialCapital: e.config.InitialCapital,
		Values:         make(contracts.PortfolioValueSeries, 0, m.Len()),
		InTrade:        make([]bool, 0, m.Len()),
	}

	state := contracts.NewPortfolioState(e.config.InitialCapital)
	prev := state.Capital
	var open *contracts.Trade

	for i, date := range m.Dates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest interrupted at %s: %w", date.Format("2006-01-02"), err)
		}

		in := DayInput{First: i == 0, Price1: col1[i], Price2: col2[i]}
		if !in.First && tradeable(in.Price1, in.Price2) {
			idx, ok := signals.Index(date)
			if !ok {
				return nil, fmt.Errorf("%w: no signal for tradeable date %s", contracts.ErrMisaligned, date.Format("2006-01-02"))
			}
			in.Signal = signals.Signals[idx]
		}

		step := Step(state, prev, in)

		switch step.Action {
		case ActionHoldMissing:
			res.Interruptions = append(res.Interruptions, date)
		case ActionHoldInvalid:
			msg := fmt.Sprintf("%s: non-positive price (%s=%v, %s=%v), value carried",
				date.Format("2006-01-02"), asset1, in.Price1, asset2, in.Price2)
			res.Warnings = append(res.Warnings, msg)
			e.logger.WithField("date", date.Format("2006-01-02")).Warn("Non-positive price, holding")
		case ActionEnterLong, ActionEnterShort:
			t := contracts.Trade{
				Side:       step.State.Side(),
				EntryDate:  date,
				Asset1Qty:  step.State.Asset1Qty,
				Asset2Qty:  step.State.Asset2Qty,
				EntryPrice: [2]float64{in.Price1, in.Price2},
			}
			if idx, ok := signals.Index(date); ok && signals.ZScores[idx].Valid {
				t.EntryZ = signals.ZScores[idx].Value
			}
			res.Trades = append(res.Trades, t)
			open = &res.Trades[len(res.Trades)-1]
		case ActionExit:
			d := date
			open.ExitDate = &d
			open.ExitPrice = [2]float64{in.Price1, in.Price2}
			open.PnL = step.Realized
			open = nil
		}

		state = step.State
		prev = step.Value
		res.Values = append(res.Values, contracts.ValuePoint{Date: date, Value: step.Value})
		res.InTrade = append(res.InTrade, state.InTrade)

		if open != nil && step.Action == ActionNone {
			// 미청산 포지션의 평가손익
			open.PnL = state.Asset1Qty*in.Price1 + state.Asset2Qty*in.Price2
		}
	}

	res.FinalState = state

	e.logger.WithFields(map[string]interface{}{
		"pair":          asset1 + "/" + asset2,
		"final_value":   res.FinalValue(),
		"trades":        len(res.Trades),
		"interruptions": len(res.Interruptions),
		"warnings":      len(res.Warnings),
		"open_position": state.InTrade,
	}).Info("Backtest completed")

	return res, nil
}

func tradeable(p1, p2 float64) bool {
	return !math.IsNaN(p1) && !math.IsNaN(p2) && p1 > 0 && p2 > 0
}
