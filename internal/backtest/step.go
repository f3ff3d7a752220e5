package backtest

import (
	"math"

	"github.com/wonny/pairlab/internal/contracts"
)

// Action is what Step did on one date.
type Action string

const (
	ActionInit        Action = "init"         // first date, value = capital
	ActionNone        Action = "none"         // marked to market, no trade
	ActionEnterLong   Action = "enter_long"   // long asset1, short asset2
	ActionEnterShort  Action = "enter_short"  // short asset1, long asset2
	ActionExit        Action = "exit"         // position closed into capital
	ActionHoldMissing Action = "hold_missing" // a price is missing
	ActionHoldInvalid Action = "hold_invalid" // a price is zero or negative
)

// DayInput is everything Step needs for one date.
type DayInput struct {
	First  bool
	Price1 float64
	Price2 float64
	Signal contracts.DaySignal
}

// StepResult is the next state and the value recorded for the date.
// Realized is the closing proceeds on ActionExit, else 0.
type StepResult struct {
	State    contracts.PortfolioState
	Value    float64
	Action   Action
	Realized float64
}

// Step is the pure per-date transition of the simulation.
//
// The value is recorded before any trade. A flat book may enter and an
// open book may exit, never both on one date.
// ⭐ SSOT: 포지션 상태 전이는 여기서만
func Step(state contracts.PortfolioState, prevValue float64, in DayInput) StepResult {
	if in.First {
		return StepResult{State: state, Value: state.Capital, Action: ActionInit}
	}
	if math.IsNaN(in.Price1) || math.IsNaN(in.Price2) {
		return StepResult{State: state, Value: prevValue, Action: ActionHoldMissing}
	}
	if in.Price1 <= 0 || in.Price2 <= 0 {
		return StepResult{State: state, Value: prevValue, Action: ActionHoldInvalid}
	}

	res := StepResult{
		State:  state,
		Value:  state.MarkToMarket(in.Price1, in.Price2),
		Action: ActionNone,
	}

	if !state.InTrade {
		half := state.Capital / 2
		switch {
		case in.Signal.LongEntry:
			res.State.Asset1Qty = half / in.Price1
			res.State.Asset2Qty = -half / in.Price2
			res.State.InTrade = true
			res.Action = ActionEnterLong
		case in.Signal.ShortEntry:
			res.State.Asset1Qty = -half / in.Price1
			res.State.Asset2Qty = half / in.Price2
			res.State.InTrade = true
			res.Action = ActionEnterShort
		}
		return res
	}

	long := state.Asset1Qty > 0
	if (long && in.Signal.LongExit) || (!long && in.Signal.ShortExit) {
		proceeds := state.Asset1Qty*in.Price1 + state.Asset2Qty*in.Price2
		res.State = contracts.PortfolioState{Capital: state.Capital + proceeds}
		res.Action = ActionExit
		res.Realized = proceeds
	}
	return res
}
