package strategy

import (
	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

// Action is the engine's decision for one bar.
type Action int

const (
	None Action = iota
	BuyAction
	SellAction
)

func (a Action) String() string {
	switch a {
	case BuyAction:
		return "BUY"
	case SellAction:
		return "SELL"
	}
	return "NONE"
}

// Side maps a trading action to its order side.
func (a Action) Side() (execution.Side, bool) {
	switch a {
	case BuyAction:
		return execution.Buy, true
	case SellAction:
		return execution.Sell, true
	}
	return "", false
}

// Position is the engine's view of the instrument.
type Position int

const (
	Flat Position = iota
	Long
)

func (p Position) String() string {
	if p == Long {
		return "LONG"
	}
	return "FLAT"
}

// Engine owns the position, the pending-order guard and the confirmation latches of one
// strategy on one instrument. It is not safe for concurrent use.
type Engine struct {
	strategy Strategy
	window   *signal.Window
	warmup   int
	seen     int
	position Position
	pending  bool
	// latched trigger per direction for two-phase rules
	buyArmed  bool
	sellArmed bool
}

// NewEngine builds an engine reading rows laid out by schema.
func NewEngine(s Strategy, schema *signal.Schema) *Engine {
	return &Engine{strategy: s, window: signal.NewWindow(schema, s.Lookback()), warmup: s.Warmup()}
}

// Step records the bar's signal row and decides what to do on it. Bars inside the strategy's
// warm-up always yield NONE and never arm a latch. A non-NONE action sets the pending-order
// guard until Resolve sees a terminal report.
func (e *Engine) Step(row []float64) Action {
	e.window.Push(row)
	e.seen++
	if e.seen <= e.warmup || e.pending {
		return None
	}

	var act Action
	if e.position == Flat {
		if e.decide(e.strategy.Buy, &e.buyArmed) {
			act = BuyAction
		}
	} else if e.decide(e.strategy.Sell, &e.sellArmed) {
		act = SellAction
	}

	if act != None {
		e.pending = true
		// a confirmed trade supersedes any stale trigger in either direction
		e.buyArmed, e.sellArmed = false, false
	}
	return act
}

func (e *Engine) decide(r Rule, armed *bool) bool {
	if r.Condition == nil {
		return false
	}
	if !r.TwoPhase() {
		return r.Condition.Holds(e.window)
	}
	if r.Trigger.Holds(e.window) {
		*armed = true
		return false
	}
	return *armed && r.Condition.Holds(e.window)
}

// Resolve applies a broker report. Fills move the position; every terminal status clears the
// guard; non-terminal reports are ignored.
func (e *Engine) Resolve(r execution.Report) {
	if !r.Status.Terminal() {
		return
	}
	if r.Status == execution.Filled {
		switch r.Side {
		case execution.Buy:
			e.position = Long
		case execution.Sell:
			e.position = Flat
		}
	}
	e.pending = false
}

// Position returns the current position state.
func (e *Engine) Position() Position { return e.position }

// Pending reports whether an order is awaiting resolution.
func (e *Engine) Pending() bool { return e.pending }

// Latched reports the two-phase trigger latches.
func (e *Engine) Latched() (buy, sell bool) { return e.buyArmed, e.sellArmed }
