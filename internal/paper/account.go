package paper

import (
	"math"
	"sync"

	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
	"github.com/DorukKorkmaz/crypto-backtest/internal/risk"

	"github.com/shopspring/decimal"
)

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

// AvgCost includes the buy commission.
type positionState struct {
	Qty     decimal.Decimal
	AvgCost decimal.Decimal
}

// Config sets up a paper account.
type Config struct {
	StartingCash float64
	// Commission is charged on notional, e.g. 0.001 for 0.1%.
	Commission float64
	Sizer      risk.PercentSizer
	Limits     risk.Limits
	Recorder   FillRecorder
}

// Account is a long-only paper broker. Buys spend a percentage of cash at the order price,
// sells close the whole position.
type Account struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	realizedPnL  decimal.Decimal
	commission   decimal.Decimal
	sizer        risk.PercentSizer
	limits       risk.Limits
	recorder     FillRecorder
	positions    map[string]positionState
	next         execution.Handle
	reports      map[execution.Handle][]execution.Report
}

// PositionSnapshot exposes a read-only view of a single symbol position.
type PositionSnapshot struct {
	Qty         float64
	AvgCost     float64
	MarketValue float64
	Unrealized  float64
}

// Snapshot represents a thread-safe view of the account state, optionally marked to market using provided prices.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Equity      float64
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs an account funded with cfg.StartingCash.
func NewAccount(cfg Config) *Account {
	start := decimal.NewFromFloat(cfg.StartingCash)
	return &Account{
		startingCash: start,
		cash:         start,
		commission:   decimal.NewFromFloat(cfg.Commission),
		sizer:        cfg.Sizer,
		limits:       cfg.Limits,
		recorder:     cfg.Recorder,
		positions:    make(map[string]positionState),
		reports:      make(map[execution.Handle][]execution.Report),
	}
}

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 { return a.startingCash.InexactFloat64() }

// Submit executes a market order immediately at order.Price and queues its reports.
func (a *Account) Submit(order execution.Order) execution.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	h := a.next
	a.reports[h] = []execution.Report{
		{Handle: h, Status: execution.Submitted, Side: order.Side, Price: order.Price},
		{Handle: h, Status: execution.Accepted, Side: order.Side, Price: order.Price},
	}
	a.reports[h] = append(a.reports[h], a.execute(h, order))
	return h
}

// Reports returns and forgets the reports queued for h.
func (a *Account) Reports(h execution.Handle) []execution.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.reports[h]
	delete(a.reports, h)
	return out
}

func (a *Account) execute(h execution.Handle, order execution.Order) execution.Report {
	reject := func(status execution.Status, reason string) execution.Report {
		return execution.Report{Handle: h, Status: status, Side: order.Side, Price: order.Price, Reason: reason}
	}
	if order.Price <= 0 || math.IsNaN(order.Price) || math.IsInf(order.Price, 0) {
		return reject(execution.Rejected, "price must be positive")
	}
	price := decimal.NewFromFloat(order.Price)
	state := a.positions[order.Symbol]

	var qty, notional, comm decimal.Decimal
	switch order.Side {
	case execution.Buy:
		qty = a.sizer.Size(a.cash, order.Price)
		if !qty.IsPositive() {
			return reject(execution.Rejected, "order size is zero")
		}
		notional = qty.Mul(price)
		if !a.limits.Allow(notional.InexactFloat64()) {
			return reject(execution.Rejected, "notional limit exceeded")
		}
		comm = notional.Mul(a.commission)
		if notional.Add(comm).GreaterThan(a.cash) {
			return reject(execution.Margin, "insufficient cash for buy")
		}
		newQty := state.Qty.Add(qty)
		a.cash = a.cash.Sub(notional).Sub(comm)
		a.positions[order.Symbol] = positionState{
			Qty:     newQty,
			AvgCost: state.AvgCost.Mul(state.Qty).Add(notional).Add(comm).Div(newQty),
		}

	case execution.Sell:
		if !state.Qty.IsPositive() {
			return reject(execution.Rejected, "no position to sell")
		}
		qty = state.Qty
		notional = qty.Mul(price)
		comm = notional.Mul(a.commission)
		a.cash = a.cash.Add(notional).Sub(comm)
		a.realizedPnL = a.realizedPnL.Add(price.Sub(state.AvgCost).Mul(qty)).Sub(comm)
		delete(a.positions, order.Symbol)

	default:
		return reject(execution.Rejected, "unknown order side")
	}

	fill := execution.Fill{
		Symbol:     order.Symbol,
		Side:       order.Side,
		Qty:        qty.InexactFloat64(),
		Price:      order.Price,
		Commission: comm.InexactFloat64(),
		Time:       order.Time,
	}
	if a.recorder != nil {
		a.recorder.Record(fill)
	}
	return execution.Report{
		Handle:     h,
		Status:     execution.Filled,
		Side:       order.Side,
		Price:      fill.Price,
		Qty:        fill.Qty,
		Commission: fill.Commission,
	}
}

// Value returns cash plus open positions marked at prices. Positions without a mark count as zero.
func (a *Account) Value(prices map[string]float64) float64 {
	return a.Snapshot(prices).Equity
}

// Snapshot returns a copy of balances, optionally marked using the supplied prices map.
func (a *Account) Snapshot(prices map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for sym, pos := range a.positions {
		snap := PositionSnapshot{Qty: pos.Qty.InexactFloat64(), AvgCost: pos.AvgCost.InexactFloat64()}
		if mark, ok := prices[sym]; ok && mark > 0 {
			m := decimal.NewFromFloat(mark)
			value := pos.Qty.Mul(m)
			snap.MarketValue = value.InexactFloat64()
			snap.Unrealized = m.Sub(pos.AvgCost).Mul(pos.Qty).InexactFloat64()
			equity = equity.Add(value)
		}
		positions[sym] = snap
	}

	return Snapshot{
		Cash:        a.cash.InexactFloat64(),
		RealizedPnL: a.realizedPnL.InexactFloat64(),
		Equity:      equity.InexactFloat64(),
		Positions:   positions,
	}
}

// AvailableCash reports free cash that can be deployed into new longs.
func (a *Account) AvailableCash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash.InexactFloat64()
}

// Position returns the current position size for the supplied symbol.
func (a *Account) Position(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].Qty.InexactFloat64()
}

// RealizedPnL returns total closed-trade profit and loss net of commission.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL.InexactFloat64()
}
