// Package execution handles the order lifecycle between the decision engine and a broker.
package execution

import (
	"time"

	"github.com/DorukKorkmaz/crypto-backtest/internal/metrics"

	"github.com/rs/zerolog"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy opens the long position.
	Buy Side = "BUY"
	// Sell closes the long position.
	Sell Side = "SELL"
)

// Order represents a market order request priced at the signalling bar.
type Order struct {
	Symbol string
	Side   Side
	Price  float64
	Time   time.Time
}

// Handle identifies a submitted order.
type Handle uint64

// Status is a step of the order lifecycle.
type Status string

const (
	Submitted Status = "SUBMITTED"
	Accepted  Status = "ACCEPTED"
	Filled    Status = "FILLED"
	Rejected  Status = "REJECTED"
	Cancelled Status = "CANCELLED"
	Margin    Status = "MARGIN"
)

// Terminal reports whether no further reports follow this status.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Rejected, Cancelled, Margin:
		return true
	}
	return false
}

// Report is one broker notification about an order.
type Report struct {
	Handle     Handle
	Status     Status
	Side       Side
	Price      float64
	Qty        float64
	Commission float64
	Reason     string
}

// Fill is the trade event emitted for every filled order.
type Fill struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Qty        float64   `json:"qty"`
	Price      float64   `json:"price"`
	Commission float64   `json:"commission"`
	Time       time.Time `json:"time"`
}

// Broker accepts orders and reports their progress.
type Broker interface {
	Submit(order Order) Handle
	Reports(h Handle) []Report
}

// Executor submits orders to a broker and logs their resolution.
type Executor struct {
	broker Broker
	log    zerolog.Logger
}

// NewExecutor wraps a broker with logging and order metrics.
func NewExecutor(broker Broker, log zerolog.Logger) *Executor {
	return &Executor{broker: broker, log: log}
}

// Submit places the order and returns every report the broker produced for it, in order.
func (executor *Executor) Submit(order Order) []Report {
	h := executor.broker.Submit(order)
	reports := executor.broker.Reports(h)
	for _, r := range reports {
		if !r.Status.Terminal() {
			continue
		}
		metrics.OrdersTotal.WithLabelValues(string(order.Side), string(r.Status)).Inc()
		evt := executor.log.Debug()
		if r.Status != Filled {
			evt = executor.log.Info().Str("reason", r.Reason)
		}
		evt.Str("sym", order.Symbol).
			Str("side", string(order.Side)).
			Str("status", string(r.Status)).
			Float64("qty", r.Qty).
			Float64("px", r.Price).
			Float64("comm", r.Commission).
			Time("bar", order.Time).
			Msg("order resolved")
	}
	return reports
}
