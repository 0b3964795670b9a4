// Package backtest drives one strategy over one instrument's bar series.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/DorukKorkmaz/crypto-backtest/internal/data"
	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/metrics"
	"github.com/DorukKorkmaz/crypto-backtest/internal/paper"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/risk"
	"github.com/DorukKorkmaz/crypto-backtest/internal/strategy"
)

// Options configures the simulated broker of a run.
type Options struct {
	StartingCash float64
	Commission   float64
	// Percent of available cash spent on each buy.
	Percent     float64
	MaxNotional float64
	// Interval is the expected bar spacing; longer gaps mark the next bar defective. Zero disables.
	Interval time.Duration
	Recorder paper.FillRecorder
	Log      zerolog.Logger
}

// DefaultOptions mirrors the historical setup: 1,000,000 cash, 0.1% commission, 99% sizing.
func DefaultOptions() Options {
	return Options{
		StartingCash: 1_000_000,
		Commission:   0.001,
		Percent:      99,
		Log:          zerolog.Nop(),
	}
}

// Result summarizes one run.
type Result struct {
	Symbol string
	// Value is cash plus the open position marked at the last valid close.
	Value    float64
	Trades   int
	Rejected int
	Bars     int
}

// Run evaluates combo on series with a fresh engine and broker. Series validation errors and
// strategy construction errors are returned as-is.
func Run(series data.Series, combo param.Combination, factory strategy.Factory, opts Options) (Result, error) {
	if err := series.Validate(); err != nil {
		return Result{}, err
	}
	strat, err := factory(combo)
	if err != nil {
		return Result{}, err
	}
	table, err := indicator.Build(series.Bars, strat.Indicators, series.Defects(opts.Interval))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", series.Symbol, err)
	}

	log := opts.Log.With().Str("sym", series.Symbol).Str("strategy", strat.Name).Logger()
	account := paper.NewAccount(paper.Config{
		StartingCash: opts.StartingCash,
		Commission:   opts.Commission,
		Sizer:        risk.PercentSizer{Percent: opts.Percent},
		Limits:       risk.Limits{MaxNotionalPerTrade: opts.MaxNotional},
		Recorder:     opts.Recorder,
	})
	exec := execution.NewExecutor(account, log)
	engine := strategy.NewEngine(strat, table.Schema)

	res := Result{Symbol: series.Symbol, Bars: len(table.Rows)}
	mark := 0.0
	for i, row := range table.Rows {
		bar := series.Bars[i]
		if bar.WellFormed() {
			mark = bar.Close
		}
		side, ok := engine.Step(row).Side()
		if !ok {
			continue
		}
		reports := exec.Submit(execution.Order{Symbol: series.Symbol, Side: side, Price: bar.Close, Time: bar.Time})
		for _, r := range reports {
			engine.Resolve(r)
			switch {
			case r.Status == execution.Filled:
				res.Trades++
			case r.Status.Terminal():
				res.Rejected++
			}
		}
	}
	metrics.BarsTotal.WithLabelValues(series.Symbol).Add(float64(res.Bars))

	res.Value = account.Value(map[string]float64{series.Symbol: mark})
	log.Debug().
		Str("params", combo.String()).
		Int("trades", res.Trades).
		Int("rejected", res.Rejected).
		Float64("value", res.Value).
		Msg("run finished")
	return res, nil
}
