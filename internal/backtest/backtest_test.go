package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DorukKorkmaz/crypto-backtest/internal/data"
	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/paper"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
	"github.com/DorukKorkmaz/crypto-backtest/internal/strategy"
)

var t0 = time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)

// stepSeries trades at 10 until bar 100 and at 12 afterwards.
func stepSeries(n int) data.Series {
	bars := make([]signal.Bar, n)
	for i := range bars {
		px := 10.0
		if i >= 100 {
			px = 12
		}
		bars[i] = signal.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Open: px, High: px, Low: px, Close: px, Volume: 1}
	}
	return data.Series{Symbol: "ETHBTC", Bars: bars}
}

// scripted plays back fixed fast/slow lines: fast sits above slow on bars [50, 100).
type scripted struct{}

func (scripted) Lines() []string { return []string{"fast", "slow"} }
func (scripted) Warmup() int     { return 30 }
func (scripted) Compute(f *indicator.Frame) [][]float64 {
	fast := make([]float64, f.Len())
	slow := make([]float64, f.Len())
	for i := range fast {
		fast[i], slow[i] = 1, 1.5
		if i >= 50 && i < 100 {
			fast[i] = 2
		}
	}
	return [][]float64{fast, slow}
}

func crossFactory(param.Combination) (strategy.Strategy, error) {
	return strategy.Strategy{
		Name:       "scripted_cross",
		Indicators: []indicator.Adapter{scripted{}},
		Buy:        strategy.Rule{Condition: strategy.All(strategy.CrossesAbove(strategy.Line("fast"), strategy.Line("slow")))},
		Sell:       strategy.Rule{Condition: strategy.All(strategy.CrossesBelow(strategy.Line("fast"), strategy.Line("slow")))},
	}, nil
}

func zeroCommission() Options {
	opts := DefaultOptions()
	opts.Commission = 0
	return opts
}

func TestRunCrossScenario(t *testing.T) {
	series := stepSeries(150)
	ledger := paper.NewLedger(2)
	opts := zeroCommission()
	opts.Recorder = ledger

	res, err := Run(series, param.Of(), crossFactory, opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	fills := ledger.Snapshot()
	if len(fills) != 2 || res.Trades != 2 {
		t.Fatalf("expected 2 fills got %d (trades %d)", len(fills), res.Trades)
	}
	if fills[0].Side != execution.Buy || !fills[0].Time.Equal(series.Bars[50].Time) {
		t.Fatalf("expected BUY at bar 50 got %s at %s", fills[0].Side, fills[0].Time)
	}
	if fills[1].Side != execution.Sell || !fills[1].Time.Equal(series.Bars[100].Time) {
		t.Fatalf("expected SELL at bar 100 got %s at %s", fills[1].Side, fills[1].Time)
	}
	// 99% of 1,000,000 buys 99,000 at 10, sold at 12
	if math.Abs(res.Value-1_198_000) > 1e-6 {
		t.Fatalf("expected value 1198000 got %f", res.Value)
	}
	if res.Bars != 150 || res.Rejected != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	series := stepSeries(150)
	first, err := Run(series, param.Of(), crossFactory, DefaultOptions())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	second, err := Run(series, param.Of(), crossFactory, DefaultOptions())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if first != second {
		t.Fatalf("runs differ: %+v vs %+v", first, second)
	}
}

func TestRunWithoutTradesKeepsCash(t *testing.T) {
	never := func(param.Combination) (strategy.Strategy, error) {
		preds := []strategy.Predicate{strategy.Above(strategy.Line(signal.Close), strategy.Const(0))}
		return strategy.Strategy{
			Buy:  strategy.Rule{Condition: strategy.Vote(preds, 0, 1)},
			Sell: strategy.Rule{Condition: strategy.Never},
		}, nil
	}
	res, err := Run(stepSeries(120), param.Of(), never, DefaultOptions())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Trades != 0 || res.Value != 1_000_000 {
		t.Fatalf("expected untouched cash got %+v", res)
	}
}

func TestRunCatalogHoldMarksLastClose(t *testing.T) {
	hold, err := strategy.Lookup("hold")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	res, err := Run(stepSeries(120), param.Of(), hold, DefaultOptions())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	// 990,000 notional plus 990 commission, 99,000 units marked at 12
	if res.Trades != 1 || math.Abs(res.Value-1_197_010) > 1e-6 {
		t.Fatalf("unexpected hold result %+v", res)
	}
}

func TestRunFatalErrors(t *testing.T) {
	if _, err := Run(data.Series{Symbol: "X"}, param.Of(), crossFactory, DefaultOptions()); !errors.Is(err, data.ErrEmptySeries) {
		t.Fatalf("expected empty series error got %v", err)
	}
	bad := stepSeries(10)
	bad.Bars[5].Close = math.NaN()
	if _, err := Run(bad, param.Of(), crossFactory, DefaultOptions()); !errors.Is(err, data.ErrBadPrice) {
		t.Fatalf("expected bad price error got %v", err)
	}
	cross, _ := strategy.Lookup("cross")
	combo := param.Of(param.Entry{Name: "ma1_period", Value: param.Num(1)})
	if _, err := Run(stepSeries(10), combo, cross, DefaultOptions()); !errors.Is(err, strategy.ErrInvalidParams) {
		t.Fatalf("expected invalid params got %v", err)
	}
}

// levelSeries trades at 10 before bar 50, at 12 on bars [50, 100) and at 11 afterwards.
func levelSeries(n int) data.Series {
	s := stepSeries(n)
	for i := range s.Bars {
		px := 10.0
		switch {
		case i >= 100:
			px = 11
		case i >= 50:
			px = 12
		}
		b := &s.Bars[i]
		b.Open, b.High, b.Low, b.Close = px, px, px, px
	}
	return s
}

func TestRunCatalogCrossOnMovingAverages(t *testing.T) {
	cross, err := strategy.Lookup("cross")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	combo := param.Of(
		param.Entry{Name: "ma1_period", Value: param.Num(14)},
		param.Entry{Name: "ma2_period", Value: param.Num(30)},
	)
	series := levelSeries(150)
	ledger := paper.NewLedger(2)
	opts := zeroCommission()
	opts.Recorder = ledger

	res, err := Run(series, combo, cross, opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	fills := ledger.Snapshot()
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills got %d", len(fills))
	}
	// equal averages on the flat stretches never cross strictly
	if fills[0].Side != execution.Buy || !fills[0].Time.Equal(series.Bars[50].Time) {
		t.Fatalf("expected BUY at bar 50 got %s at %s", fills[0].Side, fills[0].Time)
	}
	if fills[1].Side != execution.Sell || !fills[1].Time.Equal(series.Bars[100].Time) {
		t.Fatalf("expected SELL at bar 100 got %s at %s", fills[1].Side, fills[1].Time)
	}
	// 82,500 units bought at 12 and sold at 11 plus 10,000 unspent
	if math.Abs(res.Value-917_500) > 1e-6 {
		t.Fatalf("expected value 917500 got %f", res.Value)
	}
}

func TestRunNeverTradesInsideWarmup(t *testing.T) {
	for _, name := range []string{"combined", "all_possibilities", "percent_rsi", "laguerre_williams", "wave_trend"} {
		factory, err := strategy.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup %s: %v", name, err)
		}
		res, err := Run(stepSeries(20), param.Of(), factory, DefaultOptions())
		if err != nil {
			t.Fatalf("%s: Run error: %v", name, err)
		}
		if res.Trades != 0 || res.Rejected != 0 || res.Value != 1_000_000 {
			t.Fatalf("%s traded on undefined signals: %+v", name, res)
		}
	}

	always := func(param.Combination) (strategy.Strategy, error) {
		return strategy.Strategy{
			Indicators: []indicator.Adapter{scripted{}},
			Buy:        strategy.Rule{Condition: strategy.All()},
			Sell:       strategy.Rule{Condition: strategy.All()},
		}, nil
	}
	res, err := Run(stepSeries(20), param.Of(), always, DefaultOptions())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Trades != 0 {
		t.Fatalf("unconditional rules must wait for warm-up, got %d trades", res.Trades)
	}

	combined, _ := strategy.Lookup("combined")
	zero := param.Of(param.Entry{Name: "buy_limit", Value: param.Num(0)})
	if _, err := Run(stepSeries(20), zero, combined, DefaultOptions()); !errors.Is(err, strategy.ErrInvalidParams) {
		t.Fatalf("buy_limit 0 should be rejected, got %v", err)
	}
}
