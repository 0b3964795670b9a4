package strategy

import (
	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

func buildLaguerreRSI(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period := r.period("period", 6)
	gamma := r.fraction("gamma", 0.5)
	overbought, oversold := r.float("overbought", 0.8), r.float("oversold", 0.2)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{indicator.LaguerreRSI{Name: "lrsi", Period: period, Gamma: gamma}},
		Buy:        Rule{Condition: All(Rising("lrsi", 1), Above(Line("lrsi"), Const(oversold)))},
		Sell:       Rule{Condition: All(Falling("lrsi", 1), Below(Line("lrsi"), Const(overbought)))},
	}, nil
}

func buildStochCross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	ma1, ma2, period := r.period("ma1", 14), r.period("ma2", 30), r.period("period", 14)
	lower, upper := r.float("lower_limit", 20), r.float("upper_limit", 80)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.MovingAverage{Name: "ma1", Type: indicator.SMA, Period: ma1},
			indicator.MovingAverage{Name: "ma2", Type: indicator.SMA, Period: ma2},
			indicator.Stochastic{Name: "stoch", FastK: period, SlowK: 3, SlowD: 3},
		},
		Buy:  Rule{Condition: All(Above(Line("ma1"), Line("ma2")), Below(Line("stoch"), Const(lower)))},
		Sell: Rule{Condition: All(Below(Line("ma1"), Line("ma2")), Above(Line("stoch"), Const(upper)))},
	}, nil
}

func buildRSICross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	ma1, ma2, period := r.period("ma1", 14), r.period("ma2", 30), r.period("period", 6)
	gamma := r.fraction("gamma", 0.5)
	lower, upper := r.float("lower_limit", 0.2), r.float("upper_limit", 0.8)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.MovingAverage{Name: "ma1", Type: indicator.SMA, Period: ma1},
			indicator.MovingAverage{Name: "ma2", Type: indicator.SMA, Period: ma2},
			indicator.LaguerreRSI{Name: "lrsi", Period: period, Gamma: gamma},
		},
		Buy: Rule{Condition: All(
			Above(Line("ma1"), Line("ma2")),
			Rising("lrsi", 1),
			Above(Line("lrsi"), Const(lower)),
		)},
		Sell: Rule{Condition: All(
			Below(Line("ma1"), Line("ma2")),
			Falling("lrsi", 1),
			Below(Line("lrsi"), Const(upper)),
		)},
	}, nil
}

// zeroCross trades when the first line of osc crosses the zero line.
func zeroCross(osc indicator.Adapter) Strategy {
	line := Line(osc.Lines()[0])
	return Strategy{
		Indicators: []indicator.Adapter{osc},
		Buy:        Rule{Condition: All(CrossesAbove(line, Const(0)))},
		Sell:       Rule{Condition: All(CrossesBelow(line, Const(0)))},
	}
}

// signalCross trades when the first line of osc crosses its signal line.
func signalCross(osc indicator.Adapter, signalLine string) Strategy {
	line := Line(osc.Lines()[0])
	return Strategy{
		Indicators: []indicator.Adapter{osc},
		Buy:        Rule{Condition: All(CrossesAbove(line, Line(signalLine)))},
		Sell:       Rule{Condition: All(CrossesBelow(line, Line(signalLine)))},
	}
}

func readMACD(r *reader, fast, slow, sig string) indicator.MACD {
	m := indicator.MACD{Name: "macd", Fast: r.period(fast, 12), Slow: r.period(slow, 26), Signal: r.period(sig, 9)}
	if m.Fast >= m.Slow {
		r.fail(invalid("%s (%d) must be below %s (%d)", fast, m.Fast, slow, m.Slow))
	}
	return m
}

func buildMACDZero(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	m := readMACD(r, "period_me1", "period_me2", "period_signal")
	if r.err != nil {
		return Strategy{}, r.err
	}
	return zeroCross(m), nil
}

func buildMACDSignal(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	m := readMACD(r, "period_me1", "period_me2", "period_signal")
	if r.err != nil {
		return Strategy{}, r.err
	}
	return signalCross(m, "macd.signal"), nil
}

func buildTrixZero(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period := r.period("period", 15)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return zeroCross(indicator.Trix{Name: "trix", Period: period}), nil
}

func buildTrixSignal(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period, sig := r.period("period", 15), r.period("signal_period", 9)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return signalCross(indicator.Trix{Name: "trix", Period: period, Signal: sig}, "trix.signal"), nil
}

func buildAwesomeZero(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	fast, slow := r.period("fast", 5), r.period("slow", 34)
	if r.err == nil && fast >= slow {
		r.fail(invalid("fast (%d) must be below slow (%d)", fast, slow))
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	return zeroCross(indicator.Awesome{Name: "ao", Fast: fast, Slow: slow}), nil
}

// buildMomentumZero crosses close minus close[period] over zero, the same bar on which the
// 100-based momentum oscillator crosses its 100 band.
func buildMomentumZero(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period := r.period("period", 12)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return zeroCross(indicator.Momentum{Name: "mom", Period: period}), nil
}

func buildMACDGradient(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	m := readMACD(r, "period_me1", "period_me2", "period_signal")
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{m},
		Buy:        Rule{Condition: All(Increasing("macd", 2))},
		Sell:       Rule{Condition: All(Decreasing("macd", 2))},
	}, nil
}

func buildRSI(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period := r.period("rsi_period", 14)
	buy, sell := r.float("buy_limit", 60), r.float("sell_limit", 40)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{indicator.RSI{Name: "rsi", Period: period}},
		Buy:        Rule{Condition: All(Above(Line("rsi"), Const(buy)))},
		Sell:       Rule{Condition: All(Below(Line("rsi"), Const(sell)))},
	}, nil
}

// voters returns the buy and sell predicate lists shared by the vote-based strategies, in the
// same order so one mask selects both sides.
func voters(adxStrength float64) (buy, sell []Predicate) {
	price := Line(signal.Close)
	buy = []Predicate{
		Above(Line("macd"), Const(0)).Named("macd"),
		Above(Line("trix"), Const(0)).Named("trix"),
		Above(Line("ao"), Const(0)).Named("awesome"),
		Below(Line("sar"), price).Named("psar"),
		Above(Line("adx"), Const(adxStrength)).Named("adx"),
	}
	sell = []Predicate{
		Below(Line("macd"), Const(0)).Named("macd"),
		Below(Line("trix"), Const(0)).Named("trix"),
		Below(Line("ao"), Const(0)).Named("awesome"),
		Above(Line("sar"), price).Named("psar"),
		Above(Line("adx"), Const(adxStrength)).Named("adx"),
	}
	return buy, sell
}

// CombinedParams configures the vote-count strategy.
type CombinedParams struct {
	MACD        indicator.MACD
	TrixPeriod  int
	AOFast      int
	AOSlow      int
	ADXPeriod   int
	ADXStrength float64
	Enabled     []string
	BuyLimit    int
}

// buildCombined trades when at least buy_limit of the enabled votes agree.
func buildCombined(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := CombinedParams{
		MACD:        readMACD(r, "macd_period_me1", "macd_period_me2", "macd_period_signal"),
		TrixPeriod:  r.period("trix_period", 15),
		AOFast:      r.period("ao_fast", 5),
		AOSlow:      r.period("ao_slow", 34),
		ADXPeriod:   r.period("adx_period", 20),
		ADXStrength: r.nonNegative("adx_strength", 20),
		Enabled:     r.list("enabled", "macd,awesome,psar"),
		BuyLimit:    r.c.Int("buy_limit", 3),
	}
	if p.BuyLimit < 1 {
		r.fail(invalid("buy_limit must be at least 1, got %d", p.BuyLimit))
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	buy, sell := voters(p.ADXStrength)
	mask, err := MaskFor(buy, p.Enabled...)
	if err != nil {
		return Strategy{}, invalid("enabled: %v", err)
	}
	return Strategy{
		Indicators: []indicator.Adapter{
			p.MACD,
			indicator.Trix{Name: "trix", Period: p.TrixPeriod},
			indicator.Awesome{Name: "ao", Fast: p.AOFast, Slow: p.AOSlow},
			indicator.SAR{Name: "sar", Accel: 0.02, Max: 0.2},
			indicator.ADX{Name: "adx", Period: p.ADXPeriod},
		},
		Buy:  Rule{Condition: Vote(buy, mask, p.BuyLimit)},
		Sell: Rule{Condition: Vote(sell, mask, p.BuyLimit)},
	}, nil
}

// buildAllPossibilities gates on a moving-average trend and requires every enabled vote.
func buildAllPossibilities(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	ma1, ma2 := r.period("ma1", 5), r.period("ma2", 20)
	enabled := r.list("list", "")
	if r.err != nil {
		return Strategy{}, r.err
	}
	buy, sell := voters(20)
	mask, err := MaskFor(buy, enabled...)
	if err != nil {
		return Strategy{}, invalid("list: %v", err)
	}
	unanimous := mask.Count()
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.MovingAverage{Name: "ma1", Type: indicator.SMA, Period: ma1},
			indicator.MovingAverage{Name: "ma2", Type: indicator.SMA, Period: ma2},
			indicator.MACD{Name: "macd", Fast: 12, Slow: 26, Signal: 9},
			indicator.Trix{Name: "trix", Period: 15},
			indicator.Awesome{Name: "ao", Fast: 5, Slow: 34},
			indicator.SAR{Name: "sar", Accel: 0.02, Max: 0.2},
			indicator.ADX{Name: "adx", Period: 14},
		},
		Buy:  Rule{Condition: And(All(Above(Line("ma1"), Line("ma2"))), Vote(buy, mask, unanimous))},
		Sell: Rule{Condition: And(All(Below(Line("ma1"), Line("ma2"))), Vote(sell, mask, unanimous))},
	}, nil
}

func readVixFix(r *reader) indicator.WilliamsVixFix {
	return indicator.WilliamsVixFix{
		Name: "wvf",
		Pd:   r.period("pd", 22),
		Bbl:  r.period("bbl", 20),
		Mult: r.nonNegative("mult", 2),
		Lb:   r.period("lb", 50),
		Ph:   r.nonNegative("ph", 0.85),
		Pl:   r.nonNegative("pl", 1.01),
	}
}

// buildWilliamsVixFix buys volatility spikes and never sells.
func buildWilliamsVixFix(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	wvf := readVixFix(r)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{wvf},
		Buy:        Rule{Condition: Any(Above(Line("wvf"), Line("wvf.top")), Above(Line("wvf"), Line("wvf.high")))},
		Sell:       Rule{Condition: Never},
	}, nil
}

func buildWaveTrend(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	n1, n2 := r.period("n1", 10), r.period("n2", 21)
	overbought, oversold := r.float("ob_level1", 60), r.float("os_level1", -60)
	if r.err == nil && oversold >= overbought {
		r.fail(invalid("os_level1 (%g) must be below ob_level1 (%g)", oversold, overbought))
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{indicator.WaveTrend{Name: "wt", N1: n1, N2: n2}},
		Buy:        Rule{Condition: All(Below(Line("wt"), Const(oversold)))},
		Sell:       Rule{Condition: All(Above(Line("wt"), Const(overbought)))},
	}, nil
}
