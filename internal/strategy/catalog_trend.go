package strategy

import (
	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

// CrossParams configures two moving averages of the close.
type CrossParams struct {
	MA1Period int
	MA2Period int
	MA1Type   indicator.MAType
	MA2Type   indicator.MAType
}

// readCross uses defaults 14/30 simple averages.
func readCross(r *reader) CrossParams {
	return CrossParams{
		MA1Period: r.period("ma1_period", 14),
		MA2Period: r.period("ma2_period", 30),
		MA1Type:   r.maType("ma1_type", indicator.SMA),
		MA2Type:   r.maType("ma2_type", indicator.SMA),
	}
}

func (p CrossParams) adapters() []indicator.Adapter {
	return []indicator.Adapter{
		indicator.MovingAverage{Name: "ma1", Type: p.MA1Type, Period: p.MA1Period},
		indicator.MovingAverage{Name: "ma2", Type: p.MA2Type, Period: p.MA2Period},
	}
}

func buildCross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := readCross(r)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: p.adapters(),
		Buy:        Rule{Condition: All(Above(Line("ma1"), Line("ma2")))},
		Sell:       Rule{Condition: All(Below(Line("ma1"), Line("ma2")))},
	}, nil
}

// AtrCrossParams widens the cross by a multiple of the average true range.
type AtrCrossParams struct {
	CrossParams
	ATR       float64
	ATRPeriod int
}

func buildAtrCross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := AtrCrossParams{
		CrossParams: readCross(r),
		ATR:         r.nonNegative("atr", 1),
		ATRPeriod:   r.period("atr_period", 14),
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	ind := append(p.adapters(), indicator.ATR{Name: "atr", Period: p.ATRPeriod})
	return Strategy{
		Indicators: ind,
		Buy:        Rule{Condition: All(AboveBand(Line("ma1"), Line("ma2"), Line("atr"), p.ATR))},
		Sell:       Rule{Condition: All(BelowBand(Line("ma1"), Line("ma2"), Line("atr"), p.ATR))},
	}, nil
}

func buildVWMACross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := CrossParams{
		MA1Period: r.period("ma1_period", 14),
		MA2Period: r.period("ma2_period", 30),
		MA1Type:   indicator.VWMA,
		MA2Type:   indicator.VWMA,
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: p.adapters(),
		Buy:        Rule{Condition: All(Above(Line("ma1"), Line("ma2")))},
		Sell:       Rule{Condition: All(Below(Line("ma1"), Line("ma2")))},
	}, nil
}

func buildTripleCross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	periods := [3]int{r.period("ma1_period", 5), r.period("ma2_period", 8), r.period("ma3_period", 11)}
	types := [3]indicator.MAType{
		r.maType("ma1_type", indicator.SMA),
		r.maType("ma2_type", indicator.SMA),
		r.maType("ma3_type", indicator.SMA),
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	names := [3]string{"ma1", "ma2", "ma3"}
	var ind []indicator.Adapter
	for i := range names {
		ind = append(ind, indicator.MovingAverage{Name: names[i], Type: types[i], Period: periods[i]})
	}
	return Strategy{
		Indicators: ind,
		Buy:        Rule{Condition: All(Above(Line("ma1"), Line("ma2")), Above(Line("ma2"), Line("ma3")))},
		Sell:       Rule{Condition: All(Below(Line("ma1"), Line("ma2")), Below(Line("ma2"), Line("ma3")))},
	}, nil
}

func buildSlope(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period, typ := r.period("ma1_period", 14), r.maType("ma1_type", indicator.SMA)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{indicator.MovingAverage{Name: "ma1", Type: typ, Period: period}},
		Buy:        Rule{Condition: All(Rising("ma1", 1))},
		Sell:       Rule{Condition: All(Falling("ma1", 1))},
	}, nil
}

func buildDirectional(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period := r.period("di_period", 14)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{indicator.Directional{Name: "di", Period: period}},
		Buy:        Rule{Condition: All(Above(Line("di.plus"), Line("di.minus")))},
		Sell:       Rule{Condition: All(Below(Line("di.plus"), Line("di.minus")))},
	}, nil
}

func buildAboveBelow(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := readCross(r)
	if r.err != nil {
		return Strategy{}, r.err
	}
	price := Line(signal.Close)
	return Strategy{
		Indicators: p.adapters(),
		Buy:        Rule{Condition: All(Above(price, Line("ma1")), Above(price, Line("ma2")))},
		Sell:       Rule{Condition: All(Below(price, Line("ma1")), Below(price, Line("ma2")))},
	}, nil
}

func buildAboveMA(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period, typ := r.period("ma1_period", 5), r.maType("ma1_type", indicator.SMA)
	if r.err != nil {
		return Strategy{}, r.err
	}
	price := Line(signal.Close)
	return Strategy{
		Indicators: []indicator.Adapter{indicator.MovingAverage{Name: "ma1", Type: typ, Period: period}},
		Buy:        Rule{Condition: All(Above(price, Line("ma1")))},
		Sell:       Rule{Condition: All(Below(price, Line("ma1")))},
	}, nil
}

// ExtendedCrossParams adds a slow trend filter to an ATR-widened EMA cross.
type ExtendedCrossParams struct {
	MA1, MA2, MA3 int
	ATR           float64
	ATRPeriod     int
}

func buildExtendedCross(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := ExtendedCrossParams{
		MA1:       r.period("ma1", 5),
		MA2:       r.period("ma2", 20),
		MA3:       r.period("ma3", 50),
		ATR:       r.nonNegative("atr", 1),
		ATRPeriod: r.period("atr_period", 14),
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	price := Line(signal.Close)
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.MovingAverage{Name: "ma1", Type: indicator.EMA, Period: p.MA1},
			indicator.MovingAverage{Name: "ma2", Type: indicator.EMA, Period: p.MA2},
			indicator.MovingAverage{Name: "ma3", Type: indicator.EMA, Period: p.MA3},
			indicator.ATR{Name: "atr", Period: p.ATRPeriod},
		},
		Buy: Rule{Condition: All(
			AboveBand(Line("ma1"), Line("ma2"), Line("atr"), p.ATR),
			Above(price, Line("ma3")),
		)},
		Sell: Rule{Condition: All(
			BelowBand(Line("ma1"), Line("ma2"), Line("atr"), p.ATR),
			Below(price, Line("ma3")),
		)},
	}, nil
}

// DISqueezeParams enters on a strong +DI while Bollinger bands sit outside the Keltner channel.
type DISqueezeParams struct {
	BuyPlus    float64
	DIPeriod   int
	BandPeriod int
	DevFactor  float64
	KeltMult   float64
}

func buildDISqueeze(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := DISqueezeParams{
		BuyPlus:    r.nonNegative("buy_plus", 25),
		DIPeriod:   r.period("di_period", 14),
		BandPeriod: r.period("band_period", 20),
		DevFactor:  r.nonNegative("devfactor", 2),
		KeltMult:   r.nonNegative("kelch_mult", 1.5),
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.Directional{Name: "di", Period: p.DIPeriod},
			indicator.Bollinger{Name: "bb", Period: p.BandPeriod, Dev: p.DevFactor},
			indicator.Keltner{Name: "kc", Period: p.BandPeriod, Mult: p.KeltMult},
		},
		Buy: Rule{Condition: All(
			Above(Line("di.plus"), Line("di.minus")),
			Above(Line("di.plus"), Const(p.BuyPlus)),
			Above(Line("bb.top"), Line("kc.top")),
			Below(Line("bb.bot"), Line("kc.bot")),
		)},
		Sell: Rule{Condition: All(Below(Line("di.plus"), Line("di.minus")))},
	}, nil
}

// buildHold buys on the first bar and never sells.
func buildHold(param.Combination) (Strategy, error) {
	return Strategy{
		Buy:  Rule{Condition: All()},
		Sell: Rule{Condition: Never},
	}, nil
}
