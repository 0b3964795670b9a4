package strategy

import (
	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
)

// Percent ranks over period values move on a grid of 100/period. Limits are inclusive, so they
// are compared strictly against a bound half a grid step beyond the limit.
func rankStep(period int) float64 { return 100 / float64(period) }

// atMost is a strict upper bound for "rank <= limit".
func atMost(limit float64, period int) Ref { return Const(limit + rankStep(period)/2) }

// atLeast is a strict lower bound for "rank >= limit".
func atLeast(limit float64, period int) Ref { return Const(limit - rankStep(period)/2) }

func buildLaguerrePPO(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	short, long := r.fraction("short_gamma", 0.4), r.fraction("long_gamma", 0.8)
	pctile := r.nonNegative("pctile", 90)
	top, bottom := r.period("lookback_top", 200), r.period("lookback_bottom", 200)
	if r.err != nil {
		return Strategy{}, r.err
	}
	return Strategy{
		Indicators: []indicator.Adapter{indicator.LaguerrePPO{
			Name: "lag", ShortGamma: short, LongGamma: long, LookTop: top, LookBottom: bottom,
		}},
		Buy:  Rule{Condition: All(Below(Line("lag.bottom"), atMost(-pctile, bottom)))},
		Sell: Rule{Condition: All(Above(Line("lag.top"), atLeast(pctile, top)))},
	}, nil
}

// LaguerreWilliamsParams combines a Laguerre PPO rank, the Williams VixFix and an RSI rank.
type LaguerreWilliamsParams struct {
	ShortGamma float64
	LongGamma  float64
	Pctile     float64
	WrnPctile  float64
	LookTop    int
	LookBottom int
	VixFix     indicator.WilliamsVixFix
	RSIPeriod  int
	Rank       RankParams
}

// buildLaguerreWilliams arms a buy on a volatility spike while both ranks are washed out and
// fires once both ranks recover. The sell side arms on stretched ranks and fires on the pullback.
func buildLaguerreWilliams(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := LaguerreWilliamsParams{
		ShortGamma: r.fraction("short_gamma", 0.4),
		LongGamma:  r.fraction("long_gamma", 0.8),
		Pctile:     r.nonNegative("pctile", 90),
		WrnPctile:  r.nonNegative("wrnpctile", 70),
		LookTop:    r.period("lookback_top", 200),
		LookBottom: r.period("lookback_bottom", 200),
		VixFix:     readVixFix(r),
		RSIPeriod:  r.period("rsi_period", 14),
		Rank: RankParams{
			Period:     r.period("percent_period", 200),
			BuyLimit1:  r.float("buy_limit1", 5),
			BuyLimit2:  r.float("buy_limit2", 20),
			SellLimit1: r.float("sell_limit1", 95),
			SellLimit2: r.float("sell_limit2", 80),
		},
	}
	if r.err == nil && p.WrnPctile > p.Pctile {
		r.fail(invalid("wrnpctile (%g) must not exceed pctile (%g)", p.WrnPctile, p.Pctile))
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	if err := p.Rank.validate(); err != nil {
		return Strategy{}, err
	}

	top, bottom, prank := Line("lag.top"), Line("lag.bottom"), Line("prank")
	rank := p.Rank
	spike := Any(Above(Line("wvf"), Line("wvf.top")), Above(Line("wvf"), Line("wvf.high")))
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.LaguerrePPO{
				Name: "lag", ShortGamma: p.ShortGamma, LongGamma: p.LongGamma, LookTop: p.LookTop, LookBottom: p.LookBottom,
			},
			p.VixFix,
			indicator.PercentRank{Name: "prank", Source: indicator.RSI{Name: "rsi", Period: p.RSIPeriod}, Period: rank.Period},
		},
		Buy: Rule{
			Trigger: And(spike, All(
				Below(bottom, atMost(-p.Pctile, p.LookBottom)),
				Below(prank, atMost(rank.BuyLimit1, rank.Period)),
			)),
			Condition: All(
				Above(bottom, atLeast(-p.WrnPctile, p.LookBottom)),
				Above(prank, atLeast(rank.BuyLimit2, rank.Period)),
			),
		},
		Sell: Rule{
			Trigger: All(
				Above(top, atLeast(p.Pctile, p.LookTop)),
				Above(prank, atLeast(rank.SellLimit1, rank.Period)),
			),
			Condition: All(
				Below(top, atMost(p.WrnPctile, p.LookTop)),
				Below(prank, atMost(rank.SellLimit2, rank.Period)),
			),
		},
	}, nil
}

// RankParams are the inclusive trigger and confirmation limits of a percent-rank latch.
type RankParams struct {
	Period     int
	BuyLimit1  float64
	BuyLimit2  float64
	SellLimit1 float64
	SellLimit2 float64
}

func (p RankParams) validate() error {
	if p.BuyLimit1 > p.BuyLimit2 {
		return invalid("buy_limit1 (%g) must not exceed buy_limit2 (%g)", p.BuyLimit1, p.BuyLimit2)
	}
	if p.SellLimit1 < p.SellLimit2 {
		return invalid("sell_limit1 (%g) must not be below sell_limit2 (%g)", p.SellLimit1, p.SellLimit2)
	}
	return nil
}

// latch arms when the rank drops to limit1 and fires once it recovers to limit2;
// the sell side mirrors it.
func latch(rank string, p RankParams) (buy, sell Rule) {
	buy = Rule{
		Trigger:   All(Below(Line(rank), atMost(p.BuyLimit1, p.Period))),
		Condition: All(Above(Line(rank), atLeast(p.BuyLimit2, p.Period))),
	}
	sell = Rule{
		Trigger:   All(Above(Line(rank), atLeast(p.SellLimit1, p.Period))),
		Condition: All(Below(Line(rank), atMost(p.SellLimit2, p.Period))),
	}
	return buy, sell
}

func buildPercentRSI(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	rsiPeriod := r.period("rsi_period", 14)
	p := RankParams{
		Period:     r.period("percent_period", 100),
		BuyLimit1:  r.float("buy_limit1", 1),
		BuyLimit2:  r.float("buy_limit2", 20),
		SellLimit1: r.float("sell_limit1", 99),
		SellLimit2: r.float("sell_limit2", 80),
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	if err := p.validate(); err != nil {
		return Strategy{}, err
	}
	buy, sell := latch("prank", p)
	return Strategy{
		Indicators: []indicator.Adapter{indicator.PercentRank{
			Name: "prank", Source: indicator.RSI{Name: "rsi", Period: rsiPeriod}, Period: p.Period,
		}},
		Buy:  buy,
		Sell: sell,
	}, nil
}

// PercentMACDRSIParams ranks both RSI and the MACD line; limits are mirrored for the sell side.
type PercentMACDRSIParams struct {
	RSIPeriod  int
	Period     int
	RSILimit   float64
	RSILimit2  float64
	MACDLimit  float64
	MACDLimit2 float64
	Fast       int
	Slow       int
}

func buildPercentMACDRSI(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	p := PercentMACDRSIParams{
		RSIPeriod:  r.period("rsi_period", 14),
		Period:     r.period("percent_period", 200),
		RSILimit:   r.float("rsi_limit", 10),
		RSILimit2:  r.float("rsi_limit2", 30),
		MACDLimit:  r.float("macd_limit", 10),
		MACDLimit2: r.float("macd_limit2", 30),
		Fast:       r.period("period1", 12),
		Slow:       r.period("period2", 26),
	}
	if r.err == nil && p.Fast >= p.Slow {
		r.fail(invalid("period1 (%d) must be below period2 (%d)", p.Fast, p.Slow))
	}
	if r.err == nil && (p.RSILimit > p.RSILimit2 || p.MACDLimit > p.MACDLimit2) {
		r.fail(invalid("trigger limits must not exceed confirmation limits"))
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	rsi, macd, n := Line("prank.rsi"), Line("prank.macd"), p.Period
	return Strategy{
		Indicators: []indicator.Adapter{
			indicator.PercentRank{Name: "prank.rsi", Source: indicator.RSI{Name: "rsi", Period: p.RSIPeriod}, Period: n},
			indicator.PercentRank{Name: "prank.macd", Source: indicator.MACD{Name: "macd", Fast: p.Fast, Slow: p.Slow, Signal: 9}, Period: n},
		},
		Buy: Rule{
			Trigger:   All(Below(rsi, atMost(p.RSILimit, n)), Below(macd, atMost(p.MACDLimit, n))),
			Condition: All(Above(rsi, atLeast(p.RSILimit2, n)), Above(macd, atLeast(p.MACDLimit2, n))),
		},
		Sell: Rule{
			Trigger:   All(Above(rsi, atLeast(100-p.RSILimit, n)), Above(macd, atLeast(100-p.MACDLimit, n))),
			Condition: All(Below(rsi, atMost(100-p.RSILimit2, n)), Below(macd, atMost(100-p.MACDLimit2, n))),
		},
	}, nil
}

func buildPercentMA(c param.Combination) (Strategy, error) {
	r := &reader{c: c}
	period := r.period("percent_period", 200)
	limit, limit2 := r.float("macd_limit", 10), r.float("macd_limit2", 30)
	fast, slow := r.period("period1", 12), r.period("period2", 26)
	typ := r.maType("movav", indicator.EMA)
	if r.err == nil && fast >= slow {
		r.fail(invalid("period1 (%d) must be below period2 (%d)", fast, slow))
	}
	if r.err != nil {
		return Strategy{}, r.err
	}
	p := RankParams{Period: period, BuyLimit1: limit, BuyLimit2: limit2, SellLimit1: 100 - limit, SellLimit2: 100 - limit2}
	if err := p.validate(); err != nil {
		return Strategy{}, err
	}
	spread := indicator.Difference{
		Name: "diff",
		A:    indicator.MovingAverage{Name: "ma1", Type: typ, Period: fast},
		B:    indicator.MovingAverage{Name: "ma2", Type: typ, Period: slow},
	}
	buy, sell := latch("prank", p)
	return Strategy{
		Indicators: []indicator.Adapter{indicator.PercentRank{Name: "prank", Source: spread, Period: period}},
		Buy:        buy,
		Sell:       sell,
	}, nil
}
