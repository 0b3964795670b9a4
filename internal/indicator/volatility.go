package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// ATR is the average true range.
type ATR struct {
	Name   string
	Period int
}

func (a ATR) Lines() []string { return []string{a.Name} }
func (a ATR) Warmup() int     { return a.Period }

func (a ATR) Compute(f *Frame) [][]float64 {
	if f.Len() <= a.Warmup() {
		return undefinedLines(1, f.Len())
	}
	return [][]float64{talib.Atr(f.High, f.Low, f.Close, a.Period)}
}

// Directional exposes +DI and -DI as <name>.plus and <name>.minus.
type Directional struct {
	Name   string
	Period int
}

func (d Directional) Lines() []string { return []string{d.Name + ".plus", d.Name + ".minus"} }
func (d Directional) Warmup() int     { return d.Period }

func (d Directional) Compute(f *Frame) [][]float64 {
	if f.Len() <= d.Warmup() {
		return undefinedLines(2, f.Len())
	}
	return [][]float64{
		talib.PlusDI(f.High, f.Low, f.Close, d.Period),
		talib.MinusDI(f.High, f.Low, f.Close, d.Period),
	}
}

// ADX is the average directional movement index.
type ADX struct {
	Name   string
	Period int
}

func (a ADX) Lines() []string { return []string{a.Name} }
func (a ADX) Warmup() int     { return 2*a.Period - 1 }

func (a ADX) Compute(f *Frame) [][]float64 {
	if f.Len() <= a.Warmup() {
		return undefinedLines(1, f.Len())
	}
	return [][]float64{talib.Adx(f.High, f.Low, f.Close, a.Period)}
}

// SAR is the parabolic stop and reverse.
type SAR struct {
	Name  string
	Accel float64
	Max   float64
}

func (s SAR) Lines() []string { return []string{s.Name} }
func (s SAR) Warmup() int     { return 1 }

func (s SAR) Compute(f *Frame) [][]float64 {
	if f.Len() <= s.Warmup() {
		return undefinedLines(1, f.Len())
	}
	return [][]float64{talib.Sar(f.High, f.Low, s.Accel, s.Max)}
}

// Bollinger bands around a simple average of the close.
type Bollinger struct {
	Name   string
	Period int
	Dev    float64
}

func (b Bollinger) Lines() []string {
	return []string{b.Name + ".top", b.Name + ".mid", b.Name + ".bot"}
}

func (b Bollinger) Warmup() int { return b.Period - 1 }

func (b Bollinger) Compute(f *Frame) [][]float64 {
	if f.Len() <= b.Warmup() {
		return undefinedLines(3, f.Len())
	}
	top, mid, bot := talib.BBands(f.Close, b.Period, b.Dev, b.Dev, talib.SMA)
	return [][]float64{top, mid, bot}
}

// Keltner channel: SMA of the close plus or minus Mult times the SMA of the true range.
type Keltner struct {
	Name   string
	Period int
	Mult   float64
}

func (k Keltner) Lines() []string {
	return []string{k.Name + ".top", k.Name + ".mid", k.Name + ".bot"}
}

func (k Keltner) Warmup() int { return k.Period }

func (k Keltner) Compute(f *Frame) [][]float64 {
	n := f.Len()
	if n <= k.Warmup() {
		return undefinedLines(3, n)
	}
	mid := talib.Sma(f.Close, k.Period)
	// the first true range has no previous close
	tr := talib.TRange(f.High, f.Low, f.Close)
	rng := talib.Sma(tr[1:], k.Period)

	top, center, bot := undefinedLine(n), undefinedLine(n), undefinedLine(n)
	for i := k.Period; i < n; i++ {
		width := rng[i-1] * k.Mult
		center[i] = mid[i]
		top[i] = mid[i] + width
		bot[i] = mid[i] - width
	}
	return [][]float64{top, center, bot}
}

// WilliamsVixFix is the synthetic VIX of the close: how far the low sits below the highest close
// of the last Pd bars, in percent. <name>.top and <name>.bot are Mult sample deviations around its
// Bbl-bar mean; <name>.high and <name>.low are its Lb-bar extremes scaled by Ph and Pl.
type WilliamsVixFix struct {
	Name string
	Pd   int
	Bbl  int
	Mult float64
	Lb   int
	Ph   float64
	Pl   float64
}

func (v WilliamsVixFix) Lines() []string {
	return []string{v.Name, v.Name + ".top", v.Name + ".bot", v.Name + ".high", v.Name + ".low"}
}

func (v WilliamsVixFix) Warmup() int { return v.Pd - 1 + max(v.Bbl, v.Lb) - 1 }

func (v WilliamsVixFix) Compute(f *Frame) [][]float64 {
	n := f.Len()
	if n <= v.Warmup() || v.Bbl < 2 {
		return undefinedLines(5, n)
	}
	start := v.Pd - 1
	highest := talib.Max(f.Close, v.Pd)
	raw := make([]float64, n-start)
	for j := range raw {
		i := j + start
		if highest[i] > 0 {
			raw[j] = (highest[i] - f.Low[i]) / highest[i] * 100
		}
	}
	mid := talib.Sma(raw, v.Bbl)
	// talib's deviation is the population one
	dev := talib.StdDev(raw, v.Bbl, v.Mult*math.Sqrt(float64(v.Bbl)/float64(v.Bbl-1)))
	hi, lo := talib.Max(raw, v.Lb), talib.Min(raw, v.Lb)

	wvf, top, bot, rangeHigh, rangeLow := undefinedLine(n), undefinedLine(n), undefinedLine(n), undefinedLine(n), undefinedLine(n)
	for j, x := range raw {
		i := j + start
		wvf[i] = x
		if j >= v.Bbl-1 {
			top[i] = mid[j] + dev[j]
			bot[i] = mid[j] - dev[j]
		}
		if j >= v.Lb-1 {
			rangeHigh[i] = hi[j] * v.Ph
			rangeLow[i] = lo[j] * v.Pl
		}
	}
	return [][]float64{wvf, top, bot, rangeHigh, rangeLow}
}
