package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RSI is Wilder's relative strength index of the close.
type RSI struct {
	Name   string
	Period int
}

func (r RSI) Lines() []string { return []string{r.Name} }
func (r RSI) Warmup() int     { return r.Period }

func (r RSI) Compute(f *Frame) [][]float64 {
	if f.Len() <= r.Warmup() {
		return undefinedLines(1, f.Len())
	}
	return [][]float64{talib.Rsi(f.Close, r.Period)}
}

// MACD exposes the macd line, its signal line and the histogram.
type MACD struct {
	Name   string
	Fast   int
	Slow   int
	Signal int
}

func (m MACD) Lines() []string {
	return []string{m.Name, m.Name + ".signal", m.Name + ".hist"}
}

func (m MACD) Warmup() int { return m.Slow - 1 + m.Signal - 1 }

func (m MACD) Compute(f *Frame) [][]float64 {
	if f.Len() <= m.Warmup() {
		return undefinedLines(3, f.Len())
	}
	macd, sig, hist := talib.Macd(f.Close, m.Fast, m.Slow, m.Signal)
	return [][]float64{macd, sig, hist}
}

// Trix is the one-bar rate of change of a triple EMA, optionally with an EMA signal line.
type Trix struct {
	Name   string
	Period int
	Signal int
}

func (t Trix) Lines() []string {
	if t.Signal > 0 {
		return []string{t.Name, t.Name + ".signal"}
	}
	return []string{t.Name}
}

func (t Trix) base() int { return 3*(t.Period-1) + 1 }

func (t Trix) Warmup() int {
	if t.Signal > 0 {
		return t.base() + t.Signal - 1
	}
	return t.base()
}

func (t Trix) Compute(f *Frame) [][]float64 {
	n := f.Len()
	if n <= t.Warmup() {
		return undefinedLines(len(t.Lines()), n)
	}
	trix := talib.Trix(f.Close, t.Period)
	if t.Signal <= 0 {
		return [][]float64{trix}
	}
	sig := undefinedLine(n)
	e := talib.Ema(trix[t.base():], t.Signal)
	for i := t.Signal - 1; i < len(e); i++ {
		sig[i+t.base()] = e[i]
	}
	return [][]float64{trix, sig}
}

// Momentum is close minus the close Period bars ago.
type Momentum struct {
	Name   string
	Period int
}

func (m Momentum) Lines() []string { return []string{m.Name} }
func (m Momentum) Warmup() int     { return m.Period }

func (m Momentum) Compute(f *Frame) [][]float64 {
	if f.Len() <= m.Warmup() {
		return undefinedLines(1, f.Len())
	}
	return [][]float64{talib.Mom(f.Close, m.Period)}
}

// Stochastic is the slow stochastic: %K smoothed by SlowK and its SlowD average.
type Stochastic struct {
	Name  string
	FastK int
	SlowK int
	SlowD int
}

func (s Stochastic) Lines() []string { return []string{s.Name, s.Name + ".d"} }
func (s Stochastic) Warmup() int     { return s.FastK - 1 + s.SlowK - 1 + s.SlowD - 1 }

func (s Stochastic) Compute(f *Frame) [][]float64 {
	if f.Len() <= s.Warmup() {
		return undefinedLines(2, f.Len())
	}
	k, d := talib.Stoch(f.High, f.Low, f.Close, s.FastK, s.SlowK, talib.SMA, s.SlowD, talib.SMA)
	return [][]float64{k, d}
}

// Awesome is SMA(median, Fast) - SMA(median, Slow) of the bar median price.
type Awesome struct {
	Name string
	Fast int
	Slow int
}

func (a Awesome) Lines() []string { return []string{a.Name} }
func (a Awesome) Warmup() int     { return max(a.Fast, a.Slow) - 1 }

func (a Awesome) Compute(f *Frame) [][]float64 {
	n := f.Len()
	if n <= a.Warmup() {
		return undefinedLines(1, n)
	}
	med := talib.MedPrice(f.High, f.Low)
	fast, slow := talib.Sma(med, a.Fast), talib.Sma(med, a.Slow)
	out := undefinedLine(n)
	for i := a.Warmup(); i < n; i++ {
		out[i] = fast[i] - slow[i]
	}
	return [][]float64{out}
}

// WaveTrend is the LazyBear channel index: an N2-bar EMA of the typical price's distance from
// its N1-bar EMA, normalised by the EMA of that distance.
type WaveTrend struct {
	Name string
	N1   int
	N2   int
}

func (w WaveTrend) Lines() []string { return []string{w.Name} }
func (w WaveTrend) Warmup() int     { return 2*(w.N1-1) + w.N2 - 1 }

func (w WaveTrend) Compute(f *Frame) [][]float64 {
	n := f.Len()
	if n <= w.Warmup() {
		return undefinedLines(1, n)
	}
	ap := talib.TypPrice(f.High, f.Low, f.Close)
	esa := talib.Ema(ap, w.N1)
	lead := w.N1 - 1

	dist := make([]float64, n-lead)
	for j := range dist {
		dist[j] = math.Abs(ap[j+lead] - esa[j+lead])
	}
	d := talib.Ema(dist, w.N1)

	ci := make([]float64, len(dist)-lead)
	for k := range ci {
		i := k + 2*lead
		// a flat market has no channel
		if d[k+lead] != 0 {
			ci[k] = (ap[i] - esa[i]) / (0.015 * d[k+lead])
		}
	}
	tci := talib.Ema(ci, w.N2)

	out := undefinedLine(n)
	for k := w.N2 - 1; k < len(ci); k++ {
		out[k+2*lead] = tci[k]
	}
	return [][]float64{out}
}
