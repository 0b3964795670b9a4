package indicator

// laguerre is the four-stage Laguerre filter state.
type laguerre struct {
	gamma          float64
	l0, l1, l2, l3 float64
}

func (l *laguerre) next(x float64) {
	g := l.gamma
	p0, p1, p2 := l.l0, l.l1, l.l2
	l.l0 = (1-g)*x + g*p0
	l.l1 = -g*l.l0 + p0 + g*p1
	l.l2 = -g*l.l1 + p1 + g*p2
	l.l3 = -g*l.l2 + p2 + g*l.l3
}

func (l *laguerre) average() float64 {
	return (l.l0 + 2*l.l1 + 2*l.l2 + l.l3) / 6
}

func (l *laguerre) rsi() float64 {
	var up, down float64
	for _, pair := range [3][2]float64{{l.l0, l.l1}, {l.l1, l.l2}, {l.l2, l.l3}} {
		if pair[0] >= pair[1] {
			up += pair[0] - pair[1]
		} else {
			down += pair[1] - pair[0]
		}
	}
	if up+down == 0 {
		return 1
	}
	return up / (up + down)
}

// LaguerreRSI is Ehlers' Laguerre RSI of the close in [0, 1].
type LaguerreRSI struct {
	Name   string
	Period int
	Gamma  float64
}

func (r LaguerreRSI) Lines() []string { return []string{r.Name} }
func (r LaguerreRSI) Warmup() int     { return max(r.Period-1, 0) }

func (r LaguerreRSI) Compute(f *Frame) [][]float64 {
	out := undefinedLine(f.Len())
	filter := laguerre{gamma: r.Gamma}
	for i, c := range f.Close {
		filter.next(c)
		out[i] = filter.rsi()
	}
	return [][]float64{out}
}

// LaguerrePPO compares a fast and a slow Laguerre average of the median price and ranks the
// percentage spread over a lookback. <name>.top ranks the spread in [0, 100]; <name>.bottom
// ranks the inverted spread in [-100, 0].
type LaguerrePPO struct {
	Name       string
	ShortGamma float64
	LongGamma  float64
	LookTop    int
	LookBottom int
}

func (p LaguerrePPO) Lines() []string { return []string{p.Name + ".top", p.Name + ".bottom"} }
func (p LaguerrePPO) Warmup() int     { return max(p.LookTop, p.LookBottom) - 1 }

func (p LaguerrePPO) Compute(f *Frame) [][]float64 {
	n := f.Len()
	short, long := laguerre{gamma: p.ShortGamma}, laguerre{gamma: p.LongGamma}
	top, bottom := make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		med := (f.High[i] + f.Low[i]) / 2
		short.next(med)
		long.next(med)
		s, l := short.average(), long.average()
		top[i] = (s - l) / l * 100
		bottom[i] = (l - s) / l * 100
	}
	return [][]float64{rankAtLeast(top, p.LookTop, 100), rankAtLeast(bottom, p.LookBottom, -100)}
}

// rankAtLeast is the share of the last period values (current included) that the current value
// is greater than or equal to, scaled by scale.
func rankAtLeast(in []float64, period int, scale float64) []float64 {
	out := undefinedLine(len(in))
	if period < 1 {
		return out
	}
	for i := period - 1; i < len(in); i++ {
		count := 0
		for _, v := range in[i-period+1 : i+1] {
			if in[i] >= v {
				count++
			}
		}
		out[i] = float64(count) / float64(period) * scale
	}
	return out
}

// PercentRank is the percentage of the last Period values of the source's first line
// that are strictly below the current one.
type PercentRank struct {
	Name   string
	Source Adapter
	Period int
}

func (r PercentRank) Lines() []string { return []string{r.Name} }
func (r PercentRank) Warmup() int     { return r.Source.Warmup() + r.Period - 1 }

func (r PercentRank) Compute(f *Frame) [][]float64 {
	n := f.Len()
	out := undefinedLine(n)
	if r.Period < 1 || n <= r.Warmup() {
		return [][]float64{out}
	}
	src := r.Source.Compute(f)[0]
	for i := r.Warmup(); i < n; i++ {
		count := 0
		for _, v := range src[i-r.Period+1 : i+1] {
			if v < src[i] {
				count++
			}
		}
		out[i] = float64(count) / float64(r.Period) * 100
	}
	return [][]float64{out}
}

// Difference is the first line of A minus the first line of B.
type Difference struct {
	Name string
	A    Adapter
	B    Adapter
}

func (d Difference) Lines() []string { return []string{d.Name} }
func (d Difference) Warmup() int     { return max(d.A.Warmup(), d.B.Warmup()) }

func (d Difference) Compute(f *Frame) [][]float64 {
	a, b := d.A.Compute(f)[0], d.B.Compute(f)[0]
	out := undefinedLine(f.Len())
	for i := d.Warmup(); i < f.Len(); i++ {
		out[i] = a[i] - b[i]
	}
	return [][]float64{out}
}
