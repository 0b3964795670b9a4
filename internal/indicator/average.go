package indicator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/markcheno/go-talib"
)

// ErrUnknownMAType is returned for a moving-average selector that is not supported.
var ErrUnknownMAType = errors.New("unknown moving average type")

// MAType selects a moving-average flavour.
type MAType string

const (
	SMA   MAType = "sma"
	EMA   MAType = "ema"
	WMA   MAType = "wma"
	DEMA  MAType = "dema"
	TEMA  MAType = "tema"
	TRIMA MAType = "trima"
	KAMA  MAType = "kama"
	SMMA  MAType = "smma"
	HMA   MAType = "hma"
	ZLEMA MAType = "zlema"
	VWMA  MAType = "vwma"
)

// ParseMAType maps a label such as "SMMA" to its MAType.
func ParseMAType(s string) (MAType, error) {
	t := MAType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case SMA, EMA, WMA, DEMA, TEMA, TRIMA, KAMA, SMMA, HMA, ZLEMA, VWMA:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMAType, s)
}

// Warmup returns the number of leading bars without a defined value for period p.
func (t MAType) Warmup(p int) int {
	switch t {
	case DEMA:
		return 2 * (p - 1)
	case TEMA:
		return 3 * (p - 1)
	case KAMA:
		return p
	case HMA:
		return p - 1 + hullRoot(p) - 1
	case ZLEMA:
		return p - 1 + (p-1)/2
	default:
		return p - 1
	}
}

// MovingAverage is a single-line average of the close.
type MovingAverage struct {
	Name   string
	Type   MAType
	Period int
}

func (m MovingAverage) Lines() []string { return []string{m.Name} }
func (m MovingAverage) Warmup() int     { return m.Type.Warmup(m.Period) }

func (m MovingAverage) Compute(f *Frame) [][]float64 {
	return [][]float64{average(m.Type, f.Close, f.Volume, m.Period)}
}

// average dispatches to talib where it has the flavour and to the local versions otherwise.
func average(t MAType, in, vol []float64, p int) []float64 {
	n := len(in)
	if p < 1 || n <= t.Warmup(p) {
		return undefinedLine(n)
	}
	switch t {
	case SMA:
		return talib.Sma(in, p)
	case EMA:
		return talib.Ema(in, p)
	case WMA:
		return wma(in, p)
	case DEMA:
		return talib.Dema(in, p)
	case TEMA:
		return talib.Tema(in, p)
	case TRIMA:
		return talib.Trima(in, p)
	case KAMA:
		return talib.Kama(in, p)
	case SMMA:
		return smoothed(in, p)
	case HMA:
		return hull(in, p)
	case ZLEMA:
		return zeroLag(in, p)
	case VWMA:
		return volumeWeighted(in, vol, p)
	}
	return undefinedLine(n)
}

func wma(in []float64, p int) []float64 {
	if p == 1 {
		out := make([]float64, len(in))
		copy(out, in)
		return out
	}
	return talib.Wma(in, p)
}

// smoothed is Wilder's moving average seeded with a simple average.
func smoothed(in []float64, p int) []float64 {
	out := undefinedLine(len(in))
	sum := 0.0
	for i := 0; i < p; i++ {
		sum += in[i]
	}
	out[p-1] = sum / float64(p)
	for i := p; i < len(in); i++ {
		out[i] = (out[i-1]*float64(p-1) + in[i]) / float64(p)
	}
	return out
}

func hullRoot(p int) int {
	r := int(math.Sqrt(float64(p)))
	if r < 1 {
		return 1
	}
	return r
}

// hull is WMA(2*WMA(p/2) - WMA(p), sqrt(p)).
func hull(in []float64, p int) []float64 {
	n := len(in)
	out := undefinedLine(n)
	half := p / 2
	if half < 1 {
		half = 1
	}
	fast, slow := wma(in, half), wma(in, p)
	diff := make([]float64, n-(p-1))
	for i := p - 1; i < n; i++ {
		diff[i-(p-1)] = 2*fast[i] - slow[i]
	}
	root := hullRoot(p)
	h := wma(diff, root)
	for i := root - 1; i < len(diff); i++ {
		out[i+p-1] = h[i]
	}
	return out
}

// zeroLag applies an EMA to 2*x - x[lag] with lag = (p-1)/2.
func zeroLag(in []float64, p int) []float64 {
	n := len(in)
	out := undefinedLine(n)
	lag := (p - 1) / 2
	adj := make([]float64, n-lag)
	for i := lag; i < n; i++ {
		adj[i-lag] = 2*in[i] - in[i-lag]
	}
	e := talib.Ema(adj, p)
	for i := p - 1; i < len(adj); i++ {
		out[i+lag] = e[i]
	}
	return out
}

func volumeWeighted(in, vol []float64, p int) []float64 {
	n := len(in)
	weighted := make([]float64, n)
	for i := range in {
		weighted[i] = in[i] * vol[i]
	}
	num, den := talib.Sma(weighted, p), talib.Sma(vol, p)
	out := undefinedLine(n)
	for i := p - 1; i < n; i++ {
		if den[i] != 0 {
			out[i] = num[i] / den[i]
		}
	}
	return out
}
