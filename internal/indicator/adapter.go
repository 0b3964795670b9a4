// Package indicator wraps technical-analysis math behind a small capability interface and
// turns a bar series into a table of signal rows.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

// ErrShapeMismatch is returned when an adapter produces the wrong number or length of lines.
var ErrShapeMismatch = errors.New("indicator output shape mismatch")

// Adapter computes one or more named lines from a price series. Value i may only depend on
// bars 0..i. Values before Warmup() are ignored by Build.
type Adapter interface {
	Lines() []string
	Warmup() int
	Compute(f *Frame) [][]float64
}

// Frame holds the O-H-L-C-V columns of a series.
type Frame struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewFrame extracts columns from bars.
func NewFrame(bars []signal.Bar) *Frame {
	n := len(bars)
	f := &Frame{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range bars {
		f.Open[i] = b.Open
		f.High[i] = b.High
		f.Low[i] = b.Low
		f.Close[i] = b.Close
		f.Volume[i] = b.Volume
	}
	return f
}

// Len is the number of bars.
func (f *Frame) Len() int { return len(f.Close) }

// Build evaluates every adapter over bars and assembles a signal table. Values inside an
// adapter's warm-up, non-finite values, and values whose lookback covers a defective bar
// are undefined. defects may be nil.
func Build(bars []signal.Bar, adapters []Adapter, defects []bool) (*signal.Table, error) {
	var names []string
	for _, a := range adapters {
		names = append(names, a.Lines()...)
	}
	schema, err := signal.NewSchema(names...)
	if err != nil {
		return nil, fmt.Errorf("indicator schema: %w", err)
	}
	if defects != nil && len(defects) != len(bars) {
		return nil, fmt.Errorf("%w: %d defect flags for %d bars", ErrShapeMismatch, len(defects), len(bars))
	}

	n, width := len(bars), schema.Len()
	backing := make([]float64, n*width)
	rows := make([][]float64, n)
	for i, b := range bars {
		row := backing[i*width : (i+1)*width]
		row[0], row[1], row[2], row[3], row[4] = b.Open, b.High, b.Low, b.Close, b.Volume
		rows[i] = row
	}

	frame := NewFrame(bars)
	col := 5
	for _, a := range adapters {
		lines := a.Compute(frame)
		if len(lines) != len(a.Lines()) {
			return nil, fmt.Errorf("%w: %v returned %d lines", ErrShapeMismatch, a.Lines(), len(lines))
		}
		warm := a.Warmup()
		for j, line := range lines {
			if len(line) != n {
				return nil, fmt.Errorf("%w: line %s has %d values for %d bars", ErrShapeMismatch, a.Lines()[j], len(line), n)
			}
			lastDefect := -1
			for i, v := range line {
				if defects != nil && defects[i] {
					lastDefect = i
				}
				tainted := lastDefect >= 0 && i-lastDefect <= warm
				if i < warm || tainted || signal.Undefined(v) {
					v = math.NaN()
				}
				rows[i][col+j] = v
			}
		}
		col += len(lines)
	}

	for i := range rows {
		if defects != nil && defects[i] {
			for c := range rows[i] {
				rows[i][c] = math.NaN()
			}
		}
	}
	return &signal.Table{Schema: schema, Rows: rows}, nil
}

func undefinedLine(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func undefinedLines(k, n int) [][]float64 {
	out := make([][]float64, k)
	for i := range out {
		out[i] = undefinedLine(n)
	}
	return out
}
