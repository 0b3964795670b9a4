// Package signal standardizes payloads shared between data loading, indicators, and the decision engine.
package signal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrBadPrice marks a bar that cannot be traded on at all.
var ErrBadPrice = errors.New("bad price")

// Bar models one O-H-L-C-V sample of an instrument at a fixed resolution.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate reports NaN, infinite, or negative prices, which abort a run.
func (b Bar) Validate() error {
	for _, field := range []struct {
		name string
		v    float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
		{"volume", b.Volume},
	} {
		if math.IsNaN(field.v) || math.IsInf(field.v, 0) {
			return fmt.Errorf("%w: %s is not finite at %s", ErrBadPrice, field.name, b.Time.Format(time.RFC3339))
		}
		if field.v < 0 {
			return fmt.Errorf("%w: %s=%.8f is negative at %s", ErrBadPrice, field.name, field.v, b.Time.Format(time.RFC3339))
		}
	}
	return nil
}

// WellFormed is false for bars that are tradeable in principle but whose values cannot be trusted,
// e.g. null fields loaded as zero or a high below the low.
func (b Bar) WellFormed() bool {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return false
	}
	return b.High >= b.Low
}

// Column names always present in a Schema.
const (
	Open   = "open"
	High   = "high"
	Low    = "low"
	Close  = "close"
	Volume = "volume"
)

// Schema maps signal names to column positions inside a row.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a schema with the OHLCV columns followed by the supplied names.
func NewSchema(names ...string) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(names)+5)}
	for _, name := range append([]string{Open, High, Low, Close, Volume}, names...) {
		if name == "" {
			return nil, errors.New("empty signal name")
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("duplicate signal name %q", name)
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
	}
	return s, nil
}

// Index returns the column for name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len is the row width.
func (s *Schema) Len() int { return len(s.names) }

// Table holds one row of signal values per bar. NaN means undefined.
type Table struct {
	Schema *Schema
	Rows   [][]float64
}

// Undefined reports whether v carries no usable value.
func Undefined(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
