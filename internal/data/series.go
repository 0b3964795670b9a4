// Package data loads and validates the bar series a backtest runs over.
package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

var (
	ErrEmptySeries  = errors.New("empty series")
	ErrNonMonotonic = errors.New("timestamps not strictly increasing")
	// ErrBadPrice aliases the bar-level error so callers only need this package.
	ErrBadPrice = signal.ErrBadPrice
)

// Series is the ordered bar history of one instrument.
type Series struct {
	Symbol string
	Bars   []signal.Bar
}

// Len is the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Validate reports problems that make the series unusable for a run.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("%s: %w", s.Symbol, ErrEmptySeries)
	}
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s bar %d: %w", s.Symbol, i, err)
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("%s bar %d at %s: %w", s.Symbol, i, b.Time.Format(time.RFC3339), ErrNonMonotonic)
		}
	}
	return nil
}

// Defects flags bars whose signals cannot be trusted: malformed bars and bars that follow a
// gap longer than interval. A zero interval disables gap detection.
func (s Series) Defects(interval time.Duration) []bool {
	out := make([]bool, len(s.Bars))
	for i, b := range s.Bars {
		if !b.WellFormed() {
			out[i] = true
			continue
		}
		if interval > 0 && i > 0 && b.Time.Sub(s.Bars[i-1].Time) > interval {
			out[i] = true
		}
	}
	return out
}

// Last returns the final bar. The series must not be empty.
func (s Series) Last() signal.Bar { return s.Bars[len(s.Bars)-1] }
