// Package strategy turns signal rows into trade decisions bar by bar.
package strategy

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
)

// View is read access to the current and prior signal rows.
type View interface {
	Value(name string, lag int) (float64, bool)
}

// Ref resolves an operand of a comparison: a named signal or a constant.
type Ref struct {
	name  string
	value float64
}

// Line references a named signal.
func Line(name string) Ref { return Ref{name: name} }

// Const references a fixed number.
func Const(v float64) Ref { return Ref{value: v} }

func (r Ref) at(v View, lag int) (float64, bool) {
	if r.name == "" {
		return r.value, true
	}
	return v.Value(r.name, lag)
}

func (r Ref) String() string {
	if r.name == "" {
		return strconv.FormatFloat(r.value, 'f', -1, 64)
	}
	return r.name
}

// Predicate is a named boolean test over signal values. Undefined inputs make it false.
type Predicate struct {
	Name   string
	Weight int
	// Lags is the deepest prior bar the predicate reads.
	Lags int
	Eval func(View) bool
}

func (p Predicate) weight() int {
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}

// Named returns a copy of p with a different name.
func (p Predicate) Named(name string) Predicate {
	p.Name = name
	return p
}

// Weighted returns a copy of p with weight w.
func (p Predicate) Weighted(w int) Predicate {
	p.Weight = w
	return p
}

func compare(name string, a, b Ref, lag int, ok func(x, y float64) bool) Predicate {
	return Predicate{
		Name: name,
		Lags: lag,
		Eval: func(v View) bool {
			x, okA := a.at(v, 0)
			y, okB := b.at(v, 0)
			return okA && okB && ok(x, y)
		},
	}
}

// Above holds when a > b.
func Above(a, b Ref) Predicate {
	return compare(fmt.Sprintf("%s>%s", a, b), a, b, 0, func(x, y float64) bool { return x > y })
}

// Below holds when a < b.
func Below(a, b Ref) Predicate {
	return compare(fmt.Sprintf("%s<%s", a, b), a, b, 0, func(x, y float64) bool { return x < y })
}

// AboveBand holds when a > b + k*band.
func AboveBand(a, b, band Ref, k float64) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s>%s+%g*%s", a, b, k, band),
		Eval: func(v View) bool {
			x, okA := a.at(v, 0)
			y, okB := b.at(v, 0)
			w, okW := band.at(v, 0)
			return okA && okB && okW && x > y+k*w
		},
	}
}

// BelowBand holds when a < b - k*band.
func BelowBand(a, b, band Ref, k float64) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s<%s-%g*%s", a, b, k, band),
		Eval: func(v View) bool {
			x, okA := a.at(v, 0)
			y, okB := b.at(v, 0)
			w, okW := band.at(v, 0)
			return okA && okB && okW && x < y-k*w
		},
	}
}

// Rising holds when the named signal is above its value lag bars ago.
func Rising(name string, lag int) Predicate {
	return slope(fmt.Sprintf("%s rising", name), name, lag, func(cur, prev float64) bool { return cur > prev })
}

// Falling holds when the named signal is below its value lag bars ago.
func Falling(name string, lag int) Predicate {
	return slope(fmt.Sprintf("%s falling", name), name, lag, func(cur, prev float64) bool { return cur < prev })
}

func slope(label, name string, lag int, ok func(cur, prev float64) bool) Predicate {
	if lag < 1 {
		lag = 1
	}
	return Predicate{
		Name: label,
		Lags: lag,
		Eval: func(v View) bool {
			cur, okC := v.Value(name, 0)
			prev, okP := v.Value(name, lag)
			return okC && okP && ok(cur, prev)
		},
	}
}

// Increasing holds when the named signal rose on each of the last bars bars.
func Increasing(name string, bars int) Predicate {
	return monotone(fmt.Sprintf("%s increasing %d", name, bars), name, bars, func(cur, prev float64) bool { return cur > prev })
}

// Decreasing holds when the named signal fell on each of the last bars bars.
func Decreasing(name string, bars int) Predicate {
	return monotone(fmt.Sprintf("%s decreasing %d", name, bars), name, bars, func(cur, prev float64) bool { return cur < prev })
}

func monotone(label, name string, bars int, ok func(cur, prev float64) bool) Predicate {
	if bars < 1 {
		bars = 1
	}
	return Predicate{
		Name: label,
		Lags: bars,
		Eval: func(v View) bool {
			cur, okC := v.Value(name, 0)
			if !okC {
				return false
			}
			for lag := 1; lag <= bars; lag++ {
				prev, okP := v.Value(name, lag)
				if !okP || !ok(cur, prev) {
					return false
				}
				cur = prev
			}
			return true
		},
	}
}

// CrossesAbove holds on the bar where a moves from at or below b to strictly above it.
func CrossesAbove(a, b Ref) Predicate {
	return cross(fmt.Sprintf("%s crosses above %s", a, b), a, b, func(prev, cur float64) bool { return prev <= 0 && cur > 0 })
}

// CrossesBelow holds on the bar where a moves from at or above b to strictly below it.
func CrossesBelow(a, b Ref) Predicate {
	return cross(fmt.Sprintf("%s crosses below %s", a, b), a, b, func(prev, cur float64) bool { return prev >= 0 && cur < 0 })
}

func cross(name string, a, b Ref, ok func(prev, cur float64) bool) Predicate {
	return Predicate{
		Name: name,
		Lags: 1,
		Eval: func(v View) bool {
			a0, ok1 := a.at(v, 0)
			b0, ok2 := b.at(v, 0)
			a1, ok3 := a.at(v, 1)
			b1, ok4 := b.at(v, 1)
			if !(ok1 && ok2 && ok3 && ok4) {
				return false
			}
			return ok(a1-b1, a0-b0)
		},
	}
}

// Between holds when lo < a < hi.
func Between(a, lo, hi Ref) Predicate {
	return Predicate{
		Name: fmt.Sprintf("%s<%s<%s", lo, a, hi),
		Eval: func(v View) bool {
			x, ok1 := a.at(v, 0)
			l, ok2 := lo.at(v, 0)
			h, ok3 := hi.at(v, 0)
			return ok1 && ok2 && ok3 && l < x && x < h
		},
	}
}

// ErrUnknownPredicate is returned when a mask names a predicate that does not exist.
var ErrUnknownPredicate = errors.New("unknown predicate")

// Mask selects which predicates of a list are enabled.
type Mask uint64

// MaxPredicates bounds the size of a predicate list addressable by a Mask.
const MaxPredicates = 64

// MaskOf enables the given positions.
func MaskOf(indices ...int) Mask {
	var m Mask
	for _, i := range indices {
		if i >= 0 && i < MaxPredicates {
			m |= 1 << uint(i)
		}
	}
	return m
}

// AllOf enables the first n positions.
func AllOf(n int) Mask {
	if n >= MaxPredicates {
		return ^Mask(0)
	}
	if n <= 0 {
		return 0
	}
	return Mask(1)<<uint(n) - 1
}

// MaskFor enables the predicates with the given names.
func MaskFor(preds []Predicate, names ...string) (Mask, error) {
	var m Mask
	for _, name := range names {
		found := false
		for i, p := range preds {
			if p.Name == name && i < MaxPredicates {
				m |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
		}
	}
	return m, nil
}

// Has reports whether position i is enabled.
func (m Mask) Has(i int) bool {
	return i >= 0 && i < MaxPredicates && m&(1<<uint(i)) != 0
}

// Count is the number of enabled positions.
func (m Mask) Count() int {
	return bits.OnesCount64(uint64(m))
}
