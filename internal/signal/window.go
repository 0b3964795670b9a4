package signal

import "math"

// Ring is a fixed-capacity ring buffer that overwrites its oldest element.
type Ring[T any] struct {
	buf    []T
	start  int
	length int
}

// NewRing allocates a ring holding at most capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when full.
func (r *Ring[T]) Push(v T) {
	if r.length < len(r.buf) {
		r.buf[(r.start+r.length)%len(r.buf)] = v
		r.length++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Back returns the element lag positions behind the newest one (lag 0 is the newest).
func (r *Ring[T]) Back(lag int) (T, bool) {
	var zero T
	if lag < 0 || lag >= r.length {
		return zero, false
	}
	return r.buf[(r.start+r.length-1-lag)%len(r.buf)], true
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.length }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Window keeps the most recent signal rows so conditions can look back a few bars.
type Window struct {
	schema *Schema
	rows   *Ring[[]float64]
}

// NewWindow retains the current row plus lookback prior rows.
func NewWindow(schema *Schema, lookback int) *Window {
	if lookback < 0 {
		lookback = 0
	}
	return &Window{schema: schema, rows: NewRing[[]float64](lookback + 1)}
}

// Push records the row for the newest bar. The row must not be mutated afterwards.
func (w *Window) Push(row []float64) { w.rows.Push(row) }

// Value returns the named signal lag bars ago. It is false when the name is unknown,
// the history is too short, or the value is undefined.
func (w *Window) Value(name string, lag int) (float64, bool) {
	col, ok := w.schema.Index(name)
	if !ok {
		return math.NaN(), false
	}
	row, ok := w.rows.Back(lag)
	if !ok || col >= len(row) {
		return math.NaN(), false
	}
	v := row[col]
	if Undefined(v) {
		return v, false
	}
	return v, true
}

// Has reports whether the schema carries name.
func (w *Window) Has(name string) bool {
	_, ok := w.schema.Index(name)
	return ok
}

// Depth is the number of rows currently available.
func (w *Window) Depth() int { return w.rows.Len() }
