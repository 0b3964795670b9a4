// Package param models one concrete assignment of strategy parameters.
package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is either a number or a label selector such as an indicator type.
type Value struct {
	Num  float64
	Text string
}

// Num wraps a numeric value.
func Num(v float64) Value { return Value{Num: v} }

// Text wraps a label value.
func Text(s string) Value { return Value{Text: s} }

// IsText reports whether the value is a label.
func (v Value) IsText() bool { return v.Text != "" }

func (v Value) String() string {
	if v.IsText() {
		return v.Text
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

// Entry is a named parameter value.
type Entry struct {
	Name  string
	Value Value
}

// Combination is an immutable, ordered tuple of parameters.
type Combination struct {
	entries []Entry
}

// Of builds a combination; later entries replace earlier ones with the same name.
func Of(entries ...Entry) Combination {
	var c Combination
	for _, e := range entries {
		c = c.With(e.Name, e.Value)
	}
	return c
}

// With returns a copy with name set to v.
func (c Combination) With(name string, v Value) Combination {
	out := make([]Entry, len(c.entries), len(c.entries)+1)
	copy(out, c.entries)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = v
			return Combination{entries: out}
		}
	}
	return Combination{entries: append(out, Entry{Name: name, Value: v})}
}

// Merge overlays c on top of base: names in c win.
func (c Combination) Merge(base Combination) Combination {
	out := base
	for _, e := range c.entries {
		out = out.With(e.Name, e.Value)
	}
	return out
}

// Lookup returns the value stored under name.
func (c Combination) Lookup(name string) (Value, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Float returns the numeric value for name, or def when absent or a label.
func (c Combination) Float(name string, def float64) float64 {
	v, ok := c.Lookup(name)
	if !ok || v.IsText() {
		return def
	}
	return v.Num
}

// Int returns the numeric value for name rounded to the nearest integer.
func (c Combination) Int(name string, def int) int {
	v, ok := c.Lookup(name)
	if !ok || v.IsText() {
		return def
	}
	return int(math.Round(v.Num))
}

// Text returns the text value for name, or def.
func (c Combination) Text(name, def string) string {
	v, ok := c.Lookup(name)
	if !ok || !v.IsText() {
		return def
	}
	return v.Text
}

// Len is the number of parameters.
func (c Combination) Len() int { return len(c.entries) }

// Entries returns a copy of the parameters in order.
func (c Combination) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// String renders "name=value" pairs in order.
func (c Combination) String() string {
	parts := make([]string, len(c.entries))
	for i, e := range c.entries {
		parts[i] = e.Name + "=" + e.Value.String()
	}
	return strings.Join(parts, " ")
}

// Map flattens the combination for serialization.
func (c Combination) Map() map[string]string {
	out := make(map[string]string, len(c.entries))
	for _, e := range c.entries {
		out[e.Name] = e.Value.String()
	}
	return out
}

// ParseValue reads a number, falling back to a label.
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return Num(v)
	}
	return Text(raw)
}

// Parse reads "name=value" pairs separated by commas, e.g. "ma1_period=5,ma1_type=smma".
func Parse(s string) (Combination, error) {
	var c Combination
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(raw) == "" {
			return Combination{}, fmt.Errorf("parameter %q: want name=value", part)
		}
		c = c.With(name, ParseValue(raw))
	}
	return c, nil
}
