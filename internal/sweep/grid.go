// Package sweep enumerates parameter grids and searches them for the best aggregate value.
package sweep

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
)

var (
	ErrEmptyRange = errors.New("empty parameter range")
	ErrConstraint = errors.New("invalid constraint")
)

// Range enumerates one parameter. Labels win over Values, which win over Start/Stop/Step.
// Start/Stop/Step behave like a half-open range: stop is excluded and the i-th value is
// start + i*step.
type Range struct {
	Name   string    `yaml:"name"`
	Start  float64   `yaml:"start"`
	Stop   float64   `yaml:"stop"`
	Step   float64   `yaml:"step"`
	Values []float64 `yaml:"values,omitempty"`
	Labels []string  `yaml:"labels,omitempty"`
}

// Expand lists the values of r in order.
func (r Range) Expand() ([]param.Value, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrEmptyRange)
	}
	var out []param.Value
	switch {
	case len(r.Labels) > 0:
		for _, l := range r.Labels {
			out = append(out, param.Text(l))
		}
	case len(r.Values) > 0:
		for _, v := range r.Values {
			out = append(out, param.Num(v))
		}
	default:
		if r.Step == 0 {
			return nil, fmt.Errorf("%w: %s has zero step", ErrEmptyRange, r.Name)
		}
		// tolerate float noise such as (1.0-0)/0.1 = 10.000000000000002
		n := int(math.Ceil((r.Stop-r.Start)/r.Step - 1e-9))
		for i := 0; i < n; i++ {
			out = append(out, param.Num(r.Start+float64(i)*r.Step))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRange, r.Name)
	}
	return out, nil
}

// Enumerate returns the cross-product of ranges on top of fixed. The first range varies
// slowest, like nested loops written in range order.
func Enumerate(ranges []Range, fixed param.Combination) ([]param.Combination, error) {
	seen := make(map[string]bool, len(ranges))
	expanded := make([][]param.Value, len(ranges))
	total := 1
	for i, r := range ranges {
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate range %q", r.Name)
		}
		seen[r.Name] = true
		vals, err := r.Expand()
		if err != nil {
			return nil, err
		}
		expanded[i] = vals
		total *= len(vals)
	}

	out := make([]param.Combination, 0, total)
	var walk func(depth int, acc param.Combination)
	walk = func(depth int, acc param.Combination) {
		if depth == len(ranges) {
			out = append(out, acc)
			return
		}
		for _, v := range expanded[depth] {
			walk(depth+1, acc.With(ranges[depth].Name, v))
		}
	}
	walk(0, fixed)
	return out, nil
}

// Constraint compares two operands, each a parameter name or a number, e.g. "ma1_period < ma2_period".
type Constraint struct {
	Left  string
	Op    string
	Right string
}

var operators = []string{"<=", ">=", "==", "!=", "<", ">"}

// ParseConstraint reads "left op right".
func ParseConstraint(s string) (Constraint, error) {
	for _, op := range operators {
		if i := strings.Index(s, op); i > 0 {
			c := Constraint{
				Left:  strings.TrimSpace(s[:i]),
				Op:    op,
				Right: strings.TrimSpace(s[i+len(op):]),
			}
			if c.Left == "" || c.Right == "" {
				break
			}
			return c, nil
		}
	}
	return Constraint{}, fmt.Errorf("%w: %q", ErrConstraint, s)
}

func (c Constraint) String() string { return c.Left + " " + c.Op + " " + c.Right }

// Holds evaluates the constraint against combo. Unknown names are an error.
func (c Constraint) Holds(combo param.Combination) (bool, error) {
	l, err := operand(c.Left, combo)
	if err != nil {
		return false, err
	}
	r, err := operand(c.Right, combo)
	if err != nil {
		return false, err
	}
	if l.IsText() || r.IsText() {
		switch c.Op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		}
		return false, fmt.Errorf("%w: %s compares labels with %s", ErrConstraint, c, c.Op)
	}
	switch c.Op {
	case "<":
		return l.Num < r.Num, nil
	case "<=":
		return l.Num <= r.Num, nil
	case ">":
		return l.Num > r.Num, nil
	case ">=":
		return l.Num >= r.Num, nil
	case "==":
		return l.Num == r.Num, nil
	case "!=":
		return l.Num != r.Num, nil
	}
	return false, fmt.Errorf("%w: unknown operator %q", ErrConstraint, c.Op)
}

func operand(token string, combo param.Combination) (param.Value, error) {
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		return param.Num(v), nil
	}
	v, ok := combo.Lookup(token)
	if !ok {
		return param.Value{}, fmt.Errorf("%w: unknown parameter %q", ErrConstraint, token)
	}
	return v, nil
}
