package strategy

import (
	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
)

// Score sums the weights of enabled predicates that hold.
func Score(v View, mask Mask, preds []Predicate) int {
	total := 0
	for i, p := range preds {
		if !mask.Has(i) || p.Eval == nil {
			continue
		}
		if p.Eval(v) {
			total += p.weight()
		}
	}
	return total
}

// Condition is a boolean rule over the signal view.
type Condition interface {
	Holds(v View) bool
	// Lookback is the number of prior bars the condition reads.
	Lookback() int
}

// Composite holds when the score of its enabled predicates reaches Threshold. A composite with
// enabled predicates needs a positive threshold; only an empty one holds unconditionally.
type Composite struct {
	Predicates []Predicate
	Mask       Mask
	Threshold  int
}

func (c Composite) Holds(v View) bool {
	if c.Threshold <= 0 {
		return c.Mask&AllOf(len(c.Predicates)) == 0
	}
	return Score(v, c.Mask, c.Predicates) >= c.Threshold
}

func (c Composite) Lookback() int {
	deepest := 0
	for i, p := range c.Predicates {
		if c.Mask.Has(i) && p.Lags > deepest {
			deepest = p.Lags
		}
	}
	return deepest
}

// All holds when every predicate holds. With no predicates it always holds.
func All(preds ...Predicate) Composite {
	return Composite{Predicates: preds, Mask: AllOf(len(preds)), Threshold: weightSum(preds)}
}

// Any holds when at least one predicate holds.
func Any(preds ...Predicate) Composite {
	return Composite{Predicates: preds, Mask: AllOf(len(preds)), Threshold: 1}
}

// Vote holds when at least threshold of the enabled predicates hold.
func Vote(preds []Predicate, mask Mask, threshold int) Composite {
	return Composite{Predicates: preds, Mask: mask, Threshold: threshold}
}

func weightSum(preds []Predicate) int {
	total := 0
	for _, p := range preds {
		total += p.weight()
	}
	return total
}

type and []Condition

// And holds when every condition holds.
func And(conds ...Condition) Condition { return and(conds) }

func (a and) Holds(v View) bool {
	for _, c := range a {
		if !c.Holds(v) {
			return false
		}
	}
	return true
}

func (a and) Lookback() int {
	deepest := 0
	for _, c := range a {
		deepest = max(deepest, c.Lookback())
	}
	return deepest
}

type never struct{}

func (never) Holds(View) bool { return false }
func (never) Lookback() int   { return 0 }

// Never is a condition that does not hold.
var Never Condition = never{}

// Rule decides one direction. When Trigger is set the rule is two-phase: the trigger arms a
// latch and Condition only fires while the latch is armed.
type Rule struct {
	Condition Condition
	Trigger   Condition
}

// TwoPhase reports whether the rule needs a trigger before it can fire.
func (r Rule) TwoPhase() bool { return r.Trigger != nil }

func (r Rule) lookback() int {
	deepest := 0
	if r.Condition != nil {
		deepest = r.Condition.Lookback()
	}
	if r.Trigger != nil {
		deepest = max(deepest, r.Trigger.Lookback())
	}
	return deepest
}

// Strategy is a data-driven description of what to compute and when to trade.
type Strategy struct {
	Name       string
	Indicators []indicator.Adapter
	Buy        Rule
	Sell       Rule
}

// Warmup is the number of leading bars on which some indicator is still undefined.
func (s Strategy) Warmup() int {
	warm := 0
	for _, a := range s.Indicators {
		warm = max(warm, a.Warmup())
	}
	return warm
}

// Lookback is the deepest prior bar any rule reads.
func (s Strategy) Lookback() int {
	return max(s.Buy.lookback(), s.Sell.lookback())
}
