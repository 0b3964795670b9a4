package risk

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PercentSizer buys with a fixed percentage of available cash.
type PercentSizer struct {
	Percent float64
}

// Size returns the quantity affordable with Percent of cash at price. It is zero for
// non-positive inputs.
func (s PercentSizer) Size(cash decimal.Decimal, price float64) decimal.Decimal {
	if s.Percent <= 0 || price <= 0 || !cash.IsPositive() {
		return decimal.Zero
	}
	budget := cash.Mul(decimal.NewFromFloat(s.Percent)).Div(hundred)
	return budget.Div(decimal.NewFromFloat(price))
}

// Limits caps the notional of a single order. Zero disables the cap.
type Limits struct {
	MaxNotionalPerTrade float64
}

func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}
