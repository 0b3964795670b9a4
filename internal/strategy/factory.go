package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
)

var (
	// ErrUnknownStrategy is returned by Build for a name missing from the catalog.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInvalidParams marks a parameter combination a strategy cannot run with.
	ErrInvalidParams = errors.New("invalid strategy parameters")
)

// Factory builds a strategy from a parameter combination.
type Factory func(param.Combination) (Strategy, error)

var catalog = map[string]Factory{
	"cross":             buildCross,
	"atr_cross":         buildAtrCross,
	"triple_cross":      buildTripleCross,
	"slope":             buildSlope,
	"directional":       buildDirectional,
	"laguerre_rsi":      buildLaguerreRSI,
	"above_below":       buildAboveBelow,
	"stoch_cross":       buildStochCross,
	"rsi_cross":         buildRSICross,
	"extended_cross":    buildExtendedCross,
	"above_ma":          buildAboveMA,
	"vwma_cross":        buildVWMACross,
	"macd":              buildMACDZero,
	"trix":              buildTrixZero,
	"awesome":           buildAwesomeZero,
	"momentum":          buildMomentumZero,
	"macd_signal":       buildMACDSignal,
	"trix_signal":       buildTrixSignal,
	"combined":          buildCombined,
	"all_possibilities": buildAllPossibilities,
	"williams_vix_fix":  buildWilliamsVixFix,
	"laguerre_ppo":      buildLaguerrePPO,
	"wave_trend":        buildWaveTrend,
	"laguerre_williams": buildLaguerreWilliams,
	"percent_rsi":       buildPercentRSI,
	"percent_macd_rsi":  buildPercentMACDRSI,
	"percent_ma":        buildPercentMA,
	"macd_gradient":     buildMACDGradient,
	"rsi":               buildRSI,
	"di_squeeze":        buildDISqueeze,
	"hold":              buildHold,
}

// Build returns the named strategy configured by combo.
func Build(name string, combo param.Combination) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	factory, ok := catalog[key]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	s, err := factory(combo)
	if err != nil {
		return Strategy{}, fmt.Errorf("%s %s: %w", key, combo, err)
	}
	s.Name = key
	return s, nil
}

// Lookup returns a factory bound to name that behaves like Build.
func Lookup(name string) (Factory, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := catalog[key]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return func(combo param.Combination) (Strategy, error) { return Build(key, combo) }, nil
}

// Names lists the catalog in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

// reader pulls typed values out of a combination and keeps the first validation error.
type reader struct {
	c   param.Combination
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// period reads a lookback length; indicator math needs at least two bars.
func (r *reader) period(name string, def int) int {
	v := r.c.Int(name, def)
	if v < 2 {
		r.fail(invalid("%s must be at least 2, got %d", name, v))
	}
	return v
}

func (r *reader) float(name string, def float64) float64 {
	return r.c.Float(name, def)
}

func (r *reader) nonNegative(name string, def float64) float64 {
	v := r.c.Float(name, def)
	if v < 0 {
		r.fail(invalid("%s must not be negative, got %g", name, v))
	}
	return v
}

func (r *reader) fraction(name string, def float64) float64 {
	v := r.c.Float(name, def)
	if v < 0 || v >= 1 {
		r.fail(invalid("%s must be in [0, 1), got %g", name, v))
	}
	return v
}

func (r *reader) maType(name string, def indicator.MAType) indicator.MAType {
	label := r.c.Text(name, string(def))
	t, err := indicator.ParseMAType(label)
	if err != nil {
		r.fail(fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err))
		return def
	}
	return t
}

func (r *reader) list(name string, def string) []string {
	raw := r.c.Text(name, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
