package strategy

import (
	"errors"
	"testing"

	"github.com/DorukKorkmaz/crypto-backtest/internal/indicator"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

func TestBuildEveryStrategyWithDefaults(t *testing.T) {
	for _, name := range Names() {
		s, err := Build(name, param.Of())
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if s.Name != name {
			t.Fatalf("expected name %s got %s", name, s.Name)
		}
		if s.Buy.Condition == nil || s.Sell.Condition == nil {
			t.Fatalf("%s: missing rule", name)
		}
		var lines []string
		for _, a := range s.Indicators {
			lines = append(lines, a.Lines()...)
		}
		if _, err := signal.NewSchema(lines...); err != nil {
			t.Fatalf("%s: indicator lines clash: %v", name, err)
		}
	}
}

func TestBuildUnknownStrategy(t *testing.T) {
	if _, err := Build("kst", param.Of()); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestBuildAtrCrossFromSweepParams(t *testing.T) {
	combo := param.Of(
		param.Entry{Name: "ma1_period", Value: param.Num(5)},
		param.Entry{Name: "ma2_period", Value: param.Num(8)},
		param.Entry{Name: "atr", Value: param.Num(0.5)},
		param.Entry{Name: "ma1_type", Value: param.Text("smma")},
	)
	s, err := Build(" ATR_Cross ", combo)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ma1, ok := s.Indicators[0].(indicator.MovingAverage)
	if !ok || ma1.Type != indicator.SMMA || ma1.Period != 5 {
		t.Fatalf("unexpected first indicator %#v", s.Indicators[0])
	}
	if len(s.Indicators) != 3 {
		t.Fatalf("expected ma1, ma2 and atr, got %d adapters", len(s.Indicators))
	}
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name  string
		combo param.Combination
	}{
		{"cross", param.Of(param.Entry{Name: "ma1_period", Value: param.Num(1)})},
		{"cross", param.Of(param.Entry{Name: "ma1_type", Value: param.Text("nope")})},
		{"atr_cross", param.Of(param.Entry{Name: "atr", Value: param.Num(-1)})},
		{"macd", param.Of(param.Entry{Name: "period_me1", Value: param.Num(30)})},
		{"laguerre_rsi", param.Of(param.Entry{Name: "gamma", Value: param.Num(1.5)})},
		{"combined", param.Of(param.Entry{Name: "enabled", Value: param.Text("macd,kst")})},
		{"combined", param.Of(param.Entry{Name: "buy_limit", Value: param.Num(0)})},
		{"laguerre_williams", param.Of(param.Entry{Name: "wrnpctile", Value: param.Num(95)})},
		{"wave_trend", param.Of(param.Entry{Name: "os_level1", Value: param.Num(70)})},
		{"percent_rsi", param.Of(param.Entry{Name: "buy_limit1", Value: param.Num(50)})},
	}
	for _, tc := range tests {
		if _, err := Build(tc.name, tc.combo); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s %s: expected ErrInvalidParams, got %v", tc.name, tc.combo, err)
		}
	}
}

func TestPercentStrategiesAreTwoPhase(t *testing.T) {
	for _, name := range []string{"percent_rsi", "percent_macd_rsi", "percent_ma", "laguerre_williams"} {
		s, err := Build(name, param.Of())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !s.Buy.TwoPhase() || !s.Sell.TwoPhase() {
			t.Fatalf("%s should use trigger and confirmation", name)
		}
	}
}

func TestAllPossibilitiesEmptyListIsTrendGate(t *testing.T) {
	s, err := Build("all_possibilities", param.Of())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	v := mapView{cur: map[string]float64{"ma1": 2, "ma2": 1}}
	if !s.Buy.Condition.Holds(v) {
		t.Fatalf("with no enabled votes the MA gate alone should decide")
	}
	s, err = Build("all_possibilities", param.Of(param.Entry{Name: "list", Value: param.Text("macd")}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Buy.Condition.Holds(v) {
		t.Fatalf("enabled macd vote is undefined and must block the buy")
	}
}

func TestPercentLimitsAreInclusive(t *testing.T) {
	s, err := Build("percent_ma", param.Of())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// percent_period 200 ranks in steps of 0.5
	tests := []struct {
		rank             float64
		trigger, confirm bool
	}{
		{9.5, true, false},
		{10, true, false},
		{10.5, false, false},
		{29.5, false, false},
		{30, false, true},
	}
	for _, tc := range tests {
		v := mapView{cur: map[string]float64{"prank": tc.rank}}
		if got := s.Buy.Trigger.Holds(v); got != tc.trigger {
			t.Errorf("rank %v: trigger %v, want %v", tc.rank, got, tc.trigger)
		}
		if got := s.Buy.Condition.Holds(v); got != tc.confirm {
			t.Errorf("rank %v: confirmation %v, want %v", tc.rank, got, tc.confirm)
		}
	}
	v := mapView{cur: map[string]float64{"prank": 90}}
	if !s.Sell.Trigger.Holds(v) {
		t.Fatalf("rank 90 should arm the sell side")
	}
}

func TestLaguerreWilliamsArmsOnSpikeAndConfirmsOnRecovery(t *testing.T) {
	s, err := Build("laguerre_williams", param.Of())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	spike := mapView{cur: map[string]float64{
		"wvf": 10, "wvf.top": 5, "wvf.high": 20,
		"lag.bottom": -90, "lag.top": 10, "prank": 5,
	}}
	if !s.Buy.Trigger.Holds(spike) || s.Buy.Condition.Holds(spike) {
		t.Fatalf("a spike with washed-out ranks should arm without confirming")
	}
	calm := mapView{cur: map[string]float64{
		"wvf": 1, "wvf.top": 5, "wvf.high": 20,
		"lag.bottom": -90, "lag.top": 10, "prank": 5,
	}}
	if s.Buy.Trigger.Holds(calm) {
		t.Fatalf("washed-out ranks without a volatility spike must not arm")
	}
	recovered := mapView{cur: map[string]float64{
		"wvf": 1, "wvf.top": 5, "wvf.high": 20,
		"lag.bottom": -70, "lag.top": 30, "prank": 20,
	}}
	if s.Buy.Trigger.Holds(recovered) || !s.Buy.Condition.Holds(recovered) {
		t.Fatalf("recovered ranks should confirm without re-arming")
	}
	stretched := mapView{cur: map[string]float64{"lag.top": 90, "prank": 95}}
	if !s.Sell.Trigger.Holds(stretched) || s.Sell.Condition.Holds(stretched) {
		t.Fatalf("stretched ranks should arm the sell side only")
	}
	pulled := mapView{cur: map[string]float64{"lag.top": 70, "prank": 80}}
	if !s.Sell.Condition.Holds(pulled) {
		t.Fatalf("pullback to the warning ranks should confirm the sell")
	}
}

func TestVixFixAndWaveTrend(t *testing.T) {
	s, err := Build("williams_vix_fix", param.Of())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !s.Buy.Condition.Holds(mapView{cur: map[string]float64{"wvf": 10, "wvf.top": 12, "wvf.high": 8}}) {
		t.Fatalf("wvf above its range high should buy")
	}
	if s.Sell.Condition.Holds(mapView{cur: map[string]float64{"wvf": 10}}) {
		t.Fatalf("the vix fix strategy never sells")
	}
	s, err = Build("wave_trend", param.Of())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !s.Buy.Condition.Holds(mapView{cur: map[string]float64{"wt": -61}}) || s.Buy.Condition.Holds(mapView{cur: map[string]float64{"wt": -50}}) {
		t.Fatalf("wave trend buys only below the oversold level")
	}
	if !s.Sell.Condition.Holds(mapView{cur: map[string]float64{"wt": 61}}) {
		t.Fatalf("wave trend sells above the overbought level")
	}
}
