package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

func rampBars(n int) []signal.Bar {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]signal.Bar, n)
	for i := range bars {
		c := float64(i + 1)
		bars[i] = signal.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 10,
		}
	}
	return bars
}

func TestBuildMasksWarmup(t *testing.T) {
	bars := rampBars(10)
	table, err := Build(bars, []Adapter{MovingAverage{Name: "ma1", Type: SMA, Period: 3}}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	col, ok := table.Schema.Index("ma1")
	if !ok {
		t.Fatalf("ma1 missing from schema")
	}
	for i := 0; i < 2; i++ {
		if !math.IsNaN(table.Rows[i][col]) {
			t.Fatalf("bar %d should be undefined, got %v", i, table.Rows[i][col])
		}
	}
	if got := table.Rows[2][col]; got != 2 {
		t.Fatalf("expected sma 2 at bar 2, got %v", got)
	}
	if got := table.Rows[9][col]; got != 9 {
		t.Fatalf("expected sma 9 at bar 9, got %v", got)
	}
	if table.Rows[9][4] != 10 {
		t.Fatalf("volume column not copied")
	}
}

func TestShortSeriesIsUndefined(t *testing.T) {
	bars := rampBars(5)
	adapters := []Adapter{
		MovingAverage{Name: "ma", Type: TEMA, Period: 30},
		MACD{Name: "macd", Fast: 12, Slow: 26, Signal: 9},
		ADX{Name: "adx", Period: 14},
		Keltner{Name: "kc", Period: 20, Mult: 1.5},
		Trix{Name: "trix", Period: 15, Signal: 9},
		PercentRank{Name: "prank", Source: RSI{Name: "rsi", Period: 14}, Period: 100},
	}
	table, err := Build(bars, adapters, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, row := range table.Rows {
		for c := 5; c < len(row); c++ {
			if !math.IsNaN(row[c]) {
				t.Fatalf("row %d column %d expected undefined, got %v", i, c, row[c])
			}
		}
	}
}

func TestBuildRejectsDuplicateLines(t *testing.T) {
	_, err := Build(rampBars(3), []Adapter{
		MovingAverage{Name: "ma", Type: SMA, Period: 2},
		MovingAverage{Name: "ma", Type: EMA, Period: 2},
	}, nil)
	if err == nil {
		t.Fatalf("expected duplicate line error")
	}
}

func TestDefectsBlankLookback(t *testing.T) {
	bars := rampBars(12)
	defects := make([]bool, len(bars))
	defects[5] = true
	table, err := Build(bars, []Adapter{MovingAverage{Name: "ma", Type: SMA, Period: 3}}, defects)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	col, _ := table.Schema.Index("ma")
	if !math.IsNaN(table.Rows[5][3]) {
		t.Fatalf("defective bar close should be blanked")
	}
	for i := 5; i <= 7; i++ {
		if !math.IsNaN(table.Rows[i][col]) {
			t.Fatalf("bar %d lookback covers the defect, got %v", i, table.Rows[i][col])
		}
	}
	if math.IsNaN(table.Rows[8][col]) || math.IsNaN(table.Rows[4][col]) {
		t.Fatalf("bars outside the tainted window must stay defined")
	}
}

func TestParseMAType(t *testing.T) {
	if typ, err := ParseMAType(" SMMA "); err != nil || typ != SMMA {
		t.Fatalf("expected smma, got %v %v", typ, err)
	}
	if _, err := ParseMAType("bogus"); !errors.Is(err, ErrUnknownMAType) {
		t.Fatalf("expected ErrUnknownMAType, got %v", err)
	}
}

func TestSmoothedAverage(t *testing.T) {
	in := []float64{1, 2, 3, 4}
	out := average(SMMA, in, nil, 2)
	if !math.IsNaN(out[0]) || out[1] != 1.5 {
		t.Fatalf("unexpected seed %v", out[:2])
	}
	if out[2] != 2.25 {
		t.Fatalf("expected 2.25 got %v", out[2])
	}
}

func TestVolumeWeightedAverage(t *testing.T) {
	in := []float64{1, 3}
	vol := []float64{1, 3}
	out := average(VWMA, in, vol, 2)
	if out[1] != 2.5 {
		t.Fatalf("expected 2.5 got %v", out[1])
	}
}

func TestLaguerreRSIRange(t *testing.T) {
	f := NewFrame(rampBars(50))
	line := LaguerreRSI{Name: "lrsi", Period: 6, Gamma: 0.5}.Compute(f)[0]
	for i, v := range line {
		if v < 0 || v > 1 {
			t.Fatalf("bar %d out of range: %v", i, v)
		}
	}
	if line[49] != 1 {
		t.Fatalf("steady uptrend should saturate at 1, got %v", line[49])
	}
}

func TestPercentRank(t *testing.T) {
	f := NewFrame(rampBars(6))
	src := MovingAverage{Name: "close", Type: SMA, Period: 1}
	line := PercentRank{Name: "pr", Source: src, Period: 4}.Compute(f)[0]
	if !math.IsNaN(line[2]) {
		t.Fatalf("expected undefined before the window fills")
	}
	if line[3] != 75 {
		t.Fatalf("rising series should rank 75, got %v", line[3])
	}
}

func TestAwesomeSign(t *testing.T) {
	f := NewFrame(rampBars(40))
	line := Awesome{Name: "ao", Fast: 5, Slow: 34}.Compute(f)[0]
	if line[39] <= 0 {
		t.Fatalf("rising median should give positive awesome, got %v", line[39])
	}
}

func flatBars(n int, px float64) []signal.Bar {
	bars := rampBars(n)
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = px, px, px, px
	}
	return bars
}

func TestWilliamsVixFixSpike(t *testing.T) {
	bars := flatBars(80, 100)
	bars[79].Low = 90
	vix := WilliamsVixFix{Name: "wvf", Pd: 22, Bbl: 20, Mult: 2, Lb: 50, Ph: 0.85, Pl: 1.01}
	table, err := Build(bars, []Adapter{vix}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	at := func(name string, i int) float64 {
		col, ok := table.Schema.Index(name)
		if !ok {
			t.Fatalf("%s missing from schema", name)
		}
		return table.Rows[i][col]
	}
	if !math.IsNaN(at("wvf.high", vix.Warmup()-1)) {
		t.Fatalf("range lines should be undefined before warm-up")
	}
	if got := at("wvf", 79); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected wvf 10, got %v", got)
	}
	// one 10 among nineteen zeros: mean 0.5, sample variance 5
	if got, want := at("wvf.top", 79), 0.5+2*math.Sqrt(5); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected top band %v, got %v", want, got)
	}
	if got := at("wvf.high", 79); math.Abs(got-8.5) > 1e-9 {
		t.Fatalf("expected range high 8.5, got %v", got)
	}
	if got := at("wvf", 78); got != 0 {
		t.Fatalf("flat bars should have zero wvf, got %v", got)
	}
}

func TestWaveTrendSign(t *testing.T) {
	wt := WaveTrend{Name: "wt", N1: 10, N2: 21}
	up, err := Build(rampBars(80), []Adapter{wt}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	col, _ := up.Schema.Index("wt")
	if !math.IsNaN(up.Rows[wt.Warmup()-1][col]) {
		t.Fatalf("expected undefined before warm-up")
	}
	if got := up.Rows[79][col]; !(got > 0) {
		t.Fatalf("a rising market should have a positive wave trend, got %v", got)
	}
	flat, err := Build(flatBars(80, 5), []Adapter{wt}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := flat.Rows[79][col]; got != 0 {
		t.Fatalf("a flat market should read zero, got %v", got)
	}
}
