package signal

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestBarValidate(t *testing.T) {
	ts := time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)
	ok := Bar{Time: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []Bar{
		{Time: ts, Open: 1, High: 2, Low: 0.5, Close: math.NaN()},
		{Time: ts, Open: -1, High: 2, Low: 0.5, Close: 1},
		{Time: ts, Open: 1, High: math.Inf(1), Low: 0.5, Close: 1},
	}
	for i, bar := range tests {
		if err := bar.Validate(); !errors.Is(err, ErrBadPrice) {
			t.Errorf("case %d: expected ErrBadPrice, got %v", i, err)
		}
	}
}

func TestBarWellFormed(t *testing.T) {
	if !(Bar{Open: 1, High: 2, Low: 1, Close: 1.5}).WellFormed() {
		t.Fatalf("expected well formed bar")
	}
	if (Bar{Open: 1, High: 1, Low: 2, Close: 1.5}).WellFormed() {
		t.Fatalf("high below low should be malformed")
	}
	if (Bar{Open: 0, High: 2, Low: 1, Close: 1.5}).WellFormed() {
		t.Fatalf("zero open should be malformed")
	}
}

func TestSchemaRejectsDuplicates(t *testing.T) {
	if _, err := NewSchema("ma1", "ma1"); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := NewSchema("close"); err == nil {
		t.Fatalf("expected clash with built-in column")
	}
	s, err := NewSchema("ma1")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if idx, ok := s.Index("ma1"); !ok || idx != 5 {
		t.Fatalf("expected ma1 at column 5, got %d %v", idx, ok)
	}
}

func TestRingOverwrite(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	if r.Len() != 2 {
		t.Fatalf("expected len 2 got %d", r.Len())
	}
	if v, _ := r.Back(0); v != 3 {
		t.Fatalf("expected newest 3 got %d", v)
	}
	if v, _ := r.Back(1); v != 2 {
		t.Fatalf("expected previous 2 got %d", v)
	}
	if _, ok := r.Back(2); ok {
		t.Fatalf("expected lag beyond capacity to fail")
	}
}

func TestWindowValue(t *testing.T) {
	s, err := NewSchema("ma1")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	w := NewWindow(s, 1)
	w.Push([]float64{1, 1, 1, 1, 1, math.NaN()})
	if _, ok := w.Value("ma1", 0); ok {
		t.Fatalf("NaN must be undefined")
	}
	w.Push([]float64{1, 1, 1, 1, 1, 7})
	if v, ok := w.Value("ma1", 0); !ok || v != 7 {
		t.Fatalf("expected 7, got %v %v", v, ok)
	}
	if _, ok := w.Value("ma1", 1); ok {
		t.Fatalf("previous value was undefined")
	}
	if _, ok := w.Value("ma1", 2); ok {
		t.Fatalf("lag 2 exceeds lookback")
	}
	if _, ok := w.Value("missing", 0); ok {
		t.Fatalf("unknown name must be undefined")
	}
}
