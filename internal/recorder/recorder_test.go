package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/sweep"
)

func combo(a float64) param.Combination {
	return param.Of(param.Entry{Name: "a", Value: param.Num(a)})
}

func TestSQLiteRecorderLifecycle(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sweeps.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteRecorder error: %v", err)
	}
	defer rec.Close()

	id, err := rec.Begin("atr_cross", []string{"ETHBTC", "LTCBTC"}, 3)
	if err != nil || id == "" {
		t.Fatalf("Begin: id=%q err=%v", id, err)
	}
	for i, v := range []float64{5, 9, 9} {
		if err := rec.RecordAggregate(id, sweep.Aggregate{Index: i, Combination: combo(float64(i)), Value: v, Runs: 2}); err != nil {
			t.Fatalf("RecordAggregate error: %v", err)
		}
	}
	fail := sweep.Failure{Index: 2, Combination: combo(2), Symbol: "LTCBTC", Err: errors.New("empty series")}
	if err := rec.RecordFailure(id, fail); err != nil {
		t.Fatalf("RecordFailure error: %v", err)
	}

	out := sweep.Outcome{
		Best:      sweep.Best{Found: true, Index: 1, Combination: combo(1), Value: 9},
		Evaluated: 3,
		Skipped:   1,
		Failures:  []sweep.Failure{fail},
	}
	if err := rec.Finish(id, out, nil); err != nil {
		t.Fatalf("Finish error: %v", err)
	}

	s, err := rec.Load(id)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.Status != StatusDone || s.BestParams != "a=1" || s.BestValue != 9 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(s.Instruments) != 2 || s.Evaluated != 3 || s.Skipped != 1 || s.Failures != 1 {
		t.Fatalf("unexpected counters %+v", s)
	}

	top, err := rec.Top(id, 2)
	if err != nil {
		t.Fatalf("Top error: %v", err)
	}
	if len(top) != 2 || top[0].Index != 1 || top[1].Index != 2 || top[0].Params != "a=1" {
		t.Fatalf("unexpected ranking %+v", top)
	}
}

func TestSQLiteRecorderInterrupted(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sweeps.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteRecorder error: %v", err)
	}
	defer rec.Close()

	id, _ := rec.Begin("cross", nil, 10)
	if err := rec.Finish(id, sweep.Outcome{}, context.Canceled); err != nil {
		t.Fatalf("Finish error: %v", err)
	}
	s, _ := rec.Load(id)
	if s.Status != StatusInterrupted || s.BestParams != "" {
		t.Fatalf("unexpected summary %+v", s)
	}
	if _, err := rec.Load("missing"); !errors.Is(err, ErrUnknownSweep) {
		t.Fatalf("expected ErrUnknownSweep got %v", err)
	}
	if err := rec.Finish("missing", sweep.Outcome{}, nil); !errors.Is(err, ErrUnknownSweep) {
		t.Fatalf("expected ErrUnknownSweep got %v", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	id, err := rec.Begin("cross", nil, 1)
	if err != nil || id != "" {
		t.Fatalf("noop Begin should do nothing")
	}
	if err := rec.Finish(id, sweep.Outcome{}, nil); err != nil {
		t.Fatalf("noop Finish error: %v", err)
	}
}
