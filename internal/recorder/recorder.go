// Package recorder persists sweep progress for later analysis.
package recorder

import (
	"time"

	"github.com/DorukKorkmaz/crypto-backtest/internal/sweep"
)

// Status values stored for a sweep.
const (
	StatusRunning     = "running"
	StatusDone        = "done"
	StatusInterrupted = "interrupted"
)

// Summary is the stored header of one sweep.
type Summary struct {
	ID           string
	Strategy     string
	Instruments  []string
	Combinations int
	Started      time.Time
	Finished     time.Time
	Status       string
	BestParams   string
	BestValue    float64
	Evaluated    int
	Skipped      int
	Failures     int
}

// Recorder persists sweeps. Implementations must be safe for use from the sweep's reducing goroutine.
type Recorder interface {
	// Begin opens a sweep and returns its id.
	Begin(strategy string, instruments []string, combinations int) (string, error)
	RecordAggregate(sweepID string, a sweep.Aggregate) error
	RecordFailure(sweepID string, f sweep.Failure) error
	// Finish stores the outcome; a non-nil searchErr marks the sweep interrupted.
	Finish(sweepID string, out sweep.Outcome, searchErr error) error
	Close() error
}

// NoopRecorder discards everything; used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Begin(string, []string, int) (string, error) { return "", nil }
func (n *NoopRecorder) RecordAggregate(string, sweep.Aggregate) error { return nil }
func (n *NoopRecorder) RecordFailure(string, sweep.Failure) error { return nil }
func (n *NoopRecorder) Finish(string, sweep.Outcome, error) error { return nil }
func (n *NoopRecorder) Close() error { return nil }
