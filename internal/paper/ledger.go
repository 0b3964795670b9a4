package paper

import (
	"sync"

	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
)

// Ledger keeps the fills of one run in memory.
type Ledger struct {
	mu    sync.Mutex
	fills []execution.Fill
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{fills: make([]execution.Fill, 0, capacity)}
}

// Record appends a fill to the ledger.
func (l *Ledger) Record(fill execution.Fill) {
	l.mu.Lock()
	l.fills = append(l.fills, fill)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded fills.
func (l *Ledger) Snapshot() []execution.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// RoundTrips counts completed buy-then-sell pairs.
func (l *Ledger) RoundTrips() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, open := 0, false
	for _, f := range l.fills {
		switch f.Side {
		case execution.Buy:
			open = true
		case execution.Sell:
			if open {
				n++
			}
			open = false
		}
	}
	return n
}

// Reset clears all stored fills.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.fills = l.fills[:0]
	l.mu.Unlock()
}

// Tee fans a fill out to several recorders. Nil entries are skipped.
type Tee []FillRecorder

func (t Tee) Record(fill execution.Fill) {
	for _, r := range t {
		if r != nil {
			r.Record(fill)
		}
	}
}
