package paper

import (
	"math"
	"testing"

	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
	"github.com/DorukKorkmaz/crypto-backtest/internal/risk"
)

func newTestAccount(commission, percent float64, rec FillRecorder) *Account {
	return NewAccount(Config{
		StartingCash: 1000,
		Commission:   commission,
		Sizer:        risk.PercentSizer{Percent: percent},
		Recorder:     rec,
	})
}

func lastStatus(reports []execution.Report) execution.Status {
	if len(reports) == 0 {
		return ""
	}
	return reports[len(reports)-1].Status
}

func TestAccountBuySellLifecycle(t *testing.T) {
	ledger := NewLedger(2)
	acct := newTestAccount(0, 50, ledger)

	h := acct.Submit(execution.Order{Symbol: "ETHBTC", Side: execution.Buy, Price: 10})
	reports := acct.Reports(h)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports got %d", len(reports))
	}
	want := []execution.Status{execution.Submitted, execution.Accepted, execution.Filled}
	for i, r := range reports {
		if r.Status != want[i] {
			t.Fatalf("report %d: expected %s got %s", i, want[i], r.Status)
		}
	}
	if got := acct.Position("ETHBTC"); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected qty 50 got %f", got)
	}
	if got := acct.AvailableCash(); math.Abs(got-500) > 1e-9 {
		t.Fatalf("expected cash 500 got %f", got)
	}
	if len(acct.Reports(h)) != 0 {
		t.Fatalf("reports should be drained")
	}

	h = acct.Submit(execution.Order{Symbol: "ETHBTC", Side: execution.Sell, Price: 12})
	if s := lastStatus(acct.Reports(h)); s != execution.Filled {
		t.Fatalf("expected sell filled got %s", s)
	}
	if acct.Position("ETHBTC") != 0 {
		t.Fatalf("position should be closed")
	}
	if got := acct.RealizedPnL(); math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected pnl 100 got %f", got)
	}
	if got := acct.Value(nil); math.Abs(got-1100) > 1e-9 {
		t.Fatalf("expected value 1100 got %f", got)
	}
	if ledger.RoundTrips() != 1 || len(ledger.Snapshot()) != 2 {
		t.Fatalf("recorder should see both fills")
	}
}

func TestAccountCommissionReducesPnL(t *testing.T) {
	acct := newTestAccount(0.01, 50, nil)
	acct.Reports(acct.Submit(execution.Order{Symbol: "X", Side: execution.Buy, Price: 10}))
	acct.Reports(acct.Submit(execution.Order{Symbol: "X", Side: execution.Sell, Price: 10}))
	// 500 notional each way at 1%
	if got := acct.RealizedPnL(); math.Abs(got+10) > 1e-9 {
		t.Fatalf("expected pnl -10 got %f", got)
	}
	if got := acct.AvailableCash(); math.Abs(got-990) > 1e-9 {
		t.Fatalf("expected cash 990 got %f", got)
	}
}

func TestAccountMarginWhenCommissionExceedsCash(t *testing.T) {
	acct := newTestAccount(0.001, 100, nil)
	h := acct.Submit(execution.Order{Symbol: "X", Side: execution.Buy, Price: 10})
	if s := lastStatus(acct.Reports(h)); s != execution.Margin {
		t.Fatalf("expected margin got %s", s)
	}
	if acct.AvailableCash() != 1000 {
		t.Fatalf("cash should be untouched")
	}
}

func TestAccountRejections(t *testing.T) {
	acct := newTestAccount(0, 50, nil)
	if s := lastStatus(acct.Reports(acct.Submit(execution.Order{Symbol: "X", Side: execution.Sell, Price: 10}))); s != execution.Rejected {
		t.Fatalf("sell without position: expected rejected got %s", s)
	}
	if s := lastStatus(acct.Reports(acct.Submit(execution.Order{Symbol: "X", Side: execution.Buy, Price: math.NaN()}))); s != execution.Rejected {
		t.Fatalf("bad price: expected rejected got %s", s)
	}

	capped := NewAccount(Config{
		StartingCash: 1000,
		Sizer:        risk.PercentSizer{Percent: 50},
		Limits:       risk.Limits{MaxNotionalPerTrade: 100},
	})
	r := capped.Reports(capped.Submit(execution.Order{Symbol: "X", Side: execution.Buy, Price: 10}))
	if s := lastStatus(r); s != execution.Rejected {
		t.Fatalf("notional cap: expected rejected got %s", s)
	}
	if r[len(r)-1].Reason == "" {
		t.Fatalf("rejection should carry a reason")
	}
}

func TestAccountSnapshotMarks(t *testing.T) {
	acct := newTestAccount(0, 50, nil)
	if acct.Value(nil) != acct.StartingCash() {
		t.Fatalf("untouched account should be worth starting cash")
	}
	acct.Reports(acct.Submit(execution.Order{Symbol: "X", Side: execution.Buy, Price: 10}))
	snap := acct.Snapshot(map[string]float64{"X": 11})
	if math.Abs(snap.Equity-1050) > 1e-9 {
		t.Fatalf("expected equity 1050 got %f", snap.Equity)
	}
	if math.Abs(snap.Positions["X"].Unrealized-50) > 1e-9 {
		t.Fatalf("expected unrealized 50 got %f", snap.Positions["X"].Unrealized)
	}
}
