package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/DorukKorkmaz/crypto-backtest/internal/backtest"
	"github.com/DorukKorkmaz/crypto-backtest/internal/data"
	"github.com/DorukKorkmaz/crypto-backtest/internal/metrics"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/strategy"
)

// ErrNoInstruments is returned when Search has nothing to run on.
var ErrNoInstruments = errors.New("no instruments")

// Runner evaluates one combination on one instrument.
type Runner func(series data.Series, combo param.Combination) (backtest.Result, error)

// Backtest adapts the run driver to a Runner.
func Backtest(factory strategy.Factory, opts backtest.Options) Runner {
	return func(series data.Series, combo param.Combination) (backtest.Result, error) {
		return backtest.Run(series, combo, factory, opts)
	}
}

// Failure is a run that aborted on one instrument.
type Failure struct {
	Index       int
	Combination param.Combination
	Symbol      string
	Err         error
}

func (f Failure) Error() string {
	return fmt.Sprintf("combination %d (%s) on %s: %v", f.Index, f.Combination, f.Symbol, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Aggregate is the summed value of one combination over every instrument that ran.
type Aggregate struct {
	Index       int
	Combination param.Combination
	Value       float64
	Runs        int
	Failed      int
	Trades      int
}

// Best is the running maximum. Found is false until some combination has a successful run.
type Best struct {
	Found       bool
	Index       int
	Combination param.Combination
	Value       float64
}

// Outcome is the result of a search. After cancellation it is partial and covers a contiguous
// prefix of the enumeration: the first Evaluated+Skipped combinations.
type Outcome struct {
	Best       Best
	Evaluated  int
	Skipped    int
	Failures   []Failure
	Aggregates []Aggregate
}

// Options configures a Controller. Callbacks run on the reducing goroutine in enumeration order.
type Options struct {
	Workers     int
	Fixed       param.Combination
	Constraints []Constraint
	// Valid rejects combinations before any run, e.g. by building the strategy.
	Valid     func(param.Combination) error
	OnImprove func(Best)
	OnResult  func(Aggregate)
	OnFailure func(Failure)
	Log       zerolog.Logger
}

// Controller runs a grid search with a worker pool.
type Controller struct {
	run  Runner
	opts Options
}

// NewController returns a controller evaluating combinations with run.
func NewController(run Runner, opts Options) *Controller {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Controller{run: run, opts: opts}
}

type evaluated struct {
	index    int
	combo    param.Combination
	skip     error
	agg      Aggregate
	failures []Failure
}

// Search evaluates every valid combination of ranges on all instruments and keeps the best
// aggregate under a strict running maximum; ties keep the earliest combination. Cancelling ctx
// stops dispatch between combinations and returns the partial outcome with ctx.Err().
func (c *Controller) Search(ctx context.Context, ranges []Range, instruments []data.Series) (Outcome, error) {
	if len(instruments) == 0 {
		return Outcome{}, ErrNoInstruments
	}
	combos, err := Enumerate(ranges, c.opts.Fixed)
	if err != nil {
		return Outcome{}, err
	}
	c.opts.Log.Info().Int("combinations", len(combos)).Int("instruments", len(instruments)).
		Int("workers", c.opts.Workers).Msg("sweep started")

	jobs := make(chan int)
	results := make(chan evaluated, c.opts.Workers)

	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(jobs)
		for i := range combos {
			select {
			case <-ctx.Done():
				return nil
			case jobs <- i:
			}
		}
		return nil
	})
	for w := 0; w < c.opts.Workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- c.evaluate(i, combos[i], instruments)
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	var out Outcome
	pending := make(map[int]evaluated)
	next := 0
	for e := range results {
		pending[e.index] = e
		for {
			e, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			c.apply(&out, e)
			next++
		}
	}
	// results past a hole left by cancellation stay pending and are dropped
	if err := ctx.Err(); err != nil {
		c.opts.Log.Warn().Err(err).Int("evaluated", out.Evaluated).Int("dropped", len(pending)).Msg("sweep interrupted")
		return out, err
	}
	c.opts.Log.Info().Int("evaluated", out.Evaluated).Int("skipped", out.Skipped).
		Int("failures", len(out.Failures)).Bool("found", out.Best.Found).
		Float64("best", out.Best.Value).Str("params", out.Best.Combination.String()).
		Msg("sweep finished")
	return out, nil
}

func (c *Controller) evaluate(index int, combo param.Combination, instruments []data.Series) evaluated {
	e := evaluated{index: index, combo: combo}
	for _, con := range c.opts.Constraints {
		ok, err := con.Holds(combo)
		if err != nil {
			e.skip = err
			return e
		}
		if !ok {
			e.skip = fmt.Errorf("constraint %s failed", con)
			return e
		}
	}
	if c.opts.Valid != nil {
		if err := c.opts.Valid(combo); err != nil {
			e.skip = err
			return e
		}
	}

	e.agg = Aggregate{Index: index, Combination: combo}
	for _, series := range instruments {
		res, err := c.run(series, combo)
		if err != nil {
			e.agg.Failed++
			e.failures = append(e.failures, Failure{Index: index, Combination: combo, Symbol: series.Symbol, Err: err})
			continue
		}
		e.agg.Runs++
		e.agg.Trades += res.Trades
		e.agg.Value += res.Value
	}
	return e
}

// apply is the only place the outcome and the best result change.
func (c *Controller) apply(out *Outcome, e evaluated) {
	if e.skip != nil {
		out.Skipped++
		metrics.CombinationsTotal.WithLabelValues("skipped").Inc()
		c.opts.Log.Debug().Int("idx", e.index).Str("params", e.combo.String()).Err(e.skip).Msg("combination skipped")
		return
	}

	out.Evaluated++
	metrics.RunsTotal.WithLabelValues("ok").Add(float64(e.agg.Runs))
	metrics.RunsTotal.WithLabelValues("failed").Add(float64(e.agg.Failed))
	for _, f := range e.failures {
		out.Failures = append(out.Failures, f)
		c.opts.Log.Warn().Int("idx", f.Index).Str("params", f.Combination.String()).
			Str("sym", f.Symbol).Err(f.Err).Msg("run failed")
		if c.opts.OnFailure != nil {
			c.opts.OnFailure(f)
		}
	}
	if e.agg.Runs == 0 {
		metrics.CombinationsTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.CombinationsTotal.WithLabelValues("evaluated").Inc()
	out.Aggregates = append(out.Aggregates, e.agg)
	if c.opts.OnResult != nil {
		c.opts.OnResult(e.agg)
	}

	if out.Best.Found && !(e.agg.Value > out.Best.Value) {
		return
	}
	out.Best = Best{Found: true, Index: e.index, Combination: e.combo, Value: e.agg.Value}
	metrics.BestAggregateValue.Set(e.agg.Value)
	c.opts.Log.Info().Int("idx", e.index).Str("params", e.combo.String()).
		Float64("value", e.agg.Value).Int("trades", e.agg.Trades).Msg("new best")
	if c.opts.OnImprove != nil {
		c.opts.OnImprove(out.Best)
	}
}
