// Binary sweep grid-searches one strategy's parameters across every configured instrument.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/DorukKorkmaz/crypto-backtest/internal/backtest"
	"github.com/DorukKorkmaz/crypto-backtest/internal/config"
	"github.com/DorukKorkmaz/crypto-backtest/internal/data"
	"github.com/DorukKorkmaz/crypto-backtest/internal/metrics"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/progress"
	"github.com/DorukKorkmaz/crypto-backtest/internal/recorder"
	"github.com/DorukKorkmaz/crypto-backtest/internal/scheduler"
	"github.com/DorukKorkmaz/crypto-backtest/internal/strategy"
	"github.com/DorukKorkmaz/crypto-backtest/internal/sweep"
	"github.com/DorukKorkmaz/crypto-backtest/internal/util"
)

func main() {
	path := flag.String("config", envOr("BACKTEST_CONFIG", "configs/atr_cross.yaml"), "path to the sweep config")
	flag.Parse()

	log := util.NewLogger("info")
	cfg, err := config.LoadEnv(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log = util.NewLogger(cfg.App.LogLevel).With().Str("app", cfg.App.Name).Logger()

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	hub := progress.NewHub(log)
	defer hub.Close()
	if cfg.App.ProgressAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", hub.Handler())
		srv := &http.Server{Addr: cfg.App.ProgressAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("progress server stopped")
			}
		}()
		defer srv.Close()
		log.Info().Str("addr", cfg.App.ProgressAddr).Msg("progress stream up")
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Recorder.SQLitePath != "" {
		sqlite, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("open recorder")
		}
		rec = sqlite
	}
	defer rec.Close()

	factory, err := strategy.Lookup(cfg.Strategy.Name)
	if err != nil {
		log.Fatal().Err(err).Strs("known", strategy.Names()).Msg("strategy")
	}

	series, err := data.LoadAll(ctx, cfg.Data.Dir, cfg.Data.Pattern, cfg.Data.Layout, cfg.Data.Symbols)
	if err != nil {
		log.Warn().Err(err).Int("loaded", len(series)).Msg("some instruments could not be loaded")
	}
	if len(series) == 0 {
		log.Fatal().Msg("no instruments loaded")
	}

	job := func(ctx context.Context) error {
		return runSweep(ctx, cfg, factory, series, rec, hub, log)
	}

	if cfg.Sweep.Schedule == "" {
		if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("sweep failed")
		}
		return
	}

	sched := scheduler.New(ctx, log)
	if err := sched.Register(cfg.Sweep.Schedule, job); err != nil {
		log.Fatal().Err(err).Msg("schedule")
	}
	sched.Start()
	go sched.RunNow()
	<-ctx.Done()
	sched.Stop()
}

func runSweep(ctx context.Context, cfg *config.Config, factory strategy.Factory, series []data.Series,
	rec recorder.Recorder, hub *progress.Hub, log zerolog.Logger) error {
	interval, _ := cfg.Interval()
	constraints, _ := cfg.Constraints()
	fixed := cfg.Fixed()

	combos, err := sweep.Enumerate(cfg.Sweep.Ranges, fixed)
	if err != nil {
		return err
	}
	symbols := make([]string, len(series))
	for i, s := range series {
		symbols[i] = s.Symbol
	}
	id, err := rec.Begin(cfg.Strategy.Name, symbols, len(combos))
	if err != nil {
		return err
	}
	hub.Publish(progress.Event{Type: progress.EventStart, SweepID: id, Params: fixed.Map(), Time: time.Now().UTC()})

	opts := backtest.Options{
		StartingCash: cfg.Broker.StartingCash,
		Commission:   cfg.Broker.Commission,
		Percent:      cfg.Broker.Percent,
		MaxNotional:  cfg.Broker.MaxNotionalPerTrade,
		Interval:     interval,
		Log:          log,
	}
	ctrl := sweep.NewController(sweep.Backtest(factory, opts), sweep.Options{
		Workers:     cfg.Sweep.Workers,
		Fixed:       fixed,
		Constraints: constraints,
		Valid: func(c param.Combination) error {
			_, err := factory(c)
			return err
		},
		OnImprove: func(b sweep.Best) { hub.Publish(progress.Improvement(id, b)) },
		OnResult: func(a sweep.Aggregate) {
			if err := rec.RecordAggregate(id, a); err != nil {
				log.Error().Err(err).Msg("record aggregate")
			}
		},
		OnFailure: func(f sweep.Failure) {
			if err := rec.RecordFailure(id, f); err != nil {
				log.Error().Err(err).Msg("record failure")
			}
		},
		Log: log.With().Str("sweep", id).Logger(),
	})

	out, searchErr := ctrl.Search(ctx, cfg.Sweep.Ranges, series)
	if err := rec.Finish(id, out, searchErr); err != nil {
		log.Error().Err(err).Msg("record outcome")
	}
	done := progress.Event{Type: progress.EventDone, SweepID: id, Index: out.Best.Index, Value: out.Best.Value, Time: time.Now().UTC()}
	if out.Best.Found {
		done.Params = out.Best.Combination.Map()
	}
	hub.Publish(done)
	return searchErr
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
