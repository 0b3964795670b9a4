// Binary backtest runs one fixed parameter combination over every configured instrument.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/DorukKorkmaz/crypto-backtest/internal/backtest"
	"github.com/DorukKorkmaz/crypto-backtest/internal/config"
	"github.com/DorukKorkmaz/crypto-backtest/internal/data"
	"github.com/DorukKorkmaz/crypto-backtest/internal/paper"
	"github.com/DorukKorkmaz/crypto-backtest/internal/param"
	"github.com/DorukKorkmaz/crypto-backtest/internal/strategy"
	"github.com/DorukKorkmaz/crypto-backtest/internal/util"
)

func main() {
	path := flag.String("config", envOr("BACKTEST_CONFIG", "configs/atr_cross.yaml"), "path to the config")
	name := flag.String("strategy", "", "strategy name, overrides the config")
	params := flag.String("params", "", "name=value pairs, e.g. ma1_period=5,ma2_period=8")
	flag.Parse()

	log := util.NewConsoleLogger("info")
	cfg, err := config.LoadEnv(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *name != "" {
		cfg.Strategy.Name = *name
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log = util.NewConsoleLogger(cfg.App.LogLevel)

	overrides, err := param.Parse(*params)
	if err != nil {
		log.Fatal().Err(err).Msg("params")
	}
	combo := overrides.Merge(cfg.Fixed())

	factory, err := strategy.Lookup(cfg.Strategy.Name)
	if err != nil {
		log.Fatal().Err(err).Strs("known", strategy.Names()).Msg("strategy")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	series, err := data.LoadAll(ctx, cfg.Data.Dir, cfg.Data.Pattern, cfg.Data.Layout, cfg.Data.Symbols)
	if err != nil {
		log.Warn().Err(err).Int("loaded", len(series)).Msg("some instruments could not be loaded")
	}

	var fills *paper.JSONLRecorder
	if cfg.Broker.FillsPath != "" {
		if fills, err = paper.NewJSONLRecorder(cfg.Broker.FillsPath); err != nil {
			log.Fatal().Err(err).Msg("open fills file")
		}
		defer fills.Close()
	}

	interval, _ := cfg.Interval()
	total, ran := 0.0, 0
	for _, s := range series {
		if ctx.Err() != nil {
			break
		}
		opts := backtest.Options{
			StartingCash: cfg.Broker.StartingCash,
			Commission:   cfg.Broker.Commission,
			Percent:      cfg.Broker.Percent,
			MaxNotional:  cfg.Broker.MaxNotionalPerTrade,
			Interval:     interval,
			Log:          log,
		}
		if fills != nil {
			opts.Recorder = fills.For(s.Symbol + " " + combo.String())
		}
		res, err := backtest.Run(s, combo, factory, opts)
		if err != nil {
			log.Error().Err(err).Str("sym", s.Symbol).Msg("run failed")
			continue
		}
		ran++
		total += res.Value
		fmt.Printf("%-10s value=%.2f trades=%d rejected=%d bars=%d\n", res.Symbol, res.Value, res.Trades, res.Rejected, res.Bars)
	}
	fmt.Printf("%s %s instruments=%d aggregate=%.2f\n", cfg.Strategy.Name, combo, ran, total)
	if fills != nil {
		if err := fills.Err(); err != nil {
			log.Error().Err(err).Msg("write fills")
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
