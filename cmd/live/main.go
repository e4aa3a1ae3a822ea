// Binary live brings a strategy up against a brokerage account and trades it from the market feed.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"livetrade-go/internal/config"
	"livetrade-go/internal/engine"
	"livetrade-go/internal/exchange"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/loader"
	"livetrade-go/internal/metrics"
	"livetrade-go/internal/portfolio"
	"livetrade-go/internal/reconcile"
	"livetrade-go/internal/risk"
	"livetrade-go/internal/runlog"
	"livetrade-go/internal/setup"
	sig "livetrade-go/internal/signal"
	"livetrade-go/internal/status"
	"livetrade-go/internal/util"
)

func main() {
	cfgPath := flag.String("config", "internal/config/config.yaml", "path to config yaml")
	orderQty := flag.String("qty", "0.001", "quantity per signal order")
	flag.Parse()

	log := util.NewLogger("info")
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *cfgPath).Msg("load config")
	}
	config.ApplyEnv(cfg)
	log = util.NewLogger(cfg.App.LogLevel)

	qty, err := decimal.NewFromString(*orderQty)
	if err != nil {
		log.Fatal().Err(err).Str("qty", *orderQty).Msg("parse order quantity")
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	artifact, err := artifactFrom(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("strategy artifact")
	}
	ld := loader.New(util.Component(log, "loader"), loader.Options{
		Hint:    cfg.Strategy.Hint,
		Timeout: cfg.Setup.LoadTimeout,
	})
	alg, err := ld.Instantiate(ctx, artifact)
	if err != nil {
		log.Fatal().Err(err).Msg("load strategy")
	}

	resolution, err := portfolio.ParseResolution(cfg.Setup.DefaultResolution)
	if err != nil {
		log.Fatal().Err(err).Msg("default resolution")
	}

	feed := exchange.NewFeed(cfg.Feed.Provider, nil, util.Component(log, "feed"),
		exchange.WithInterval(cfg.Feed.Interval),
		exchange.WithSeedPrices(cfg.Feed.SeedPrices),
	)

	store, err := runlog.Open(ctx, runlogFrom(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("open run log")
	}
	defer store.Close()

	coordinator := setup.NewCoordinator(util.Component(log, "setup"), setup.Deps{
		Resolver: registryFrom(cfg, util.Component(log, "brokerage")),
		Reporter: status.NewLogReporter(util.Component(log, "status")),
		Reconciler: reconcile.New(util.Component(log, "reconcile"), reconcile.Options{
			Feeds:             feed,
			DefaultResolution: resolution,
		}),
		Store: store,
	}, setup.Config{
		InitTimeout:    cfg.Setup.InitTimeout,
		ConnectTimeout: cfg.Setup.ConnectTimeout,
	})

	res := coordinator.Setup(ctx, alg, jobFrom(cfg))
	if !res.OK() {
		log.Error().Strs("errors", res.Errors).Str("state", res.State.String()).Msg("live setup failed")
		store.Close()
		os.Exit(1)
	}
	defer res.Close()

	// Everything the account now tracks is streamed, including securities synthesized from holdings.
	feed.Subscribe(alg.Account().Securities.Symbols()...)

	ticks := make(chan sig.Tick, 1024)
	go func() {
		if err := feed.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
			cancel()
		}
	}()

	limits := risk.Limits{MaxNotionalPerTrade: decimal.NewFromFloat(cfg.Risk.MaxNotionalPerTrade)}
	acct := alg.Account()
	exec := execution.NewExecutor(util.Component(log, "execution"), acct.Orders, acct.Securities, limits, alg.AssetLimits())
	eng := engine.New(util.Component(log, "engine"), alg, exec, qty)

	log.Info().
		Str("job", res.JobID).
		Str("strategy", alg.Name()).
		Str("starting_value", res.StartingValue.String()).
		Msg("live engine started")

	err = eng.Run(ctx, ticks)
	switch {
	case err == nil:
		log.Info().Msg("strategy stopped")
	case errors.Is(err, context.Canceled):
		log.Info().Msg("shutting down")
	default:
		log.Error().Err(err).Msg("engine stopped")
	}
}
