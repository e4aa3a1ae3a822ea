package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/brokerage/simbroker"
	"livetrade-go/internal/brokerage/solana"
	"livetrade-go/internal/brokerage/wsbroker"
	"livetrade-go/internal/config"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
	"livetrade-go/internal/portfolio"
	"livetrade-go/internal/risk"
	"livetrade-go/internal/runlog"
	"livetrade-go/internal/strategy"
)

func jobFrom(cfg *config.Config) job.Job {
	return job.Job{
		ID:          cfg.Job.ID,
		Mode:        cfg.Job.Mode,
		Brokerage:   cfg.Job.Brokerage,
		ServerClass: risk.ServerClass(cfg.Job.ServerClass),
		UserID:      cfg.Job.UserID,
		Settings:    cfg.Job.Settings,
	}.WithDefaults()
}

func paramsFrom(cfg *config.Config) strategy.Params {
	p := cfg.Strategy.Params
	return strategy.Params{
		Symbols:           cfg.Strategy.Symbols,
		Currency:          cfg.Setup.BaseCurrency,
		OBILevels:         p.OBILevels,
		OBIThreshold:      p.OBIThreshold,
		VolWindowSecs:     p.VolWindowSecs,
		TrendThreshold:    p.TrendThreshold,
		TrendWindowSecs:   p.TrendWindowSecs,
		TrendMinVolumeUSD: p.TrendMinVolumeUSD,
	}
}

// artifactFrom resolves the configured strategy location. Only the compiled-in catalog is available.
func artifactFrom(cfg *config.Config) (strategy.Catalog, error) {
	loc := strings.TrimSpace(cfg.Strategy.Artifact)
	if loc != "" && !strings.EqualFold(loc, strategy.BuiltinLocation) {
		return strategy.Catalog{}, fmt.Errorf("unsupported strategy artifact %q", loc)
	}
	return strategy.Builtin(paramsFrom(cfg)), nil
}

func seedFrom(sim config.SimBroker) simbroker.Seed {
	seed := simbroker.Seed{Failures: sim.Failures, Latency: sim.Latency}
	for _, c := range sim.Cash {
		seed.Cash = append(seed.Cash, brokerage.Cash{
			Currency:       c.Currency,
			Amount:         decimal.NewFromFloat(c.Amount),
			ConversionRate: decimal.NewFromFloat(c.ConversionRate),
		})
	}
	for _, o := range sim.Orders {
		qty := decimal.NewFromFloat(o.Quantity)
		side := execution.Side(strings.ToUpper(o.Side))
		if side == "" {
			side = execution.Buy
			if qty.IsNegative() {
				side = execution.Sell
			}
		}
		seed.Orders = append(seed.Orders, execution.Order{
			BrokerID: o.ID,
			Symbol:   o.Symbol,
			Side:     side,
			Qty:      qty.Abs(),
			Price:    decimal.NewFromFloat(o.Price),
		})
	}
	for _, h := range sim.Holdings {
		seed.Holdings = append(seed.Holdings, brokerage.Holding{
			Symbol:       h.Symbol,
			Type:         portfolio.ParseSecurityType(h.Type),
			AveragePrice: decimal.NewFromFloat(h.AveragePrice),
			Quantity:     decimal.NewFromFloat(h.Quantity),
		})
	}
	return seed
}

func registryFrom(cfg *config.Config, log zerolog.Logger) *brokerage.Registry {
	ws := cfg.Brokerages.Websocket
	sol := cfg.Brokerages.Solana
	return brokerage.NewRegistry(
		simbroker.NewFactory(seedFrom(cfg.Brokerages.Sim)),
		wsbroker.NewFactory(wsbroker.Config{
			URL:              ws.URL,
			Token:            ws.Token,
			HandshakeTimeout: ws.HandshakeTimeout,
			RequestTimeout:   ws.RequestTimeout,
			PingInterval:     ws.PingInterval,
		}, log),
		solana.NewFactory(solana.Config{
			RPCURL:         sol.RPCURL,
			Owner:          sol.Owner,
			Commitment:     sol.Commitment,
			Rate:           decimal.NewFromFloat(sol.SOLRate),
			HealthInterval: sol.HealthInterval,
		}, log),
	)
}

func runlogFrom(cfg *config.Config) runlog.Options {
	return runlog.Options{JSONLPath: cfg.Runlog.JSONLPath, PostgresDSN: cfg.Runlog.PostgresDSN}
}
