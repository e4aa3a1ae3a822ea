package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"livetrade-go/internal/brokerage/simbroker"
	"livetrade-go/internal/brokerage/solana"
	"livetrade-go/internal/brokerage/wsbroker"
	"livetrade-go/internal/config"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/loader"
	"livetrade-go/internal/portfolio"
)

func loadSample(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "..", "internal", "config", "testdata", "config.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestJobFrom(t *testing.T) {
	cfg := loadSample(t)
	j := jobFrom(cfg)
	require.Equal(t, "job-test", j.ID)
	require.NoError(t, j.Validate())
	require.Equal(t, 200, j.Limits().Securities)

	cfg.Job.ID = ""
	require.NotEmpty(t, jobFrom(cfg).ID)
}

func TestSeedFrom(t *testing.T) {
	seed := seedFrom(config.SimBroker{
		Cash: []config.SimCash{{Currency: "USD", Amount: 100, ConversionRate: 1}},
		Orders: []config.SimOrder{
			{ID: "A", Symbol: "BTCUSDT", Quantity: -2, Price: 10},
			{ID: "B", Symbol: "BTCUSDT", Side: "buy", Quantity: 1, Price: 10},
		},
		Holdings: []config.SimHolding{{Symbol: "EURUSD", Type: "forex", AveragePrice: 1.1, Quantity: 1000}},
	})

	require.Len(t, seed.Cash, 1)
	require.Len(t, seed.Orders, 2)
	require.Equal(t, execution.Sell, seed.Orders[0].Side)
	require.Equal(t, "2", seed.Orders[0].Qty.String())
	require.Equal(t, execution.Buy, seed.Orders[1].Side)
	require.Equal(t, "B", seed.Orders[1].BrokerID)
	require.Equal(t, portfolio.Forex, seed.Holdings[0].Type)
}

func TestRegistryFromKnowsEveryDriver(t *testing.T) {
	reg := registryFrom(loadSample(t), zerolog.Nop())
	require.ElementsMatch(t, []string{simbroker.TypeName, wsbroker.TypeName, solana.TypeName}, reg.Names())

	f, err := reg.Resolve("Sim-Broker")
	require.NoError(t, err)
	require.Equal(t, simbroker.TypeName, f.TypeName())
}

func TestArtifactFrom(t *testing.T) {
	cfg := loadSample(t)
	cat, err := artifactFrom(cfg)
	require.NoError(t, err)
	require.Len(t, cat.Types(), 2)

	cfg.Strategy.Artifact = "/tmp/strategy.so"
	_, err = artifactFrom(cfg)
	require.Error(t, err)
}

func TestShippedConfigLoadsAStrategy(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "internal", "config", "config.yaml"))
	require.NoError(t, err)

	cat, err := artifactFrom(cfg)
	require.NoError(t, err)
	ld := loader.New(zerolog.Nop(), loader.Options{Hint: cfg.Strategy.Hint, Timeout: time.Second})
	alg, err := ld.Instantiate(context.Background(), cat)
	require.NoError(t, err)
	require.Equal(t, "OBIMomentum", alg.Name())

	require.NoError(t, jobFrom(cfg).Validate())
	_, err = registryFrom(cfg, zerolog.Nop()).Resolve(cfg.Job.Brokerage)
	require.NoError(t, err)
}
