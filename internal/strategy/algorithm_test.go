package strategy

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"livetrade-go/internal/portfolio"
	"livetrade-go/internal/risk"
)

var _ Algorithm = (*OBIMomentum)(nil)
var _ Algorithm = (*TrendFollower)(nil)

func TestRequestStopIdempotentAndConcurrent(t *testing.T) {
	b := NewBase("test", "USD")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.SetRuntimeError(errors.New("fatal"))
			b.RequestStop()
		}()
	}
	wg.Wait()

	select {
	case <-b.Done():
	default:
		t.Fatalf("expected done channel closed")
	}
	if b.RuntimeError() == nil {
		t.Fatalf("expected runtime error recorded")
	}
}

func TestAssetLimitsCapSecurities(t *testing.T) {
	b := NewBase("test", "USD")
	b.SetAssetLimits(risk.AssetLimits{Securities: 1, Orders: 5, Positions: 1})
	if err := b.AddSecurity("A", portfolio.Equity, portfolio.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.AddSecurity("B", portfolio.Equity, portfolio.Minute); !errors.Is(err, portfolio.ErrSecurityLimit) {
		t.Fatalf("expected security limit, got %v", err)
	}
	if b.AssetLimits().Orders != 5 {
		t.Fatalf("limits not stored")
	}
}

func TestLiveModeAndCash(t *testing.T) {
	b := NewBase("test", "EUR")
	if b.LiveMode() {
		t.Fatalf("expected simulated mode by default")
	}
	b.SetLiveMode(true)
	if !b.LiveMode() {
		t.Fatalf("expected live mode")
	}
	b.SetCash("EUR", decimal.NewFromInt(10), decimal.NewFromInt(1))
	if b.Account().Cash.Base() != "EUR" || b.Account().Cash.Len() != 1 {
		t.Fatalf("unexpected cash book")
	}
}

func TestBuiltinCatalogInitializes(t *testing.T) {
	cat := Builtin(Params{Symbols: []string{"BTCUSDT", "ETHUSDT"}, Currency: "USD"})
	if cat.Location() != BuiltinLocation || len(cat.Types()) != 2 {
		t.Fatalf("unexpected catalog %+v", cat)
	}
	for _, desc := range cat.Types() {
		alg := desc.New()
		if alg.Name() != desc.Name {
			t.Fatalf("descriptor %s built %s", desc.Name, alg.Name())
		}
		if err := alg.Initialize(); err != nil {
			t.Fatalf("%s initialize: %v", desc.Name, err)
		}
		if alg.Account().Securities.Len() != 2 {
			t.Fatalf("%s expected 2 securities", desc.Name)
		}
	}
}

func TestBuildSelectsByMode(t *testing.T) {
	if Build("trend", Params{}).Name() != "TrendFollower" {
		t.Fatalf("expected trend follower")
	}
	if Build("", Params{}).Name() != "OBIMomentum" {
		t.Fatalf("expected obi default")
	}
}
