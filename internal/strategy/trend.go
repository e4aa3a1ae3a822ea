package strategy

import (
	"fmt"
	"math"
	"time"

	"livetrade-go/internal/signal"
)

// TrendConfig tunes TrendFollower. Zero values select the defaults.
type TrendConfig struct {
	Currency    string
	Symbols     []string
	Threshold   float64       // minimum |relative change|, default 0.05
	Window      time.Duration // look-back span, default 3m
	MinNotional float64       // traded notional the window must hold; 0 disables
}

// TrendFollower signals when the price drift over its window clears a threshold on enough volume.
type TrendFollower struct {
	*Base
	cfg     TrendConfig
	windows *windows
}

// NewTrendFollower builds a TrendFollower with an empty account in cfg.Currency.
func NewTrendFollower(cfg TrendConfig) *TrendFollower {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.05
	}
	if cfg.Window <= 0 {
		cfg.Window = 3 * time.Minute
	}
	cfg.MinNotional = math.Max(0, cfg.MinNotional)
	return &TrendFollower{
		Base:    NewBase("TrendFollower", cfg.Currency),
		cfg:     cfg,
		windows: newWindows(cfg.Window),
	}
}

// Initialize subscribes the configured symbols.
func (t *TrendFollower) Initialize() error { return t.addSymbols(t.cfg.Symbols) }

// OnTick evaluates drift and volume for a symbol the strategy subscribed itself.
func (t *TrendFollower) OnTick(tk signal.Tick) *signal.Signal {
	if tk.Price <= 0 || !t.tradable(tk.Symbol) {
		return nil
	}
	st := t.windows.observe(tk)
	if math.Abs(st.drift) < t.cfg.Threshold || st.notional < t.cfg.MinNotional {
		return nil
	}
	return &signal.Signal{
		Symbol: tk.Symbol,
		Score:  st.drift,
		Reason: fmt.Sprintf("drift=%.2f%% notional=%.0f", st.drift*100, st.notional),
		Ts:     tk.Ts,
	}
}
