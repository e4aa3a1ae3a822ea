package strategy

import (
	"fmt"
	"math"
	"time"

	"livetrade-go/internal/signal"
)

// OBIConfig tunes OBIMomentum. Zero values select the defaults.
type OBIConfig struct {
	Currency  string
	Symbols   []string
	Threshold float64       // minimum |score|, default 0.25
	Window    time.Duration // look-back span, default 60s
}

// OBIMomentum blends trade-flow imbalance with price drift over a sliding window.
type OBIMomentum struct {
	*Base
	cfg     OBIConfig
	windows *windows
}

// NewOBIMomentum builds an OBIMomentum with an empty account in cfg.Currency.
func NewOBIMomentum(cfg OBIConfig) *OBIMomentum {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.25
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &OBIMomentum{
		Base:    NewBase("OBIMomentum", cfg.Currency),
		cfg:     cfg,
		windows: newWindows(cfg.Window),
	}
}

// Initialize subscribes the configured symbols.
func (s *OBIMomentum) Initialize() error { return s.addSymbols(s.cfg.Symbols) }

// OnTick scores a tick for a symbol the strategy subscribed itself.
func (s *OBIMomentum) OnTick(t signal.Tick) *signal.Signal {
	if !s.tradable(t.Symbol) {
		return nil
	}
	st := s.windows.observe(t)
	momentum := math.Tanh(st.drift * 3)
	score := 0.6*st.imbalance + 0.4*momentum
	if math.Abs(score) < s.cfg.Threshold {
		return nil
	}
	return &signal.Signal{
		Symbol: t.Symbol,
		Score:  score,
		Reason: fmt.Sprintf("obi=%.2f momentum=%.2f n=%d", st.imbalance, momentum, st.count),
		Ts:     t.Ts,
	}
}
