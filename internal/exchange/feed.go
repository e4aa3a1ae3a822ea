// Package exchange hosts the market data feed and its symbol subscriptions.
package exchange

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"livetrade-go/internal/metrics"
	"livetrade-go/internal/signal"
)

// ProviderStub emits deterministic synthetic ticks (useful for tests/offline work).
const ProviderStub = "stub"

// Feed tracks subscribed symbols and streams ticks for them.
type Feed struct {
	provider string
	log      zerolog.Logger
	interval time.Duration

	mu      sync.RWMutex
	symbols []string
	prices  map[string]float64
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultInterval  = 500 * time.Millisecond
	defaultStubPrice = 100.0
)

// WithInterval overrides the default tick cadence.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// WithSeedPrices sets the starting price per symbol for the stub provider.
func WithSeedPrices(prices map[string]float64) Option {
	return func(f *Feed) {
		for sym, px := range prices {
			if px > 0 {
				f.prices[sym] = px
			}
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider: strings.ToLower(provider),
		log:      log,
		interval: defaultInterval,
		prices:   make(map[string]float64),
	}
	f.SetSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetSymbols replaces the tracked symbol list (deduplicated, sorted for determinism).
func (f *Feed) SetSymbols(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols = f.symbols[:0]
	f.addLocked(symbols)
}

// Subscribe adds symbols to the feed and returns the ones that were not tracked yet.
func (f *Feed) Subscribe(symbols ...string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	added := f.addLocked(symbols)
	if len(added) > 0 {
		f.log.Info().Strs("symbols", added).Msg("feed subscribed")
	}
	return added
}

func (f *Feed) addLocked(symbols []string) []string {
	known := make(map[string]struct{}, len(f.symbols))
	for _, sym := range f.symbols {
		known[sym] = struct{}{}
	}
	var added []string
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		if _, ok := known[sym]; ok {
			continue
		}
		known[sym] = struct{}{}
		f.symbols = append(f.symbols, sym)
		added = append(added, sym)
	}
	sort.Strings(f.symbols)
	return added
}

// Symbols returns a copy of the tracked symbols.
func (f *Feed) Symbols() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// Run pushes ticks onto the provided channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- signal.Tick) error {
	switch f.provider {
	case ProviderStub:
		return f.runStub(ctx, out)
	default:
		return fmt.Errorf("unsupported feed provider %q", f.provider)
	}
}

func (f *Feed) nextStubPrice(sym string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	px, ok := f.prices[sym]
	if !ok {
		px = defaultStubPrice
	}
	px += px * 0.001
	f.prices[sym] = px
	return px
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.Tick) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			for _, s := range f.Symbols() {
				tick := signal.Tick{Symbol: s, Price: f.nextStubPrice(s), Size: 1, Side: 1, Ts: ts}
				select {
				case out <- tick:
					metrics.TicksTotal.WithLabelValues(s).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
