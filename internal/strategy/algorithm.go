// Package strategy defines the algorithm capability surface the live bring-up drives,
// plus the built-in signal strategies.
package strategy

import (
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"livetrade-go/internal/portfolio"
	"livetrade-go/internal/risk"
	sig "livetrade-go/internal/signal"
)

// Algorithm is a live trading strategy together with the account model it owns.
type Algorithm interface {
	Name() string
	Initialize() error
	OnTick(t sig.Tick) *sig.Signal

	SetLiveMode(live bool)
	LiveMode() bool
	SetAssetLimits(limits risk.AssetLimits)
	AssetLimits() risk.AssetLimits
	SetCash(currency string, amount, rate decimal.Decimal)
	Account() *portfolio.Account

	SetRuntimeError(err error)
	RuntimeError() error
	// RequestStop is idempotent and safe to call from any goroutine.
	RequestStop()
	Done() <-chan struct{}
}

// Base carries the bookkeeping every Algorithm needs. Strategies embed *Base and
// provide Initialize and OnTick.
type Base struct {
	name    string
	account *portfolio.Account
	live    atomic.Bool

	mu         sync.Mutex
	limits     risk.AssetLimits
	runtimeErr error

	stopOnce sync.Once
	done     chan struct{}
}

// NewBase builds a Base with an empty account in the given currency.
func NewBase(name, currency string) *Base {
	return &Base{
		name:    name,
		account: portfolio.NewAccount(currency),
		done:    make(chan struct{}),
	}
}

// Name returns the identifier for the strategy implementation.
func (b *Base) Name() string { return b.name }

// Initialize is a no-op; strategies override it to add their securities.
func (b *Base) Initialize() error { return nil }

func (b *Base) SetLiveMode(live bool) { b.live.Store(live) }

func (b *Base) LiveMode() bool { return b.live.Load() }

// SetAssetLimits stores limits and caps the security map accordingly.
func (b *Base) SetAssetLimits(limits risk.AssetLimits) {
	b.mu.Lock()
	b.limits = limits
	b.mu.Unlock()
	b.account.Securities.SetLimit(limits.Securities)
}

func (b *Base) AssetLimits() risk.AssetLimits {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limits
}

func (b *Base) SetCash(currency string, amount, rate decimal.Decimal) {
	b.account.Cash.SetCash(currency, amount, rate)
}

func (b *Base) Account() *portfolio.Account { return b.account }

func (b *Base) SetRuntimeError(err error) {
	b.mu.Lock()
	b.runtimeErr = err
	b.mu.Unlock()
}

func (b *Base) RuntimeError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtimeErr
}

func (b *Base) RequestStop() {
	b.stopOnce.Do(func() { close(b.done) })
}

func (b *Base) Done() <-chan struct{} { return b.done }

// AddSecurity subscribes symbol at the given resolution.
func (b *Base) AddSecurity(symbol string, kind portfolio.SecurityType, res portfolio.Resolution) error {
	return b.account.Securities.Add(portfolio.Security{
		Symbol:     symbol,
		Type:       kind,
		Resolution: res,
		Leverage:   decimal.NewFromInt(1),
	})
}

// tradable reports whether symbol was subscribed by the algorithm itself.
// Securities synthesized from brokerage holdings are held, not traded.
func (b *Base) tradable(symbol string) bool {
	sec, ok := b.account.Securities.Get(symbol)
	return ok && !sec.Unrequested
}

func (b *Base) addSymbols(symbols []string) error {
	for _, s := range symbols {
		if err := b.AddSecurity(s, portfolio.Crypto, portfolio.Minute); err != nil {
			return err
		}
	}
	return nil
}
