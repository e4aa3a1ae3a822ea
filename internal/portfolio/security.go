package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"livetrade-go/internal/signal"
)

// ErrSecurityLimit is returned when adding a security beyond the configured cap.
var ErrSecurityLimit = errors.New("security limit reached")

// ErrUnknownSecurity is returned when mutating a symbol that was never added.
var ErrUnknownSecurity = errors.New("unknown security")

// SecurityType classifies a tradable instrument.
type SecurityType string

const (
	Equity SecurityType = "equity"
	Forex  SecurityType = "forex"
	Crypto SecurityType = "crypto"
	Future SecurityType = "future"
	Option SecurityType = "option"
	Base   SecurityType = "base"
)

// ParseSecurityType maps a loose type name to a SecurityType, defaulting to Equity.
func ParseSecurityType(raw string) SecurityType {
	switch SecurityType(strings.ToLower(strings.TrimSpace(raw))) {
	case Forex:
		return Forex
	case Crypto:
		return Crypto
	case Future:
		return Future
	case Option:
		return Option
	case Base:
		return Base
	default:
		return Equity
	}
}

// Resolution is a data subscription granularity. Lower values are finer; zero is unset.
type Resolution int

const (
	Tick Resolution = iota + 1
	Second
	Minute
	Hour
	Daily
)

func (r Resolution) String() string {
	switch r {
	case Tick:
		return "tick"
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Daily:
		return "daily"
	default:
		return fmt.Sprintf("resolution(%d)", int(r))
	}
}

// ParseResolution maps a name to a Resolution.
func ParseResolution(raw string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tick":
		return Tick, nil
	case "second":
		return Second, nil
	case "minute", "":
		return Minute, nil
	case "hour":
		return Hour, nil
	case "daily", "day":
		return Daily, nil
	}
	return Minute, fmt.Errorf("unknown resolution %q", raw)
}

// Holding is a position on one security.
type Holding struct {
	AveragePrice decimal.Decimal `json:"average_price"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Security is a subscribed instrument and its current position.
type Security struct {
	Symbol     string
	Type       SecurityType
	Resolution Resolution
	Leverage   decimal.Decimal
	// Unrequested marks securities added on the algorithm's behalf, not by its own code.
	Unrequested bool
	Holdings    Holding
	LastBar     *signal.Bar
}

// Price is the close of the last bar, zero before any data.
func (s Security) Price() decimal.Decimal {
	if s.LastBar == nil {
		return decimal.Zero
	}
	return s.LastBar.Close
}

// HoldingsValue is quantity times the last price.
func (s Security) HoldingsValue() decimal.Decimal {
	return s.Holdings.Quantity.Mul(s.Price())
}

// Securities maps symbols to subscribed securities.
type Securities struct {
	mu    sync.RWMutex
	limit int
	items map[string]*Security
}

// NewSecurities creates an empty security map; limit <= 0 means unbounded.
func NewSecurities(limit int) *Securities {
	return &Securities{limit: limit, items: make(map[string]*Security)}
}

// SetLimit changes the cap for future additions.
func (s *Securities) SetLimit(limit int) {
	s.mu.Lock()
	s.limit = limit
	s.mu.Unlock()
}

// Add subscribes sec. Re-adding a known symbol replaces its settings and keeps its holdings.
func (s *Securities) Add(sec Security) error {
	if sec.Symbol == "" {
		return errors.New("security symbol is empty")
	}
	if sec.Leverage.IsZero() {
		sec.Leverage = decimal.NewFromInt(1)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[sec.Symbol]; ok {
		sec.Holdings = existing.Holdings
		sec.LastBar = existing.LastBar
		s.items[sec.Symbol] = &sec
		return nil
	}
	if s.limit > 0 && len(s.items) >= s.limit {
		return fmt.Errorf("%w: %d securities, cannot add %s", ErrSecurityLimit, s.limit, sec.Symbol)
	}
	s.items[sec.Symbol] = &sec
	return nil
}

// Contains reports whether symbol is subscribed.
func (s *Securities) Contains(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[symbol]
	return ok
}

// Get returns a copy of the security for symbol.
func (s *Securities) Get(symbol string) (Security, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.items[symbol]
	if !ok {
		return Security{}, false
	}
	return *sec, true
}

// Len returns the number of subscribed securities.
func (s *Securities) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Symbols returns subscribed symbols sorted.
func (s *Securities) Symbols() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.items))
	for sym := range s.items {
		out = append(out, sym)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// SetHoldings records the position on symbol.
func (s *Securities) SetHoldings(symbol string, averagePrice, quantity decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.items[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSecurity, symbol)
	}
	sec.Holdings = Holding{AveragePrice: averagePrice, Quantity: quantity}
	return nil
}

// SetMarketPrice stores bar as the last known price of its symbol.
func (s *Securities) SetMarketPrice(bar signal.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.items[bar.Symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSecurity, bar.Symbol)
	}
	b := bar
	sec.LastBar = &b
	return nil
}

// MinResolution returns the finest resolution among subscriptions, false when empty.
func (s *Securities) MinResolution() (Resolution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) == 0 {
		return 0, false
	}
	finest := Daily
	for _, sec := range s.items {
		if sec.Resolution < finest {
			finest = sec.Resolution
		}
	}
	return finest, true
}

// Invested counts securities with a non-zero position.
func (s *Securities) Invested() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sec := range s.items {
		if !sec.Holdings.Quantity.IsZero() {
			n++
		}
	}
	return n
}

// IsInvested reports whether symbol carries a non-zero position.
func (s *Securities) IsInvested(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.items[symbol]
	return ok && !sec.Holdings.Quantity.IsZero()
}

// HoldingsValue sums the marked value of every position.
func (s *Securities) HoldingsValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, sec := range s.items {
		total = total.Add(sec.HoldingsValue())
	}
	return total
}
