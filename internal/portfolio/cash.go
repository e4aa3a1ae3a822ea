// Package portfolio holds the algorithm's account model: cash book, open orders and securities.
// Each book guards its own map with its own mutex.
package portfolio

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Cash is one currency balance with its rate into the account currency.
type Cash struct {
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

// Value is Amount converted into the account currency.
func (c Cash) Value() decimal.Decimal { return c.Amount.Mul(c.ConversionRate) }

// CashBook tracks balances keyed by upper-cased currency code.
type CashBook struct {
	mu       sync.RWMutex
	base     string
	balances map[string]Cash
}

// NewCashBook creates an empty book denominated in base (USD when blank).
func NewCashBook(base string) *CashBook {
	base = normalizeCurrency(base)
	if base == "" {
		base = "USD"
	}
	return &CashBook{base: base, balances: make(map[string]Cash)}
}

// Base returns the account currency.
func (b *CashBook) Base() string { return b.base }

// SetCash sets amount and rate for currency, adding the currency if absent.
// The account currency always converts at 1.
func (b *CashBook) SetCash(currency string, amount, rate decimal.Decimal) {
	currency = normalizeCurrency(currency)
	if currency == "" {
		return
	}
	if currency == b.base {
		rate = decimal.NewFromInt(1)
	}
	b.mu.Lock()
	b.balances[currency] = Cash{Currency: currency, Amount: amount, ConversionRate: rate}
	b.mu.Unlock()
}

// Get returns the balance for currency.
func (b *CashBook) Get(currency string) (Cash, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.balances[normalizeCurrency(currency)]
	return c, ok
}

// Len returns the number of currencies held.
func (b *CashBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.balances)
}

// Snapshot returns balances sorted by currency.
func (b *CashBook) Snapshot() []Cash {
	b.mu.RLock()
	out := make([]Cash, 0, len(b.balances))
	for _, c := range b.balances {
		out = append(out, c)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// TotalValue sums every balance in the account currency.
func (b *CashBook) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Snapshot() {
		total = total.Add(c.Value())
	}
	return total
}

// ConversionSymbols lists the <CCY><BASE> pairs needed to mark non-base balances.
func (b *CashBook) ConversionSymbols() []string {
	var out []string
	for _, c := range b.Snapshot() {
		if c.Currency == b.base || c.Amount.IsZero() {
			continue
		}
		out = append(out, c.Currency+b.base)
	}
	return out
}

func normalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}
