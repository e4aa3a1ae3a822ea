// Package signal standardizes payloads shared between data ingestion, the account model and strategies.
package signal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick models the essential pieces of market data consumed by strategies.
type Tick struct {
	Symbol string
	Price  float64
	Size   float64
	Side   int // +1 buy, -1 sell (aggressor)
	Ts     time.Time
}

// Signal expresses a trading bias produced by a strategy implementation.
type Signal struct {
	Symbol string
	Score  float64 // positive long bias, negative short bias
	Reason string
	Ts     time.Time
}

// Bar is an OHLCV summary used as a security's last known price.
type Bar struct {
	Symbol string
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
	Ts     time.Time
}

// FlatBar builds a zero-volume bar whose four prices all equal price.
func FlatBar(symbol string, price decimal.Decimal, ts time.Time) Bar {
	return Bar{
		Symbol: symbol,
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
		Volume: decimal.Zero,
		Ts:     ts,
	}
}
