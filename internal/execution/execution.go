// Package execution handles order records and local order creation.
package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/metrics"
	"livetrade-go/internal/risk"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Order is an open order tracked by the account model. ID is always process-local;
// BrokerID keeps whatever identifier the brokerage reported.
type Order struct {
	ID       int64           `json:"id"`
	BrokerID string          `json:"broker_id,omitempty"`
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Qty      decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"` // zero for market
	Created  time.Time       `json:"created"`
}

// SignedQty returns Qty negated for sells.
func (o Order) SignedQty() decimal.Decimal {
	if o.Side == Sell {
		return o.Qty.Neg()
	}
	return o.Qty
}

// Notional is Qty*Price; market orders report zero.
func (o Order) Notional() decimal.Decimal {
	return o.Qty.Mul(o.Price)
}

// OrderBook is the slice of the account model the executor writes to.
type OrderBook interface {
	NextID() int64
	Upsert(Order)
	Len() int
}

// PositionBook reports how many symbols currently carry a position.
type PositionBook interface {
	Invested() int
	IsInvested(symbol string) bool
}

var (
	ErrInvalidOrder   = errors.New("invalid order")
	ErrNotionalLimit  = errors.New("order notional above per-trade limit")
	ErrOpenOrderLimit = errors.New("open order limit reached")
	ErrPositionLimit  = errors.New("position limit reached")
)

// Executor creates local orders, drawing identifiers from the account's order counter.
type Executor struct {
	log       zerolog.Logger
	orders    OrderBook
	positions PositionBook
	limits    risk.Limits
	assets    risk.AssetLimits
}

// NewExecutor wires an executor to the account's order and position books.
func NewExecutor(log zerolog.Logger, orders OrderBook, positions PositionBook, limits risk.Limits, assets risk.AssetLimits) *Executor {
	return &Executor{log: log, orders: orders, positions: positions, limits: limits, assets: assets}
}

// Submit validates order against the configured limits, assigns it a local id and records it.
// The open-order cap counts every order held in the book. Nothing in the run loop fills or
// cancels local orders, so there the cap bounds the orders placed over the whole run; an
// order removed from the book frees its slot.
func (executor *Executor) Submit(order Order) (Order, error) {
	if order.Symbol == "" || !order.Qty.IsPositive() {
		return Order{}, fmt.Errorf("%w: symbol=%q qty=%s", ErrInvalidOrder, order.Symbol, order.Qty)
	}
	if order.Side != Buy && order.Side != Sell {
		return Order{}, fmt.Errorf("%w: side %q", ErrInvalidOrder, order.Side)
	}
	if !executor.limits.Allow(order.Notional()) {
		return Order{}, fmt.Errorf("%w: %s", ErrNotionalLimit, order.Notional())
	}
	if executor.assets.Orders > 0 && executor.orders.Len() >= executor.assets.Orders {
		return Order{}, ErrOpenOrderLimit
	}
	if executor.positions != nil && executor.assets.Positions > 0 &&
		!executor.positions.IsInvested(order.Symbol) && executor.positions.Invested() >= executor.assets.Positions {
		return Order{}, ErrPositionLimit
	}

	order.ID = executor.orders.NextID()
	if order.Created.IsZero() {
		order.Created = time.Now().UTC()
	}
	executor.orders.Upsert(order)

	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().
		Int64("id", order.ID).
		Str("sym", order.Symbol).
		Str("side", string(order.Side)).
		Str("qty", order.Qty.String()).
		Str("px", order.Price.String()).
		Msg("submit order")
	return order, nil
}
