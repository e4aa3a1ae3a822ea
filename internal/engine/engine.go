// Package engine drives a set-up algorithm from market ticks once the live session is running.
package engine

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/execution"
	"livetrade-go/internal/signal"
	"livetrade-go/internal/strategy"
)

// Submitter places orders on behalf of the algorithm.
type Submitter interface {
	Submit(order execution.Order) (execution.Order, error)
}

// ErrFeedClosed reports that the tick channel closed while the algorithm was still running.
var ErrFeedClosed = errors.New("feed closed")

// Engine marks prices, runs the strategy and forwards its signals as orders.
type Engine struct {
	log  zerolog.Logger
	alg  strategy.Algorithm
	exec Submitter
	qty  decimal.Decimal
}

// New builds an Engine that sizes every order at qty.
func New(log zerolog.Logger, alg strategy.Algorithm, exec Submitter, qty decimal.Decimal) *Engine {
	return &Engine{log: log, alg: alg, exec: exec, qty: qty}
}

// Run consumes ticks until ctx ends, the algorithm stops, or the feed closes.
// A stop requested by the algorithm returns its runtime error, if any.
func (e *Engine) Run(ctx context.Context, ticks <-chan signal.Tick) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.alg.Done():
			return e.alg.RuntimeError()
		case tk, ok := <-ticks:
			if !ok {
				return ErrFeedClosed
			}
			e.OnTick(tk)
		}
	}
}

// OnTick handles a single tick and returns the order it produced, if any.
func (e *Engine) OnTick(tk signal.Tick) (execution.Order, bool) {
	price := decimal.NewFromFloat(tk.Price)
	// Ticks for symbols the account does not track are still handed to the strategy.
	_ = e.alg.Account().Securities.SetMarketPrice(signal.FlatBar(tk.Symbol, price, tk.Ts))

	sig := e.alg.OnTick(tk)
	if sig == nil {
		return execution.Order{}, false
	}
	side := execution.Buy
	if sig.Score < 0 {
		side = execution.Sell
	}
	order, err := e.exec.Submit(execution.Order{
		Symbol: tk.Symbol,
		Side:   side,
		Qty:    e.qty,
		Price:  price,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("sym", tk.Symbol).Str("reason", sig.Reason).Msg("order rejected")
		return execution.Order{}, false
	}
	return order, true
}
