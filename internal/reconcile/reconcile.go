// Package reconcile merges brokerage-reported account state into an algorithm's account model.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/metrics"
	"livetrade-go/internal/portfolio"
	"livetrade-go/internal/signal"
	"livetrade-go/internal/strategy"
	"livetrade-go/internal/util"
)

// Source is the part of a brokerage the reconciler reads from.
type Source interface {
	CashBalances(ctx context.Context) ([]brokerage.Cash, error)
	OpenOrders(ctx context.Context) ([]execution.Order, error)
	Holdings(ctx context.Context) ([]brokerage.Holding, error)
}

// FeedSubscriber adds symbols to the market data feed and reports which were new.
type FeedSubscriber interface {
	Subscribe(symbols ...string) []string
}

// Options tune synthesis of unknown securities.
type Options struct {
	Feeds FeedSubscriber
	// DefaultResolution applies to a synthesized security when nothing else is subscribed.
	// Unset means Minute.
	DefaultResolution portfolio.Resolution
	Now               func() time.Time
}

// Reconciler applies cash, then open orders, then holdings, then ensures currency feeds.
type Reconciler struct {
	log  zerolog.Logger
	opts Options
}

// Phase names a reconciliation step in errors.
type Phase string

const (
	PhaseCash     Phase = "cash"
	PhaseOrders   Phase = "orders"
	PhaseHoldings Phase = "holdings"
)

// Error locates a reconciliation failure by phase and, when known, the record's symbol.
type Error struct {
	Phase  Phase
	Symbol string
	Err    error
}

func (e *Error) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("reconcile %s (%s): %v", e.Phase, e.Symbol, e.Err)
	}
	return fmt.Sprintf("reconcile %s: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a Reconciler.
func New(log zerolog.Logger, opts Options) *Reconciler {
	if opts.DefaultResolution == 0 {
		opts.DefaultResolution = portfolio.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{log: util.Component(log, "reconcile"), opts: opts}
}

// Sync pulls the three snapshots in order and applies each. The first failure aborts the rest.
func (r *Reconciler) Sync(ctx context.Context, src Source, alg strategy.Algorithm) error {
	cash, err := src.CashBalances(ctx)
	if err != nil {
		return &Error{Phase: PhaseCash, Err: err}
	}
	if err := r.ApplyCash(alg, cash); err != nil {
		return err
	}

	orders, err := src.OpenOrders(ctx)
	if err != nil {
		return &Error{Phase: PhaseOrders, Err: err}
	}
	if err := r.ApplyOrders(alg, orders); err != nil {
		return err
	}

	holdings, err := src.Holdings(ctx)
	if err != nil {
		return &Error{Phase: PhaseHoldings, Err: err}
	}
	if err := r.ApplyHoldings(alg, holdings); err != nil {
		return err
	}

	added := r.EnsureCurrencyFeeds(alg)
	r.log.Info().
		Int("cash", len(cash)).
		Int("orders", len(orders)).
		Int("holdings", len(holdings)).
		Strs("currency_feeds", added).
		Msg("account state reconciled")
	return nil
}

// ApplyCash sets every reported balance and rate; unknown currencies are added.
// A zero rate is stored as is, so the balance stays out of the valuation until a feed marks it.
func (r *Reconciler) ApplyCash(alg strategy.Algorithm, balances []brokerage.Cash) error {
	for i, c := range balances {
		if strings.TrimSpace(c.Currency) == "" {
			return &Error{Phase: PhaseCash, Err: fmt.Errorf("record %d has no currency", i)}
		}
		alg.SetCash(c.Currency, c.Amount, c.ConversionRate)
		metrics.ReconciledRecordsTotal.WithLabelValues(string(PhaseCash)).Inc()
	}
	return nil
}

// ApplyOrders gives every reported order a fresh local id and stores it under that id.
// The brokerage's own identifier is kept in BrokerID only.
func (r *Reconciler) ApplyOrders(alg strategy.Algorithm, orders []execution.Order) error {
	book := alg.Account().Orders
	for _, o := range orders {
		if o.Symbol == "" {
			return &Error{Phase: PhaseOrders, Symbol: o.BrokerID, Err: errors.New("order has no symbol")}
		}
		o.ID = book.NextID()
		book.Upsert(o)
		metrics.ReconciledRecordsTotal.WithLabelValues(string(PhaseOrders)).Inc()
		r.log.Debug().Str("broker_id", o.BrokerID).Int64("id", o.ID).Str("sym", o.Symbol).Msg("open order mapped")
	}
	return nil
}

// ApplyHoldings records every position, synthesizing a subscription for unknown symbols,
// and seeds a flat bar at the average price.
func (r *Reconciler) ApplyHoldings(alg strategy.Algorithm, holdings []brokerage.Holding) error {
	secs := alg.Account().Securities
	now := r.opts.Now()
	for _, h := range holdings {
		if h.Symbol == "" {
			return &Error{Phase: PhaseHoldings, Err: errors.New("holding has no symbol")}
		}
		if !secs.Contains(h.Symbol) {
			res, ok := secs.MinResolution()
			if !ok {
				res = r.opts.DefaultResolution
			}
			kind := h.Type
			if kind == "" {
				kind = portfolio.Equity
			}
			err := secs.Add(portfolio.Security{
				Symbol:      h.Symbol,
				Type:        kind,
				Resolution:  res,
				Leverage:    decimal.NewFromInt(1),
				Unrequested: true,
			})
			if err != nil {
				return &Error{Phase: PhaseHoldings, Symbol: h.Symbol, Err: err}
			}
			r.log.Info().Str("sym", h.Symbol).Str("resolution", res.String()).Msg("added unrequested security for holding")
		}
		if err := secs.SetHoldings(h.Symbol, h.AveragePrice, h.Quantity); err != nil {
			return &Error{Phase: PhaseHoldings, Symbol: h.Symbol, Err: err}
		}
		if err := secs.SetMarketPrice(signal.FlatBar(h.Symbol, h.AveragePrice, now)); err != nil {
			return &Error{Phase: PhaseHoldings, Symbol: h.Symbol, Err: err}
		}
		metrics.ReconciledRecordsTotal.WithLabelValues(string(PhaseHoldings)).Inc()
	}
	return nil
}

// EnsureCurrencyFeeds subscribes the conversion pairs of every non-base balance
// and returns the pairs that were newly added.
func (r *Reconciler) EnsureCurrencyFeeds(alg strategy.Algorithm) []string {
	if r.opts.Feeds == nil {
		return nil
	}
	return r.opts.Feeds.Subscribe(alg.Account().Cash.ConversionSymbols()...)
}
