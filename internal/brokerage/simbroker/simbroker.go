// Package simbroker is an in-memory brokerage driver seeded with a fixed account state.
package simbroker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
)

// TypeName is the registry name of this driver.
const TypeName = "sim-broker"

const messageBuffer = 64

// Call names accepted in Seed.Failures and Broker.Calls.
const (
	CallConnect  = "connect"
	CallCash     = "cash"
	CallOrders   = "orders"
	CallHoldings = "holdings"
)

// Seed is the account state the simulated brokerage reports.
type Seed struct {
	Cash     []brokerage.Cash
	Orders   []execution.Order
	Holdings []brokerage.Holding
	// Failures maps a call name to the error text that call returns.
	Failures map[string]string
	// Latency delays the handshake.
	Latency time.Duration
}

// Broker implements brokerage.Brokerage over a Seed.
type Broker struct {
	seed Seed

	mu        sync.Mutex
	connected bool
	closed    bool
	calls     map[string]int
	messages  chan brokerage.Message
}

// New builds a disconnected Broker.
func New(seed Seed) *Broker {
	return &Broker{
		seed:     seed,
		calls:    make(map[string]int),
		messages: make(chan brokerage.Message, messageBuffer),
	}
}

func (b *Broker) Name() string { return TypeName }

func (b *Broker) record(call string) error {
	b.mu.Lock()
	b.calls[call]++
	b.mu.Unlock()
	if text, ok := b.seed.Failures[call]; ok {
		return errors.New(text)
	}
	return nil
}

// Connect waits out the configured latency and marks the broker connected.
func (b *Broker) Connect(ctx context.Context) error {
	if err := b.record(CallConnect); err != nil {
		return err
	}
	if b.seed.Latency > 0 {
		timer := time.NewTimer(b.seed.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("connect: %w", ctx.Err())
		case <-timer.C:
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("connect: broker already released")
	}
	b.connected = true
	return nil
}

// Disconnect releases the broker and closes the message stream.
func (b *Broker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	if !b.closed {
		b.closed = true
		close(b.messages)
	}
	return nil
}

func (b *Broker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Broker) CashBalances(context.Context) ([]brokerage.Cash, error) {
	if err := b.record(CallCash); err != nil {
		return nil, err
	}
	return append([]brokerage.Cash(nil), b.seed.Cash...), nil
}

func (b *Broker) OpenOrders(context.Context) ([]execution.Order, error) {
	if err := b.record(CallOrders); err != nil {
		return nil, err
	}
	return append([]execution.Order(nil), b.seed.Orders...), nil
}

func (b *Broker) Holdings(context.Context) ([]brokerage.Holding, error) {
	if err := b.record(CallHoldings); err != nil {
		return nil, err
	}
	return append([]brokerage.Holding(nil), b.seed.Holdings...), nil
}

func (b *Broker) Messages() <-chan brokerage.Message { return b.messages }

// Emit pushes msg onto the stream. It reports false when the stream is full or released.
func (b *Broker) Emit(msg brokerage.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	select {
	case b.messages <- msg:
		return true
	default:
		return false
	}
}

// Calls returns how many times call was made.
func (b *Broker) Calls(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[call]
}

// Factory creates Brokers sharing one Seed and remembers the last one built.
type Factory struct {
	Seed Seed

	mu      sync.Mutex
	last    *Broker
	created int
}

// NewFactory returns a Factory for seed.
func NewFactory(seed Seed) *Factory { return &Factory{Seed: seed} }

func (f *Factory) TypeName() string { return TypeName }

func (f *Factory) Create(job.Job) (brokerage.Brokerage, error) {
	b := New(f.Seed)
	f.mu.Lock()
	f.last = b
	f.created++
	f.mu.Unlock()
	return b, nil
}

// Last returns the most recently created Broker, nil if none.
func (f *Factory) Last() *Broker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Created counts Create calls.
func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}
