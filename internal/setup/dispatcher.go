package setup

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/metrics"
	"livetrade-go/internal/status"
)

// StopTarget is what a fatal brokerage message acts on.
type StopTarget interface {
	SetRuntimeError(err error)
	RequestStop()
}

// Dispatcher consumes a brokerage message stream. Info and warning messages go to the
// reporter's debug channel; a fatal message is reported as an error, recorded on the
// target and stops it. Handle is safe to call concurrently with the target's own work.
type Dispatcher struct {
	log      zerolog.Logger
	reporter status.Reporter
	target   StopTarget

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher returns an idle Dispatcher.
func NewDispatcher(log zerolog.Logger, reporter status.Reporter, target StopTarget) *Dispatcher {
	return &Dispatcher{log: log, reporter: reporter, target: target}
}

// Start consumes msgs on its own goroutine until ctx ends, msgs closes or Stop is called.
// Calling Start twice has no effect.
func (d *Dispatcher) Start(ctx context.Context, msgs <-chan brokerage.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				d.Handle(msg)
			}
		}
	}(d.done)
}

// Handle routes one message by severity.
func (d *Dispatcher) Handle(msg brokerage.Message) {
	metrics.BrokerageMessagesTotal.WithLabelValues(msg.Severity.String()).Inc()
	switch msg.Severity {
	case brokerage.Fatal:
		d.log.Error().Str("text", msg.Text).Msg("fatal brokerage message, stopping algorithm")
		d.reporter.Error(msg.Text)
		d.target.SetRuntimeError(errors.New(msg.Text))
		d.target.RequestStop()
	default:
		d.reporter.Debug("brokerage " + msg.Severity.String() + ": " + msg.Text)
	}
}

// Stop ends consumption and waits for the goroutine to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed once consumption has ended. It is nil before Start.
func (d *Dispatcher) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}
