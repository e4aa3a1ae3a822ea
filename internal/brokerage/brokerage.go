// Package brokerage defines the external account capability surface, the driver
// registry, and the guarded handshake.
package brokerage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
	"livetrade-go/internal/portfolio"
	"livetrade-go/internal/util"
)

// Cash is one balance reported by the brokerage.
type Cash struct {
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

// Holding is one position reported by the brokerage.
type Holding struct {
	Symbol       string                 `json:"symbol"`
	Type         portfolio.SecurityType `json:"type"`
	AveragePrice decimal.Decimal        `json:"average_price"`
	Quantity     decimal.Decimal        `json:"quantity"`
}

// Severity tags a brokerage message.
type Severity int

const (
	Info Severity = iota
	Warning
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	default:
		return "info"
	}
}

// ParseSeverity maps a wire name to a Severity; unknown names are Info.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "warning", "warn":
		return Warning
	case "fatal", "error":
		return Fatal
	default:
		return Info
	}
}

// Message is an asynchronous notice from a connected brokerage.
type Message struct {
	Severity Severity
	Text     string
}

// Brokerage is a connection to an external account.
type Brokerage interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	CashBalances(ctx context.Context) ([]Cash, error)
	// OpenOrders returns orders with BrokerID set; ID is ignored by callers.
	OpenOrders(ctx context.Context) ([]execution.Order, error)
	Holdings(ctx context.Context) ([]Holding, error)
	// Messages is closed when the connection is released.
	Messages() <-chan Message
}

// Factory constructs a Brokerage for a job.
type Factory interface {
	TypeName() string
	Create(j job.Job) (Brokerage, error)
}

var (
	ErrNoMatch   = errors.New("no brokerage factory matches")
	ErrAmbiguous = errors.New("several brokerage factories match")
)

// Registry holds the driver factories available to a process.
type Registry struct {
	factories []Factory
}

// NewRegistry builds a registry; nil factories are skipped.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{}
	for _, f := range factories {
		r.Register(f)
	}
	return r
}

// Register adds f to the registry.
func (r *Registry) Register(f Factory) {
	if f != nil {
		r.factories = append(r.factories, f)
	}
}

// Names lists registered type names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f.TypeName())
	}
	return out
}

// Lookup finds the factory whose normalized type name equals the normalized name.
func (r *Registry) Lookup(name string) (Factory, util.Match) {
	want := util.NormalizeName(name)
	if want == "" {
		return nil, util.MatchNone
	}
	return util.Single(r.factories, func(f Factory) bool {
		return util.NormalizeName(f.TypeName()) == want
	})
}

// Resolve is Lookup that turns anything but exactly one match into an error.
func (r *Registry) Resolve(name string) (Factory, error) {
	f, match := r.Lookup(name)
	switch match {
	case util.MatchOne:
		return f, nil
	case util.MatchAmbiguous:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguous, name)
	default:
		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrNoMatch, name, strings.Join(r.Names(), ", "))
	}
}

// Connect creates the brokerage from f and performs its handshake. Panics from the
// driver are returned as errors and a partially built connection is released.
func Connect(ctx context.Context, f Factory, j job.Job) (b Brokerage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("brokerage %s panicked: %v", f.TypeName(), r)
		}
		if err != nil && b != nil {
			_ = b.Disconnect()
			b = nil
		}
	}()

	b, err = f.Create(j)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", f.TypeName(), err)
	}
	if b == nil {
		return nil, fmt.Errorf("create %s: factory returned nil", f.TypeName())
	}
	if err = b.Connect(ctx); err != nil {
		return b, err
	}
	if !b.IsConnected() {
		return b, fmt.Errorf("%s handshake returned without a connection", b.Name())
	}
	return b, nil
}
