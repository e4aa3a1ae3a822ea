// Package solana is a brokerage driver that treats a Solana wallet as an account:
// the RPC health check is the handshake and the SOL balance is the only cash record.
package solana

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
)

// TypeName is the registry name of this driver.
const TypeName = "solana-wallet"

// Currency is the cash currency code reported for the wallet balance.
const Currency = "SOL"

const (
	lamportsPerSOL        = 1_000_000_000
	defaultHealthInterval = 30 * time.Second
	messageBuffer         = 16
)

// Config points the driver at an RPC node and a wallet.
type Config struct {
	RPCURL     string
	Owner      string // base58 public key; empty reads the private key from the environment
	Commitment string
	// Rate converts SOL into the account currency.
	Rate           decimal.Decimal
	HealthInterval time.Duration
}

// ParseCommitment maps a commitment name to the RPC type, defaulting to confirmed.
func ParseCommitment(name string) rpc.CommitmentType {
	switch name {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// Broker implements brokerage.Brokerage over a wallet.
type Broker struct {
	cfg    Config
	log    zerolog.Logger
	client *rpc.Client
	owner  solana.PublicKey
	commit rpc.CommitmentType

	mu        sync.Mutex
	connected bool
	messages  chan brokerage.Message
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a disconnected Broker for owner.
func New(cfg Config, owner solana.PublicKey, log zerolog.Logger) *Broker {
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	return &Broker{
		cfg:      cfg,
		log:      log,
		client:   rpc.New(cfg.RPCURL),
		owner:    owner,
		commit:   ParseCommitment(cfg.Commitment),
		messages: make(chan brokerage.Message, messageBuffer),
		done:     make(chan struct{}),
	}
}

func (b *Broker) Name() string { return TypeName }

// Connect checks node health and starts the health watch.
func (b *Broker) Connect(ctx context.Context) error {
	health, err := b.client.GetHealth(ctx)
	if err != nil {
		return fmt.Errorf("solana rpc health: %w", err)
	}
	if health != rpc.HealthOk {
		return fmt.Errorf("solana rpc unhealthy: %s", health)
	}
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.watchHealth()
	b.log.Info().Str("owner", b.owner.String()).Str("rpc", b.cfg.RPCURL).Msg("solana wallet connected")
	return nil
}

func (b *Broker) watchHealth() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), b.cfg.HealthInterval)
			health, err := b.client.GetHealth(ctx)
			cancel()
			if err == nil && health == rpc.HealthOk {
				continue
			}
			text := "solana rpc unhealthy"
			if err != nil {
				text = text + ": " + err.Error()
			}
			select {
			case b.messages <- brokerage.Message{Severity: brokerage.Warning, Text: text}:
			default:
			}
		}
	}
}

// Disconnect stops the health watch and closes the message stream.
func (b *Broker) Disconnect() error {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.mu.Lock()
		b.connected = false
		b.mu.Unlock()
		close(b.messages)
	})
	return nil
}

func (b *Broker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Broker) Messages() <-chan brokerage.Message { return b.messages }

// CashBalances reports the SOL balance converted at the configured rate.
func (b *Broker) CashBalances(ctx context.Context) ([]brokerage.Cash, error) {
	res, err := b.client.GetBalance(ctx, b.owner, b.commit)
	if err != nil {
		return nil, fmt.Errorf("solana balance: %w", err)
	}
	if res == nil {
		return nil, errors.New("solana balance: empty response")
	}
	amount := decimal.NewFromUint64(res.Value).Div(decimal.NewFromInt(lamportsPerSOL))
	return []brokerage.Cash{{Currency: Currency, Amount: amount, ConversionRate: b.cfg.Rate}}, nil
}

// OpenOrders is always empty; a wallet has no resting orders.
func (b *Broker) OpenOrders(context.Context) ([]execution.Order, error) { return nil, nil }

// Holdings is always empty; token accounts are not tracked.
func (b *Broker) Holdings(context.Context) ([]brokerage.Holding, error) { return nil, nil }

// Factory creates wallet brokerages. Job settings "rpc_url" and "owner" override Config.
type Factory struct {
	Config Config
	Log    zerolog.Logger
}

// NewFactory returns a Factory.
func NewFactory(cfg Config, log zerolog.Logger) *Factory {
	return &Factory{Config: cfg, Log: log}
}

func (f *Factory) TypeName() string { return TypeName }

func (f *Factory) Create(j job.Job) (brokerage.Brokerage, error) {
	cfg := f.Config
	cfg.RPCURL = j.Setting("rpc_url", cfg.RPCURL)
	cfg.Owner = j.Setting("owner", cfg.Owner)
	if cfg.RPCURL == "" {
		return nil, errors.New("solana wallet requires an rpc url")
	}
	owner, err := ResolveOwner(cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("solana wallet owner: %w", err)
	}
	return New(cfg, owner, f.Log.With().Str("brokerage", TypeName).Logger()), nil
}
