// Package wsbroker is a brokerage driver speaking JSON request/response over a websocket.
//
// Requests carry {"id","method","params"}; replies echo the id with "result" or "error".
// Frames with "type":"message" are pushed notices carrying "severity" and "text".
package wsbroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
	"livetrade-go/internal/portfolio"
)

// TypeName is the registry name of this driver.
const TypeName = "websocket"

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultRequestTimeout   = 15 * time.Second
	defaultPingInterval     = 20 * time.Second
	readTimeout             = 60 * time.Second
	messageBuffer           = 256
)

var ErrClosed = errors.New("websocket brokerage connection closed")

// Config locates the endpoint and tunes timeouts.
type Config struct {
	URL              string
	Token            string
	HandshakeTimeout time.Duration
	RequestTimeout   time.Duration
	PingInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	return c
}

type frame struct {
	ID       int64           `json:"id,omitempty"`
	Type     string          `json:"type,omitempty"`
	Method   string          `json:"method,omitempty"`
	Params   any             `json:"params,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Severity string          `json:"severity,omitempty"`
	Text     string          `json:"text,omitempty"`
}

type wireOrder struct {
	ID       string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type wireHolding struct {
	Symbol       string          `json:"symbol"`
	Type         string          `json:"type"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Broker implements brokerage.Brokerage over a websocket.
type Broker struct {
	cfg Config
	log zerolog.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu        sync.Mutex
	pending   map[int64]chan frame
	connected bool
	pumping   bool

	nextID    atomic.Int64
	messages  chan brokerage.Message
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a disconnected Broker.
func New(cfg Config, log zerolog.Logger) *Broker {
	return &Broker{
		cfg:      cfg.withDefaults(),
		log:      log,
		pending:  make(map[int64]chan frame),
		messages: make(chan brokerage.Message, messageBuffer),
		done:     make(chan struct{}),
	}
}

func (b *Broker) Name() string { return TypeName }

// Connect dials the endpoint, starts the pumps and logs in.
func (b *Broker) Connect(ctx context.Context) error {
	if b.cfg.URL == "" {
		return errors.New("websocket brokerage url is empty")
	}
	dialer := websocket.Dialer{HandshakeTimeout: b.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.cfg.URL, err)
	}
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	b.mu.Lock()
	b.conn = conn
	b.pumping = true
	b.mu.Unlock()

	go b.readPump()
	go b.pingLoop()

	if err := b.call(ctx, "login", map[string]string{"token": b.cfg.Token}, nil); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()
	b.log.Info().Str("url", b.cfg.URL).Msg("websocket brokerage connected")
	return nil
}

// Disconnect closes the socket; the read pump then closes the message stream.
func (b *Broker) Disconnect() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		b.mu.Lock()
		b.connected = false
		conn, pumping := b.conn, b.pumping
		b.mu.Unlock()
		if conn != nil {
			b.writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			b.writeMu.Unlock()
			err = conn.Close()
		}
		if !pumping {
			close(b.messages)
		}
	})
	return err
}

func (b *Broker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Broker) Messages() <-chan brokerage.Message { return b.messages }

func (b *Broker) CashBalances(ctx context.Context) ([]brokerage.Cash, error) {
	var out []brokerage.Cash
	if err := b.call(ctx, "cash", nil, &out); err != nil {
		return nil, fmt.Errorf("cash balances: %w", err)
	}
	return out, nil
}

func (b *Broker) OpenOrders(ctx context.Context) ([]execution.Order, error) {
	var wire []wireOrder
	if err := b.call(ctx, "orders", nil, &wire); err != nil {
		return nil, fmt.Errorf("open orders: %w", err)
	}
	out := make([]execution.Order, 0, len(wire))
	for _, w := range wire {
		side := execution.Side(strings.ToUpper(strings.TrimSpace(w.Side)))
		qty := w.Quantity
		if side != execution.Buy && side != execution.Sell {
			side = execution.Buy
			if qty.IsNegative() {
				side = execution.Sell
			}
		}
		out = append(out, execution.Order{
			BrokerID: w.ID,
			Symbol:   w.Symbol,
			Side:     side,
			Qty:      qty.Abs(),
			Price:    w.Price,
		})
	}
	return out, nil
}

func (b *Broker) Holdings(ctx context.Context) ([]brokerage.Holding, error) {
	var wire []wireHolding
	if err := b.call(ctx, "holdings", nil, &wire); err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}
	out := make([]brokerage.Holding, 0, len(wire))
	for _, w := range wire {
		out = append(out, brokerage.Holding{
			Symbol:       w.Symbol,
			Type:         portfolio.ParseSecurityType(w.Type),
			AveragePrice: w.AveragePrice,
			Quantity:     w.Quantity,
		})
	}
	return out, nil
}

func (b *Broker) call(ctx context.Context, method string, params any, out any) error {
	id := b.nextID.Add(1)
	reply := make(chan frame, 1)

	b.mu.Lock()
	conn := b.conn
	b.pending[id] = reply
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()
	if conn == nil {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	b.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(b.cfg.RequestTimeout))
	err := conn.WriteJSON(frame{ID: id, Method: method, Params: params})
	b.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	case resp := <-reply:
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		return json.Unmarshal(resp.Result, out)
	}
}

func (b *Broker) readPump() {
	defer func() {
		b.mu.Lock()
		b.connected = false
		b.mu.Unlock()
		close(b.messages)
	}()
	for {
		var f frame
		if err := b.conn.ReadJSON(&f); err != nil {
			select {
			case <-b.done:
			default:
				b.log.Warn().Err(err).Msg("websocket brokerage read failed")
				b.emit(brokerage.Message{Severity: brokerage.Fatal, Text: "brokerage connection lost: " + err.Error()})
				b.closeOnce.Do(func() { close(b.done); _ = b.conn.Close() })
			}
			return
		}
		_ = b.conn.SetReadDeadline(time.Now().Add(readTimeout))

		if f.Type == "message" {
			b.emit(brokerage.Message{Severity: brokerage.ParseSeverity(f.Severity), Text: f.Text})
			continue
		}
		b.mu.Lock()
		reply, ok := b.pending[f.ID]
		b.mu.Unlock()
		if ok {
			select {
			case reply <- f:
			default:
			}
		}
	}
}

func (b *Broker) emit(msg brokerage.Message) {
	select {
	case b.messages <- msg:
	default:
		b.log.Warn().Str("severity", msg.Severity.String()).Str("text", msg.Text).Msg("message buffer full, dropping")
	}
}

func (b *Broker) pingLoop() {
	ticker := time.NewTicker(b.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.writeMu.Lock()
			err := b.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			b.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Factory creates websocket brokerages. Job settings "url" and "token" override Config.
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
	cfg.URL = j.Setting("url", cfg.URL)
	cfg.Token = j.Setting("token", cfg.Token)
	if cfg.URL == "" {
		return nil, errors.New("websocket brokerage requires a url")
	}
	return New(cfg, f.Log.With().Str("brokerage", TypeName).Logger()), nil
}
