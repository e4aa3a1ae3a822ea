package wsbroker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
	"livetrade-go/internal/portfolio"
)

var _ brokerage.Brokerage = (*Broker)(nil)

type serverRequest struct {
	ID     int64             `json:"id"`
	Method string            `json:"method"`
	Params map[string]string `json:"params"`
}

// newServer answers login/cash/orders/holdings and pushes one warning after login.
func newServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req serverRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			reply := map[string]any{"id": req.ID}
			switch req.Method {
			case "login":
				if req.Params["token"] != token {
					reply["error"] = "invalid token"
				} else {
					reply["result"] = true
				}
			case "cash":
				reply["result"] = []map[string]any{
					{"currency": "USD", "amount": "1000.50", "conversion_rate": "1"},
					{"currency": "EUR", "amount": 200, "conversion_rate": "1.1"},
				}
			case "orders":
				reply["result"] = []map[string]any{
					{"id": "A-77", "symbol": "AAPL", "side": "buy", "quantity": "5", "price": "180"},
					{"id": "A-78", "symbol": "MSFT", "quantity": "-2", "price": "400"},
				}
			case "holdings":
				reply["result"] = []map[string]any{
					{"symbol": "TSLA", "type": "equity", "average_price": "250", "quantity": "3"},
					{"symbol": "BTCUSD", "type": " Crypto ", "average_price": "60000", "quantity": "0.5"},
					{"symbol": "XYZ", "average_price": "1", "quantity": "1"},
				}
			default:
				reply["error"] = "unknown method " + req.Method
			}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
			if req.Method == "login" && reply["error"] == nil {
				_ = conn.WriteJSON(map[string]any{"type": "message", "severity": "warning", "text": "market closed"})
			}
		}
	}))
}

func wsURL(s *httptest.Server) string { return "ws" + strings.TrimPrefix(s.URL, "http") }

func TestConnectAndSnapshots(t *testing.T) {
	srv := newServer(t, "secret")
	defer srv.Close()

	f := NewFactory(Config{Token: "secret"}, zerolog.Nop())
	b, err := brokerage.Connect(context.Background(), f, job.Job{Settings: map[string]string{"url": wsURL(srv)}})
	require.NoError(t, err)
	defer b.Disconnect()
	require.True(t, b.IsConnected())

	ctx := context.Background()
	cash, err := b.CashBalances(ctx)
	require.NoError(t, err)
	require.Len(t, cash, 2)
	require.Equal(t, "1000.5", cash[0].Amount.String())

	orders, err := b.OpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "A-77", orders[0].BrokerID)
	require.Equal(t, execution.Buy, orders[0].Side)
	require.Equal(t, execution.Sell, orders[1].Side)
	require.Equal(t, "2", orders[1].Qty.String())

	holdings, err := b.Holdings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 3)
	require.Equal(t, "TSLA", holdings[0].Symbol)
	require.Equal(t, portfolio.Equity, holdings[0].Type)
	require.Equal(t, portfolio.Crypto, holdings[1].Type)
	require.Equal(t, portfolio.Equity, holdings[2].Type)
	require.True(t, holdings[1].AveragePrice.Equal(decimal.NewFromInt(60000)))

	select {
	case msg := <-b.Messages():
		require.Equal(t, brokerage.Warning, msg.Severity)
		require.Equal(t, "market closed", msg.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pushed message")
	}
}

func TestLoginRejected(t *testing.T) {
	srv := newServer(t, "secret")
	defer srv.Close()

	f := NewFactory(Config{URL: wsURL(srv), Token: "wrong"}, zerolog.Nop())
	b, err := brokerage.Connect(context.Background(), f, job.Job{})
	require.Nil(t, b)
	require.ErrorContains(t, err, "invalid token")
}

func TestDisconnectClosesMessages(t *testing.T) {
	srv := newServer(t, "")
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, zerolog.Nop())
	require.NoError(t, b.Connect(context.Background()))
	require.NoError(t, b.Disconnect())
	require.False(t, b.IsConnected())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-b.Messages():
			if !open {
				_, err := b.CashBalances(context.Background())
				require.Error(t, err)
				return
			}
		case <-deadline:
			t.Fatal("message stream not closed")
		}
	}
}

func TestDialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/none", HandshakeTimeout: 200 * time.Millisecond}, zerolog.Nop())
	require.Error(t, b.Connect(context.Background()))
	require.NoError(t, b.Disconnect())
	_, open := <-b.Messages()
	require.False(t, open)
}

func TestFactoryRequiresURL(t *testing.T) {
	_, err := NewFactory(Config{}, zerolog.Nop()).Create(job.Job{})
	require.Error(t, err)
}

func TestFrameEncoding(t *testing.T) {
	data, err := json.Marshal(frame{ID: 3, Method: "cash"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":3,"method":"cash"}`, string(data))
}
