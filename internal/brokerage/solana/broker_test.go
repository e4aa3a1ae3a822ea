package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/job"
)

var _ brokerage.Brokerage = (*Broker)(nil)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCServer answers getHealth with health and getBalance with lamports.
func newRPCServer(t *testing.T, health *atomic.Value, lamports uint64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "getHealth":
			if h := health.Load().(string); h == rpc.HealthOk {
				resp["result"] = h
			} else {
				resp["error"] = map[string]any{"code": -32005, "message": "Node is " + h}
			}
		case "getBalance":
			resp["result"] = map[string]any{"context": map[string]any{"slot": 1}, "value": lamports}
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestConnectAndBalance(t *testing.T) {
	var health atomic.Value
	health.Store(rpc.HealthOk)
	srv := newRPCServer(t, &health, 2_500_000_000)
	defer srv.Close()

	owner := solana.NewWallet().PublicKey()
	f := NewFactory(Config{Owner: owner.String(), Rate: decimal.NewFromInt(150)}, zerolog.Nop())
	b, err := brokerage.Connect(context.Background(), f, job.Job{Settings: map[string]string{"rpc_url": srv.URL}})
	require.NoError(t, err)
	defer b.Disconnect()

	cash, err := b.CashBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, cash, 1)
	require.Equal(t, Currency, cash[0].Currency)
	require.True(t, cash[0].Amount.Equal(decimal.RequireFromString("2.5")), "amount %s", cash[0].Amount)
	require.True(t, cash[0].ConversionRate.Equal(decimal.NewFromInt(150)))

	orders, err := b.OpenOrders(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
	holdings, err := b.Holdings(context.Background())
	require.NoError(t, err)
	require.Empty(t, holdings)
}

func TestConnectUnhealthyNode(t *testing.T) {
	var health atomic.Value
	health.Store("behind")
	srv := newRPCServer(t, &health, 0)
	defer srv.Close()

	b := New(Config{RPCURL: srv.URL}, solana.NewWallet().PublicKey(), zerolog.Nop())
	err := b.Connect(context.Background())
	require.ErrorContains(t, err, "solana rpc health")
	require.False(t, b.IsConnected())
}

func TestHealthWatchWarns(t *testing.T) {
	var health atomic.Value
	health.Store(rpc.HealthOk)
	srv := newRPCServer(t, &health, 0)
	defer srv.Close()

	b := New(Config{RPCURL: srv.URL, HealthInterval: 20 * time.Millisecond}, solana.NewWallet().PublicKey(), zerolog.Nop())
	require.NoError(t, b.Connect(context.Background()))
	health.Store("behind")

	select {
	case msg := <-b.Messages():
		require.Equal(t, brokerage.Warning, msg.Severity)
		require.Contains(t, msg.Text, "unhealthy")
	case <-time.After(2 * time.Second):
		t.Fatal("expected health warning")
	}

	require.NoError(t, b.Disconnect())
	require.False(t, b.IsConnected())
	for range b.Messages() {
	}
}

func TestFactoryRequiresRPCURL(t *testing.T) {
	_, err := NewFactory(Config{Owner: solana.NewWallet().PublicKey().String()}, zerolog.Nop()).Create(job.Job{})
	require.Error(t, err)
}

func TestParseCommitment(t *testing.T) {
	require.Equal(t, rpc.CommitmentFinalized, ParseCommitment("finalized"))
	require.Equal(t, rpc.CommitmentProcessed, ParseCommitment("processed"))
	require.Equal(t, rpc.CommitmentConfirmed, ParseCommitment(""))
}
