package simbroker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"livetrade-go/internal/brokerage"
	"livetrade-go/internal/execution"
	"livetrade-go/internal/job"
)

var _ brokerage.Brokerage = (*Broker)(nil)
var _ brokerage.Factory = (*Factory)(nil)

func TestBrokerReportsSeed(t *testing.T) {
	seed := Seed{
		Cash:   []brokerage.Cash{{Currency: "USD", Amount: decimal.NewFromInt(10), ConversionRate: decimal.NewFromInt(1)}},
		Orders: []execution.Order{{BrokerID: "X", Symbol: "A", Side: execution.Buy, Qty: decimal.NewFromInt(1)}},
	}
	f := NewFactory(seed)
	b, err := brokerage.Connect(context.Background(), f, job.Job{})
	require.NoError(t, err)
	require.True(t, b.IsConnected())

	cash, err := b.CashBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, cash, 1)
	orders, err := b.OpenOrders(context.Background())
	require.NoError(t, err)
	require.Equal(t, "X", orders[0].BrokerID)
	require.Equal(t, 1, f.Last().Calls(CallCash))
	require.Equal(t, 1, f.Created())
}

func TestConnectFailureReleasesBroker(t *testing.T) {
	f := NewFactory(Seed{Failures: map[string]string{CallConnect: "bad credentials"}})
	b, err := brokerage.Connect(context.Background(), f, job.Job{})
	require.Nil(t, b)
	require.EqualError(t, err, "bad credentials")

	_, open := <-f.Last().Messages()
	require.False(t, open, "message stream should be closed after a failed handshake")
}

func TestConnectHonorsContext(t *testing.T) {
	b := New(Seed{Latency: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, b.Connect(ctx))
	require.False(t, b.IsConnected())
}

func TestEmitAfterDisconnect(t *testing.T) {
	b := New(Seed{})
	require.True(t, b.Emit(brokerage.Message{Severity: brokerage.Warning, Text: "slow"}))
	msg := <-b.Messages()
	require.Equal(t, "slow", msg.Text)

	require.NoError(t, b.Disconnect())
	require.NoError(t, b.Disconnect())
	require.False(t, b.Emit(brokerage.Message{Text: "late"}))
}
