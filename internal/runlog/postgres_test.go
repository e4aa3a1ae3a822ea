package runlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Runs only against a real database: RUNLOG_TEST_POSTGRES_DSN=postgres://...
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("RUNLOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RUNLOG_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, Options{PostgresDSN: dsn})
	require.NoError(t, err)
	defer store.Close()

	pg := store.(*PostgresStore)
	jobID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, pg.Save(ctx, Record{
		JobID: jobID, Strategy: "OBIMomentum", Brokerage: "sim-broker", State: "Complete",
		StartingValue: decimal.RequireFromString("1055.25"), StartedAt: now, FinishedAt: now,
	}))

	var (
		value     string
		errs      []string
		startedAt time.Time
	)
	row := pg.pool.QueryRow(ctx,
		`SELECT starting_value::text, errors, started_at FROM setup_runs WHERE job_id = $1`, jobID)
	require.NoError(t, row.Scan(&value, &errs, &startedAt))
	require.True(t, decimal.RequireFromString(value).Equal(decimal.RequireFromString("1055.25")))
	require.Empty(t, errs)
	require.True(t, startedAt.Equal(now))
}
