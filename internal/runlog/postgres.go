package runlog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS setup_runs (
	id             BIGSERIAL PRIMARY KEY,
	job_id         TEXT        NOT NULL,
	strategy       TEXT        NOT NULL,
	brokerage      TEXT        NOT NULL,
	state          TEXT        NOT NULL,
	errors         TEXT[]      NOT NULL DEFAULT '{}',
	starting_value NUMERIC     NOT NULL DEFAULT 0,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS setup_runs_job_id_idx ON setup_runs (job_id);
`

// PostgresStore writes records to the setup_runs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool to dsn and pings it.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("runlog postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("runlog postgres ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("runlog schema: %w", err)
	}
	return nil
}

// Save inserts rec.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	errs := rec.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO setup_runs (job_id, strategy, brokerage, state, errors, starting_value, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7, $8)`,
		rec.JobID, rec.Strategy, rec.Brokerage, rec.State, errs, rec.StartingValue.String(), rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("runlog insert: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
