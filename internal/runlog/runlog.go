// Package runlog persists one record per live setup attempt.
package runlog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record summarizes a setup attempt.
type Record struct {
	JobID         string          `json:"job_id"`
	Strategy      string          `json:"strategy"`
	Brokerage     string          `json:"brokerage"`
	State         string          `json:"state"`
	Errors        []string        `json:"errors,omitempty"`
	StartingValue decimal.Decimal `json:"starting_value"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// OK reports whether the attempt collected no errors.
func (r Record) OK() bool { return len(r.Errors) == 0 }

// Store saves records.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Close() error
}

// Options select a store. Postgres wins over JSONL; neither means memory.
type Options struct {
	JSONLPath   string
	PostgresDSN string
}

// Open builds the store selected by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch {
	case opts.PostgresDSN != "":
		store, err := NewPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case opts.JSONLPath != "":
		return NewJSONLStore(opts.JSONLPath)
	default:
		return NewMemoryStore(16), nil
	}
}
