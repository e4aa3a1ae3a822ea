// Package isolate runs a unit of work under a wall-clock bound.
//
// The caller is unblocked at the deadline. Work that overruns keeps running
// with a canceled context and its late result is dropped.
package isolate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeadline is reported in Outcome.Err when work did not finish in time.
var ErrDeadline = errors.New("deadline exceeded")

// Outcome reports whether work finished in time and how it ended.
// Completed is true even when the work failed or panicked; Err carries the failure.
type Outcome struct {
	Completed bool
	Err       error
}

// Run executes work on its own goroutine and waits at most limit for it.
// A non-positive limit waits only on ctx.
func Run(ctx context.Context, limit time.Duration, work func(context.Context) error) Outcome {
	_, out := Call(ctx, limit, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})
	return out
}

type result[T any] struct {
	value T
	err   error
}

// Call is Run for work that produces a value.
func Call[T any](ctx context.Context, limit time.Duration, work func(context.Context) (T, error)) (T, Outcome) {
	var zero T
	if work == nil {
		return zero, Outcome{Completed: true, Err: errors.New("nil work")}
	}

	var cancel context.CancelFunc
	if limit > 0 {
		ctx, cancel = context.WithTimeout(ctx, limit)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// Buffered so an abandoned worker can still deliver and exit.
	done := make(chan result[T], 1)
	go func() {
		var res result[T]
		defer func() {
			if r := recover(); r != nil {
				res = result[T]{err: fmt.Errorf("panic: %v", r)}
			}
			done <- res
		}()
		res.value, res.err = work(ctx)
	}()

	select {
	case res := <-done:
		return res.value, Outcome{Completed: true, Err: res.err}
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrDeadline
		}
		return zero, Outcome{Completed: false, Err: err}
	}
}
