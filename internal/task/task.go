// Package task runs blocking work off the calling goroutine and hands the
// result back exactly once.
package task

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Result is the outcome of one task.
type Result[T any] struct {
	Value T
	Err   error
}

// PanicError is reported when a task function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("task panicked: %v", e.Value) }

func run[T any](ctx context.Context, fn func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()
	v, err := fn(ctx)
	return Result[T]{Value: v, Err: err}
}

// Go runs fn on a new goroutine. The returned channel receives exactly one
// Result and is never closed, so a caller that stops listening does not leak
// the worker.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() { ch <- run(ctx, fn) }()
	return ch
}

// Runner bounds how many submitted tasks run at once. The zero value is not
// usable; call NewRunner.
type Runner struct {
	sem *semaphore.Weighted
	log zerolog.Logger
}

// NewRunner allows up to limit concurrent tasks; limit < 1 means 1.
func NewRunner(limit int, log zerolog.Logger) *Runner {
	if limit < 1 {
		limit = 1
	}
	return &Runner{sem: semaphore.NewWeighted(int64(limit)), log: log}
}

// Submit queues fn and returns immediately. deliver is called exactly once
// from a background goroutine, with ctx.Err() if ctx ends before fn starts.
func Submit[T any](r *Runner, ctx context.Context, name string, fn func(context.Context) (T, error), deliver func(Result[T])) {
	go func() {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			deliver(Result[T]{Err: err})
			return
		}
		res := run(ctx, fn)
		r.sem.Release(1)
		if res.Err != nil {
			r.log.Debug().Str("task", name).Err(res.Err).Msg("task failed")
		}
		deliver(res)
	}()
}
