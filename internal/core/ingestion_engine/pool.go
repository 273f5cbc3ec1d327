package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Pool runs CPU-heavy extraction work on a fixed number of goroutines so a
// burst of uploads cannot starve request handling.
type Pool struct {
	workers int
	jobs    chan func()
}

// NewPool constructs a pool with a bounded job queue (64).
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers, jobs: make(chan func(), 64)}
}

// Start launches the workers. They exit when ctx is done.
func (p *Pool) Start(ctx context.Context) {
	for w := 1; w <= p.workers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					logrus.WithField("worker", w).Debug("extraction worker shutting down")
					return
				case job := <-p.jobs:
					job()
				}
			}
		}(w)
	}
}

// Do runs fn on a pool worker and blocks until it returns or ctx is done.
// A panic inside fn is returned as an error.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	var zero T
	done := make(chan result, 1)

	job := func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("extraction panicked: %v", r)}
			}
		}()
		if err := ctx.Err(); err != nil {
			done <- result{err: err}
			return
		}
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
