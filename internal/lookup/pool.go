// Package lookup runs blocking network lookups off the ingestion path.
//
// Work is submitted to a Pool which bounds the number of concurrent lookups.
// Every submission returns a Future that always resolves, falling back to a
// caller supplied default when the work could not run.
package lookup

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewPool(workers int) *Pool {
	return &Pool{
		sem: semaphore.NewWeighted(int64(max(workers, 1))),
	}
}

// Wait blocks until every submitted lookup has finished
func (p *Pool) Wait() {
	p.wg.Wait()
}

type Future[T any] struct {
	done     chan struct{}
	value    T
	fallback T
}

// Resolved returns a future that is already complete
func Resolved[T any](value T) *Future[T] {
	f := &Future[T]{
		done:     make(chan struct{}),
		value:    value,
		fallback: value,
	}
	close(f.done)
	return f
}

// Submit runs fn on the pool.
// The future resolves to fallback if ctx ends before a worker is free.
func Submit[T any](ctx context.Context, p *Pool, fallback T, fn func(ctx context.Context) T) *Future[T] {
	f := &Future[T]{
		done:     make(chan struct{}),
		value:    fallback,
		fallback: fallback,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(f.done)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		f.value = fn(ctx)
	}()

	return f
}

// Done is closed once the value is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await returns the value, or the fallback if ctx ends first
func (f *Future[T]) Await(ctx context.Context) T {
	select {
	case <-f.done:
		return f.value
	case <-ctx.Done():
		return f.fallback
	}
}
