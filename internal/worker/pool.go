// Package worker bounds the concurrency of fan-out work such as triaging a
// batch of reviews or scanning a list of pages.
package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent operations using a weighted semaphore.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool that allows at most limit concurrent operations.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot.
// Returns ctx.Err() if the context is cancelled while waiting for a slot.
// A nil pool runs fn directly.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// Result is the outcome of one item of a Map call.
type Result[R any] struct {
	Value R
	Err   error
}

// Map applies fn to every item through the pool and returns the results in
// input order. A failing item does not stop the others. Items still waiting
// for a slot when ctx is cancelled report ctx.Err().
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	out := make([]Result[R], len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i].Err = p.Run(ctx, func() error {
				v, err := fn(ctx, item)
				out[i].Value = v
				return err
			})
		}()
	}
	wg.Wait()
	return out
}
