// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workerpool bounds how many external tool jobs run at once,
// independently of how many HTTP requests are in flight.
package workerpool

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/oldtube/internal/metrics"
)

// Pool admits at most Size concurrent jobs. Callers block until a slot is
// free or their context ends.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a pool with size slots; size below 1 is treated as 1.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn on the calling goroutine once a slot is available. It returns
// the context error if ctx ends while waiting; fn is not called then.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context)) error {
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for worker: %w", err)
	}
	metrics.ObserveQueueWait(time.Since(start))
	metrics.IncWorkersBusy()
	defer func() {
		metrics.DecWorkersBusy()
		p.sem.Release(1)
	}()

	fn(ctx)
	return nil
}
