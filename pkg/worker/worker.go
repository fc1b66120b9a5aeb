// Package worker runs detached background tasks with optional admission control.
//
// A Pool bounds two things independently: how many tasks may execute at once
// (Concurrency) and how many may be admitted, running or waiting, at any time
// (MaxInFlight). A zero value for either leaves that dimension unbounded.
// Admitted tasks always run to completion; there is no cancellation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrSaturated indicates the pool has no admission capacity left.
	ErrSaturated = errors.New("worker pool saturated")
	// ErrClosed indicates the pool no longer accepts tasks.
	ErrClosed = errors.New("worker pool closed")
)

// Task is a unit of background work.
type Task func(ctx context.Context)

// Pool schedules tasks onto goroutines, one goroutine per task.
type Pool struct {
	admit    *semaphore.Weighted
	run      *semaphore.Weighted
	logger   *slog.Logger
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// New creates a Pool from cfg. cfg should already be finalized.
func New(cfg *Config, logger *slog.Logger) *Pool {
	p := &Pool{
		logger: logger.With("system", "worker"),
	}
	if cfg.MaxInFlight > 0 {
		p.admit = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	if cfg.Concurrency > 0 {
		p.run = semaphore.NewWeighted(int64(cfg.Concurrency))
	}
	return p
}

// Reservation holds one admission slot until it is either started with Go or released.
type Reservation struct {
	pool *Pool
	once sync.Once
}

// Reserve claims an admission slot without blocking.
// It returns ErrSaturated when MaxInFlight tasks are already admitted
// and ErrClosed after Close.
func (p *Pool) Reserve() (*Reservation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.admit != nil && !p.admit.TryAcquire(1) {
		return nil, ErrSaturated
	}

	p.wg.Add(1)
	p.inFlight.Add(1)
	return &Reservation{pool: p}, nil
}

// Release returns an unused slot to the pool. It is a no-op after Go or a prior Release.
func (r *Reservation) Release() {
	r.once.Do(r.pool.done)
}

// Go starts task on its own goroutine using the reserved slot.
// The task waits for a concurrency slot when the pool is running at capacity.
// Panics are recovered and logged so one task cannot take down the process.
// Calling Go more than once, or after Release, does nothing.
func (r *Reservation) Go(ctx context.Context, task Task) {
	started := false
	r.once.Do(func() { started = true })
	if !started {
		return
	}

	p := r.pool
	go func() {
		defer p.done()

		if p.run != nil {
			// Acquire on a background context never fails.
			_ = p.run.Acquire(context.Background(), 1)
			defer p.run.Release(1)
		}

		defer func() {
			if rec := recover(); rec != nil {
				p.logger.Error("task panic recovered", "panic", fmt.Sprint(rec))
			}
		}()

		task(ctx)
	}()
}

// Submit reserves a slot and starts task in one call.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	res, err := p.Reserve()
	if err != nil {
		return err
	}
	res.Go(ctx, task)
	return nil
}

// InFlight returns the number of admitted tasks that have not yet finished.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Close stops admission. Tasks already admitted keep running.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Wait blocks until every admitted task has finished or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for %d tasks: %w", p.InFlight(), ctx.Err())
	}
}

func (p *Pool) done() {
	p.inFlight.Add(-1)
	if p.admit != nil {
		p.admit.Release(1)
	}
	p.wg.Done()
}
