// Package lifecycle coordinates startup hooks, readiness, and graceful shutdown
// for the long-lived systems of the service.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Coordinator runs startup hooks concurrently and flips readiness once they
// all return. Shutdown happens in two phases: drain hooks run first with a
// deadline, then the context is cancelled so shutdown hooks release resources.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	mu         sync.Mutex
	drains     []func(context.Context)
	ready      atomic.Bool
	stopping   atomic.Bool
}

// New creates a Coordinator with a cancellable root context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context. It is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. Readiness waits for it to return.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown runs fn in its own goroutine. Shutdown hooks should block on
// <-c.Context().Done() before releasing their resources.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// OnDrain registers fn to run when Shutdown begins, before the context is
// cancelled. Drain hooks run one at a time in reverse registration order, so a
// system started later stops feeding work into one started earlier before
// that one drains. fn must return once its work is finished or ctx is done.
func (c *Coordinator) OnDrain(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drains = append(c.drains, fn)
}

// Ready reports whether every startup hook has completed and shutdown has not begun.
func (c *Coordinator) Ready() bool {
	return c.ready.Load() && !c.stopping.Load()
}

// WaitForStartup blocks until every startup hook returns, then marks the coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.ready.Store(true)
}

// Shutdown runs drain hooks last-in first-out, cancels the context, and waits
// for shutdown hooks. Both phases share timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.stopping.Store(true)

	deadline := time.Now().Add(timeout)
	drainCtx, cancelDrain := context.WithDeadline(context.Background(), deadline)
	defer cancelDrain()

	c.mu.Lock()
	drains := append([]func(context.Context){}, c.drains...)
	c.mu.Unlock()

	for i := len(drains) - 1; i >= 0; i-- {
		drains[i](drainCtx)
	}
	drainErr := drainCtx.Err()

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	timer := time.NewTimer(max(time.Until(deadline), 0))
	defer timer.Stop()

	var hookErr error
	select {
	case <-done:
	case <-timer.C:
		hookErr = fmt.Errorf("shutdown timeout after %v", timeout)
	}

	if drainErr != nil {
		return errors.Join(fmt.Errorf("drain incomplete after %v: %w", timeout, drainErr), hookErr)
	}
	return hookErr
}
