// Package removebg runs the single long-running background-removal call of
// a session.
package removebg

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/valo/internal/domain"
)

// Remover is the part of the image service background removal needs.
type Remover interface {
	RemoveBackground(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error)
}

// Locker is the session lock. TryAcquire fails while any holder has it.
type Locker interface {
	TryAcquire(reason string) bool
	Release()
}

// Config wires a Coordinator to its session.
type Config struct {
	// Display shows a finished preview right away, bypassing the
	// parameter preview path.
	Display func(ctx context.Context, image domain.ImageRef)

	// Changed is called after every terminal transition, once the lock is
	// released.
	Changed func(ctx context.Context)

	Observe func(outcome domain.Outcome, elapsed time.Duration)
}

// Coordinator drives ready -> removing -> {done|cancelled|failed} -> ready.
type Coordinator struct {
	remover Remover
	lock    Locker
	clock   clockwork.Clock
	cfg     Config

	mu      sync.Mutex
	status  domain.RemoveBgStatus
	pending domain.ImageRef
	cancel  context.CancelFunc
	closed  bool
	running sync.WaitGroup
}

func New(remover Remover, lock Locker, clock clockwork.Clock, cfg Config) *Coordinator {
	if cfg.Display == nil {
		cfg.Display = func(context.Context, domain.ImageRef) {}
	}
	if cfg.Changed == nil {
		cfg.Changed = func(context.Context) {}
	}
	return &Coordinator{
		remover: remover,
		lock:    lock,
		clock:   clock,
		cfg:     cfg,
		status:  domain.RemoveBgReady,
	}
}

// Start issues the removal for image. It reports false, changing nothing,
// when a removal is already running or the session lock is held.
func (c *Coordinator) Start(ctx context.Context, image domain.ImageRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.status == domain.RemoveBgRemoving {
		return false
	}
	if !c.lock.TryAcquire(domain.RemoveBgLockReason) {
		return false
	}

	c.status = domain.RemoveBgRemoving
	c.pending = ""

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.running.Add(1)
	go c.run(runCtx, cancel, image)
	return true
}

// Cancel aborts the running removal. It reports false when nothing runs.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != domain.RemoveBgRemoving || c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Pending returns the finished preview waiting for a commit.
func (c *Coordinator) Pending() (domain.ImageRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, !c.pending.Empty()
}

// Take hands the pending preview over to the caller and returns to ready.
func (c *Coordinator) Take() (domain.ImageRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img := c.pending
	if img.Empty() {
		return "", false
	}
	c.pending = ""
	c.status = domain.RemoveBgReady
	return img, true
}

// Discard drops an uncommitted preview. A running removal is left alone.
func (c *Coordinator) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = ""
	if c.status != domain.RemoveBgRemoving {
		c.status = domain.RemoveBgReady
	}
}

func (c *Coordinator) Status() domain.RemoveBgStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Busy reports whether a removal is in flight.
func (c *Coordinator) Busy() bool {
	return c.Status() == domain.RemoveBgRemoving
}

// Stop cancels a running removal and waits for it to settle. Start is
// rejected afterwards.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.running.Wait()
}

func (c *Coordinator) run(ctx context.Context, cancel context.CancelFunc, image domain.ImageRef) {
	defer c.running.Done()

	outcome, img := c.remove(ctx, cancel, image)

	ctx = context.WithoutCancel(ctx)
	if outcome == domain.OutcomeSucceeded {
		c.cfg.Display(ctx, img)
	}
	c.cfg.Changed(ctx)
}

// remove performs the call and records its outcome. The lock is released
// on every path before remove returns.
func (c *Coordinator) remove(ctx context.Context, cancel context.CancelFunc, image domain.ImageRef) (domain.Outcome, domain.ImageRef) {
	defer c.lock.Release()

	start := c.clock.Now()
	img, err := c.remover.RemoveBackground(ctx, image)

	// Settling under mu orders the outcome against a concurrent Cancel.
	c.mu.Lock()
	outcome := domain.Settle(ctx, err)
	if outcome == domain.OutcomeSucceeded && img.Empty() {
		outcome, err = domain.OutcomeFailed, domain.ErrEmptyImage
	}
	cancel()
	c.cancel = nil
	switch outcome {
	case domain.OutcomeSucceeded:
		c.status = domain.RemoveBgDone
		c.pending = img
	case domain.OutcomeCancelled:
		c.status = domain.RemoveBgCancelled
	default:
		c.status = domain.RemoveBgFailed
	}
	c.mu.Unlock()

	if c.cfg.Observe != nil {
		c.cfg.Observe(outcome, c.clock.Since(start))
	}

	switch outcome {
	case domain.OutcomeCancelled:
		slog.InfoContext(ctx, "Background removal cancelled")
	case domain.OutcomeFailed:
		slog.WarnContext(ctx, "Background removal failed", "error", err)
	}
	return outcome, img
}
