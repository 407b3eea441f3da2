// Package preview turns bursts of draft edits into a bounded stream of
// preview renders.
//
// Schedule restarts a debounce timer; when it fires, any in-flight render is
// cancelled before the next one is issued, so at most one request is in flight
// and responses resolve last-request-wins.
package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/valo/internal/domain"
)

// DefaultDelay is the coalescing window between the last edit and the render.
const DefaultDelay = 150 * time.Millisecond

// Renderer is the part of the image service a preview needs.
type Renderer interface {
	Process(ctx context.Context, image domain.ImageRef, params domain.Parameters) (domain.ImageRef, error)
}

// Request is what gets rendered, read at fire time.
type Request struct {
	Image  domain.ImageRef
	Params domain.Parameters
}

// Config wires a Scheduler to its session.
type Config struct {
	Delay time.Duration

	// Source returns the current request; false skips the render.
	Source func() (Request, bool)

	// Suppressed reports whether a finished render must be dropped because
	// background removal owns the display.
	Suppressed func() bool

	// Display receives a successful render together with the context it was
	// issued under. Implementations must drop the image once ctx is done.
	Display func(ctx context.Context, image domain.ImageRef)

	// Observe, if set, is told how every render ended.
	Observe func(outcome domain.Outcome, elapsed time.Duration)
}

// Scheduler debounces preview renders for one session.
type Scheduler struct {
	renderer Renderer
	clock    clockwork.Clock
	cfg      Config

	mu      sync.Mutex
	timer   clockwork.Timer
	gen     uint64
	base    context.Context
	cancel  context.CancelFunc
	flight  uint64
	closed  bool
	running sync.WaitGroup
}

// New creates a Scheduler. A zero Delay uses DefaultDelay.
func New(renderer Renderer, clock clockwork.Clock, cfg Config) *Scheduler {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Suppressed == nil {
		cfg.Suppressed = func() bool { return false }
	}
	return &Scheduler{
		renderer: renderer,
		clock:    clock,
		cfg:      cfg,
		base:     context.Background(),
	}
}

// Schedule (re)starts the debounce timer. Values of ctx (such as the
// correlation ID) are carried into the render; its cancellation is not.
func (s *Scheduler) Schedule(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.base = context.WithoutCancel(ctx)
	s.timer = s.clock.AfterFunc(s.cfg.Delay, func() { s.fire(gen) })
}

// Cancel drops a pending timer and aborts the in-flight render.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Stop cancels everything and waits for running renders to return.
// The Scheduler ignores Schedule afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()

	s.running.Wait()
}

func (s *Scheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.flight++
	flight := s.flight
	s.timer = nil
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	defer s.release(flight)

	req, ok := s.cfg.Source()
	if !ok || req.Image.Empty() {
		return
	}

	start := s.clock.Now()
	img, err := s.renderer.Process(ctx, req.Image, req.Params)
	outcome := domain.Settle(ctx, err)
	if s.cfg.Observe != nil {
		s.cfg.Observe(outcome, s.clock.Since(start))
	}

	switch outcome {
	case domain.OutcomeCancelled:
		return
	case domain.OutcomeFailed:
		slog.WarnContext(ctx, "Preview render failed", "error", err)
		return
	}

	if s.cfg.Suppressed() {
		slog.DebugContext(ctx, "Preview discarded while background removal owns the display")
		return
	}
	s.cfg.Display(ctx, img)
}

// release frees the render's context unless a newer render replaced it.
func (s *Scheduler) release(flight uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flight == flight && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
