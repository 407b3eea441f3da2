package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/editor"
	"golang.org/x/sync/singleflight"
)

const defaultSweepInterval = time.Minute

type Config struct {
	Editor editor.Config
	// IdleTimeout suspends sessions untouched for this long; 0 disables the sweep.
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	// ActiveSessions is set to the number of live sessions; may be nil.
	ActiveSessions prometheus.Gauge
}

// pruner is implemented by stores without native expiry.
type pruner interface {
	Prune() int
}

type liveSession struct {
	session  *editor.Session
	lastUsed time.Time
}

// Service is the registry of live edit sessions.
type Service struct {
	store  domain.SessionStore
	deps   editor.Deps
	cfg    Config
	clock  clockwork.Clock
	resume singleflight.Group

	mu       sync.Mutex
	sessions map[string]*liveSession

	stopCh   chan struct{}
	stopOnce sync.Once
	sweepWg  sync.WaitGroup
}

// NewService creates the service and starts the idle sweep. deps.Store is the
// session store every session reads from and writes to.
func NewService(deps editor.Deps, cfg Config) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	s := &Service{
		store:    deps.Store,
		deps:     deps,
		cfg:      cfg,
		clock:    deps.Clock,
		sessions: make(map[string]*liveSession),
		stopCh:   make(chan struct{}),
	}

	if cfg.IdleTimeout > 0 {
		s.sweepWg.Go(s.sweepLoop)
	}
	return s
}

// OpenSession starts a new edit session on image.
func (s *Service) OpenSession(ctx context.Context, image domain.ImageRef) (*editor.Session, error) {
	if image.Empty() {
		return nil, domain.ErrEmptyImage
	}

	id := uuid.NewString()
	seed := map[domain.StoreKey]string{
		domain.KeySelectedImage: string(image),
		domain.KeySourceImage:   string(image),
	}
	if err := s.store.Write(ctx, id, seed); err != nil {
		return nil, fmt.Errorf("failed to store new session: %w", err)
	}

	session, err := editor.New(ctx, id, s.deps, s.cfg.Editor)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	s.register(id, session)

	slog.InfoContext(ctx, "Session opened", "session_id", id)
	return session, nil
}

// Session returns the live session id, restoring it from the store when this
// instance does not hold it. Concurrent restores of one ID are collapsed.
func (s *Service) Session(ctx context.Context, id string) (*editor.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}
	if session, ok := s.lookup(id); ok {
		return session, nil
	}

	v, err, _ := s.resume.Do(id, func() (any, error) {
		if session, ok := s.lookup(id); ok {
			return session, nil
		}
		session, err := editor.New(ctx, id, s.deps, s.cfg.Editor)
		if err != nil {
			return nil, err
		}
		s.register(id, session)
		slog.InfoContext(ctx, "Session resumed", "session_id", id)
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*editor.Session), nil
}

// CloseSession ends session id and clears its stored state.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	live, ok := s.sessions[id]
	delete(s.sessions, id)
	s.updateGaugeLocked()
	s.mu.Unlock()

	if ok {
		return live.session.Close(ctx)
	}
	if err := s.store.Clear(ctx, id); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", id, err)
	}
	return nil
}

// Active returns the number of live sessions.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Stop ends the sweep and suspends every live session. Stored state is kept
// so sessions survive a restart when the store does.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.sweepWg.Wait()

	s.mu.Lock()
	live := make([]*editor.Session, 0, len(s.sessions))
	for id, ls := range s.sessions {
		live = append(live, ls.session)
		delete(s.sessions, id)
	}
	s.updateGaugeLocked()
	s.mu.Unlock()

	for _, session := range live {
		session.Suspend()
	}
}

func (s *Service) lookup(id string) (*editor.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	live.lastUsed = s.clock.Now()
	return live.session, true
}

func (s *Service) register(id string, session *editor.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &liveSession{session: session, lastUsed: s.clock.Now()}
	s.updateGaugeLocked()
}

func (s *Service) updateGaugeLocked() {
	if s.cfg.ActiveSessions != nil {
		s.cfg.ActiveSessions.Set(float64(len(s.sessions)))
	}
}

func (s *Service) sweepLoop() {
	ticker := s.clock.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.Chan():
			s.sweep()
		}
	}
}

// sweep suspends sessions idle for at least IdleTimeout.
func (s *Service) sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	var idle []*editor.Session
	for id, live := range s.sessions {
		if now.Sub(live.lastUsed) >= s.cfg.IdleTimeout {
			idle = append(idle, live.session)
			delete(s.sessions, id)
		}
	}
	s.updateGaugeLocked()
	s.mu.Unlock()

	for _, session := range idle {
		session.Suspend()
		slog.Debug("Idle session suspended", "session_id", session.ID())
	}
	if p, ok := s.store.(pruner); ok {
		if n := p.Prune(); n > 0 {
			slog.Debug("Expired sessions pruned", "count", n)
		}
	}
	return len(idle)
}
