// Package editor implements the edit session controller: the state machine
// holding draft and committed parameters, the working image, crop state,
// undo/redo history and the session lock of one browser session.
//
// Every public operation is atomic with respect to the session. Calls to the
// image service run outside the session mutex; their results are applied
// under it.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/history"
	"github.com/pscheid92/valo/internal/preview"
	"github.com/pscheid92/valo/internal/removebg"
)

// Deps are the collaborators of a Session. Publisher and Observer are optional.
type Deps struct {
	Processor domain.ImageProcessor
	Store     domain.SessionStore
	Publisher domain.EventPublisher
	Observer  Observer
	Clock     clockwork.Clock
}

// Config tunes a Session.
type Config struct {
	PreviewDelay time.Duration
	// HistoryDepth caps the undo stack; 0 means unbounded.
	HistoryDepth int
}

// Session is one edit session.
type Session struct {
	id        string
	processor domain.ImageProcessor
	store     domain.SessionStore
	publisher domain.EventPublisher
	observer  Observer

	lock     *Lock
	history  *history.Manager
	previews *preview.Scheduler
	removal  *removebg.Coordinator

	mu        sync.Mutex
	mode      domain.Mode
	selected  domain.ImageRef
	working   domain.ImageRef
	displayed domain.ImageRef
	draft     domain.Parameters
	committed domain.Parameters
	rect      domain.CropRect
	choice    domain.CropChoice
	revision  uint64
	closed    bool

	// shown numbers displayed images under mu; published is the latest
	// number sent out, guarded by publishMu.
	shown     uint64
	publishMu sync.Mutex
	published uint64
}

// New restores session id from the store. The store must hold at least a
// selected image; otherwise domain.ErrSessionNotFound or domain.ErrEmptyImage
// is returned.
func New(ctx context.Context, id string, deps Deps, cfg Config) (*Session, error) {
	values, err := deps.Store.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	s := &Session{
		id:        id,
		processor: deps.Processor,
		store:     deps.Store,
		publisher: deps.Publisher,
		observer:  deps.Observer,
		lock:      &Lock{},
		rect:      domain.InitialCropRect(),
		choice:    domain.CropCustom,
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if err := s.restore(ctx, values); err != nil {
		return nil, err
	}

	s.history = history.New(cfg.HistoryDepth)

	s.previews = preview.New(deps.Processor, deps.Clock, preview.Config{
		Delay:      cfg.PreviewDelay,
		Source:     s.previewRequest,
		Suppressed: s.removalOnDisplay,
		Display:    s.showPreview,
		Observe:    s.observer.PreviewFinished,
	})
	s.removal = removebg.New(deps.Processor, s.lock, deps.Clock, removebg.Config{
		Display: s.showRemoval,
		Changed: s.removalSettled,
		Observe: s.observer.RemoveBgFinished,
	})

	if !s.draft.IsNeutral() {
		s.previews.Schedule(ctx)
	}
	return s, nil
}

func (s *Session) restore(ctx context.Context, values map[domain.StoreKey]string) error {
	s.selected = domain.ImageRef(values[domain.KeySelectedImage])
	s.working = domain.ImageRef(values[domain.KeyWorkingImage])
	if s.working.Empty() {
		s.working = s.selected
	}
	if s.working.Empty() {
		return fmt.Errorf("session %s has no image: %w", s.id, domain.ErrEmptyImage)
	}
	s.displayed = s.working

	s.committed = decodeParameters(ctx, values[domain.KeyParamsCommitted], domain.DefaultParameters())
	s.draft = decodeParameters(ctx, values[domain.KeyParamsDraft], s.committed)

	s.mode = domain.ModeAdjust
	if raw := values[domain.KeyActiveMode]; raw != "" {
		if mode, err := domain.ParseMode(raw); err == nil {
			s.mode = mode
		}
	}
	return nil
}

// decodeParameters merges stored JSON over fallback. Fields missing from the
// stored value keep the fallback's value.
func decodeParameters(ctx context.Context, raw string, fallback domain.Parameters) domain.Parameters {
	if raw == "" {
		return fallback
	}
	p := domain.DefaultParameters()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.WarnContext(ctx, "Ignoring unreadable stored parameters", "error", err)
		return fallback
	}
	return p.Normalize()
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// View returns the current presentation state.
func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// DisplayedImage returns the image currently shown to the user.
func (s *Session) DisplayedImage() domain.ImageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed
}

// IsCommitEnabled reports whether the apply action would do something.
func (s *Session) IsCommitEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	busy, _ := s.lock.State()
	_, pending := s.removal.Pending()
	return s.commitEnabledLocked(busy, pending)
}

func (s *Session) commitEnabledLocked(busy, pending bool) bool {
	if busy {
		return false
	}
	switch s.mode {
	case domain.ModeRemoveBg:
		return pending
	case domain.ModeCrop:
		return true
	default:
		return s.draft != s.committed
	}
}

// PendingChanges lists work a save would leave out.
func (s *Session) PendingChanges() domain.PendingChanges {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, pending := s.removal.Pending()
	return domain.PendingChanges{
		UnappliedDraft:    s.draft != s.committed,
		UnappliedRemoveBg: pending,
	}
}

// Close aborts in-flight work and clears the stored session keys.
func (s *Session) Close(ctx context.Context) error {
	if !s.shutdown() {
		return nil
	}
	if err := s.store.Clear(ctx, s.id); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", s.id, err)
	}
	return nil
}

// Suspend aborts in-flight work but keeps the stored state, so the session
// can be restored later.
func (s *Session) Suspend() {
	s.shutdown()
}

// shutdown stops the workers once. The workers call back into the session,
// so they are stopped without holding mu.
func (s *Session) shutdown() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	s.mu.Unlock()

	s.previews.Stop()
	s.removal.Stop()
	return true
}

// mutate runs fn under the session mutex. When fn succeeds, the new state is
// persisted and published.
func (s *Session) mutate(ctx context.Context, op string, fn func() error) (domain.View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.View{}, domain.ErrSessionClosed
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		s.reject(ctx, op, err)
		return domain.View{}, err
	}
	view := s.changedLocked(ctx)
	s.mu.Unlock()

	s.publishState(ctx, view)
	return view, nil
}

func (s *Session) reject(ctx context.Context, op string, err error) {
	s.observer.Rejected(op, err)
	slog.DebugContext(ctx, "Session operation rejected", "session_id", s.id, "op", op, "error", err)
}

// changedLocked persists the state and returns a view with a new revision.
func (s *Session) changedLocked(ctx context.Context) domain.View {
	s.persistLocked(ctx)
	s.revision++
	return s.viewLocked()
}

func (s *Session) persistLocked(ctx context.Context) {
	committed, err := json.Marshal(s.committed)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode committed parameters", "session_id", s.id, "error", err)
		return
	}
	draft, err := json.Marshal(s.draft)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode draft parameters", "session_id", s.id, "error", err)
		return
	}

	values := map[domain.StoreKey]string{
		domain.KeyWorkingImage:    string(s.working),
		domain.KeyParamsCommitted: string(committed),
		domain.KeyParamsDraft:     string(draft),
		domain.KeyActiveMode:      s.mode.String(),
	}
	if err := s.store.Write(ctx, s.id, values); err != nil {
		slog.WarnContext(ctx, "Failed to persist session", "session_id", s.id, "error", err)
	}
}

func (s *Session) viewLocked() domain.View {
	busy, reason := s.lock.State()
	_, pending := s.removal.Pending()
	status := s.removal.Status()
	undo, redo := s.history.Depths()

	v := domain.View{
		SessionID:      s.id,
		Revision:       s.revision,
		Mode:           s.mode,
		Draft:          s.draft,
		Committed:      s.committed,
		CommitEnabled:  s.commitEnabledLocked(busy, pending),
		Locked:         busy,
		RemoveBgStatus: status,
		RemoveBgLabel:  status.Label(),
		PendingPreview: pending,
		CanUndo:        undo > 0,
		CanRedo:        redo > 0,
		UndoDepth:      undo,
		RedoDepth:      redo,
		Crop:           s.rect,
		CropChoice:     s.choice,
		UnappliedDraft: s.draft != s.committed,
		ImageAvailable: !s.displayed.Empty(),
	}
	if busy {
		v.LockMessage = (&domain.BlockedError{Reason: reason}).Message()
	}
	return v
}

func (s *Session) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{Mode: s.mode, Working: s.working, Committed: s.committed}
}

func (s *Session) publishState(ctx context.Context, view domain.View) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishState(ctx, s.id, view); err != nil {
		slog.WarnContext(ctx, "Failed to publish session state", "session_id", s.id, "error", err)
	}
}

func (s *Session) publishImage(ctx context.Context, img domain.ImageRef) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishImage(ctx, s.id, img); err != nil {
		slog.WarnContext(ctx, "Failed to publish preview image", "session_id", s.id, "error", err)
	}
}

// previewRequest feeds the scheduler at fire time.
func (s *Session) previewRequest() (preview.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return preview.Request{}, false
	}
	return preview.Request{Image: s.working, Params: s.draft}, true
}

// removalOnDisplay reports whether background removal owns the display:
// while it runs and while its preview waits to be applied.
func (s *Session) removalOnDisplay() bool {
	if s.removal.Busy() {
		return true
	}
	_, pending := s.removal.Pending()
	return pending
}

// showPreview applies a finished preview render. A render whose context was
// cancelled lost the race against a newer one and is dropped here, under mu,
// so displays stay ordered last-request-wins.
func (s *Session) showPreview(ctx context.Context, img domain.ImageRef) {
	s.mu.Lock()
	if s.closed || ctx.Err() != nil || s.removalOnDisplay() {
		s.mu.Unlock()
		return
	}
	s.displayed = img
	s.shown++
	seq := s.shown
	s.mu.Unlock()

	s.publishShown(ctx, seq, img)
}

// showRemoval displays a finished background removal, unless it was discarded
// in the meantime.
func (s *Session) showRemoval(ctx context.Context, img domain.ImageRef) {
	s.mu.Lock()
	if pending, ok := s.removal.Pending(); s.closed || !ok || pending != img {
		s.mu.Unlock()
		return
	}
	s.displayed = img
	s.shown++
	seq := s.shown
	s.mu.Unlock()

	s.publishShown(ctx, seq, img)
}

// publishShown publishes the seq-th displayed image unless a later one was
// already sent, so subscribers never end on a stale image.
func (s *Session) publishShown(ctx context.Context, seq uint64, img domain.ImageRef) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if seq <= s.published {
		return
	}
	s.published = seq
	s.publishImage(ctx, img)
}

// removalSettled publishes the state after the coordinator released the lock.
func (s *Session) removalSettled(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	view := s.changedLocked(ctx)
	s.mu.Unlock()

	s.publishState(ctx, view)
}

