package editor

import (
	"context"

	"github.com/pscheid92/valo/internal/domain"
)

// History traversal directions reported to the Observer.
const (
	directionUndo = "undo"
	directionRedo = "redo"
)

// Apply is the single "apply" action of the UI. It commits whatever the
// active mode edits.
func (s *Session) Apply(ctx context.Context) (domain.View, error) {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()

	switch mode {
	case domain.ModeRemoveBg:
		return s.CommitRemoveBackground(ctx)
	case domain.ModeCrop:
		return s.CommitCrop(ctx)
	default:
		return s.CommitParameters(ctx)
	}
}

// CommitParameters promotes the draft to committed, recording the previous
// committed state in history. It returns domain.ErrNothingToCommit when the
// draft equals the committed parameters.
func (s *Session) CommitParameters(ctx context.Context) (domain.View, error) {
	return s.mutate(ctx, "commit_parameters", func() error {
		if err := s.lock.Check(); err != nil {
			return err
		}
		if s.draft == s.committed {
			return domain.ErrNothingToCommit
		}

		s.history.Push(s.snapshotLocked())
		s.committed = s.draft
		s.previews.Schedule(ctx)
		s.observer.Committed(CommitParameters)
		return nil
	})
}

// CommitRemoveBackground makes the pending background-removal preview the
// new working image.
func (s *Session) CommitRemoveBackground(ctx context.Context) (domain.View, error) {
	return s.mutate(ctx, "commit_removebg", func() error {
		if err := s.lock.Check(); err != nil {
			return err
		}
		before := s.snapshotLocked()
		img, ok := s.removal.Take()
		if !ok {
			return domain.ErrNoPendingPreview
		}
		s.history.Push(before)
		s.working = img
		s.displayed = img
		s.previews.Schedule(ctx)
		s.observer.Committed(CommitRemoveBg)
		return nil
	})
}

// SetActiveMode switches the editing tab. Leaving removebg discards an
// uncommitted preview.
func (s *Session) SetActiveMode(ctx context.Context, mode domain.Mode) (domain.View, error) {
	return s.mutate(ctx, "set_mode", func() error {
		if err := s.lock.Check(); err != nil {
			return err
		}
		s.switchModeLocked(ctx, mode)
		return nil
	})
}

// switchModeLocked is the silent transition shared with history traversal;
// it ignores the lock.
func (s *Session) switchModeLocked(ctx context.Context, mode domain.Mode) {
	if s.mode == mode {
		return
	}
	if s.mode == domain.ModeRemoveBg {
		if _, ok := s.removal.Pending(); ok {
			s.displayed = s.working
			s.previews.Schedule(ctx)
		}
		s.removal.Discard()
	}
	s.mode = mode
}

// Undo restores the state before the latest commit.
func (s *Session) Undo(ctx context.Context) (domain.View, error) {
	return s.mutate(ctx, "undo", func() error {
		if err := s.lock.Check(); err != nil {
			return err
		}
		prev, err := s.history.Undo(s.snapshotLocked())
		if err != nil {
			return err
		}
		s.restoreLocked(ctx, prev)
		s.observer.Traversed(directionUndo)
		return nil
	})
}

// Redo re-applies the latest undone commit.
func (s *Session) Redo(ctx context.Context) (domain.View, error) {
	return s.mutate(ctx, "redo", func() error {
		if err := s.lock.Check(); err != nil {
			return err
		}
		next, err := s.history.Redo(s.snapshotLocked())
		if err != nil {
			return err
		}
		s.restoreLocked(ctx, next)
		s.observer.Traversed(directionRedo)
		return nil
	})
}

// restoreLocked applies a snapshot without recording history. A pending
// background-removal preview belongs to the replaced working image and is
// dropped.
func (s *Session) restoreLocked(ctx context.Context, snap domain.Snapshot) {
	s.switchModeLocked(ctx, snap.Mode)
	s.removal.Discard()
	s.working = snap.Working
	s.displayed = snap.Working
	s.committed = snap.Committed
	s.draft = snap.Committed
	s.previews.Schedule(ctx)
}
