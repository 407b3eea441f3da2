package editor

import (
	"context"

	"github.com/pscheid92/valo/internal/domain"
)

// StartRemoveBackground starts background removal of the working image.
// Starting while a removal runs is a silent no-op; starting while another
// operation holds the lock is rejected as blocked.
func (s *Session) StartRemoveBackground(ctx context.Context) (domain.View, error) {
	return s.mutate(ctx, "start_removebg", func() error {
		if s.mode != domain.ModeRemoveBg {
			return domain.ErrWrongMode
		}
		if s.removal.Busy() {
			return nil
		}
		if err := s.lock.Check(); err != nil {
			return err
		}
		if s.working.Empty() {
			return domain.ErrEmptyImage
		}
		_, stale := s.removal.Pending()
		if !s.removal.Start(ctx, s.working) {
			return s.lock.Check()
		}
		if stale {
			s.displayed = s.working
		}
		return nil
	})
}

// CancelRemoveBackground aborts a running removal. It is a no-op otherwise.
func (s *Session) CancelRemoveBackground(ctx context.Context) (domain.View, error) {
	return s.mutate(ctx, "cancel_removebg", func() error {
		s.removal.Cancel()
		return nil
	})
}
