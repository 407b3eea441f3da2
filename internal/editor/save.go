package editor

import (
	"context"
	"fmt"

	"github.com/pscheid92/valo/internal/domain"
)

// Save renders the committed state of the working image and stores it at
// path. Unapplied drafts and pending previews are not part of the result.
func (s *Session) Save(ctx context.Context, path string) (domain.SaveReceipt, error) {
	const op = "save"

	target, err := domain.NormalizeSavePath(path)
	if err != nil {
		s.reject(ctx, op, err)
		return domain.SaveReceipt{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.SaveReceipt{}, domain.ErrSessionClosed
	}
	if err := s.lock.Check(); err != nil {
		s.mu.Unlock()
		s.reject(ctx, op, err)
		return domain.SaveReceipt{}, err
	}
	working, committed := s.working, s.committed
	s.mu.Unlock()

	final, err := s.processor.Process(ctx, working, committed)
	if err != nil {
		return domain.SaveReceipt{}, settleSave(ctx, "render final image", err)
	}

	receipt, err := s.processor.Save(ctx, final, target)
	if err != nil {
		return domain.SaveReceipt{}, settleSave(ctx, "save image", err)
	}
	return receipt, nil
}

// settleSave reports an aborted caller as domain.ErrCancelled rather than as
// a failed call.
func settleSave(ctx context.Context, step string, err error) error {
	if domain.Settle(ctx, err) == domain.OutcomeCancelled {
		return fmt.Errorf("%s: %w", step, domain.ErrCancelled)
	}
	return fmt.Errorf("%s: %w", step, err)
}
