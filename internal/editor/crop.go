package editor

import (
	"context"
	"fmt"

	"github.com/pscheid92/valo/internal/crop"
	"github.com/pscheid92/valo/internal/domain"
)

const cropLockReason = "Crop is still processing. Please wait..."

// SelectCropRatio resets the crop rect for a newly picked crop choice. frame
// is the rendered image size used to turn pixel ratios into unit-square
// ratios.
func (s *Session) SelectCropRatio(ctx context.Context, choice domain.CropChoice, frame domain.Frame) (domain.View, error) {
	return s.mutate(ctx, "select_crop_ratio", func() error {
		if s.mode != domain.ModeCrop {
			return domain.ErrWrongMode
		}

		switch choice {
		case domain.CropOriginal:
			s.rect = crop.Full()
		case domain.CropCustom:
			s.rect.Aspect = 0
		default:
			ratio, ok := choice.Ratio()
			if !ok {
				return fmt.Errorf("%w: %q", domain.ErrUnknownCropChoice, choice)
			}
			s.rect = crop.FromCenterAspect(crop.NormalizeAspect(ratio, frame))
		}
		s.choice = choice
		return nil
	})
}

// DragCrop moves the crop rect or resizes it by one of its handles. Any drag
// makes the choice custom; a locked aspect survives it.
func (s *Session) DragCrop(ctx context.Context, handle domain.Handle, dx, dy float64) (domain.View, error) {
	return s.mutate(ctx, "drag_crop", func() error {
		if s.mode != domain.ModeCrop {
			return domain.ErrWrongMode
		}

		if handle == domain.HandleMove {
			s.rect = crop.MoveBy(s.rect, dx, dy)
		} else {
			s.rect = crop.ResizeByHandle(s.rect, handle, dx, dy, s.rect.Aspect)
		}
		s.choice = domain.CropCustom
		return nil
	})
}

// SetCropRect replaces the crop rect, normalized to a valid one.
func (s *Session) SetCropRect(ctx context.Context, rect domain.CropRect) (domain.View, error) {
	return s.mutate(ctx, "set_crop_rect", func() error {
		if s.mode != domain.ModeCrop {
			return domain.ErrWrongMode
		}
		s.rect = crop.Normalize(rect)
		if !s.rect.Constrained() {
			s.choice = domain.CropCustom
		}
		return nil
	})
}

// CommitCrop crops the working image to the current rect. The session lock
// is held for the duration of the call; on failure or cancellation nothing
// changes.
func (s *Session) CommitCrop(ctx context.Context) (domain.View, error) {
	const op = "commit_crop"

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.View{}, domain.ErrSessionClosed
	}
	if s.mode != domain.ModeCrop {
		s.mu.Unlock()
		s.reject(ctx, op, domain.ErrWrongMode)
		return domain.View{}, domain.ErrWrongMode
	}
	if !s.lock.TryAcquire(cropLockReason) {
		err := s.lock.Check()
		if err == nil {
			err = &domain.BlockedError{}
		}
		s.mu.Unlock()
		s.reject(ctx, op, err)
		return domain.View{}, err
	}
	working, rect := s.working, s.rect
	view := s.changedLocked(ctx)
	s.mu.Unlock()
	s.publishState(ctx, view)

	img, err := s.processor.Crop(ctx, working, rect)
	outcome := domain.Settle(ctx, err)
	if outcome == domain.OutcomeSucceeded && img.Empty() {
		outcome, err = domain.OutcomeFailed, domain.ErrEmptyImage
	}

	s.mu.Lock()
	s.lock.Release()
	if s.closed {
		s.mu.Unlock()
		return domain.View{}, domain.ErrSessionClosed
	}

	switch outcome {
	case domain.OutcomeCancelled:
		err = fmt.Errorf("crop: %w", domain.ErrCancelled)
	case domain.OutcomeFailed:
		err = fmt.Errorf("crop: %w", err)
	default:
		s.history.Push(s.snapshotLocked())
		s.working = img
		s.displayed = img
		s.rect = crop.Full()
		s.choice = domain.CropOriginal
		s.previews.Schedule(ctx)
		s.observer.Committed(CommitCrop)
	}
	view = s.changedLocked(ctx)
	s.mu.Unlock()

	s.publishState(ctx, view)
	if err != nil {
		s.reject(ctx, op, err)
		return view, err
	}
	return view, nil
}
