package editor

import (
	"context"

	"github.com/pscheid92/valo/internal/domain"
)

// SetDraftParameter overwrites one draft field and schedules a preview.
// The value is coerced to the field's range. Draft edits are rejected with
// domain.ErrWrongMode in removebg mode, whose preview they would replace.
func (s *Session) SetDraftParameter(ctx context.Context, key domain.ParamKey, value float64) (domain.View, error) {
	return s.mutate(ctx, "set_parameter", func() error {
		if err := s.draftEditableLocked(); err != nil {
			return err
		}
		s.draft = s.draft.Set(key, value)
		s.previews.Schedule(ctx)
		return nil
	})
}

// ResetDraftParameter puts one draft field back to its neutral value.
func (s *Session) ResetDraftParameter(ctx context.Context, key domain.ParamKey) (domain.View, error) {
	return s.mutate(ctx, "reset_parameter", func() error {
		if err := s.draftEditableLocked(); err != nil {
			return err
		}
		s.draft = s.draft.Set(key, domain.DefaultParameters().Get(key))
		s.previews.Schedule(ctx)
		return nil
	})
}

// ApplyPreset replaces the whole draft with a named preset over the neutral
// base. Unknown names select the "none" preset.
func (s *Session) ApplyPreset(ctx context.Context, name string) (domain.View, error) {
	return s.mutate(ctx, "apply_preset", func() error {
		if err := s.draftEditableLocked(); err != nil {
			return err
		}
		s.draft = domain.Preset(name)
		s.previews.Schedule(ctx)
		return nil
	})
}

func (s *Session) draftEditableLocked() error {
	if s.mode == domain.ModeRemoveBg {
		return domain.ErrWrongMode
	}
	return nil
}
