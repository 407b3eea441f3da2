package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopSentinels(t *testing.T) {
	for _, err := range []error{ErrNothingToCommit, ErrNoPendingPreview, ErrNothingToUndo, ErrNothingToRedo, ErrWrongMode} {
		assert.ErrorIs(t, err, ErrNoop)
	}
}

func TestBlockedError(t *testing.T) {
	err := fmt.Errorf("undo: %w", &BlockedError{Reason: RemoveBgLockReason})

	assert.ErrorIs(t, err, ErrBlocked)

	var blocked *BlockedError
	assert.True(t, errors.As(err, &blocked))
	assert.Equal(t, RemoveBgLockReason, blocked.Message())
	assert.Equal(t, DefaultBlockedMessage, (&BlockedError{}).Message())
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("status 500")
	err := &NetworkError{Op: "crop", Err: cause}

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "crop: status 500", err.Error())
}

func TestSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	assert.Equal(t, OutcomeSucceeded, Settle(ctx, nil))
	assert.Equal(t, OutcomeFailed, Settle(ctx, errors.New("boom")))

	cancel()
	assert.Equal(t, OutcomeCancelled, Settle(ctx, nil), "a response arriving after cancel is still cancelled")
	assert.Equal(t, OutcomeCancelled, Settle(ctx, errors.New("boom")))
}

func TestParseHandleAndEdges(t *testing.T) {
	h, err := ParseHandle("ne")
	assert.NoError(t, err)
	assert.True(t, h.Has('n'))
	assert.True(t, h.Has('e'))
	assert.False(t, h.Has('s'))
	assert.False(t, HandleMove.Has('e'))

	_, err = ParseHandle("north")
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestParseCropChoice(t *testing.T) {
	c, err := ParseCropChoice("9:16")
	assert.NoError(t, err)
	r, ok := c.Ratio()
	assert.True(t, ok)
	assert.InDelta(t, 0.5625, r, 1e-12)

	c, err = ParseCropChoice("custom")
	assert.NoError(t, err)
	_, ok = c.Ratio()
	assert.False(t, ok)

	_, err = ParseCropChoice("16:9")
	assert.ErrorIs(t, err, ErrUnknownCropChoice)
}
