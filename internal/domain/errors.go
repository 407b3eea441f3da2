package domain

import (
	"errors"
	"fmt"
)

// DefaultBlockedMessage is shown when the lock holder gave no reason.
const DefaultBlockedMessage = "Please wait until the current operation finishes."

var (
	// ErrNoop is the root of every "action rejected, nothing changed" condition.
	ErrNoop = errors.New("nothing to do")

	ErrNothingToCommit  = fmt.Errorf("%w: draft equals committed parameters", ErrNoop)
	ErrNoPendingPreview = fmt.Errorf("%w: no background removal preview pending", ErrNoop)
	ErrNothingToUndo    = fmt.Errorf("%w: nothing to undo", ErrNoop)
	ErrNothingToRedo    = fmt.Errorf("%w: nothing to redo", ErrNoop)
	ErrWrongMode        = fmt.Errorf("%w: action not available in the active mode", ErrNoop)

	ErrBlocked   = errors.New("session is busy")
	ErrNetwork   = errors.New("image service request failed")
	ErrCancelled = errors.New("operation cancelled")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")

	ErrUnknownParameter  = errors.New("unknown parameter")
	ErrUnknownMode       = errors.New("unknown mode")
	ErrUnknownHandle     = errors.New("unknown crop handle")
	ErrUnknownCropChoice = errors.New("unknown crop choice")
	ErrInvalidPath       = errors.New("invalid save path")
	ErrEmptyImage        = errors.New("image is empty")
)

// BlockedError reports that the session lock is held.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "blocked: " + e.Message()
}

// Message is the user-facing "please wait" text.
func (e *BlockedError) Message() string {
	if e.Reason == "" {
		return DefaultBlockedMessage
	}
	return e.Reason
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// NetworkError wraps a failed call to the image-processing service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
