package editor

import (
	"time"

	"github.com/pscheid92/valo/internal/domain"
)

// Commit kinds reported to an Observer.
const (
	CommitParameters = "parameters"
	CommitCrop       = "crop"
	CommitRemoveBg   = "removebg"
)

// Observer receives session events for instrumentation.
type Observer interface {
	PreviewFinished(outcome domain.Outcome, elapsed time.Duration)
	RemoveBgFinished(outcome domain.Outcome, elapsed time.Duration)
	Committed(kind string)
	Traversed(direction string)
	Rejected(op string, err error)
}

type nopObserver struct{}

func (nopObserver) PreviewFinished(domain.Outcome, time.Duration)  {}
func (nopObserver) RemoveBgFinished(domain.Outcome, time.Duration) {}
func (nopObserver) Committed(string)                               {}
func (nopObserver) Traversed(string)                               {}
func (nopObserver) Rejected(string, error)                         {}
