package editor

import (
	"sync"

	"github.com/pscheid92/valo/internal/domain"
)

// Lock is the session-wide mutual-exclusion flag. While it is held, mode
// switches, commits and history traversal are rejected with the holder's
// reason.
type Lock struct {
	mu     sync.Mutex
	busy   bool
	reason string
}

// TryAcquire takes the lock for reason. It never waits.
func (l *Lock) TryAcquire(reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.busy {
		return false
	}
	l.busy = true
	l.reason = reason
	return true
}

// Release frees the lock. Releasing a free lock is a no-op.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	l.reason = ""
}

// State reports whether the lock is held and why.
func (l *Lock) State() (busy bool, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy, l.reason
}

// Check returns a *domain.BlockedError while the lock is held.
func (l *Lock) Check() error {
	if busy, reason := l.State(); busy {
		return &domain.BlockedError{Reason: reason}
	}
	return nil
}
