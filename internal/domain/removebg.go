package domain

// RemoveBgStatus is the state of the background-removal coordinator.
type RemoveBgStatus string

const (
	RemoveBgReady     RemoveBgStatus = "ready"
	RemoveBgRemoving  RemoveBgStatus = "removing"
	RemoveBgDone      RemoveBgStatus = "done"
	RemoveBgCancelled RemoveBgStatus = "cancelled"
	RemoveBgFailed    RemoveBgStatus = "failed"
)

// RemoveBgLockReason is the lock message held while background removal runs.
const RemoveBgLockReason = "Remove Background is still processing. Please wait..."

// Label is the status line shown next to the remove-background controls.
func (s RemoveBgStatus) Label() string {
	switch s {
	case RemoveBgRemoving:
		return "Removing..."
	case RemoveBgDone:
		return "Preview ready (apply to keep)"
	case RemoveBgCancelled:
		return "Cancelled"
	case RemoveBgFailed:
		return "Failed"
	default:
		return "Ready"
	}
}
