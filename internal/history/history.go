// Package history keeps linear undo/redo stacks of committed session state.
package history

import "github.com/pscheid92/valo/internal/domain"

// Manager holds the undo and redo stacks. It is not safe for concurrent use;
// the owning session serializes access.
type Manager struct {
	undo  []domain.Snapshot
	redo  []domain.Snapshot
	limit int
}

// New creates a Manager keeping at most limit undo entries. A limit of 0
// keeps every entry.
func New(limit int) *Manager {
	return &Manager{limit: max(limit, 0)}
}

// Push records a new edit. The redo stack is always cleared.
func (m *Manager) Push(s domain.Snapshot) {
	m.undo = append(m.undo, s)
	if m.limit > 0 && len(m.undo) > m.limit {
		m.undo = append(m.undo[:0:0], m.undo[len(m.undo)-m.limit:]...)
	}
	m.redo = nil
}

// Undo pops the latest snapshot and parks current on the redo stack.
func (m *Manager) Undo(current domain.Snapshot) (domain.Snapshot, error) {
	if len(m.undo) == 0 {
		return domain.Snapshot{}, domain.ErrNothingToUndo
	}
	prev := pop(&m.undo)
	m.redo = append(m.redo, current)
	return prev, nil
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current domain.Snapshot) (domain.Snapshot, error) {
	if len(m.redo) == 0 {
		return domain.Snapshot{}, domain.ErrNothingToRedo
	}
	next := pop(&m.redo)
	m.undo = append(m.undo, current)
	return next, nil
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Depths returns the sizes of the undo and redo stacks.
func (m *Manager) Depths() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.undo, m.redo = nil, nil
}

func pop(stack *[]domain.Snapshot) domain.Snapshot {
	s := *stack
	top := s[len(s)-1]
	*stack = s[:len(s)-1]
	return top
}
