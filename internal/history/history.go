// Package history implements a bounded, linear undo/redo history of snapshots.
package history

// DefaultMaxHistory is the number of snapshots kept when no limit is given
const DefaultMaxHistory = 50

// Manager keeps deep copies of snapshots and a position inside them.
// Saving after an undo discards the redo branch; there is no tree history.
type Manager[T any] struct {
	entries    []T
	position   int
	maxEntries int
	clone      func(T) T
}

// New creates a Manager. clone must return a deep copy of a snapshot; it is
// applied on every save and on every value handed back to callers.
func New[T any](maxEntries int, clone func(T) T) *Manager[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxHistory
	}
	return &Manager[T]{
		position:   -1,
		maxEntries: maxEntries,
		clone:      clone,
	}
}

// Save appends a snapshot after the current position and makes it current
func (m *Manager[T]) Save(snapshot T) {
	if m.position < len(m.entries)-1 {
		clear(m.entries[m.position+1:])
		m.entries = m.entries[:m.position+1]
	}
	m.entries = append(m.entries, m.clone(snapshot))
	m.position++

	if len(m.entries) > m.maxEntries {
		var zero T
		m.entries[0] = zero
		m.entries = m.entries[1:]
		m.position--
	}
}

// Undo moves one snapshot back and returns it. It returns false at the first
// snapshot or on an empty history.
func (m *Manager[T]) Undo() (T, bool) {
	if !m.CanUndo() {
		var zero T
		return zero, false
	}
	m.position--
	return m.clone(m.entries[m.position]), true
}

// Redo moves one snapshot forward and returns it. It returns false at the last snapshot.
func (m *Manager[T]) Redo() (T, bool) {
	if !m.CanRedo() {
		var zero T
		return zero, false
	}
	m.position++
	return m.clone(m.entries[m.position]), true
}

// Current returns the snapshot at the current position
func (m *Manager[T]) Current() (T, bool) {
	if m.position < 0 {
		var zero T
		return zero, false
	}
	return m.clone(m.entries[m.position]), true
}

// CanUndo reports whether Undo would return a snapshot
func (m *Manager[T]) CanUndo() bool {
	return m.position > 0
}

// CanRedo reports whether Redo would return a snapshot
func (m *Manager[T]) CanRedo() bool {
	return m.position < len(m.entries)-1
}

// Len returns the number of stored snapshots
func (m *Manager[T]) Len() int {
	return len(m.entries)
}

// Position returns the index of the current snapshot, -1 when empty
func (m *Manager[T]) Position() int {
	return m.position
}

// Reset drops every snapshot
func (m *Manager[T]) Reset() {
	clear(m.entries)
	m.entries = m.entries[:0]
	m.position = -1
}
