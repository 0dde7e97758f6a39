package engine

import "github.com/roach88/soralvi/internal/ir"

// ActionLog is the append-only sequence of recorded actions.
//
// INVARIANT: entry order is exactly the order the instrumentation calls were
// made. Nothing is compacted or deduplicated; a trace that repeats the
// previous state still gets its own entry.
type ActionLog struct {
	actions []ir.Action
}

// NewActionLog creates an empty log.
func NewActionLog() *ActionLog {
	return &ActionLog{actions: make([]ir.Action, 0, 64)}
}

// Append adds an action to the end of the log.
func (l *ActionLog) Append(a ir.Action) {
	l.actions = append(l.actions, a)
}

// Len returns the number of recorded actions.
func (l *ActionLog) Len() int {
	return len(l.actions)
}

// At returns the action at index i.
// Returns an INDEX_OUT_OF_RANGE RuntimeError outside [0, Len).
func (l *ActionLog) At(i int) (ir.Action, error) {
	if i < 0 || i >= len(l.actions) {
		return nil, NewIndexError(i, len(l.actions))
	}
	return l.actions[i], nil
}

// Actions returns a copy of every recorded action.
func (l *ActionLog) Actions() []ir.Action {
	out := make([]ir.Action, len(l.actions))
	copy(out, l.actions)
	return out
}

// Reset clears the log.
func (l *ActionLog) Reset() {
	// Drop references so a large previous run can be collected.
	clear(l.actions)
	l.actions = l.actions[:0]
}
