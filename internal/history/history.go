// Package history implements undo/redo over whole document snapshots.
// Snapshots are pushed on gesture completion, not on continuous drag
// deltas. The model is coarse by design: at tens of clips a full copy is
// cheap; it does not scale to very large timelines.
package history

import "github.com/demostudio/demostudio-agent/internal/timeline"

// MaxDepth bounds the undo stack; the oldest snapshot falls off first.
const MaxDepth = 100

// Stack holds undo and redo snapshots.
type Stack struct {
	undo []*timeline.Document
	redo []*timeline.Document
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push records the document state prior to a discrete mutation and clears
// the redo stack.
func (s *Stack) Push(prior *timeline.Document) {
	s.undo = append(s.undo, prior.Clone())
	if len(s.undo) > MaxDepth {
		s.undo = s.undo[len(s.undo)-MaxDepth:]
	}
	s.redo = s.redo[:0]
}

// Undo pushes the current state onto the redo stack and returns the most
// recent prior snapshot, or nil when there is nothing to undo.
func (s *Stack) Undo(current *timeline.Document) *timeline.Document {
	if len(s.undo) == 0 {
		return nil
	}
	top := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, current.Clone())
	return top
}

// Redo is the inverse of Undo.
func (s *Stack) Redo(current *timeline.Document) *timeline.Document {
	if len(s.redo) == 0 {
		return nil
	}
	top := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, current.Clone())
	return top
}

// CanUndo reports whether an undo snapshot exists.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether a redo snapshot exists.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Clear drops both stacks, e.g. when a different project is loaded.
func (s *Stack) Clear() {
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}
