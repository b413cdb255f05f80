// Package session is the single-writer editing facade over one open
// project: it owns the live document, applies commands and gestures,
// maintains the undo/redo stacks, and feeds the autosave bridge and the
// playback clock. The compositor and clock only ever see snapshots.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/demostudio/demostudio-agent/internal/autosave"
	"github.com/demostudio/demostudio-agent/internal/compositor"
	"github.com/demostudio/demostudio-agent/internal/history"
	"github.com/demostudio/demostudio-agent/internal/interaction"
	"github.com/demostudio/demostudio-agent/internal/playback"
	"github.com/demostudio/demostudio-agent/internal/timeline"
)

var (
	ErrNoProject       = errors.New("no project open")
	ErrGestureActive   = errors.New("another gesture is in progress")
	ErrNoGestureActive = errors.New("no gesture in progress")
)

// Session wraps one open document with its editing machinery.
type Session struct {
	mu     sync.RWMutex
	doc    *timeline.Document
	stack  *history.Stack
	bridge *autosave.Bridge
	clock  *playback.Clock
	sync   *playback.Synchronizer
	logger *slog.Logger

	// One continuous gesture at a time. prior holds the snapshot taken at
	// gesture start; history sees it only on completion.
	drag       *interaction.Drag
	effectDrag *interaction.EffectDrag
	prior      *timeline.Document
}

// New creates a session around a loaded document.
func New(doc *timeline.Document, bridge *autosave.Bridge, sy *playback.Synchronizer, logger *slog.Logger) *Session {
	s := &Session{
		doc:    doc,
		stack:  history.New(),
		bridge: bridge,
		sync:   sy,
		logger: logger,
	}
	s.clock = playback.NewClock(doc.Project.DurationMs, logger)
	s.clock.SetOnTick(s.onTick)
	return s
}

// Clock exposes the transport.
func (s *Session) Clock() *playback.Clock {
	return s.clock
}

// Snapshot returns a deep copy of the current document.
func (s *Session) Snapshot() *timeline.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Project returns the current project record.
func (s *Session) Project() timeline.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Project
}

// EvaluateFrame composites the current document at the given instant.
func (s *Session) EvaluateFrame(timeMs int64) compositor.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return compositor.Evaluate(s.doc, timeMs)
}

// onTick reconciles media handles to the clock. Runs on the clock
// goroutine; the document is read under lock, handles are the
// synchronizer's own state.
func (s *Session) onTick(positionMs int64, playing, transition bool) {
	if s.sync == nil {
		return
	}
	doc := s.Snapshot()
	s.sync.Reconcile(doc, positionMs, playing, transition)
}

// Apply runs a discrete mutation: the prior state is pushed to the undo
// stack, the mutation runs under the write lock, and autosave is notified.
func (s *Session) Apply(name string, fn func(doc *timeline.Document) error) error {
	s.mu.Lock()
	prior := s.doc.Clone()
	if err := fn(s.doc); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", name, err)
	}
	s.stack.Push(prior)
	s.afterMutationLocked()
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.notify(doc)
	s.logger.Debug("applied command", "command", name)
	return nil
}

// Undo restores the previous snapshot, if any.
func (s *Session) Undo() bool {
	s.mu.Lock()
	restored := s.stack.Undo(s.doc)
	if restored == nil {
		s.mu.Unlock()
		return false
	}
	s.doc = restored
	s.afterMutationLocked()
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.notify(doc)
	return true
}

// Redo re-applies an undone snapshot, if any.
func (s *Session) Redo() bool {
	s.mu.Lock()
	restored := s.stack.Redo(s.doc)
	if restored == nil {
		s.mu.Unlock()
		return false
	}
	s.doc = restored
	s.afterMutationLocked()
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.notify(doc)
	return true
}

// BeginClipDrag starts a move gesture. The undo snapshot is captured now
// but pushed only on completion: continuous deltas are not undo steps.
func (s *Session) BeginClipDrag(clipID string, pointerMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil || s.effectDrag != nil || s.prior != nil {
		return ErrGestureActive
	}
	drag, err := interaction.BeginDrag(s.doc, clipID, pointerMs)
	if err != nil {
		return err
	}
	s.drag = drag
	s.prior = s.doc.Clone()
	return nil
}

// UpdateClipDrag moves the dragged clip to follow the pointer.
func (s *Session) UpdateClipDrag(pointerMs int64, zoom float64, snapping bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return 0, ErrNoGestureActive
	}
	start := s.drag.Update(s.doc, pointerMs, zoom, snapping, s.clock.PositionMs())
	return start, nil
}

// EndClipDrag completes the gesture, pushing the pre-gesture snapshot onto
// the undo stack and notifying autosave.
func (s *Session) EndClipDrag() error {
	s.mu.Lock()
	if s.drag == nil {
		s.mu.Unlock()
		return ErrNoGestureActive
	}
	clip := s.doc.ClipByID(s.drag.ClipID)
	if clip != nil {
		timeline.ClampClip(clip)
	}
	s.stack.Push(s.prior)
	s.drag = nil
	s.prior = nil
	s.afterMutationLocked()
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.notify(doc)
	return nil
}

// BeginEffectDrag starts a move gesture on a zoom, blur, or pan clip.
func (s *Session) BeginEffectDrag(clipID string, pointerMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil || s.effectDrag != nil || s.prior != nil {
		return ErrGestureActive
	}
	drag, err := interaction.BeginEffectDrag(s.doc, clipID, pointerMs)
	if err != nil {
		return err
	}
	s.effectDrag = drag
	s.prior = s.doc.Clone()
	return nil
}

// UpdateEffectDrag moves the dragged effect window to follow the pointer.
func (s *Session) UpdateEffectDrag(pointerMs int64, zoom float64, snapping bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.effectDrag == nil {
		return 0, ErrNoGestureActive
	}
	start := s.effectDrag.Update(s.doc, pointerMs, zoom, snapping, s.clock.PositionMs())
	return start, nil
}

// EndEffectDrag completes the gesture as a single undo step.
func (s *Session) EndEffectDrag() error {
	s.mu.Lock()
	if s.effectDrag == nil {
		s.mu.Unlock()
		return ErrNoGestureActive
	}
	s.stack.Push(s.prior)
	s.effectDrag = nil
	s.prior = nil
	s.afterMutationLocked()
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.notify(doc)
	return nil
}

// BeginTrim starts a trim gesture on either clip edge.
func (s *Session) BeginTrim(clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil || s.effectDrag != nil || s.prior != nil {
		return ErrGestureActive
	}
	if s.doc.ClipByID(clipID) == nil {
		return fmt.Errorf("clip %s not found", clipID)
	}
	s.prior = s.doc.Clone()
	return nil
}

// BeginEffectTrim starts a trim gesture on an effect window's edge.
func (s *Session) BeginEffectTrim(clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil || s.effectDrag != nil || s.prior != nil {
		return ErrGestureActive
	}
	if s.doc.EffectWindowByID(clipID) == nil {
		return fmt.Errorf("effect clip %s not found", clipID)
	}
	s.prior = s.doc.Clone()
	return nil
}

// UpdateEffectTrimStart drags the left edge of an effect window during an
// active trim gesture.
func (s *Session) UpdateEffectTrimStart(clipID string, newStartMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prior == nil {
		return ErrNoGestureActive
	}
	w := s.doc.EffectWindowByID(clipID)
	if w == nil {
		return fmt.Errorf("effect clip %s not found", clipID)
	}
	interaction.TrimEffectStart(w, newStartMs)
	return nil
}

// UpdateEffectTrimEnd drags the right edge of an effect window during an
// active trim gesture.
func (s *Session) UpdateEffectTrimEnd(clipID string, newEndMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prior == nil {
		return ErrNoGestureActive
	}
	w := s.doc.EffectWindowByID(clipID)
	if w == nil {
		return fmt.Errorf("effect clip %s not found", clipID)
	}
	interaction.TrimEffectEnd(w, newEndMs)
	return nil
}

// UpdateTrimStart drags the left edge during an active trim gesture.
func (s *Session) UpdateTrimStart(clipID string, newStartMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prior == nil {
		return ErrNoGestureActive
	}
	return interaction.TrimStart(s.doc, clipID, newStartMs)
}

// UpdateTrimEnd drags the right edge during an active trim gesture.
func (s *Session) UpdateTrimEnd(clipID string, newEndMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prior == nil {
		return ErrNoGestureActive
	}
	return interaction.TrimEnd(s.doc, clipID, newEndMs)
}

// EndTrim completes a trim gesture.
func (s *Session) EndTrim() error {
	s.mu.Lock()
	if s.prior == nil {
		s.mu.Unlock()
		return ErrNoGestureActive
	}
	s.stack.Push(s.prior)
	s.prior = nil
	s.afterMutationLocked()
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.notify(doc)
	return nil
}

// SplitClip cuts a clip at the given time.
func (s *Session) SplitClip(clipID string, splitMs int64) (first, second string, err error) {
	err = s.Apply("split clip", func(doc *timeline.Document) error {
		var inner error
		first, second, inner = interaction.Split(doc, clipID, splitMs)
		return inner
	})
	return first, second, err
}

// SplitAtPlayhead cuts a clip at the current clock position.
func (s *Session) SplitAtPlayhead(clipID string) (first, second string, err error) {
	return s.SplitClip(clipID, s.clock.PositionMs())
}

// CanUndo reports whether an undo snapshot exists.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stack.CanUndo()
}

// CanRedo reports whether a redo snapshot exists.
func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stack.CanRedo()
}

// Close stops the clock and tears down the handle pool.
func (s *Session) Close() {
	s.clock.Close()
	if s.sync != nil {
		s.sync.Close()
	}
}

// afterMutationLocked re-syncs derived state after any document change.
// The project duration tracks the content end so the transport never runs
// past the last clip.
func (s *Session) afterMutationLocked() {
	s.doc.Project.DurationMs = s.doc.ContentDurationMs()
	s.clock.SetDuration(s.doc.Project.DurationMs)
}

func (s *Session) notify(doc *timeline.Document) {
	if s.bridge != nil {
		s.bridge.Notify(doc)
	}
}
