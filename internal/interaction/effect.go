package interaction

import (
	"fmt"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// Effect clips mirror the content-clip gestures but snap only to timeline
// zero and the playhead: effect tracks are single-purpose, so cross-track
// alignment is noise.

// EffectDrag is an in-progress effect-window move gesture, holding the
// grab offset captured at mouse-down.
type EffectDrag struct {
	ClipID   string
	OffsetMs int64
}

// BeginEffectDrag captures the gesture state for a zoom, blur, or pan clip
// at the pointer's timeline position.
func BeginEffectDrag(doc *timeline.Document, clipID string, pointerMs int64) (*EffectDrag, error) {
	w := doc.EffectWindowByID(clipID)
	if w == nil {
		return nil, fmt.Errorf("effect clip %s not found", clipID)
	}
	return &EffectDrag{ClipID: clipID, OffsetMs: pointerMs - w.StartTimeMs}, nil
}

// Update moves the dragged effect window to follow the pointer. Returns
// the applied start time.
func (d *EffectDrag) Update(doc *timeline.Document, pointerMs int64, zoom float64, snapping bool, playheadMs int64) int64 {
	w := doc.EffectWindowByID(d.ClipID)
	if w == nil {
		return 0
	}
	return DragEffect(w, pointerMs, d.OffsetMs, zoom, snapping, playheadMs)
}

// DragEffect moves an effect window to follow the pointer. offsetMs is the
// grab offset captured at gesture start. Returns the applied start time.
func DragEffect(w *timeline.EffectWindow, pointerMs, offsetMs int64, zoom float64, snapping bool, playheadMs int64) int64 {
	newStart := pointerMs - offsetMs
	if newStart < 0 {
		newStart = 0
	}

	if snapping {
		threshold := SnapThresholdMs(zoom)
		newEnd := newStart + w.DurationMs
		switch {
		case absMs(newStart) <= threshold:
			newStart = 0
		case absMs(newStart-playheadMs) <= threshold:
			newStart = playheadMs
		case absMs(newEnd-playheadMs) <= threshold:
			newStart = playheadMs - w.DurationMs
		}
		if newStart < 0 {
			newStart = 0
		}
	}

	w.StartTimeMs = newStart
	return newStart
}

// TrimEffectStart drags an effect window's left edge. The easing windows
// are preserved; only start and duration change.
func TrimEffectStart(w *timeline.EffectWindow, newStartMs int64) {
	end := w.EndTimeMs()
	if newStartMs < 0 {
		newStartMs = 0
	}
	if newStartMs > end-timeline.MinClipDurationMs {
		newStartMs = end - timeline.MinClipDurationMs
	}
	w.StartTimeMs = newStartMs
	w.DurationMs = end - newStartMs
}

// TrimEffectEnd drags an effect window's right edge.
func TrimEffectEnd(w *timeline.EffectWindow, newEndMs int64) {
	if newEndMs < w.StartTimeMs+timeline.MinClipDurationMs {
		newEndMs = w.StartTimeMs + timeline.MinClipDurationMs
	}
	w.DurationMs = newEndMs - w.StartTimeMs
}
