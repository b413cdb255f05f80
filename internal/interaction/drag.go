package interaction

import (
	"fmt"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// Drag is an in-progress clip move gesture. The pointer offset within the
// clip is captured once at mouse-down so the grab point stays fixed under
// the cursor for the whole gesture.
type Drag struct {
	ClipID   string
	OffsetMs int64
}

// BeginDrag captures the gesture state for a clip at the pointer's timeline
// position.
func BeginDrag(doc *timeline.Document, clipID string, pointerMs int64) (*Drag, error) {
	clip := doc.ClipByID(clipID)
	if clip == nil {
		return nil, fmt.Errorf("clip %s not found", clipID)
	}
	if track := doc.TrackByID(clip.TrackID); track != nil && track.Locked {
		return nil, fmt.Errorf("track %s is locked", track.ID)
	}
	return &Drag{ClipID: clipID, OffsetMs: pointerMs - clip.StartTimeMs}, nil
}

// Update moves the dragged clip to follow the pointer, applying snapping
// when enabled. A linked clip always receives the same start time as its
// partner. Returns the applied start time.
func (d *Drag) Update(doc *timeline.Document, pointerMs int64, zoom float64, snapping bool, playheadMs int64) int64 {
	clip := doc.ClipByID(d.ClipID)
	if clip == nil {
		return 0
	}

	newStart := pointerMs - d.OffsetMs
	if newStart < 0 {
		newStart = 0
	}
	if snapping {
		newStart = snapStart(doc, clip, newStart, zoom, playheadMs)
		if newStart < 0 {
			newStart = 0
		}
	}

	clip.StartTimeMs = newStart
	if clip.LinkedClipID != "" {
		if partner := doc.ClipByID(clip.LinkedClipID); partner != nil {
			partner.StartTimeMs = newStart
		}
	}
	return newStart
}

// snapCandidate pairs a proposed start with its distance from the snap
// target that produced it.
type snapCandidate struct {
	startMs int64
	distMs  int64
}

// snapStart applies the snap rules in priority order with short-circuit:
// same-track neighbor boundaries first (closing gaps into seamless
// adjacency), then cross-track start/start and end/end alignment, then
// timeline zero, then the playhead. Within a rule the nearest candidate
// wins.
func snapStart(doc *timeline.Document, clip *timeline.Clip, newStart int64, zoom float64, playheadMs int64) int64 {
	threshold := SnapThresholdMs(zoom)
	dur := clip.DurationMs
	newEnd := newStart + dur

	// Rule 1: same-track neighbors.
	var rule1 []snapCandidate
	for _, other := range doc.ClipsOnTrack(clip.TrackID) {
		if other.ID == clip.ID || other.ID == clip.LinkedClipID {
			continue
		}
		// Start against the neighbor's end, end against the neighbor's start.
		rule1 = append(rule1,
			snapCandidate{startMs: other.EndTimeMs(), distMs: absMs(newStart - other.EndTimeMs())},
			snapCandidate{startMs: other.StartTimeMs - dur, distMs: absMs(newEnd - other.StartTimeMs)},
		)
	}
	if s, ok := nearest(rule1, threshold); ok {
		return s
	}

	// Rule 2: clips on other tracks, start/start and end/end.
	var rule2 []snapCandidate
	for i := range doc.Clips {
		other := &doc.Clips[i]
		if other.TrackID == clip.TrackID || other.ID == clip.ID || other.ID == clip.LinkedClipID {
			continue
		}
		rule2 = append(rule2,
			snapCandidate{startMs: other.StartTimeMs, distMs: absMs(newStart - other.StartTimeMs)},
			snapCandidate{startMs: other.EndTimeMs() - dur, distMs: absMs(newEnd - other.EndTimeMs())},
		)
	}
	if s, ok := nearest(rule2, threshold); ok {
		return s
	}

	// Rule 3: timeline zero.
	if absMs(newStart) <= threshold {
		return 0
	}

	// Rule 4: the playhead.
	rule4 := []snapCandidate{
		{startMs: playheadMs, distMs: absMs(newStart - playheadMs)},
		{startMs: playheadMs - dur, distMs: absMs(newEnd - playheadMs)},
	}
	if s, ok := nearest(rule4, threshold); ok {
		return s
	}

	return newStart
}

func nearest(candidates []snapCandidate, threshold int64) (int64, bool) {
	best := threshold + 1
	var bestStart int64
	found := false
	for _, c := range candidates {
		if c.distMs <= threshold && c.distMs < best {
			best = c.distMs
			bestStart = c.startMs
			found = true
		}
	}
	return bestStart, found
}
