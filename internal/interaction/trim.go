package interaction

import (
	"fmt"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// TrimStart drags a clip's left edge to newStartMs. The duration
// compensates and the in-point shifts by the same delta so the source
// content revealed or hidden stays consistent. Clamped so the duration
// never drops below the floor and the in-point never goes negative. Linked
// clips trim in lockstep.
func TrimStart(doc *timeline.Document, clipID string, newStartMs int64) error {
	clip := doc.ClipByID(clipID)
	if clip == nil {
		return fmt.Errorf("clip %s not found", clipID)
	}
	applyTrimStart(clip, newStartMs)
	if clip.LinkedClipID != "" {
		if partner := doc.ClipByID(clip.LinkedClipID); partner != nil {
			partner.StartTimeMs = clip.StartTimeMs
			partner.DurationMs = clip.DurationMs
			partner.InPointMs = clip.InPointMs
		}
	}
	return nil
}

func applyTrimStart(clip *timeline.Clip, newStartMs int64) {
	end := clip.EndTimeMs()

	if newStartMs < 0 {
		newStartMs = 0
	}
	// Left edge cannot pass the right edge.
	if newStartMs > end-timeline.MinClipDurationMs {
		newStartMs = end - timeline.MinClipDurationMs
	}
	// Cannot reveal source content before the source's first frame.
	delta := newStartMs - clip.StartTimeMs
	if clip.InPointMs+delta < 0 {
		delta = -clip.InPointMs
		newStartMs = clip.StartTimeMs + delta
	}

	clip.StartTimeMs = newStartMs
	clip.DurationMs = end - newStartMs
	clip.InPointMs += delta
	timeline.ClampClip(clip)
}

// TrimEnd drags a clip's right edge to newEndMs; only the duration changes.
// Linked clips trim in lockstep.
func TrimEnd(doc *timeline.Document, clipID string, newEndMs int64) error {
	clip := doc.ClipByID(clipID)
	if clip == nil {
		return fmt.Errorf("clip %s not found", clipID)
	}
	applyTrimEnd(clip, newEndMs)
	if clip.LinkedClipID != "" {
		if partner := doc.ClipByID(clip.LinkedClipID); partner != nil {
			partner.StartTimeMs = clip.StartTimeMs
			partner.DurationMs = clip.DurationMs
		}
	}
	return nil
}

func applyTrimEnd(clip *timeline.Clip, newEndMs int64) {
	if newEndMs < clip.StartTimeMs+timeline.MinClipDurationMs {
		newEndMs = clip.StartTimeMs + timeline.MinClipDurationMs
	}
	clip.DurationMs = newEndMs - clip.StartTimeMs
	timeline.ClampClip(clip)
}

// Split cuts a clip at a time strictly inside its interval, far enough
// from either edge that both halves satisfy the duration floor. The first
// half keeps [start, splitMs) with an unchanged in-point; the second half
// starts at splitMs with its in-point advanced by the elapsed duration, so
// the two halves reconstruct the original source coverage exactly. A
// linked partner is split at the same instant with the corresponding
// halves re-linked. Returns the ids of the two halves.
func Split(doc *timeline.Document, clipID string, splitMs int64) (firstID, secondID string, err error) {
	clip := doc.ClipByID(clipID)
	if clip == nil {
		return "", "", fmt.Errorf("clip %s not found", clipID)
	}
	if splitMs <= clip.StartTimeMs || splitMs >= clip.EndTimeMs() {
		return "", "", fmt.Errorf("split time %d outside clip interval [%d, %d)", splitMs, clip.StartTimeMs, clip.EndTimeMs())
	}
	if splitMs < clip.StartTimeMs+timeline.MinClipDurationMs || splitMs > clip.EndTimeMs()-timeline.MinClipDurationMs {
		return "", "", fmt.Errorf("split time %d would leave a fragment under %dms", splitMs, timeline.MinClipDurationMs)
	}

	linkedID := clip.LinkedClipID

	firstID, secondID = splitSingle(doc, clipID, splitMs)

	if linkedID != "" {
		partner := doc.ClipByID(linkedID)
		if partner != nil && partner.Contains(splitMs) {
			pFirst, pSecond := splitSingle(doc, linkedID, splitMs)
			doc.LinkClips(firstID, pFirst)
			doc.LinkClips(secondID, pSecond)
		}
	}
	return firstID, secondID, nil
}

func splitSingle(doc *timeline.Document, clipID string, splitMs int64) (firstID, secondID string) {
	clip := doc.ClipByID(clipID)
	elapsed := splitMs - clip.StartTimeMs
	originalEnd := clip.EndTimeMs()

	second := *clip
	second.ID = timeline.NewID()
	second.StartTimeMs = splitMs
	second.DurationMs = originalEnd - splitMs
	second.InPointMs = clip.InPointMs + elapsed
	second.LinkedClipID = ""
	if clip.LocalZoom != nil {
		lz := *clip.LocalZoom
		second.LocalZoom = &lz
	}

	clip.DurationMs = elapsed
	clip.LinkedClipID = ""

	doc.Clips = append(doc.Clips, second)
	return clipID, second.ID
}
