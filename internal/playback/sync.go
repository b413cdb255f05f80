package playback

import (
	"log/slog"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

const (
	// DriftThresholdMs is the divergence beyond which a handle's position
	// is force-set at a sync point. Below it the handle's own clock is
	// trusted.
	DriftThresholdMs int64 = 50

	// SeekThresholdMs is the paused-position delta treated as a user seek.
	SeekThresholdMs int64 = 80
)

// IsUserSeek reports whether a position delta should be treated as a seek
// requiring handle reconciliation. During playback the clock moves
// continuously, so only paused jumps count.
func IsUserSeek(deltaMs int64, isPlaying bool) bool {
	if isPlaying {
		return false
	}
	if deltaMs < 0 {
		deltaMs = -deltaMs
	}
	return deltaMs > SeekThresholdMs
}

// Synchronizer reconciles each clip's media handle to the logical clock.
// Handles are re-seeked only on play/pause transitions and detected seeks;
// during uninterrupted playback only play state, volume, and mute are kept
// in sync, because continuous re-seeking causes visible stutter.
type Synchronizer struct {
	factory HandleFactory
	handles map[string]*handleState
	lastPos int64
	logger  *slog.Logger
}

// NewSynchronizer creates a synchronizer with an empty handle pool.
func NewSynchronizer(factory HandleFactory, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		factory: factory,
		handles: make(map[string]*handleState),
		logger:  logger,
	}
}

// Reconcile brings the handle pool in line with the document at the given
// position. Primary handles (video/image content) are processed in a first
// pass so a preview handle is never blocked behind secondary-handle I/O;
// audio and other handles follow.
//
// transition marks a play/pause edge; forced sync also happens when the
// position jump since the last call looks like a user seek.
func (s *Synchronizer) Reconcile(doc *timeline.Document, positionMs int64, playing, transition bool) {
	if doc == nil {
		return
	}

	syncPoint := transition || IsUserSeek(positionMs-s.lastPos, playing)
	s.lastPos = positionMs

	wanted := make(map[string]bool, len(doc.Clips))
	for i := range doc.Clips {
		wanted[doc.Clips[i].ID] = true
	}

	// Destroy handles for clips removed from the model.
	for id, st := range s.handles {
		if wanted[id] {
			continue
		}
		if err := st.handle.Close(); err != nil {
			s.logger.Warn("failed to close media handle", "clip_id", id, "error", err)
		}
		delete(s.handles, id)
	}

	// Primary pass: video and image clips.
	for i := range doc.Clips {
		clip := &doc.Clips[i]
		if clip.SourceType == timeline.SourceAudio {
			continue
		}
		s.reconcileClip(doc, clip, positionMs, playing, syncPoint)
	}

	// Secondary pass: audio clips.
	for i := range doc.Clips {
		clip := &doc.Clips[i]
		if clip.SourceType != timeline.SourceAudio {
			continue
		}
		s.reconcileClip(doc, clip, positionMs, playing, syncPoint)
	}
}

// HandleCount returns the number of mounted handles.
func (s *Synchronizer) HandleCount() int {
	return len(s.handles)
}

// Close destroys every handle in the pool.
func (s *Synchronizer) Close() {
	for id, st := range s.handles {
		if err := st.handle.Close(); err != nil {
			s.logger.Warn("failed to close media handle", "clip_id", id, "error", err)
		}
		delete(s.handles, id)
	}
}

func (s *Synchronizer) reconcileClip(doc *timeline.Document, clip *timeline.Clip, positionMs int64, playing, syncPoint bool) {
	st := s.handles[clip.ID]
	if st == nil {
		handle, err := s.factory(*clip)
		if err != nil {
			s.logger.Warn("failed to create media handle, clip unrenderable this frame",
				"clip_id", clip.ID, "source", clip.SourcePath, "error", err)
			return
		}
		st = &handleState{handle: handle}
		s.handles[clip.ID] = st
		syncPoint = true
	}
	if st.broken {
		return
	}

	timing := s.effectiveTiming(doc, clip)
	active := timing.Contains(positionMs)
	shouldPlay := playing && active

	// Volume and mute are cheap and kept in sync on every call. A video
	// clip with a linked audio clip plays its sound through that clip, so
	// its own audio is muted to avoid double playback.
	muted := clip.Muted
	if clip.SourceType == timeline.SourceVideo && clip.LinkedClipID != "" {
		muted = true
	}
	if err := st.handle.SetMuted(muted); err != nil {
		s.markBroken(clip.ID, st, err)
		return
	}
	if err := st.handle.SetVolume(clip.Volume); err != nil {
		s.markBroken(clip.ID, st, err)
		return
	}

	if syncPoint {
		expected := clip.InPointMs
		if active {
			expected = clip.InPointMs + (positionMs - timing.StartTimeMs)
		} else if positionMs >= timing.EndTimeMs() {
			expected = clip.InPointMs + timing.DurationMs - 1
		}

		current, err := st.handle.PositionMs()
		if err != nil {
			s.markBroken(clip.ID, st, err)
			return
		}
		drift := current - expected
		if drift < 0 {
			drift = -drift
		}
		if drift > DriftThresholdMs {
			if err := st.handle.Seek(expected); err != nil {
				s.logger.Warn("media handle seek failed", "clip_id", clip.ID, "error", err)
			} else {
				st.lastSourceMs = expected
			}
		}
	}

	if shouldPlay != st.playing {
		var err error
		if shouldPlay {
			err = st.handle.Play()
		} else {
			err = st.handle.Pause()
		}
		if err != nil {
			// Autoplay rejection and decode errors are non-fatal; the
			// logical clock stays authoritative.
			s.logger.Warn("media handle play state change failed", "clip_id", clip.ID, "playing", shouldPlay, "error", err)
			return
		}
		st.playing = shouldPlay
	}
}

// effectiveTiming returns the interval an audio clip is active over. A clip
// linked to a video clip derives its timing from the partner so the pair
// stays in sync even mid-gesture.
func (s *Synchronizer) effectiveTiming(doc *timeline.Document, clip *timeline.Clip) timeline.EffectWindow {
	if clip.SourceType == timeline.SourceAudio && clip.LinkedClipID != "" {
		if partner := doc.ClipByID(clip.LinkedClipID); partner != nil {
			return timeline.EffectWindow{StartTimeMs: partner.StartTimeMs, DurationMs: partner.DurationMs}
		}
	}
	return timeline.EffectWindow{StartTimeMs: clip.StartTimeMs, DurationMs: clip.DurationMs}
}

func (s *Synchronizer) markBroken(clipID string, st *handleState, err error) {
	st.broken = true
	s.logger.Warn("media handle failed, marking clip unrenderable", "clip_id", clipID, "error", err)
}
