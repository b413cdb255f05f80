package playback

import "github.com/demostudio/demostudio-agent/internal/timeline"

// MediaHandle is one clip's backing playback primitive, implemented by the
// host rendering surface (a video element, an image surface, an audio
// player). Each handle is exclusively owned by its clip's lifecycle; no two
// clips ever share a handle, even for the same source path, so seek and
// play state stay independent.
type MediaHandle interface {
	Play() error
	Pause() error
	Seek(sourceMs int64) error
	PositionMs() (int64, error)
	SetVolume(v float64) error
	SetMuted(muted bool) error
	Close() error
}

// HandleFactory creates a handle for a clip. Creation failures are logged
// by the synchronizer and the clip is treated as temporarily unrenderable,
// never as a fatal error.
type HandleFactory func(clip timeline.Clip) (MediaHandle, error)

// NullHandle is a stateful no-op handle used when no rendering surface is
// attached (headless runs, tests). It models an ideal player that never
// drifts: position advances are driven entirely by Seek.
type NullHandle struct {
	sourceMs int64
	playing  bool
	volume   float64
	muted    bool
}

func NewNullHandle() *NullHandle {
	return &NullHandle{volume: 1.0}
}

func (h *NullHandle) Play() error                { h.playing = true; return nil }
func (h *NullHandle) Pause() error               { h.playing = false; return nil }
func (h *NullHandle) Seek(sourceMs int64) error  { h.sourceMs = sourceMs; return nil }
func (h *NullHandle) PositionMs() (int64, error) { return h.sourceMs, nil }
func (h *NullHandle) SetVolume(v float64) error  { h.volume = v; return nil }
func (h *NullHandle) SetMuted(muted bool) error  { h.muted = muted; return nil }
func (h *NullHandle) Close() error               { h.playing = false; return nil }

// NullHandleFactory backs every clip with a NullHandle.
func NullHandleFactory(clip timeline.Clip) (MediaHandle, error) {
	return NewNullHandle(), nil
}

// handleState tracks one mounted handle and the last source time it was
// forced to.
type handleState struct {
	handle       MediaHandle
	lastSourceMs int64
	playing      bool
	broken       bool
}
