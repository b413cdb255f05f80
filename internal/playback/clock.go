// Package playback owns the authoritative timeline position and keeps the
// per-clip media handles reconciled to it. The clock's logical position is
// authoritative regardless of handle readiness: media I/O is never awaited
// on the tick path.
package playback

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// TickInterval is the internal frame-callback rate.
	TickInterval = 16 * time.Millisecond

	// PublishInterval throttles observer notifications to ~10/s while the
	// true position is still computed every tick for internal use.
	PublishInterval = 100 * time.Millisecond
)

// Observer receives published position updates. Published positions are
// monotonically non-decreasing during a single playback run.
type Observer func(positionMs int64, playing bool)

// Clock is the authoritative playback clock: Stopped <-> Playing, with
// seeks applied instantaneously in either state. Pause halts the clock and
// retains the position.
type Clock struct {
	mu         sync.Mutex
	durationMs int64
	positionMs int64
	playing    bool

	originWall time.Time
	originPos  int64

	lastPublish time.Time
	observers   []Observer
	onTick      func(positionMs int64, playing, transition bool)

	cancel chan struct{}
	logger *slog.Logger
	now    func() time.Time
}

// NewClock creates a stopped clock for a timeline of the given duration.
func NewClock(durationMs int64, logger *slog.Logger) *Clock {
	return &Clock{
		durationMs: durationMs,
		logger:     logger,
		now:        time.Now,
	}
}

// SetDuration updates the timeline duration, clamping the position into the
// new range.
func (c *Clock) SetDuration(durationMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if durationMs < 0 {
		durationMs = 0
	}
	c.durationMs = durationMs
	if c.positionMs > durationMs {
		c.positionMs = durationMs
	}
}

// Subscribe registers an observer for throttled position updates.
func (c *Clock) Subscribe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// SetOnTick registers the full-rate internal callback, invoked every tick
// and on every state transition. Used by the synchronizer.
func (c *Clock) SetOnTick(fn func(positionMs int64, playing, transition bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}

// PositionMs returns the current logical position.
func (c *Clock) PositionMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

// IsPlaying reports whether the clock is running.
func (c *Clock) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Play starts the frame loop from the current position. No-op when already
// playing or when the timeline is empty.
func (c *Clock) Play() {
	c.mu.Lock()
	if c.playing || c.durationMs <= 0 {
		c.mu.Unlock()
		return
	}
	if c.positionMs >= c.durationMs {
		c.positionMs = 0
	}
	c.playing = true
	c.originWall = c.now()
	c.originPos = c.positionMs
	c.cancel = make(chan struct{})
	cancel := c.cancel
	pos := c.positionMs
	c.mu.Unlock()

	c.emit(pos, true, true)

	go c.loop(cancel)
}

// Pause cancels the frame loop synchronously; the position freezes at its
// last computed value. A seek issued immediately after Pause is never
// overwritten by a stale in-flight tick.
func (c *Clock) Pause() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	c.positionMs = c.currentLocked()
	c.playing = false
	close(c.cancel)
	c.cancel = nil
	pos := c.positionMs
	c.mu.Unlock()

	c.emit(pos, false, true)
}

// SeekTo clamps to [0, duration] and applies immediately regardless of play
// state. While playing, the clock origin is re-captured so ticks continue
// from the new position.
func (c *Clock) SeekTo(ms int64) {
	c.mu.Lock()
	if ms < 0 {
		ms = 0
	}
	if ms > c.durationMs {
		ms = c.durationMs
	}
	c.positionMs = ms
	if c.playing {
		c.originWall = c.now()
		c.originPos = ms
	}
	playing := c.playing
	c.mu.Unlock()

	c.emit(ms, playing, true)
}

// Close stops the clock. Safe to call more than once.
func (c *Clock) Close() {
	c.Pause()
}

// currentLocked computes the true high-resolution position. Callers hold mu.
func (c *Clock) currentLocked() int64 {
	if !c.playing {
		return c.positionMs
	}
	pos := c.originPos + c.now().Sub(c.originWall).Milliseconds()
	if pos > c.durationMs {
		pos = c.durationMs
	}
	return pos
}

func (c *Clock) loop(cancel chan struct{}) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if c.tick(cancel) {
				return
			}
		}
	}
}

// tick advances one frame. Returns true when playback overran the duration
// and the clock auto-stopped and rewound to zero.
func (c *Clock) tick(cancel chan struct{}) bool {
	c.mu.Lock()
	if !c.playing || c.cancel != cancel {
		c.mu.Unlock()
		return true
	}
	pos := c.originPos + c.now().Sub(c.originWall).Milliseconds()
	if pos >= c.durationMs {
		// Overrun: publish the final frame, then stop and rewind.
		c.positionMs = c.durationMs
		c.playing = false
		close(c.cancel)
		c.cancel = nil
		end := c.durationMs
		c.mu.Unlock()

		c.emit(end, false, true)

		c.mu.Lock()
		c.positionMs = 0
		c.mu.Unlock()
		c.emit(0, false, true)
		return true
	}

	c.positionMs = pos
	throttled := c.now().Sub(c.lastPublish) < PublishInterval
	c.mu.Unlock()

	if throttled {
		c.emitTick(pos, true, false)
		return false
	}
	c.emit(pos, true, false)
	return false
}

// emit publishes to observers and the tick callback, recording the publish
// time for throttling.
func (c *Clock) emit(pos int64, playing, transition bool) {
	c.mu.Lock()
	c.lastPublish = c.now()
	observers := append([]Observer(nil), c.observers...)
	onTick := c.onTick
	c.mu.Unlock()

	if onTick != nil {
		onTick(pos, playing, transition)
	}
	for _, fn := range observers {
		fn(pos, playing)
	}
}

// emitTick invokes only the internal full-rate callback.
func (c *Clock) emitTick(pos int64, playing, transition bool) {
	c.mu.Lock()
	onTick := c.onTick
	c.mu.Unlock()
	if onTick != nil {
		onTick(pos, playing, transition)
	}
}
